package ai

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/service"
	"github.com/sashabaranov/go-openai"
)

const maxRetries = 3

var categoryPrompts = map[string]string{
	domain.PredictionToday:   "Составь гороскоп на сегодня по этой натальной карте.",
	domain.PredictionWeek:    "Составь гороскоп на ближайшую неделю по этой натальной карте.",
	domain.PredictionMonth:   "Составь гороскоп на ближайший месяц по этой натальной карте.",
	domain.PredictionQuarter: "Составь гороскоп на ближайшие три месяца по этой натальной карте.",
}

var spherePrompts = map[string]string{
	domain.SphereLove:       "Составь отчёт о романтической совместимости по этим двум натальным картам.",
	domain.SphereCareer:     "Составь отчёт о деловой совместимости по этим двум натальным картам.",
	domain.SphereFriendship: "Составь отчёт о дружеской совместимости по этим двум натальным картам.",
}

// Client AI-провайдер, генерирующий тексты прогнозов и отчётов
type Client struct {
	client *openai.Client
	cfg    *Config
	Log    *slog.Logger
}

// NewClient создаёт клиента AI-провайдера
func NewClient(cfg *Config, log *slog.Logger) service.IOracle {
	return &Client{
		client: openai.NewClient(cfg.ApiKey),
		cfg:    cfg,
		Log:    log,
	}
}

// GeneratePrediction генерирует текст прогноза по натальной карте
func (c *Client) GeneratePrediction(ctx context.Context, chart domain.ChartPayload, category string) (string, error) {
	prompt, ok := categoryPrompts[category]
	if !ok {
		return "", fmt.Errorf("unknown prediction category %q", category)
	}
	return c.complete(ctx, prompt, fmt.Sprintf("Натальная карта:\n%s", chart))
}

// GenerateCompatibility генерирует отчёт о совместимости двух карт
func (c *Client) GenerateCompatibility(ctx context.Context, chartA, chartB domain.ChartPayload, sphere string) (string, error) {
	prompt, ok := spherePrompts[sphere]
	if !ok {
		return "", fmt.Errorf("unknown compatibility sphere %q", sphere)
	}
	return c.complete(ctx, prompt,
		fmt.Sprintf("Первая натальная карта:\n%s\n\nВторая натальная карта:\n%s", chartA, chartB))
}

// complete выполняет chat completion с ограниченными повторами.
// Каждая попытка живёт в собственном таймауте, итоговый отказ
// оборачивается в domain.ErrExternalService
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSeconds)*time.Second)
		resp, err := c.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model: c.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "Ты профессиональный астролог. Отвечай тепло и конкретно, без общих фраз.",
				},
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userPrompt,
				},
			},
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: 0.7,
		})
		cancel()

		if err != nil {
			lastErr = err
			c.Log.Debug("completion attempt failed",
				"error", err,
				"attempt", attempt+1)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = fmt.Errorf("empty completion response")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("completion failed after %d attempts: %v: %w",
		maxRetries, lastErr, domain.ErrExternalService)
}
