package ephemeris

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/service"
)

const natalChartEndpoint = "charts/natal"

// truncateString обрезает строку до указанной длины
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Client клиент внешнего астро-API
type Client struct {
	cfg        *Config
	HTTPClient *http.Client
	Log        *slog.Logger
}

// NewClient создаёт новый клиент для работы с астро-API
func NewClient(cfg *Config, log *slog.Logger) service.IEphemeris {
	transport := &http.Transport{}

	if cfg.ShouldSkipSSL() {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &Client{
		cfg: cfg,
		HTTPClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		Log: log,
	}
}

// buildURL собирает полный URL из BaseURL, ApiVersion и endpoint
func (c *Client) buildURL(endpoint string) string {
	baseURL := strings.TrimSuffix(c.cfg.BaseURL, "/")
	return baseURL + "/" + path.Join(c.cfg.ApiVersion, endpoint)
}

// setHeaders устанавливает стандартные заголовки для запросов к API
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.ApiKey)
	}
}

// CalculateChart рассчитывает позиции планет для данных рождения.
// Любой отказ API оборачивается в domain.ErrExternalService
func (c *Client) CalculateChart(ctx context.Context, birth domain.BirthData) (domain.ChartPayload, error) {
	reqBody := natalChartRequest{
		BirthDate:          birth.BirthDate,
		BirthTimeSpecified: birth.BirthTimeSpecified,
		City:               birth.City,
		Latitude:           birth.Latitude,
		Longitude:          birth.Longitude,
		Timezone:           birth.Timezone,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chart request: %w", err)
	}

	url := c.buildURL(natalChartEndpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build chart request: %w", err)
	}

	c.setHeaders(httpReq)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		c.Log.Debug("astro API request failed", "error", err, "url", url)
		return nil, fmt.Errorf("astro API request failed: %v: %w", err, domain.ErrExternalService)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("astro API read failed: %v: %w", err, domain.ErrExternalService)
	}

	if resp.StatusCode != http.StatusOK {
		c.Log.Debug("astro API returned non-200 status",
			"status_code", resp.StatusCode,
			"body_preview", truncateString(string(body), 200),
		)
		return nil, fmt.Errorf("astro API error [status=%d]: %s: %w",
			resp.StatusCode, truncateString(string(body), 500), domain.ErrExternalService)
	}

	if !json.Valid(body) {
		c.Log.Debug("astro API returned invalid JSON",
			"body_preview", truncateString(string(body), 200),
		)
		return nil, fmt.Errorf("astro API returned invalid JSON: %w", domain.ErrExternalService)
	}

	return domain.ChartPayload(body), nil
}
