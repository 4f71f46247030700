package service

import (
	"context"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
)

// IOracle внешний AI-провайдер, генерирующий тексты прогнозов.
// Вызовы долгие: выполняются строго вне открытой транзакции,
// чтобы не держать соединение из пула на время генерации
type IOracle interface {
	GeneratePrediction(ctx context.Context, chart domain.ChartPayload, category string) (string, error)
	GenerateCompatibility(ctx context.Context, chartA, chartB domain.ChartPayload, sphere string) (string, error)
}
