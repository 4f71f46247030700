package service

import (
	"context"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
)

// IEphemeris внешний сервис астрономических расчётов.
// Чистый вызов: выполняется строго вне открытой транзакции
type IEphemeris interface {
	CalculateChart(ctx context.Context, birth domain.BirthData) (domain.ChartPayload, error)
}
