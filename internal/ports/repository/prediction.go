package repository

import (
	"context"
	"time"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// IPredictionRepo интерфейс для работы с прогнозами
type IPredictionRepo interface {
	Create(ctx context.Context, q persistence.Querier, prediction *domain.Prediction) error
	// FindValid возвращает самый свежий прогноз, окно которого содержит asOf.
	// Пересекающиеся окна разрешаются по created_at
	FindValid(ctx context.Context, q persistence.Querier, userID uuid.UUID, category string, asOf time.Time) (*domain.Prediction, error)
	ListByUser(ctx context.Context, q persistence.Querier, userID uuid.UUID, category string) ([]domain.Prediction, error)
	DeleteOlderThan(ctx context.Context, q persistence.Querier, cutoff time.Time) (int64, error)
}
