package repository

import (
	"context"
	"time"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// ICompatibilityRepo интерфейс для работы с отчётами о совместимости
type ICompatibilityRepo interface {
	Create(ctx context.Context, q persistence.Querier, report *domain.CompatibilityReport) error
	// FindValid ищет действующий отчёт по нормализованному ключу пары и сфере
	FindValid(ctx context.Context, q persistence.Querier, userID uuid.UUID, pairKey, sphere string, asOf time.Time) (*domain.CompatibilityReport, error)
	ListByUser(ctx context.Context, q persistence.Querier, userID uuid.UUID) ([]domain.CompatibilityReport, error)
	GetByID(ctx context.Context, q persistence.Querier, reportID, userID uuid.UUID) (*domain.CompatibilityReport, error)
	Delete(ctx context.Context, q persistence.Querier, reportID, userID uuid.UUID) error
	DeleteOlderThan(ctx context.Context, q persistence.Querier, cutoff time.Time) (int64, error)
}
