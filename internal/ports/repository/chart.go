package repository

import (
	"context"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// IChartRepo интерфейс для работы с натальными картами
type IChartRepo interface {
	Create(ctx context.Context, q persistence.Querier, chart *domain.NatalChart) error
	ListByUser(ctx context.Context, q persistence.Querier, userID uuid.UUID) ([]domain.NatalChart, error)
	// GetByID и Delete ограничены владельцем: чужая карта выглядит как отсутствующая
	GetByID(ctx context.Context, q persistence.Querier, chartID, userID uuid.UUID) (*domain.NatalChart, error)
	Delete(ctx context.Context, q persistence.Querier, chartID, userID uuid.UUID) error
}
