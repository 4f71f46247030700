package repository

import (
	"context"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// IUserRepo интерфейс для работы с пользователями.
// Каждый метод принимает Querier явно: вызывающий решает, выполняется
// операция на пуле или внутри открытой транзакции
type IUserRepo interface {
	Create(ctx context.Context, q persistence.Querier, user *domain.User) error
	GetByTelegramID(ctx context.Context, q persistence.Querier, telegramID int64) (*domain.User, error)
	GetByID(ctx context.Context, q persistence.Querier, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, q persistence.Querier, user *domain.User) error
	UpdateLastSeen(ctx context.Context, q persistence.Querier, userID uuid.UUID) error
	SetNotifications(ctx context.Context, q persistence.Querier, telegramID int64, enabled bool) error
	Delete(ctx context.Context, q persistence.Querier, userID uuid.UUID) error
}
