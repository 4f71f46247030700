package repository

import (
	"context"
	"time"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// ISubscriptionRepo интерфейс для работы с подписками
type ISubscriptionRepo interface {
	Create(ctx context.Context, q persistence.Querier, sub *domain.Subscription) error
	GetByUserID(ctx context.Context, q persistence.Querier, userID uuid.UUID) (*domain.Subscription, error)
	Update(ctx context.Context, q persistence.Querier, sub *domain.Subscription) error
	// MarkExpired помечает просроченные premium подписки одним UPDATE
	// и возвращает telegram id затронутых пользователей
	MarkExpired(ctx context.Context, q persistence.Querier, now time.Time) ([]int64, error)
	// ExtendPremium массово продлевает premium подписки, возвращает число затронутых
	ExtendPremium(ctx context.Context, q persistence.Querier, telegramIDs []int64, days int) (int64, error)
	// ListExpiring возвращает telegram id пользователей, у которых premium
	// истекает в интервале (now, now+within]
	ListExpiring(ctx context.Context, q persistence.Querier, now time.Time, within time.Duration) ([]int64, error)
}
