package repository

import (
	"context"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
)

// IAdminRepo админские выборки: пагинация, рассылки, агрегация.
// Все счётчики считаются в БД - полные таблицы в память не поднимаются
type IAdminRepo interface {
	// ListUsersPaginated детерминированный порядок (created_at, id),
	// устойчивый к конкурентным вставкам
	ListUsersPaginated(ctx context.Context, q persistence.Querier, page, pageSize int, filter domain.UserFilter) ([]domain.User, int64, error)
	ListUsersForBroadcast(ctx context.Context, q persistence.Querier, filter domain.BroadcastFilter) ([]int64, error)
	AggregateStatistics(ctx context.Context, q persistence.Querier) (*domain.Statistics, error)
	UserActivity(ctx context.Context, q persistence.Querier, telegramID int64) (*domain.UserActivity, error)
}
