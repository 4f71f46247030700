package adminRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/horoscope-bot/internal/ports/repository"
)

// activeWindow окно активности для фильтра "active"
const activeWindow = 7 * 24 * time.Hour

type Repository struct {
	Log *slog.Logger
}

// New создаёт репозиторий админских выборок.
// Все агрегаты считаются в БД, строки таблиц целиком не поднимаются
func New(log *slog.Logger) ports.IAdminRepo {
	return &Repository{Log: log}
}

// filterClause возвращает SQL-условие фильтра и его аргументы,
// нумерация плейсхолдеров начинается с argOffset+1
func filterClause(filter domain.UserFilter, now time.Time) (string, []interface{}) {
	switch filter {
	case domain.FilterPremium:
		return `u.id IN (
			SELECT s.user_id FROM subscriptions s
			WHERE s.tier = 'premium' AND NOT s.revoked
			  AND (s.expires_at IS NULL OR s.expires_at > $1))`, []interface{}{now}
	case domain.FilterFree:
		return `u.id NOT IN (
			SELECT s.user_id FROM subscriptions s
			WHERE s.tier = 'premium' AND NOT s.revoked
			  AND (s.expires_at IS NULL OR s.expires_at > $1))`, []interface{}{now}
	case domain.FilterActive:
		return `u.last_seen_at IS NOT NULL AND u.last_seen_at > $1`,
			[]interface{}{now.Add(-activeWindow)}
	default:
		return `TRUE`, nil
	}
}

// ListUsersPaginated возвращает страницу пользователей и общее число
// под тем же фильтром. Порядок (created_at, id) детерминирован и
// устойчив к конкурентным вставкам
func (r *Repository) ListUsersPaginated(ctx context.Context, q persistence.Querier, page, pageSize int, filter domain.UserFilter) ([]domain.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	where, args := filterClause(filter, time.Now().UTC())

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM users u WHERE %s`, where)
	if err := q.Get(ctx, &total, countQuery, args...); err != nil {
		r.Log.Error("failed to count users", "error", err, "filter", filter)
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limitPos := len(args) + 1
	offsetPos := len(args) + 2
	listQuery := fmt.Sprintf(`SELECT u.* FROM users u
		WHERE %s
		ORDER BY u.created_at, u.id
		LIMIT $%d OFFSET $%d`, where, limitPos, offsetPos)
	listArgs := append(args, pageSize, (page-1)*pageSize)

	var users []domain.User
	if err := q.Select(ctx, &users, listQuery, listArgs...); err != nil {
		r.Log.Error("failed to list users", "error", err, "filter", filter, "page", page)
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// ListUsersForBroadcast возвращает telegram id получателей рассылки.
// Выборка воспроизводима: повторный вызов выполняет тот же запрос заново
func (r *Repository) ListUsersForBroadcast(ctx context.Context, q persistence.Querier, filter domain.BroadcastFilter) ([]int64, error) {
	query := `SELECT u.tg_id FROM users u WHERE TRUE`
	var args []interface{}
	if filter.NotificationsOnly {
		query += ` AND u.notifications_enabled`
	}
	if filter.ActiveWithin > 0 {
		args = append(args, time.Now().UTC().Add(-filter.ActiveWithin))
		query += fmt.Sprintf(` AND u.last_seen_at IS NOT NULL AND u.last_seen_at > $%d`, len(args))
	}
	query += ` ORDER BY u.created_at, u.id`

	var telegramIDs []int64
	if err := q.Select(ctx, &telegramIDs, query, args...); err != nil {
		r.Log.Error("failed to list broadcast recipients", "error", err)
		return nil, fmt.Errorf("failed to list broadcast recipients: %w", err)
	}
	return telegramIDs, nil
}

// AggregateStatistics считает сводку одним запросом с подзапросами
func (r *Repository) AggregateStatistics(ctx context.Context, q persistence.Querier) (*domain.Statistics, error) {
	now := time.Now().UTC()
	var stats domain.Statistics
	query := `SELECT
		(SELECT COUNT(*) FROM users) AS total_users,
		(SELECT COUNT(*) FROM users WHERE created_at >= $1) AS new_users_today,
		(SELECT COUNT(*) FROM users WHERE created_at >= $2) AS new_users_7_days,
		(SELECT COUNT(*) FROM users WHERE created_at >= $3) AS new_users_30_days,
		(SELECT COUNT(*) FROM natal_charts) AS total_charts,
		(SELECT COUNT(*) FROM subscriptions
			WHERE tier = 'premium' AND NOT revoked
			  AND (expires_at IS NULL OR expires_at > $4)) AS active_premium,
		(SELECT COUNT(*) FROM predictions WHERE created_at >= $3) AS predictions_30_days`
	err := q.Get(ctx, &stats, query,
		now.Truncate(24*time.Hour),
		now.Add(-7*24*time.Hour),
		now.Add(-30*24*time.Hour),
		now)
	if err != nil {
		r.Log.Error("failed to aggregate statistics", "error", err)
		return nil, fmt.Errorf("failed to aggregate statistics: %w", err)
	}
	return &stats, nil
}

// UserActivity счётчики одного пользователя для админ-панели
func (r *Repository) UserActivity(ctx context.Context, q persistence.Querier, telegramID int64) (*domain.UserActivity, error) {
	var activity domain.UserActivity
	query := `SELECT
		(SELECT COUNT(*) FROM natal_charts c WHERE c.user_id = u.id) AS charts_count,
		(SELECT COUNT(*) FROM predictions p WHERE p.user_id = u.id) AS predictions_count,
		(SELECT COUNT(*) FROM compatibility_reports r WHERE r.user_id = u.id) AS reports_count,
		u.created_at AS registered_at
	FROM users u WHERE u.tg_id = $1`
	err := q.Get(ctx, &activity, query, telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with tg_id %d: %w", telegramID, domain.ErrNotFound)
		}
		r.Log.Error("failed to get user activity", "error", err, "tg_id", telegramID)
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}
	return &activity, nil
}
