package subscriptionRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/storage/pg"
	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/horoscope-bot/internal/ports/repository"
	"github.com/google/uuid"
)

type subscriptionColumns struct {
	TableName       string
	ID              string
	UserID          string
	Tier            string
	ActivatedAt     string
	ExpiresAt       string
	Revoked         string
	ExpiredAt       string
	PaymentID       string
	PaymentAmount   string
	PaymentCurrency string
	CreatedAt       string
	UpdatedAt       string
}

type Repository struct {
	Log     *slog.Logger
	columns subscriptionColumns
}

// New создаёт новый репозиторий для работы с подписками
func New(log *slog.Logger) ports.ISubscriptionRepo {
	cols := subscriptionColumns{
		TableName:       "subscriptions",
		ID:              "id",
		UserID:          "user_id",
		Tier:            "tier",
		ActivatedAt:     "activated_at",
		ExpiresAt:       "expires_at",
		Revoked:         "revoked",
		ExpiredAt:       "expired_at",
		PaymentID:       "payment_id",
		PaymentAmount:   "payment_amount",
		PaymentCurrency: "payment_currency",
		CreatedAt:       "created_at",
		UpdatedAt:       "updated_at",
	}
	return &Repository{
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (12 колонок)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.UserID,
		r.columns.Tier,
		r.columns.ActivatedAt,
		r.columns.ExpiresAt,
		r.columns.Revoked,
		r.columns.ExpiredAt,
		r.columns.PaymentID,
		r.columns.PaymentAmount,
		r.columns.PaymentCurrency,
		r.columns.CreatedAt,
		r.columns.UpdatedAt)
}

// Create вставляет подписку. Одна строка на пользователя:
// уникальный индекс по user_id ловит гонку ленивого создания
func (r *Repository) Create(ctx context.Context, q persistence.Querier, sub *domain.Subscription) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.columns.TableName,
		r.allColumns())
	err := q.Exec(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Tier,
		sub.ActivatedAt,
		sub.ExpiresAt,
		sub.Revoked,
		sub.ExpiredAt,
		sub.PaymentID,
		sub.PaymentAmount,
		sub.PaymentCurrency,
		sub.CreatedAt,
		sub.UpdatedAt)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return fmt.Errorf("subscription for user %s already exists: %w", sub.UserID, domain.ErrConflict)
		}
		r.Log.Error("failed to create subscription",
			"error", err,
			"user_id", sub.UserID)
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	r.Log.Debug("subscription created", "user_id", sub.UserID, "tier", sub.Tier)
	return nil
}

// GetByUserID получает подписку пользователя
func (r *Repository) GetByUserID(ctx context.Context, q persistence.Querier, userID uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID)
	err := q.Get(ctx, &sub, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subscription for user %s: %w", userID, domain.ErrNotFound)
		}
		r.Log.Error("failed to get subscription",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// Update обновляет состояние подписки (tier, отзыв, даты, платёж)
func (r *Repository) Update(ctx context.Context, q persistence.Querier, sub *domain.Subscription) error {
	query := fmt.Sprintf(`UPDATE %s SET
		%s = $2, %s = $3, %s = $4, %s = $5, %s = $6,
		%s = $7, %s = $8, %s = $9, %s = $10
		WHERE %s = $1`,
		r.columns.TableName,
		r.columns.Tier,
		r.columns.ActivatedAt,
		r.columns.ExpiresAt,
		r.columns.Revoked,
		r.columns.ExpiredAt,
		r.columns.PaymentID,
		r.columns.PaymentAmount,
		r.columns.PaymentCurrency,
		r.columns.UpdatedAt,
		r.columns.ID)
	rowsAffected, err := q.ExecWithResult(ctx, query,
		sub.ID,
		sub.Tier,
		sub.ActivatedAt,
		sub.ExpiresAt,
		sub.Revoked,
		sub.ExpiredAt,
		sub.PaymentID,
		sub.PaymentAmount,
		sub.PaymentCurrency,
		sub.UpdatedAt)
	if err != nil {
		r.Log.Error("failed to update subscription",
			"error", err,
			"subscription_id", sub.ID)
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("subscription %s: %w", sub.ID, domain.ErrNotFound)
	}
	r.Log.Debug("subscription updated", "subscription_id", sub.ID, "tier", sub.Tier)
	return nil
}

// MarkExpired помечает просроченные premium подписки одним UPDATE
// и возвращает telegram id затронутых пользователей
func (r *Repository) MarkExpired(ctx context.Context, q persistence.Querier, now time.Time) ([]int64, error) {
	query := fmt.Sprintf(`UPDATE %s s SET %s = $1
		FROM users u
		WHERE u.id = s.%s
		  AND s.%s = $2
		  AND NOT s.%s
		  AND s.%s IS NULL
		  AND s.%s IS NOT NULL AND s.%s <= $1
		RETURNING u.tg_id`,
		r.columns.TableName,
		r.columns.ExpiredAt,
		r.columns.UserID,
		r.columns.Tier,
		r.columns.Revoked,
		r.columns.ExpiredAt,
		r.columns.ExpiresAt,
		r.columns.ExpiresAt)

	var telegramIDs []int64
	if err := q.Select(ctx, &telegramIDs, query, now, domain.TierPremium); err != nil {
		r.Log.Error("failed to mark expired subscriptions", "error", err)
		return nil, fmt.Errorf("failed to mark expired subscriptions: %w", err)
	}
	if len(telegramIDs) > 0 {
		r.Log.Info("subscriptions expired", "count", len(telegramIDs))
	}
	return telegramIDs, nil
}

// ExtendPremium массово продлевает premium подписки на days дней.
// Бессрочные получают срок от now
func (r *Repository) ExtendPremium(ctx context.Context, q persistence.Querier, telegramIDs []int64, days int) (int64, error) {
	if len(telegramIDs) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`UPDATE %s s SET
		%s = COALESCE(s.%s, NOW()) + make_interval(days => $1),
		%s = NOW()
		FROM users u
		WHERE u.id = s.%s AND s.%s = $2 AND u.tg_id = ANY($3)`,
		r.columns.TableName,
		r.columns.ExpiresAt,
		r.columns.ExpiresAt,
		r.columns.UpdatedAt,
		r.columns.UserID,
		r.columns.Tier)
	rowsAffected, err := q.ExecWithResult(ctx, query, days, domain.TierPremium, telegramIDs)
	if err != nil {
		r.Log.Error("failed to extend premium subscriptions", "error", err)
		return 0, fmt.Errorf("failed to extend premium subscriptions: %w", err)
	}
	r.Log.Info("premium subscriptions extended", "count", rowsAffected, "days", days)
	return rowsAffected, nil
}

// ListExpiring возвращает telegram id пользователей с premium,
// истекающим в интервале (now, now+within]
func (r *Repository) ListExpiring(ctx context.Context, q persistence.Querier, now time.Time, within time.Duration) ([]int64, error) {
	var telegramIDs []int64
	query := fmt.Sprintf(`SELECT u.tg_id FROM %s s
		JOIN users u ON u.id = s.%s
		WHERE s.%s = $1 AND NOT s.%s
		  AND s.%s > $2 AND s.%s <= $3
		ORDER BY s.%s`,
		r.columns.TableName,
		r.columns.UserID,
		r.columns.Tier,
		r.columns.Revoked,
		r.columns.ExpiresAt,
		r.columns.ExpiresAt,
		r.columns.ExpiresAt)
	if err := q.Select(ctx, &telegramIDs, query, domain.TierPremium, now, now.Add(within)); err != nil {
		r.Log.Error("failed to list expiring subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list expiring subscriptions: %w", err)
	}
	return telegramIDs, nil
}
