package userRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	ports "github.com/admin/tg-bots/horoscope-bot/internal/ports/repository"

	"github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/storage/pg"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

type userColumns struct {
	TableName            string
	ID                   string
	TelegramID           string
	Name                 string
	Gender               string
	BirthYear            string
	BirthCity            string
	BirthDate            string
	BirthTimeSpecified   string
	IsProfileComplete    string
	NotificationsEnabled string
	CreatedAt            string
	UpdatedAt            string
	LastSeenAt           string
}

type Repository struct {
	Log     *slog.Logger
	columns userColumns
}

// New создаёт новый репозиторий для работы с пользователями
func New(log *slog.Logger) ports.IUserRepo {
	cols := userColumns{
		TableName:            "users",
		ID:                   "id",
		TelegramID:           "tg_id",
		Name:                 "name",
		Gender:               "gender",
		BirthYear:            "birth_year",
		BirthCity:            "birth_city",
		BirthDate:            "birth_date",
		BirthTimeSpecified:   "birth_time_specified",
		IsProfileComplete:    "is_profile_complete",
		NotificationsEnabled: "notifications_enabled",
		CreatedAt:            "created_at",
		UpdatedAt:            "updated_at",
		LastSeenAt:           "last_seen_at",
	}
	return &Repository{
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (13 колонок)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.TelegramID,
		r.columns.Name,
		r.columns.Gender,
		r.columns.BirthYear,
		r.columns.BirthCity,
		r.columns.BirthDate,
		r.columns.BirthTimeSpecified,
		r.columns.IsProfileComplete,
		r.columns.NotificationsEnabled,
		r.columns.CreatedAt,
		r.columns.UpdatedAt,
		r.columns.LastSeenAt)
}

// Create создаёт нового пользователя
func (r *Repository) Create(ctx context.Context, q persistence.Querier, user *domain.User) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.columns.TableName,
		r.allColumns())
	err := q.Exec(ctx, query,
		user.ID,
		user.TelegramID,
		user.Name,
		user.Gender,
		user.BirthYear,
		user.BirthCity,
		user.BirthDate,
		user.BirthTimeSpecified,
		user.IsProfileComplete,
		user.NotificationsEnabled,
		user.CreatedAt,
		user.UpdatedAt,
		user.LastSeenAt)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return fmt.Errorf("user with tg_id %d already exists: %w", user.TelegramID, domain.ErrConflict)
		}
		r.Log.Error("failed to create user",
			"error", err,
			"telegram_id", user.TelegramID,
			"user_id", user.ID)
		return fmt.Errorf("failed to create user: %w", err)
	}
	r.Log.Debug("user created successfully",
		"id", user.ID,
		"telegram_id", user.TelegramID)
	return nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *Repository) GetByTelegramID(ctx context.Context, q persistence.Querier, telegramID int64) (*domain.User, error) {
	var user domain.User
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.TelegramID)
	err := q.Get(ctx, &user, query, telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", telegramID, domain.ErrNotFound)
		}
		r.Log.Error("failed to get user by telegram id",
			"error", err,
			"telegram_id", telegramID)
		return nil, fmt.Errorf("failed to get user by telegram id: %w", err)
	}
	return &user, nil
}

// GetByID получает пользователя по внутреннему ID
func (r *Repository) GetByID(ctx context.Context, q persistence.Querier, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)
	err := q.Get(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		r.Log.Error("failed to get user by id",
			"error", err,
			"user_id", id)
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Update обновляет пользователя целиком
func (r *Repository) Update(ctx context.Context, q persistence.Querier, user *domain.User) error {
	query := fmt.Sprintf(`UPDATE %s SET
		%s = $2, %s = $3, %s = $4, %s = $5, %s = $6,
		%s = $7, %s = $8, %s = $9, %s = $10, %s = $11
		WHERE %s = $1`,
		r.columns.TableName,
		r.columns.Name,
		r.columns.Gender,
		r.columns.BirthYear,
		r.columns.BirthCity,
		r.columns.BirthDate,
		r.columns.BirthTimeSpecified,
		r.columns.IsProfileComplete,
		r.columns.NotificationsEnabled,
		r.columns.UpdatedAt,
		r.columns.LastSeenAt,
		r.columns.ID)
	rowsAffected, err := q.ExecWithResult(ctx, query,
		user.ID,
		user.Name,
		user.Gender,
		user.BirthYear,
		user.BirthCity,
		user.BirthDate,
		user.BirthTimeSpecified,
		user.IsProfileComplete,
		user.NotificationsEnabled,
		user.UpdatedAt,
		user.LastSeenAt)
	if err != nil {
		r.Log.Error("failed to update user",
			"error", err,
			"user_id", user.ID)
		return fmt.Errorf("failed to update user: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	r.Log.Debug("user updated successfully", "user_id", user.ID)
	return nil
}

// UpdateLastSeen обновляет время последней активности пользователя
func (r *Repository) UpdateLastSeen(ctx context.Context, q persistence.Querier, userID uuid.UUID) error {
	now := time.Now()
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2 WHERE %s = $3`,
		r.columns.TableName,
		r.columns.LastSeenAt,
		r.columns.UpdatedAt,
		r.columns.ID)
	rowsAffected, err := q.ExecWithResult(ctx, query, now, now, userID)
	if err != nil {
		r.Log.Error("failed to update last seen",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// SetNotifications включает или выключает уведомления для пользователя
func (r *Repository) SetNotifications(ctx context.Context, q persistence.Querier, telegramID int64, enabled bool) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2 WHERE %s = $3`,
		r.columns.TableName,
		r.columns.NotificationsEnabled,
		r.columns.UpdatedAt,
		r.columns.TelegramID)
	rowsAffected, err := q.ExecWithResult(ctx, query, enabled, time.Now(), telegramID)
	if err != nil {
		r.Log.Error("failed to set notifications",
			"error", err,
			"telegram_id", telegramID)
		return fmt.Errorf("failed to set notifications: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %d: %w", telegramID, domain.ErrNotFound)
	}
	r.Log.Debug("notifications updated", "telegram_id", telegramID, "enabled", enabled)
	return nil
}

// Delete удаляет пользователя. Дочерние строки (карты, прогнозы, подписка,
// отчёты) каскадируются по внешним ключам
func (r *Repository) Delete(ctx context.Context, q persistence.Querier, userID uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		r.columns.TableName,
		r.columns.ID)
	rowsAffected, err := q.ExecWithResult(ctx, query, userID)
	if err != nil {
		r.Log.Error("failed to delete user",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	r.Log.Info("user deleted", "user_id", userID)
	return nil
}
