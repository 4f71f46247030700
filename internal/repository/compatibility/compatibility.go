package compatibilityRepo

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
	"github.com/google/uuid"
)

type compatibilityColumns struct {
	TableName        string
	ID               string
	UserID           string
	PairKey          string
	UserName         string
	PartnerName      string
	UserBirthDate    string
	PartnerBirthDate string
	Sphere           string
	ReportText       string
	ValidUntil       string
	CreatedAt        string
}

type Repository struct {
	Log     *slog.Logger
	columns compatibilityColumns
}

// New создаёт новый репозиторий для работы с отчётами о совместимости
func New(log *slog.Logger) ports.ICompatibilityRepo {
	cols := compatibilityColumns{
		TableName:        "compatibility_reports",
		ID:               "id",
		UserID:           "user_id",
		PairKey:          "pair_key",
		UserName:         "user_name",
		PartnerName:      "partner_name",
		UserBirthDate:    "user_birth_date",
		PartnerBirthDate: "partner_birth_date",
		Sphere:           "sphere",
		ReportText:       "report_text",
		ValidUntil:       "valid_until",
		CreatedAt:        "created_at",
	}
	return &Repository{
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (11 колонок)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.UserID,
		r.columns.PairKey,
		r.columns.UserName,
		r.columns.PartnerName,
		r.columns.UserBirthDate,
		r.columns.PartnerBirthDate,
		r.columns.Sphere,
		r.columns.ReportText,
		r.columns.ValidUntil,
		r.columns.CreatedAt)
}

// Create вставляет отчёт. Отчёты не обновляются: новый отчёт той же пары
// вытесняет старый только порядком created_at
func (r *Repository) Create(ctx context.Context, q persistence.Querier, report *domain.CompatibilityReport) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.columns.TableName,
		r.allColumns())
	err := q.Exec(ctx, query,
		report.ID,
		report.UserID,
		report.PairKey,
		report.UserName,
		report.PartnerName,
		report.UserBirthDate,
		report.PartnerBirthDate,
		report.Sphere,
		report.ReportText,
		report.ValidUntil,
		report.CreatedAt)
	if err != nil {
		r.Log.Error("failed to create compatibility report",
			"error", err,
			"user_id", report.UserID,
			"sphere", report.Sphere)
		return fmt.Errorf("failed to create compatibility report: %w", err)
	}
	r.Log.Debug("compatibility report created",
		"user_id", report.UserID,
		"pair_key", report.PairKey,
		"sphere", report.Sphere)
	return nil
}

// FindValid ищет свежайший действующий отчёт пары по сфере.
// Отчёт без valid_until бессрочный
func (r *Repository) FindValid(ctx context.Context, q persistence.Querier, userID uuid.UUID, pairKey, sphere string, asOf time.Time) (*domain.CompatibilityReport, error) {
	var report domain.CompatibilityReport
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = $3
		  AND (%s IS NULL OR %s > $4)
		ORDER BY %s DESC
		LIMIT 1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.PairKey,
		r.columns.Sphere,
		r.columns.ValidUntil,
		r.columns.ValidUntil,
		r.columns.CreatedAt)
	err := q.Get(ctx, &report, query, userID, pairKey, sphere, asOf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("compatibility report for pair %s sphere %s: %w", pairKey, sphere, domain.ErrNotFound)
		}
		r.Log.Error("failed to find compatibility report",
			"error", err,
			"pair_key", pairKey,
			"sphere", sphere)
		return nil, fmt.Errorf("failed to find compatibility report: %w", err)
	}
	return &report, nil
}

// ListByUser возвращает все отчёты пользователя, новые первыми
func (r *Repository) ListByUser(ctx context.Context, q persistence.Querier, userID uuid.UUID) ([]domain.CompatibilityReport, error) {
	var reports []domain.CompatibilityReport
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.CreatedAt)
	if err := q.Select(ctx, &reports, query, userID); err != nil {
		r.Log.Error("failed to list compatibility reports",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list compatibility reports: %w", err)
	}
	return reports, nil
}

// GetByID получает отчёт по id в рамках владельца
func (r *Repository) GetByID(ctx context.Context, q persistence.Querier, reportID, userID uuid.UUID) (*domain.CompatibilityReport, error) {
	var report domain.CompatibilityReport
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID,
		r.columns.UserID)
	err := q.Get(ctx, &report, query, reportID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("compatibility report %s: %w", reportID, domain.ErrNotFound)
		}
		r.Log.Error("failed to get compatibility report",
			"error", err,
			"report_id", reportID)
		return nil, fmt.Errorf("failed to get compatibility report: %w", err)
	}
	return &report, nil
}

// Delete удаляет отчёт в рамках владельца
func (r *Repository) Delete(ctx context.Context, q persistence.Querier, reportID, userID uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		r.columns.TableName,
		r.columns.ID,
		r.columns.UserID)
	rowsAffected, err := q.ExecWithResult(ctx, query, reportID, userID)
	if err != nil {
		r.Log.Error("failed to delete compatibility report",
			"error", err,
			"report_id", reportID)
		return fmt.Errorf("failed to delete compatibility report: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("compatibility report %s: %w", reportID, domain.ErrNotFound)
	}
	r.Log.Debug("compatibility report deleted", "report_id", reportID)
	return nil
}

// DeleteOlderThan удаляет отчёты старше cutoff, возвращает число удалённых
func (r *Repository) DeleteOlderThan(ctx context.Context, q persistence.Querier, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s < $1`,
		r.columns.TableName,
		r.columns.CreatedAt)
	rowsAffected, err := q.ExecWithResult(ctx, query, cutoff)
	if err != nil {
		r.Log.Error("failed to delete old compatibility reports", "error", err)
		return 0, fmt.Errorf("failed to delete old compatibility reports: %w", err)
	}
	if rowsAffected > 0 {
		r.Log.Info("old compatibility reports deleted", "count", rowsAffected)
	}
	return rowsAffected, nil
}
