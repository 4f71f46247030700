package chartRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"log/slog"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/horoscope-bot/internal/ports/repository"
	"github.com/google/uuid"
)

type chartColumns struct {
	TableName          string
	ID                 string
	UserID             string
	ChartType          string
	ChartOwnerName     string
	City               string
	Latitude           string
	Longitude          string
	Timezone           string
	BirthDate          string
	BirthTimeSpecified string
	HasWarning         string
	Planets            string
	CreatedAt          string
}

type Repository struct {
	Log     *slog.Logger
	columns chartColumns
}

// New создаёт новый репозиторий для работы с натальными картами
func New(log *slog.Logger) ports.IChartRepo {
	cols := chartColumns{
		TableName:          "natal_charts",
		ID:                 "id",
		UserID:             "user_id",
		ChartType:          "chart_type",
		ChartOwnerName:     "chart_owner_name",
		City:               "city",
		Latitude:           "latitude",
		Longitude:          "longitude",
		Timezone:           "timezone",
		BirthDate:          "birth_date",
		BirthTimeSpecified: "birth_time_specified",
		HasWarning:         "has_warning",
		Planets:            "planets",
		CreatedAt:          "created_at",
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
		r.columns.UserID,
		r.columns.ChartType,
		r.columns.ChartOwnerName,
		r.columns.City,
		r.columns.Latitude,
		r.columns.Longitude,
		r.columns.Timezone,
		r.columns.BirthDate,
		r.columns.BirthTimeSpecified,
		r.columns.HasWarning,
		r.columns.Planets,
		r.columns.CreatedAt)
}

// Create вставляет натальную карту. Карты неизменяемы:
// UPDATE для этой таблицы не существует
func (r *Repository) Create(ctx context.Context, q persistence.Querier, chart *domain.NatalChart) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.columns.TableName,
		r.allColumns())
	err := q.Exec(ctx, query,
		chart.ID,
		chart.UserID,
		chart.ChartType,
		chart.ChartOwnerName,
		chart.City,
		chart.Latitude,
		chart.Longitude,
		chart.Timezone,
		chart.BirthDate,
		chart.BirthTimeSpecified,
		chart.HasWarning,
		chart.Planets,
		chart.CreatedAt)
	if err != nil {
		r.Log.Error("failed to create natal chart",
			"error", err,
			"user_id", chart.UserID,
			"chart_id", chart.ID)
		return fmt.Errorf("failed to create natal chart: %w", err)
	}
	r.Log.Debug("natal chart created", "chart_id", chart.ID, "user_id", chart.UserID)
	return nil
}

// ListByUser возвращает карты пользователя, новые первыми
func (r *Repository) ListByUser(ctx context.Context, q persistence.Querier, userID uuid.UUID) ([]domain.NatalChart, error) {
	var charts []domain.NatalChart
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.CreatedAt)
	if err := q.Select(ctx, &charts, query, userID); err != nil {
		r.Log.Error("failed to list natal charts",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list natal charts: %w", err)
	}
	return charts, nil
}

// GetByID получает карту по ID, ограничено владельцем
func (r *Repository) GetByID(ctx context.Context, q persistence.Querier, chartID, userID uuid.UUID) (*domain.NatalChart, error) {
	var chart domain.NatalChart
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID,
		r.columns.UserID)
	err := q.Get(ctx, &chart, query, chartID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("natal chart %s: %w", chartID, domain.ErrNotFound)
		}
		r.Log.Error("failed to get natal chart",
			"error", err,
			"chart_id", chartID)
		return nil, fmt.Errorf("failed to get natal chart: %w", err)
	}
	return &chart, nil
}

// Delete удаляет карту, ограничено владельцем
func (r *Repository) Delete(ctx context.Context, q persistence.Querier, chartID, userID uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		r.columns.TableName,
		r.columns.ID,
		r.columns.UserID)
	rowsAffected, err := q.ExecWithResult(ctx, query, chartID, userID)
	if err != nil {
		r.Log.Error("failed to delete natal chart",
			"error", err,
			"chart_id", chartID)
		return fmt.Errorf("failed to delete natal chart: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("natal chart %s: %w", chartID, domain.ErrNotFound)
	}
	r.Log.Debug("natal chart deleted", "chart_id", chartID, "user_id", userID)
	return nil
}
