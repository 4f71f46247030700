package predictionRepo

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

type predictionColumns struct {
	TableName      string
	ID             string
	UserID         string
	NatalChartID   string
	Category       string
	ValidFrom      string
	ValidUntil     string
	Content        string
	GenerationTime string
	CreatedAt      string
}

type Repository struct {
	Log     *slog.Logger
	columns predictionColumns
}

// New создаёт новый репозиторий для работы с прогнозами
func New(log *slog.Logger) ports.IPredictionRepo {
	cols := predictionColumns{
		TableName:      "predictions",
		ID:             "id",
		UserID:         "user_id",
		NatalChartID:   "natal_chart_id",
		Category:       "category",
		ValidFrom:      "valid_from",
		ValidUntil:     "valid_until",
		Content:        "content",
		GenerationTime: "generation_time",
		CreatedAt:      "created_at",
	}
	return &Repository{
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (9 колонок)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.UserID,
		r.columns.NatalChartID,
		r.columns.Category,
		r.columns.ValidFrom,
		r.columns.ValidUntil,
		r.columns.Content,
		r.columns.GenerationTime,
		r.columns.CreatedAt)
}

// Create вставляет прогноз. Старые строки по тому же ключу не трогаются:
// история хранится, актуальность определяет только окно действия
func (r *Repository) Create(ctx context.Context, q persistence.Querier, prediction *domain.Prediction) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.columns.TableName,
		r.allColumns())
	err := q.Exec(ctx, query,
		prediction.ID,
		prediction.UserID,
		prediction.NatalChartID,
		prediction.Category,
		prediction.ValidFrom,
		prediction.ValidUntil,
		prediction.Content,
		prediction.GenerationTime,
		prediction.CreatedAt)
	if err != nil {
		r.Log.Error("failed to create prediction",
			"error", err,
			"user_id", prediction.UserID,
			"category", prediction.Category)
		return fmt.Errorf("failed to create prediction: %w", err)
	}
	r.Log.Debug("prediction created",
		"prediction_id", prediction.ID,
		"category", prediction.Category,
		"valid_until", prediction.ValidUntil)
	return nil
}

// FindValid возвращает самый свежий прогноз, окно [valid_from, valid_until)
// которого содержит asOf. При пересекающихся окнах побеждает последний
// по created_at
func (r *Repository) FindValid(ctx context.Context, q persistence.Querier, userID uuid.UUID, category string, asOf time.Time) (*domain.Prediction, error) {
	var prediction domain.Prediction
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE %s = $1 AND %s = $2 AND %s <= $3 AND %s > $3
		ORDER BY %s DESC
		LIMIT 1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.Category,
		r.columns.ValidFrom,
		r.columns.ValidUntil,
		r.columns.CreatedAt)
	err := q.Get(ctx, &prediction, query, userID, category, asOf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("valid prediction for %s/%s: %w", userID, category, domain.ErrNotFound)
		}
		r.Log.Error("failed to find valid prediction",
			"error", err,
			"user_id", userID,
			"category", category)
		return nil, fmt.Errorf("failed to find valid prediction: %w", err)
	}
	return &prediction, nil
}

// ListByUser возвращает историю прогнозов, новые первыми.
// Пустая категория - без фильтра
func (r *Repository) ListByUser(ctx context.Context, q persistence.Querier, userID uuid.UUID, category string) ([]domain.Prediction, error) {
	var predictions []domain.Prediction
	var err error
	if category == "" {
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC`,
			r.allColumns(),
			r.columns.TableName,
			r.columns.UserID,
			r.columns.CreatedAt)
		err = q.Select(ctx, &predictions, query, userID)
	} else {
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s DESC`,
			r.allColumns(),
			r.columns.TableName,
			r.columns.UserID,
			r.columns.Category,
			r.columns.CreatedAt)
		err = q.Select(ctx, &predictions, query, userID, category)
	}
	if err != nil {
		r.Log.Error("failed to list predictions",
			"error", err,
			"user_id", userID,
			"category", category)
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return predictions, nil
}

// DeleteOlderThan удаляет прогнозы, созданные до cutoff, возвращает число удалённых
func (r *Repository) DeleteOlderThan(ctx context.Context, q persistence.Querier, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s < $1`,
		r.columns.TableName,
		r.columns.CreatedAt)
	rowsAffected, err := q.ExecWithResult(ctx, query, cutoff)
	if err != nil {
		r.Log.Error("failed to delete old predictions", "error", err)
		return 0, fmt.Errorf("failed to delete old predictions: %w", err)
	}
	return rowsAffected, nil
}
