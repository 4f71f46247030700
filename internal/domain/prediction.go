package domain

import (
	"time"

	"github.com/google/uuid"
)

// Категории прогнозов
const (
	PredictionToday   = "today"
	PredictionWeek    = "week"
	PredictionMonth   = "month"
	PredictionQuarter = "quarter"
)

// IsKnownPredictionCategory проверяет, что категория прогноза поддерживается
func IsKnownPredictionCategory(category string) bool {
	switch category {
	case PredictionToday, PredictionWeek, PredictionMonth, PredictionQuarter:
		return true
	}
	return false
}

// Prediction кэшированный текст прогноза с окном действия [valid_from, valid_until)
// Строки не обновляются и не вытесняются: история хранится, актуальность
// определяется только окном действия
type Prediction struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	NatalChartID   uuid.UUID `json:"natal_chart_id" db:"natal_chart_id"`
	Category       string    `json:"category" db:"category"`
	ValidFrom      time.Time `json:"valid_from" db:"valid_from"`
	ValidUntil     time.Time `json:"valid_until" db:"valid_until"`
	Content        string    `json:"content" db:"content"`
	GenerationTime *float64  `json:"generation_time,omitempty" db:"generation_time"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ValidAt сообщает, действует ли прогноз в момент t.
// Окно полуоткрытое: valid_from <= t < valid_until
func (p *Prediction) ValidAt(t time.Time) bool {
	return !t.Before(p.ValidFrom) && t.Before(p.ValidUntil)
}
