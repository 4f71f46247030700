package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChartPayload - JSON представление рассчитанной карты (позиции планет)
// Для этого слоя непрозрачен: считается внешним астро-API, хранится в БД как JSONB
type ChartPayload []byte

// Типы карт: своя или построенная для другого человека
const (
	ChartTypeOwn   = "own"
	ChartTypeOther = "other"
)

// BirthData данные рождения для расчёта карты
type BirthData struct {
	City               string    `json:"city"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Timezone           string    `json:"timezone"`
	BirthDate          time.Time `json:"birth_date"`
	BirthTimeSpecified bool      `json:"birth_time_specified"`
}

// NatalChart натальная карта. Неизменяема после создания:
// новый расчёт всегда добавляет новую строку
type NatalChart struct {
	ID                 uuid.UUID    `json:"id" db:"id"`
	UserID             uuid.UUID    `json:"user_id" db:"user_id"`
	ChartType          string       `json:"chart_type" db:"chart_type"`
	ChartOwnerName     *string      `json:"chart_owner_name,omitempty" db:"chart_owner_name"`
	City               string       `json:"city" db:"city"`
	Latitude           float64      `json:"latitude" db:"latitude"`
	Longitude          float64      `json:"longitude" db:"longitude"`
	Timezone           string       `json:"timezone" db:"timezone"`
	BirthDate          time.Time    `json:"birth_date" db:"birth_date"`
	BirthTimeSpecified bool         `json:"birth_time_specified" db:"birth_time_specified"`
	HasWarning         bool         `json:"has_warning" db:"has_warning"`
	Planets            ChartPayload `json:"planets" db:"planets"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
}
