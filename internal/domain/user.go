package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	TelegramID           int64      `json:"telegram_id" db:"tg_id"`
	Name                 string     `json:"name" db:"name"`
	Gender               *string    `json:"gender,omitempty" db:"gender"`
	BirthYear            *int       `json:"birth_year,omitempty" db:"birth_year"`
	BirthCity            *string    `json:"birth_city,omitempty" db:"birth_city"`
	BirthDate            *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	BirthTimeSpecified   bool       `json:"birth_time_specified" db:"birth_time_specified"`
	IsProfileComplete    bool       `json:"is_profile_complete" db:"is_profile_complete"`
	NotificationsEnabled bool       `json:"notifications_enabled" db:"notifications_enabled"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
	LastSeenAt           *time.Time `json:"last_seen_at,omitempty" db:"last_seen_at"`
}

// ProfileChanges частичное обновление профиля: ключ - имя поля, значение - новое значение
// Неизвестные поля отклоняются валидацией до открытия транзакции
type ProfileChanges map[string]any

// Validate проверяет, что все поля известны и имеют правильный тип
func (c ProfileChanges) Validate() error {
	if len(c) == 0 {
		return NewValidationError("", "no fields to update")
	}
	for field, value := range c {
		switch field {
		case "name", "gender", "birth_city":
			if _, ok := value.(string); !ok {
				return NewValidationError(field, "expected string")
			}
		case "birth_year":
			if _, ok := value.(int); !ok {
				return NewValidationError(field, "expected int")
			}
		case "birth_date":
			if _, ok := value.(time.Time); !ok {
				return NewValidationError(field, "expected time.Time")
			}
		case "birth_time_specified":
			if _, ok := value.(bool); !ok {
				return NewValidationError(field, "expected bool")
			}
		default:
			return NewValidationError(field, "unknown field")
		}
	}
	return nil
}

// Apply применяет изменения к пользователю. Вызывается только после Validate
func (c ProfileChanges) Apply(u *User) {
	for field, value := range c {
		switch field {
		case "name":
			u.Name = value.(string)
		case "gender":
			v := value.(string)
			u.Gender = &v
		case "birth_year":
			v := value.(int)
			u.BirthYear = &v
		case "birth_city":
			v := value.(string)
			u.BirthCity = &v
		case "birth_date":
			v := value.(time.Time)
			u.BirthDate = &v
		case "birth_time_specified":
			u.BirthTimeSpecified = value.(bool)
		}
	}
	// Профиль считается заполненным, когда известны имя, дата и город рождения
	if u.Name != "" && u.BirthDate != nil && u.BirthCity != nil {
		u.IsProfileComplete = true
	}
}
