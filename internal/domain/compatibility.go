package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Сферы отчётов о совместимости
const (
	SphereLove       = "love"
	SphereCareer     = "career"
	SphereFriendship = "friendship"
)

// IsKnownSphere проверяет, что сфера совместимости поддерживается
func IsKnownSphere(sphere string) bool {
	switch sphere {
	case SphereLove, SphereCareer, SphereFriendship:
		return true
	}
	return false
}

// CompatibilityReport кэшированный отчёт о совместимости двух карт.
// pair_key нормализует неупорядоченную пару карт, чтобы отчёт (A,B)
// и отчёт (B,A) попадали в одну и ту же запись кэша
type CompatibilityReport struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	PairKey          string     `json:"pair_key" db:"pair_key"`
	UserName         string     `json:"user_name" db:"user_name"`
	PartnerName      string     `json:"partner_name" db:"partner_name"`
	UserBirthDate    time.Time  `json:"user_birth_date" db:"user_birth_date"`
	PartnerBirthDate time.Time  `json:"partner_birth_date" db:"partner_birth_date"`
	Sphere           string     `json:"sphere" db:"sphere"`
	ReportText       string     `json:"report_text" db:"report_text"`
	ValidUntil       *time.Time `json:"valid_until,omitempty" db:"valid_until"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// CompatibilityPairKey строит симметричный ключ пары карт:
// порядок аргументов не влияет на результат
func CompatibilityPairKey(chartA, chartB uuid.UUID) string {
	a, b := chartA.String(), chartB.String()
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}

// ValidAt сообщает, действует ли отчёт в момент t.
// Отчёт без valid_until считается бессрочным
func (r *CompatibilityReport) ValidAt(t time.Time) bool {
	return r.ValidUntil == nil || t.Before(*r.ValidUntil)
}
