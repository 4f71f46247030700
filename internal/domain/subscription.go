package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier хранимый уровень подписки
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// SubscriptionState производное состояние подписки на момент времени
type SubscriptionState string

const (
	StateFree    SubscriptionState = "free"
	StatePremium SubscriptionState = "premium"
	StateExpired SubscriptionState = "expired"
	StateRevoked SubscriptionState = "revoked"
)

// Subscription подписка пользователя. Одна строка на пользователя,
// создаётся лениво при первом обращении и никогда не удаляется
type Subscription struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	Tier            SubscriptionTier `json:"tier" db:"tier"`
	ActivatedAt     time.Time  `json:"activated_at" db:"activated_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Revoked         bool       `json:"revoked" db:"revoked"`
	ExpiredAt       *time.Time `json:"expired_at,omitempty" db:"expired_at"`
	PaymentID       *string    `json:"payment_id,omitempty" db:"payment_id"`
	PaymentAmount   *float64   `json:"payment_amount,omitempty" db:"payment_amount"`
	PaymentCurrency *string    `json:"payment_currency,omitempty" db:"payment_currency"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// EffectiveTier производный уровень подписки на момент asOf.
// Источник истины для вызывающих: хранимый tier сам по себе ничего не значит,
// только вместе с отзывом и датой окончания
func (s *Subscription) EffectiveTier(asOf time.Time) SubscriptionTier {
	if s.Tier != TierPremium || s.Revoked {
		return TierFree
	}
	if s.ExpiresAt != nil && !asOf.Before(*s.ExpiresAt) {
		return TierFree
	}
	return TierPremium
}

// State производное состояние подписки на момент asOf
func (s *Subscription) State(asOf time.Time) SubscriptionState {
	if s.Revoked {
		return StateRevoked
	}
	if s.Tier != TierPremium {
		return StateFree
	}
	if s.ExpiresAt != nil && !asOf.Before(*s.ExpiresAt) {
		return StateExpired
	}
	return StatePremium
}

// DaysRemaining количество оставшихся дней premium, nil для неактивной
// или бессрочной подписки
func (s *Subscription) DaysRemaining(asOf time.Time) *int {
	if s.EffectiveTier(asOf) != TierPremium || s.ExpiresAt == nil {
		return nil
	}
	days := int(s.ExpiresAt.Sub(asOf).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}
