package domain

import "time"

// EventType тип доменного события
type EventType string

const (
	EventUserCreated           EventType = "user.created"
	EventUserErased            EventType = "user.erased"
	EventSubscriptionActivated EventType = "subscription.activated"
	EventSubscriptionRevoked   EventType = "subscription.revoked"
	EventSubscriptionExpired   EventType = "subscription.expired"
)

// Event доменное событие для оркестрации (уведомления, аналитика).
// События носят информационный характер: сбой публикации логируется,
// но не откатывает уже закоммиченную операцию
type Event struct {
	Type       EventType      `json:"type"`
	TelegramID int64          `json:"telegram_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}
