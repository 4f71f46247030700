package service

import (
	"context"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
)

// IEventProducer публикация доменных событий для оркестрации.
// События информационные: сбой публикации не влияет на результат операции
type IEventProducer interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}
