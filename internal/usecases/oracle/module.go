package oracle

import (
	"context"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/cache"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/repository"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/service"
)

// Service бизнес-логика гороскоп-бота. Репозитории без состояния,
// границы транзакций задаются здесь через persistence.Scoped.
// Внешние вызовы (астро-API, AI) выполняются строго вне открытой транзакции
type Service struct {
	DB                persistence.Persistence
	UserRepo          repository.IUserRepo
	ChartRepo         repository.IChartRepo
	PredictionRepo    repository.IPredictionRepo
	SubscriptionRepo  repository.ISubscriptionRepo
	CompatibilityRepo repository.ICompatibilityRepo
	AdminRepo         repository.IAdminRepo
	Cache             cache.Cache             // nil - без горячего кэша
	Ephemeris         service.IEphemeris
	Oracle            service.IOracle
	Events            service.IEventProducer // nil - без событий
	Log               *slog.Logger
}

// New создаёт новый сервис для бизнес-логики гороскоп-бота
func New(
	db persistence.Persistence,
	userRepo repository.IUserRepo,
	chartRepo repository.IChartRepo,
	predictionRepo repository.IPredictionRepo,
	subscriptionRepo repository.ISubscriptionRepo,
	compatibilityRepo repository.ICompatibilityRepo,
	adminRepo repository.IAdminRepo,
	cacheClient cache.Cache,
	ephemeris service.IEphemeris,
	oracleClient service.IOracle,
	events service.IEventProducer,
	log *slog.Logger,
) *Service {
	return &Service{
		DB:                db,
		UserRepo:          userRepo,
		ChartRepo:         chartRepo,
		PredictionRepo:    predictionRepo,
		SubscriptionRepo:  subscriptionRepo,
		CompatibilityRepo: compatibilityRepo,
		AdminRepo:         adminRepo,
		Cache:             cacheClient,
		Ephemeris:         ephemeris,
		Oracle:            oracleClient,
		Events:            events,
		Log:               log,
	}
}

// publishEvent публикует доменное событие. События информационные:
// сбой логируется и не влияет на результат уже завершённой операции
func (s *Service) publishEvent(ctx context.Context, eventType domain.EventType, telegramID int64, payload map[string]any) {
	if s.Events == nil {
		return
	}
	event := domain.Event{
		Type:       eventType,
		TelegramID: telegramID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if err := s.Events.Publish(ctx, event); err != nil {
		s.Log.Warn("failed to publish event",
			"error", err,
			"type", eventType,
			"telegram_id", telegramID)
	}
}
