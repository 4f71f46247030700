package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/cache"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

func predictionCacheKey(telegramID int64, category string) string {
	return fmt.Sprintf("prediction:%d:%s", telegramID, category)
}

// validityWindow возвращает окно действия [from, until) для категории.
// Окно полуоткрытое: в момент until прогноз уже не действует
func validityWindow(category string, now time.Time) (time.Time, time.Time) {
	from := now.UTC().Truncate(24 * time.Hour)
	switch category {
	case domain.PredictionWeek:
		return from, from.AddDate(0, 0, 7)
	case domain.PredictionMonth:
		return from, from.AddDate(0, 0, 30)
	case domain.PredictionQuarter:
		return from, from.AddDate(0, 0, 90)
	default:
		return from, from.AddDate(0, 0, 1)
	}
}

// GetOrGeneratePrediction возвращает действующий прогноз категории,
// при необходимости генерируя новый через AI-провайдера.
//
// Порядок строгий: горячий кэш, затем БД, затем генерация.
// Генерация выполняется вне транзакции; её отказ оставляет кэш
// и историю нетронутыми
func (s *Service) GetOrGeneratePrediction(ctx context.Context, telegramID int64, category string) (*domain.Prediction, error) {
	if !domain.IsKnownPredictionCategory(category) {
		return nil, domain.NewValidationError("category", "unknown prediction category")
	}

	now := time.Now().UTC()

	if cached := s.cachedPrediction(ctx, telegramID, category, now); cached != nil {
		return cached, nil
	}

	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	prediction, err := s.PredictionRepo.FindValid(ctx, s.DB, user.ID, category, now)
	if err == nil {
		s.storePredictionCache(ctx, telegramID, prediction, now)
		return prediction, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to find prediction: %w", err)
	}

	chart, err := s.latestOwnChart(ctx, s.DB, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get natal chart: %w", err)
	}

	started := time.Now()
	content, err := s.Oracle.GeneratePrediction(ctx, chart.Planets, category)
	if err != nil {
		return nil, fmt.Errorf("failed to generate prediction: %w", err)
	}
	generationTime := time.Since(started).Seconds()

	validFrom, validUntil := validityWindow(category, now)
	prediction = &domain.Prediction{
		ID:             uuid.New(),
		UserID:         user.ID,
		NatalChartID:   chart.ID,
		Category:       category,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
		Content:        content,
		GenerationTime: &generationTime,
		CreatedAt:      now,
	}

	err = persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		return s.PredictionRepo.Create(ctx, q, prediction)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store prediction: %w", err)
	}

	s.storePredictionCache(ctx, telegramID, prediction, now)

	s.Log.Info("prediction generated",
		"user_id", user.ID,
		"category", category,
		"generation_time", generationTime)
	return prediction, nil
}

// CreatePrediction сохраняет готовый прогноз без обращения к AI-провайдеру.
// История не перезаписывается: вставка всегда добавляет новую строку
func (s *Service) CreatePrediction(ctx context.Context, telegramID int64, chartID uuid.UUID, category, content string, validFrom, validUntil time.Time, generationTime *float64) (*domain.Prediction, error) {
	if !domain.IsKnownPredictionCategory(category) {
		return nil, domain.NewValidationError("category", "unknown prediction category")
	}
	if !validUntil.After(validFrom) {
		return nil, domain.NewValidationError("valid_until", "must be after valid_from")
	}

	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	chart, err := s.ChartRepo.GetByID(ctx, s.DB, chartID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}

	now := time.Now().UTC()
	prediction := &domain.Prediction{
		ID:             uuid.New(),
		UserID:         user.ID,
		NatalChartID:   chart.ID,
		Category:       category,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
		Content:        content,
		GenerationTime: generationTime,
		CreatedAt:      now,
	}
	err = persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		return s.PredictionRepo.Create(ctx, q, prediction)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store prediction: %w", err)
	}

	s.storePredictionCache(ctx, telegramID, prediction, now)
	return prediction, nil
}

// FindValidPrediction возвращает действующий прогноз без генерации нового
func (s *Service) FindValidPrediction(ctx context.Context, telegramID int64, category string) (*domain.Prediction, error) {
	if !domain.IsKnownPredictionCategory(category) {
		return nil, domain.NewValidationError("category", "unknown prediction category")
	}
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	prediction, err := s.PredictionRepo.FindValid(ctx, s.DB, user.ID, category, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to find prediction: %w", err)
	}
	return prediction, nil
}

// ListPredictions возвращает историю прогнозов, category == "" - все категории
func (s *Service) ListPredictions(ctx context.Context, telegramID int64, category string) ([]domain.Prediction, error) {
	if category != "" && !domain.IsKnownPredictionCategory(category) {
		return nil, domain.NewValidationError("category", "unknown prediction category")
	}
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	predictions, err := s.PredictionRepo.ListByUser(ctx, s.DB, user.ID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return predictions, nil
}

// cachedPrediction читает прогноз из горячего кэша. Промах или сбой кэша
// не ошибка - чтение уходит в БД
func (s *Service) cachedPrediction(ctx context.Context, telegramID int64, category string, now time.Time) *domain.Prediction {
	if s.Cache == nil {
		return nil
	}
	raw, err := s.Cache.Get(ctx, predictionCacheKey(telegramID, category))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.Log.Warn("prediction cache read failed",
				"error", err,
				"telegram_id", telegramID,
				"category", category)
		}
		return nil
	}
	var prediction domain.Prediction
	if err := json.Unmarshal([]byte(raw), &prediction); err != nil {
		s.Log.Warn("prediction cache entry corrupted",
			"error", err,
			"telegram_id", telegramID,
			"category", category)
		return nil
	}
	// TTL и окно действия могут разойтись, окно главнее
	if !prediction.ValidAt(now) {
		return nil
	}
	return &prediction
}

// storePredictionCache кладёт прогноз в горячий кэш с TTL до конца
// окна действия
func (s *Service) storePredictionCache(ctx context.Context, telegramID int64, prediction *domain.Prediction, now time.Time) {
	if s.Cache == nil {
		return
	}
	ttl := prediction.ValidUntil.Sub(now)
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(prediction)
	if err != nil {
		s.Log.Warn("failed to marshal prediction for cache", "error", err)
		return
	}
	if err := s.Cache.Set(ctx, predictionCacheKey(telegramID, prediction.Category), string(raw), ttl); err != nil {
		s.Log.Warn("prediction cache write failed",
			"error", err,
			"telegram_id", telegramID,
			"category", prediction.Category)
	}
}
