package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
)

// ListUsersPaginated страница пользователей и общее число под фильтром
func (s *Service) ListUsersPaginated(ctx context.Context, page, pageSize int, filter domain.UserFilter) ([]domain.User, int64, error) {
	if !filter.IsValid() {
		return nil, 0, domain.NewValidationError("filter", "unknown user filter")
	}
	users, total, err := s.AdminRepo.ListUsersPaginated(ctx, s.DB, page, pageSize, filter)
	if err != nil {
		return nil, 0, domain.WrapBusinessError(fmt.Errorf("failed to list users: %w", err))
	}
	return users, total, nil
}

// ListUsersForBroadcast telegram id получателей рассылки
func (s *Service) ListUsersForBroadcast(ctx context.Context, filter domain.BroadcastFilter) ([]int64, error) {
	telegramIDs, err := s.AdminRepo.ListUsersForBroadcast(ctx, s.DB, filter)
	if err != nil {
		return nil, domain.WrapBusinessError(fmt.Errorf("failed to list broadcast recipients: %w", err))
	}
	return telegramIDs, nil
}

// AggregateStatistics сводная статистика сервиса, считается в БД
func (s *Service) AggregateStatistics(ctx context.Context) (*domain.Statistics, error) {
	stats, err := s.AdminRepo.AggregateStatistics(ctx, s.DB)
	if err != nil {
		return nil, domain.WrapBusinessError(fmt.Errorf("failed to aggregate statistics: %w", err))
	}
	return stats, nil
}

// UserActivity счётчики одного пользователя для админ-панели
func (s *Service) UserActivity(ctx context.Context, telegramID int64) (*domain.UserActivity, error) {
	activity, err := s.AdminRepo.UserActivity(ctx, s.DB, telegramID)
	if err != nil {
		return nil, domain.WrapBusinessError(fmt.Errorf("failed to get user activity: %w", err))
	}
	return activity, nil
}

// Сроки хранения истории: прогнозы живут 30 дней, отчёты о
// совместимости 90
const (
	predictionRetention = 30 * 24 * time.Hour
	reportRetention     = 90 * 24 * time.Hour
)

// CleanupExpired удаляет прогнозы и отчёты старше срока хранения
// одной транзакцией. История в пределах срока не трогается
func (s *Service) CleanupExpired(ctx context.Context) (*domain.CleanupResult, error) {
	now := time.Now().UTC()

	result := &domain.CleanupResult{}
	err := persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		deleted, err := s.PredictionRepo.DeleteOlderThan(ctx, q, now.Add(-predictionRetention))
		if err != nil {
			return err
		}
		result.DeletedPredictions = deleted

		deleted, err = s.CompatibilityRepo.DeleteOlderThan(ctx, q, now.Add(-reportRetention))
		if err != nil {
			return err
		}
		result.DeletedReports = deleted
		return nil
	})
	if err != nil {
		return nil, domain.WrapBusinessError(fmt.Errorf("failed to cleanup expired data: %w", err))
	}

	s.Log.Info("expired data cleaned up",
		"deleted_predictions", result.DeletedPredictions,
		"deleted_reports", result.DeletedReports)
	return result, nil
}
