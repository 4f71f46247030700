package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// ComputeAndStoreChart рассчитывает натальную карту через внешний астро-API
// и сохраняет результат. Расчёт выполняется вне транзакции: соединение
// из пула не удерживается на время внешнего вызова.
// Карты неизменяемы - повторный расчёт добавляет новую строку
func (s *Service) ComputeAndStoreChart(ctx context.Context, telegramID int64, birth domain.BirthData, chartType string, ownerName *string) (*domain.NatalChart, error) {
	if err := validateChartInput(chartType, ownerName); err != nil {
		return nil, err
	}

	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	payload, err := s.Ephemeris.CalculateChart(ctx, birth)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate chart: %w", err)
	}

	return s.storeChart(ctx, user, birth, chartType, ownerName, payload)
}

// CreateChart сохраняет карту с уже рассчитанными положениями планет
func (s *Service) CreateChart(ctx context.Context, telegramID int64, birth domain.BirthData, chartType string, ownerName *string, payload domain.ChartPayload) (*domain.NatalChart, error) {
	if err := validateChartInput(chartType, ownerName); err != nil {
		return nil, err
	}
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return s.storeChart(ctx, user, birth, chartType, ownerName, payload)
}

func validateChartInput(chartType string, ownerName *string) error {
	if chartType != domain.ChartTypeOwn && chartType != domain.ChartTypeOther {
		return domain.NewValidationError("chart_type", "must be 'own' or 'other'")
	}
	if chartType == domain.ChartTypeOther && (ownerName == nil || *ownerName == "") {
		return domain.NewValidationError("chart_owner_name", "required for chart_type 'other'")
	}
	return nil
}

func (s *Service) storeChart(ctx context.Context, user *domain.User, birth domain.BirthData, chartType string, ownerName *string, payload domain.ChartPayload) (*domain.NatalChart, error) {
	chart := &domain.NatalChart{
		ID:                 uuid.New(),
		UserID:             user.ID,
		ChartType:          chartType,
		ChartOwnerName:     ownerName,
		City:               birth.City,
		Latitude:           birth.Latitude,
		Longitude:          birth.Longitude,
		Timezone:           birth.Timezone,
		BirthDate:          birth.BirthDate,
		BirthTimeSpecified: birth.BirthTimeSpecified,
		HasWarning:         !birth.BirthTimeSpecified,
		Planets:            payload,
		CreatedAt:          time.Now().UTC(),
	}

	err := persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		return s.ChartRepo.Create(ctx, q, chart)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store chart: %w", err)
	}

	s.Log.Info("natal chart stored",
		"chart_id", chart.ID,
		"user_id", user.ID,
		"chart_type", chartType)
	return chart, nil
}

// ListCharts возвращает карты пользователя, новые первыми
func (s *Service) ListCharts(ctx context.Context, telegramID int64) ([]domain.NatalChart, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	charts, err := s.ChartRepo.ListByUser(ctx, s.DB, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list charts: %w", err)
	}
	return charts, nil
}

// GetChart получает карту по id. Чужая карта выглядит как отсутствующая
func (s *Service) GetChart(ctx context.Context, telegramID int64, chartID uuid.UUID) (*domain.NatalChart, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	chart, err := s.ChartRepo.GetByID(ctx, s.DB, chartID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}
	return chart, nil
}

// DeleteChart удаляет карту пользователя. Зависимые прогнозы уходят
// каскадом по внешнему ключу
func (s *Service) DeleteChart(ctx context.Context, telegramID int64, chartID uuid.UUID) error {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	err = persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		return s.ChartRepo.Delete(ctx, q, chartID, user.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete chart: %w", err)
	}
	s.Log.Info("natal chart deleted", "chart_id", chartID, "user_id", user.ID)
	return nil
}

// latestOwnChart возвращает самую свежую собственную карту пользователя
func (s *Service) latestOwnChart(ctx context.Context, q persistence.Querier, userID uuid.UUID) (*domain.NatalChart, error) {
	charts, err := s.ChartRepo.ListByUser(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	for i := range charts {
		if charts[i].ChartType == domain.ChartTypeOwn {
			return &charts[i], nil
		}
	}
	return nil, fmt.Errorf("own natal chart for user %s: %w", userID, domain.ErrNotFound)
}
