package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// compatibilityValidity срок действия отчёта о совместимости
const compatibilityValidity = 30 * 24 * time.Hour

// GetOrGenerateCompatibility возвращает действующий отчёт о совместимости
// двух карт, при необходимости генерируя новый. Ключ пары симметричен:
// запрос (A,B) и запрос (B,A) попадают в один и тот же отчёт.
// Генерация выполняется вне транзакции
func (s *Service) GetOrGenerateCompatibility(ctx context.Context, telegramID int64, chartAID, chartBID uuid.UUID, sphere string) (*domain.CompatibilityReport, error) {
	if !domain.IsKnownSphere(sphere) {
		return nil, domain.NewValidationError("sphere", "unknown compatibility sphere")
	}
	if chartAID == chartBID {
		return nil, domain.NewValidationError("chart_id", "cannot compare a chart with itself")
	}

	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	pairKey := domain.CompatibilityPairKey(chartAID, chartBID)
	now := time.Now().UTC()

	report, err := s.CompatibilityRepo.FindValid(ctx, s.DB, user.ID, pairKey, sphere, now)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to find compatibility report: %w", err)
	}

	chartA, err := s.ChartRepo.GetByID(ctx, s.DB, chartAID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}
	chartB, err := s.ChartRepo.GetByID(ctx, s.DB, chartBID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}

	text, err := s.Oracle.GenerateCompatibility(ctx, chartA.Planets, chartB.Planets, sphere)
	if err != nil {
		return nil, fmt.Errorf("failed to generate compatibility report: %w", err)
	}

	return s.storeCompatibility(ctx, user, chartA, chartB, pairKey, sphere, text)
}

// FindValidCompatibility возвращает действующий отчёт без генерации нового.
// Порядок карт в паре не важен
func (s *Service) FindValidCompatibility(ctx context.Context, telegramID int64, chartAID, chartBID uuid.UUID, sphere string) (*domain.CompatibilityReport, error) {
	if !domain.IsKnownSphere(sphere) {
		return nil, domain.NewValidationError("sphere", "unknown compatibility sphere")
	}
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	pairKey := domain.CompatibilityPairKey(chartAID, chartBID)
	report, err := s.CompatibilityRepo.FindValid(ctx, s.DB, user.ID, pairKey, sphere, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to find compatibility report: %w", err)
	}
	return report, nil
}

// SaveCompatibility сохраняет готовый текст отчёта для пары карт
func (s *Service) SaveCompatibility(ctx context.Context, telegramID int64, chartAID, chartBID uuid.UUID, sphere, text string) (*domain.CompatibilityReport, error) {
	if !domain.IsKnownSphere(sphere) {
		return nil, domain.NewValidationError("sphere", "unknown compatibility sphere")
	}
	if chartAID == chartBID {
		return nil, domain.NewValidationError("chart_id", "cannot compare a chart with itself")
	}
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	chartA, err := s.ChartRepo.GetByID(ctx, s.DB, chartAID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}
	chartB, err := s.ChartRepo.GetByID(ctx, s.DB, chartBID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}
	pairKey := domain.CompatibilityPairKey(chartAID, chartBID)
	return s.storeCompatibility(ctx, user, chartA, chartB, pairKey, sphere, text)
}

func (s *Service) storeCompatibility(ctx context.Context, user *domain.User, chartA, chartB *domain.NatalChart, pairKey, sphere, text string) (*domain.CompatibilityReport, error) {
	now := time.Now().UTC()
	validUntil := now.Add(compatibilityValidity)
	report := &domain.CompatibilityReport{
		ID:               uuid.New(),
		UserID:           user.ID,
		PairKey:          pairKey,
		UserName:         chartOwnerName(chartA, user.Name),
		PartnerName:      chartOwnerName(chartB, user.Name),
		UserBirthDate:    chartA.BirthDate,
		PartnerBirthDate: chartB.BirthDate,
		Sphere:           sphere,
		ReportText:       text,
		ValidUntil:       &validUntil,
		CreatedAt:        now,
	}

	err := persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		return s.CompatibilityRepo.Create(ctx, q, report)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store compatibility report: %w", err)
	}

	s.Log.Info("compatibility report stored",
		"user_id", user.ID,
		"pair_key", pairKey,
		"sphere", sphere)
	return report, nil
}

// ListCompatibilityReports возвращает отчёты пользователя, новые первыми
func (s *Service) ListCompatibilityReports(ctx context.Context, telegramID int64) ([]domain.CompatibilityReport, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	reports, err := s.CompatibilityRepo.ListByUser(ctx, s.DB, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list compatibility reports: %w", err)
	}
	return reports, nil
}

// GetCompatibilityReport получает отчёт по id в рамках владельца
func (s *Service) GetCompatibilityReport(ctx context.Context, telegramID int64, reportID uuid.UUID) (*domain.CompatibilityReport, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	report, err := s.CompatibilityRepo.GetByID(ctx, s.DB, reportID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get compatibility report: %w", err)
	}
	return report, nil
}

// DeleteCompatibilityReport удаляет отчёт пользователя
func (s *Service) DeleteCompatibilityReport(ctx context.Context, telegramID int64, reportID uuid.UUID) error {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	err = persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		return s.CompatibilityRepo.Delete(ctx, q, reportID, user.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete compatibility report: %w", err)
	}
	return nil
}

// chartOwnerName имя человека, для которого построена карта:
// собственная карта носит имя пользователя
func chartOwnerName(chart *domain.NatalChart, userName string) string {
	if chart.ChartOwnerName != nil && *chart.ChartOwnerName != "" {
		return *chart.ChartOwnerName
	}
	return userName
}
