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

// PaymentInfo сведения о платеже, активировавшем premium
type PaymentInfo struct {
	PaymentID string
	Amount    float64
	Currency  string
}

// GetOrCreateSubscription возвращает подписку пользователя, лениво создавая
// free-запись при первом обращении. Гонка двух созданий разрешается через
// уникальный индекс по user_id: проигравший перечитывает существующую запись
func (s *Service) GetOrCreateSubscription(ctx context.Context, telegramID int64) (*domain.Subscription, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return s.getOrCreateSubscription(ctx, s.DB, user.ID)
}

func (s *Service) getOrCreateSubscription(ctx context.Context, q persistence.Querier, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.SubscriptionRepo.GetByUserID(ctx, q, userID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	now := time.Now().UTC()
	sub = &domain.Subscription{
		ID:          uuid.New(),
		UserID:      userID,
		Tier:        domain.TierFree,
		ActivatedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = persistence.Scoped(ctx, q, func(ctx context.Context, q persistence.Querier) error {
		return s.SubscriptionRepo.Create(ctx, q, sub)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			existing, getErr := s.SubscriptionRepo.GetByUserID(ctx, q, userID)
			if getErr != nil {
				return nil, fmt.Errorf("failed to get subscription after conflict: %w", getErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return sub, nil
}

// ActivatePremium включает premium на days дней. Для уже активного premium
// срок продлевается от текущей даты окончания, для остальных состояний
// отсчитывается заново от текущего момента. Отзыв снимается
func (s *Service) ActivatePremium(ctx context.Context, telegramID int64, days int, payment *PaymentInfo) (*domain.Subscription, error) {
	if days <= 0 {
		return nil, domain.NewValidationError("days", "must be positive")
	}

	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var sub *domain.Subscription
	err = persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		var err error
		sub, err = s.getOrCreateSubscription(ctx, q, user.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		base := now
		if sub.EffectiveTier(now) == domain.TierPremium && sub.ExpiresAt != nil {
			base = *sub.ExpiresAt
		}
		expires := base.AddDate(0, 0, days)

		sub.Tier = domain.TierPremium
		sub.ActivatedAt = now
		sub.ExpiresAt = &expires
		sub.Revoked = false
		sub.ExpiredAt = nil
		sub.UpdatedAt = now
		if payment != nil {
			sub.PaymentID = &payment.PaymentID
			sub.PaymentAmount = &payment.Amount
			sub.PaymentCurrency = &payment.Currency
		}
		return s.SubscriptionRepo.Update(ctx, q, sub)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to activate premium: %w", err)
	}

	s.Log.Info("premium activated",
		"user_id", user.ID,
		"telegram_id", telegramID,
		"expires_at", sub.ExpiresAt)
	s.publishEvent(ctx, domain.EventSubscriptionActivated, telegramID, map[string]any{
		"days":       days,
		"expires_at": sub.ExpiresAt,
	})
	return sub, nil
}

// RevokeSubscription отзывает premium. Повторный отзыв идемпотентен:
// уже отозванная подписка не меняется и событие не публикуется
func (s *Service) RevokeSubscription(ctx context.Context, telegramID int64) (*domain.Subscription, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var sub *domain.Subscription
	var changed bool
	err = persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		var err error
		sub, err = s.SubscriptionRepo.GetByUserID(ctx, q, user.ID)
		if err != nil {
			return err
		}
		if sub.Revoked {
			return nil
		}
		sub.Revoked = true
		sub.UpdatedAt = time.Now().UTC()
		changed = true
		return s.SubscriptionRepo.Update(ctx, q, sub)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to revoke subscription: %w", err)
	}

	if changed {
		s.Log.Info("subscription revoked",
			"user_id", user.ID,
			"telegram_id", telegramID)
		s.publishEvent(ctx, domain.EventSubscriptionRevoked, telegramID, nil)
	}
	return sub, nil
}

// EffectiveTier производный уровень подписки пользователя на текущий момент.
// Отсутствие записи о подписке означает free
func (s *Service) EffectiveTier(ctx context.Context, telegramID int64) (domain.SubscriptionTier, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	sub, err := s.SubscriptionRepo.GetByUserID(ctx, s.DB, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TierFree, nil
		}
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub.EffectiveTier(time.Now().UTC()), nil
}

// ExpireSubscriptions помечает просроченные premium подписки одним
// проходом и публикует событие по каждому затронутому пользователю.
// Повторный запуск ничего не находит: expired_at уже проставлен
func (s *Service) ExpireSubscriptions(ctx context.Context) (int, error) {
	var telegramIDs []int64
	err := persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		var err error
		telegramIDs, err = s.SubscriptionRepo.MarkExpired(ctx, q, time.Now().UTC())
		return err
	})
	if err != nil {
		return 0, domain.WrapBusinessError(fmt.Errorf("failed to expire subscriptions: %w", err))
	}

	for _, tgID := range telegramIDs {
		s.publishEvent(ctx, domain.EventSubscriptionExpired, tgID, nil)
	}
	if len(telegramIDs) > 0 {
		s.Log.Info("subscriptions expired", "count", len(telegramIDs))
	}
	return len(telegramIDs), nil
}

// ExtendPremium массово продлевает premium указанным пользователям
func (s *Service) ExtendPremium(ctx context.Context, telegramIDs []int64, days int) (int64, error) {
	if days <= 0 {
		return 0, domain.NewValidationError("days", "must be positive")
	}
	var affected int64
	err := persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		var err error
		affected, err = s.SubscriptionRepo.ExtendPremium(ctx, q, telegramIDs, days)
		return err
	})
	if err != nil {
		return 0, domain.WrapBusinessError(fmt.Errorf("failed to extend premium: %w", err))
	}
	return affected, nil
}

// ListExpiringSubscriptions возвращает telegram id пользователей,
// у которых premium истекает в ближайшие within
func (s *Service) ListExpiringSubscriptions(ctx context.Context, within time.Duration) ([]int64, error) {
	telegramIDs, err := s.SubscriptionRepo.ListExpiring(ctx, s.DB, time.Now().UTC(), within)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring subscriptions: %w", err)
	}
	return telegramIDs, nil
}
