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

// GetOrCreateUser получает пользователя по Telegram ID или создаёт нового.
// Возвращает пользователя и признак того, что он был создан этим вызовом.
// Гонка двух одновременных созданий разрешается через уникальный индекс:
// проигравший перечитывает и возвращает существующую запись без ошибки
func (s *Service) GetOrCreateUser(ctx context.Context, telegramID int64, name string) (*domain.User, bool, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err == nil {
		// Имя в Telegram могло смениться с прошлого визита
		if name != "" && user.Name != name {
			user.Name = name
			user.UpdatedAt = time.Now().UTC()
			if err := s.UserRepo.Update(ctx, s.DB, user); err != nil {
				s.Log.Warn("failed to refresh user name",
					"error", err,
					"user_id", user.ID)
			}
		}
		if err := s.UserRepo.UpdateLastSeen(ctx, s.DB, user.ID); err != nil {
			s.Log.Warn("failed to update last seen",
				"error", err,
				"user_id", user.ID)
		}
		return user, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now().UTC()
	user = &domain.User{
		ID:                   uuid.New(),
		TelegramID:           telegramID,
		Name:                 name,
		BirthTimeSpecified:   true,
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
		LastSeenAt:           &now,
	}

	err = persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		return s.UserRepo.Create(ctx, q, user)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Проиграли гонку: параллельный вызов уже создал пользователя
			existing, getErr := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to get user after conflict: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	s.Log.Info("user created",
		"user_id", user.ID,
		"telegram_id", telegramID)
	s.publishEvent(ctx, domain.EventUserCreated, telegramID, nil)

	return user, true, nil
}

// UpdateUserProfile применяет частичное обновление профиля.
// Валидация выполняется до открытия транзакции: некорректный запрос
// не оставляет частичной записи
func (s *Service) UpdateUserProfile(ctx context.Context, telegramID int64, changes domain.ProfileChanges) (*domain.User, error) {
	if err := changes.Validate(); err != nil {
		return nil, err
	}

	var user *domain.User
	err := persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		var err error
		user, err = s.UserRepo.GetByTelegramID(ctx, q, telegramID)
		if err != nil {
			return err
		}
		changes.Apply(user)
		user.UpdatedAt = time.Now().UTC()
		return s.UserRepo.Update(ctx, q, user)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.Log.Debug("profile updated",
		"user_id", user.ID,
		"is_complete", user.IsProfileComplete)
	return user, nil
}

// SetNotifications включает или выключает уведомления пользователя
func (s *Service) SetNotifications(ctx context.Context, telegramID int64, enabled bool) error {
	if err := s.UserRepo.SetNotifications(ctx, s.DB, telegramID, enabled); err != nil {
		return fmt.Errorf("failed to set notifications: %w", err)
	}
	return nil
}

// GetUser получает пользователя по Telegram ID
func (s *Service) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserProfile возвращает пользователя вместе с его подпиской.
// Отсутствующая запись о подписке лениво создаётся как free
func (s *Service) GetUserProfile(ctx context.Context, telegramID int64) (*domain.User, *domain.Subscription, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, s.DB, telegramID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	sub, err := s.getOrCreateSubscription(ctx, s.DB, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, sub, nil
}

// EraseUser удаляет пользователя и все его данные в одной транзакции.
// Карты, прогнозы, подписка и отчёты уходят каскадом по внешним ключам,
// горячий кэш прогнозов чистится после коммита
func (s *Service) EraseUser(ctx context.Context, telegramID int64) error {
	var userID uuid.UUID
	err := persistence.Scoped(ctx, s.DB, func(ctx context.Context, q persistence.Querier) error {
		user, err := s.UserRepo.GetByTelegramID(ctx, q, telegramID)
		if err != nil {
			return err
		}
		userID = user.ID
		return s.UserRepo.Delete(ctx, q, user.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to erase user: %w", err)
	}

	s.dropPredictionCache(ctx, telegramID)

	s.Log.Info("user erased",
		"user_id", userID,
		"telegram_id", telegramID)
	s.publishEvent(ctx, domain.EventUserErased, telegramID, nil)
	return nil
}

// dropPredictionCache чистит горячий кэш прогнозов пользователя.
// Кэш вспомогательный: сбой здесь только логируется
func (s *Service) dropPredictionCache(ctx context.Context, telegramID int64) {
	if s.Cache == nil {
		return
	}
	for _, category := range []string{
		domain.PredictionToday,
		domain.PredictionWeek,
		domain.PredictionMonth,
		domain.PredictionQuarter,
	} {
		if err := s.Cache.Delete(ctx, predictionCacheKey(telegramID, category)); err != nil {
			s.Log.Warn("failed to drop prediction cache",
				"error", err,
				"telegram_id", telegramID,
				"category", category)
		}
	}
}
