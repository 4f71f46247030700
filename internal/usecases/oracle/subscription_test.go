package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateSubscriptionLazyFree(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)

	sub, err := env.svc.GetOrCreateSubscription(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, sub.Tier)

	again, err := env.svc.GetOrCreateSubscription(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
}

func TestGetOrCreateSubscriptionLosingRace(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)
	env.subs.conflictOnce = true

	sub, err := env.svc.GetOrCreateSubscription(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, sub)
}

func TestActivatePremiumFromFree(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)

	sub, err := env.svc.ActivatePremium(context.Background(), 42, 30, &PaymentInfo{
		PaymentID: "pay-1", Amount: 499, Currency: "RUB",
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	assert.Equal(t, domain.TierPremium, sub.EffectiveTier(now))
	require.NotNil(t, sub.ExpiresAt)
	assert.WithinDuration(t, now.AddDate(0, 0, 30), *sub.ExpiresAt, time.Minute)

	require.Len(t, env.events.events, 1)
	assert.Equal(t, domain.EventSubscriptionActivated, env.events.events[0].Type)
}

func TestActivatePremiumExtendsActiveFromExpiry(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)

	first, err := env.svc.ActivatePremium(context.Background(), 42, 30, nil)
	require.NoError(t, err)
	firstExpiry := *first.ExpiresAt

	second, err := env.svc.ActivatePremium(context.Background(), 42, 30, nil)
	require.NoError(t, err)

	// Продление считается от прежней даты окончания, не от текущего момента
	assert.Equal(t, firstExpiry.AddDate(0, 0, 30), *second.ExpiresAt)
}

func TestActivatePremiumAfterRevokeStartsFresh(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)

	_, err := env.svc.ActivatePremium(context.Background(), 42, 30, nil)
	require.NoError(t, err)
	_, err = env.svc.RevokeSubscription(context.Background(), 42)
	require.NoError(t, err)

	sub, err := env.svc.ActivatePremium(context.Background(), 42, 30, nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	assert.False(t, sub.Revoked)
	assert.Equal(t, domain.TierPremium, sub.EffectiveTier(now))
	// Отозванная подписка не продлевается от старого срока
	assert.WithinDuration(t, now.AddDate(0, 0, 30), *sub.ExpiresAt, time.Minute)
}

func TestRevokeSubscriptionIdempotent(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)

	_, err := env.svc.ActivatePremium(context.Background(), 42, 30, nil)
	require.NoError(t, err)
	env.events.events = nil

	first, err := env.svc.RevokeSubscription(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, first.Revoked)
	assert.Len(t, env.events.events, 1)

	second, err := env.svc.RevokeSubscription(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, second.Revoked)
	assert.Len(t, env.events.events, 1, "repeated revoke must not publish again")
}

func TestEffectiveTierWithoutSubscriptionIsFree(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)

	tier, err := env.svc.EffectiveTier(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, tier)
}

func TestExpireSubscriptionsPublishesPerUser(t *testing.T) {
	env := newTestEnv()
	env.subs.expired = []int64{42, 77}

	count, err := env.svc.ExpireSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, env.events.events, 2)
	assert.Equal(t, domain.EventSubscriptionExpired, env.events.events[0].Type)
	assert.Equal(t, int64(42), env.events.events[0].TelegramID)
	assert.Equal(t, int64(77), env.events.events[1].TelegramID)
}

func TestExpireSubscriptionsSecondRunIsNoop(t *testing.T) {
	env := newTestEnv()
	env.subs.expired = []int64{42}

	_, err := env.svc.ExpireSubscriptions(context.Background())
	require.NoError(t, err)

	count, err := env.svc.ExpireSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Len(t, env.events.events, 1)
}

func TestExtendPremiumValidation(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.ExtendPremium(context.Background(), []int64{42}, 0)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}
