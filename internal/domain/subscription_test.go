package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func premiumSub(expires *time.Time) *Subscription {
	return &Subscription{
		Tier:      TierPremium,
		ExpiresAt: expires,
	}
}

func TestEffectiveTier(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	t.Run("free tier stays free", func(t *testing.T) {
		sub := &Subscription{Tier: TierFree}
		assert.Equal(t, TierFree, sub.EffectiveTier(now))
	})

	t.Run("active premium", func(t *testing.T) {
		assert.Equal(t, TierPremium, premiumSub(&future).EffectiveTier(now))
	})

	t.Run("unlimited premium", func(t *testing.T) {
		assert.Equal(t, TierPremium, premiumSub(nil).EffectiveTier(now))
	})

	t.Run("expired premium reads as free", func(t *testing.T) {
		assert.Equal(t, TierFree, premiumSub(&past).EffectiveTier(now))
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		// Ровно в момент expires_at подписка уже не действует
		assert.Equal(t, TierFree, premiumSub(&now).EffectiveTier(now))
	})

	t.Run("revoked premium reads as free", func(t *testing.T) {
		sub := premiumSub(&future)
		sub.Revoked = true
		assert.Equal(t, TierFree, sub.EffectiveTier(now))
	})
}

func TestSubscriptionState(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	t.Run("revoked wins over everything", func(t *testing.T) {
		sub := premiumSub(&past)
		sub.Revoked = true
		assert.Equal(t, StateRevoked, sub.State(now))
	})

	t.Run("free", func(t *testing.T) {
		sub := &Subscription{Tier: TierFree}
		assert.Equal(t, StateFree, sub.State(now))
	})

	t.Run("premium", func(t *testing.T) {
		assert.Equal(t, StatePremium, premiumSub(&future).State(now))
	})

	t.Run("expired", func(t *testing.T) {
		assert.Equal(t, StateExpired, premiumSub(&past).State(now))
	})
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	t.Run("nil for free", func(t *testing.T) {
		sub := &Subscription{Tier: TierFree}
		assert.Nil(t, sub.DaysRemaining(now))
	})

	t.Run("nil for unlimited premium", func(t *testing.T) {
		assert.Nil(t, premiumSub(nil).DaysRemaining(now))
	})

	t.Run("whole days until expiry", func(t *testing.T) {
		expires := now.Add(10*24*time.Hour + time.Hour)
		days := premiumSub(&expires).DaysRemaining(now)
		assert.NotNil(t, days)
		assert.Equal(t, 10, *days)
	})
}
