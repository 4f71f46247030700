package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCompatibilityPairKeySymmetric(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, CompatibilityPairKey(a, b), CompatibilityPairKey(b, a))
	assert.NotEqual(t, CompatibilityPairKey(a, b), CompatibilityPairKey(a, uuid.New()))
}

func TestCompatibilityReportValidAt(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	t.Run("no expiry means always valid", func(t *testing.T) {
		r := &CompatibilityReport{}
		assert.True(t, r.ValidAt(now))
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		r := &CompatibilityReport{ValidUntil: &now}
		assert.True(t, r.ValidAt(now.Add(-time.Second)))
		assert.False(t, r.ValidAt(now))
	})
}
