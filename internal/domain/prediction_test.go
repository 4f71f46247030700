package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPredictionValidAt(t *testing.T) {
	from := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	until := from.Add(24 * time.Hour)
	p := &Prediction{ValidFrom: from, ValidUntil: until}

	assert.True(t, p.ValidAt(from), "window includes valid_from")
	assert.True(t, p.ValidAt(from.Add(12*time.Hour)))
	assert.True(t, p.ValidAt(until.Add(-time.Nanosecond)))
	assert.False(t, p.ValidAt(until), "window excludes valid_until")
	assert.False(t, p.ValidAt(from.Add(-time.Nanosecond)))
}

func TestIsKnownPredictionCategory(t *testing.T) {
	for _, category := range []string{PredictionToday, PredictionWeek, PredictionMonth, PredictionQuarter} {
		assert.True(t, IsKnownPredictionCategory(category), category)
	}
	assert.False(t, IsKnownPredictionCategory("year"))
	assert.False(t, IsKnownPredictionCategory(""))
}
