package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func birthData() domain.BirthData {
	return domain.BirthData{
		City:               "Moscow",
		Latitude:           55.75,
		Longitude:          37.62,
		Timezone:           "Europe/Moscow",
		BirthDate:          time.Date(1990, 3, 14, 8, 30, 0, 0, time.UTC),
		BirthTimeSpecified: true,
	}
}

func TestComputeAndStoreChart(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(42)

	chart, err := env.svc.ComputeAndStoreChart(context.Background(), 42, birthData(), domain.ChartTypeOwn, nil)
	require.NoError(t, err)

	assert.Equal(t, u.ID, chart.UserID)
	assert.Equal(t, domain.ChartPayload(`{"sun":"virgo"}`), chart.Planets)
	assert.Equal(t, 1, env.ephemeris.calls)
	assert.Len(t, env.charts.charts, 1)
}

func TestComputeAndStoreChartUnspecifiedTimeWarns(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)
	birth := birthData()
	birth.BirthTimeSpecified = false

	chart, err := env.svc.ComputeAndStoreChart(context.Background(), 42, birth, domain.ChartTypeOwn, nil)
	require.NoError(t, err)
	assert.True(t, chart.HasWarning)
}

func TestComputeAndStoreChartOtherRequiresOwnerName(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)

	_, err := env.svc.ComputeAndStoreChart(context.Background(), 42, birthData(), domain.ChartTypeOther, nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Equal(t, 0, env.ephemeris.calls)
}

func TestComputeAndStoreChartEphemerisFailure(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)
	env.ephemeris.err = domain.ErrExternalService

	_, err := env.svc.ComputeAndStoreChart(context.Background(), 42, birthData(), domain.ChartTypeOwn, nil)
	require.ErrorIs(t, err, domain.ErrExternalService)
	assert.Empty(t, env.charts.charts)
	assert.Equal(t, 0, env.db.begins, "failed computation must not open a transaction")
}

func TestComputeAndStoreChartAddsNewRow(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)
	ctx := context.Background()

	first, err := env.svc.ComputeAndStoreChart(ctx, 42, birthData(), domain.ChartTypeOwn, nil)
	require.NoError(t, err)
	second, err := env.svc.ComputeAndStoreChart(ctx, 42, birthData(), domain.ChartTypeOwn, nil)
	require.NoError(t, err)

	// Карты неизменяемы: повторный расчёт не перезаписывает прежнюю
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, env.charts.charts, 2)
}

func TestCreateChartStoresPrecomputedPayload(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(42)

	chart, err := env.svc.CreateChart(context.Background(), 42, birthData(), domain.ChartTypeOwn, nil, domain.ChartPayload(`{"sun":"leo"}`))
	require.NoError(t, err)

	assert.Equal(t, u.ID, chart.UserID)
	assert.Equal(t, domain.ChartPayload(`{"sun":"leo"}`), chart.Planets)
	assert.Equal(t, 0, env.ephemeris.calls, "precomputed payload must not hit the ephemeris API")
}

func TestDeleteChartForeignLooksMissing(t *testing.T) {
	env := newTestEnv()
	env.addUser(42)
	other := env.addUser(77)
	foreign := env.addOwnChart(other.ID)

	err := env.svc.DeleteChart(context.Background(), 42, foreign.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, env.charts.charts, 1)
}
