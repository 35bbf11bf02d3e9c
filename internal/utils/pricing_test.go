package utils

import (
	"math"
	"testing"
	"time"

	"iznajmi-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteRental(t *testing.T) {
	t.Run("Inclusive days times daily price", func(t *testing.T) {
		dates, err := domain.ParseDateRange("2024-01-01", "2024-01-05")
		require.NoError(t, err)

		q, err := QuoteRental(dates, 500)
		require.NoError(t, err)
		assert.Equal(t, int32(5), q.TotalDays)
		assert.Equal(t, int32(500), q.PricePerDayCents)
		assert.Equal(t, int32(2500), q.TotalPriceCents)
	})

	t.Run("Single day", func(t *testing.T) {
		dates, err := domain.ParseDateRange("2024-03-10", "2024-03-10")
		require.NoError(t, err)

		q, err := QuoteRental(dates, 1200)
		require.NoError(t, err)
		assert.Equal(t, int32(1), q.TotalDays)
		assert.Equal(t, int32(1200), q.TotalPriceCents)
	})

	t.Run("Free item", func(t *testing.T) {
		dates, err := domain.ParseDateRange("2024-03-10", "2024-03-12")
		require.NoError(t, err)

		q, err := QuoteRental(dates, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(0), q.TotalPriceCents)
	})

	t.Run("Negative price", func(t *testing.T) {
		dates, err := domain.ParseDateRange("2024-03-10", "2024-03-12")
		require.NoError(t, err)

		_, err = QuoteRental(dates, -1)
		assert.Error(t, err)
	})

	t.Run("Overflow", func(t *testing.T) {
		dates, err := domain.ParseDateRange("2024-01-01", "2024-12-31")
		require.NoError(t, err)

		_, err = QuoteRental(dates, math.MaxInt32/2)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "overflows")
	})

	t.Run("Multi-century range", func(t *testing.T) {
		dates, err := domain.ParseDateRange("2024-01-01", "2399-12-31")
		require.NoError(t, err)

		q, err := QuoteRental(dates, 100)
		require.NoError(t, err)
		assert.Equal(t, int32(137331), q.TotalDays)
		assert.Equal(t, int32(13733100), q.TotalPriceCents)
	})
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	assert.Equal(t, start, c.Now())

	c.Add(36 * time.Hour)
	assert.Equal(t, start.Add(36*time.Hour), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
