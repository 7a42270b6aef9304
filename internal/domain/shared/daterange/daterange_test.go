package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentilia/internal/domain/shared/daterange"
)

func TestNewRejectsBackwardsRange(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	_, err := daterange.New(start, start)
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, err = daterange.New(start, start.Add(-time.Hour))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestDaysRoundsPartialDaysUp(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	full, err := daterange.New(start, start.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, full.Days())

	partial, err := daterange.New(start, start.Add(73*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, partial.Days())

	short, err := daterange.New(start, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, short.Days())
}

func TestOverlaps(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	a, err := daterange.New(start, start.AddDate(0, 0, 5))
	require.NoError(t, err)

	b, err := daterange.New(start.AddDate(0, 0, 4), start.AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.True(t, a.Overlaps(b))

	// Half-open intervals: sharing only a boundary is not an overlap.
	c, err := daterange.New(start.AddDate(0, 0, 5), start.AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.False(t, a.Overlaps(c))
}
