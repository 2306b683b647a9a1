package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWatermark_AdvanceDailyIsMonotonic(t *testing.T) {
	wm, err := NewWatermark(1, 10)
	require.NoError(t, err)

	wm.AdvanceDaily(day(2026, 8, 10))
	require.NotNil(t, wm.LastDailyDate())
	assert.Equal(t, day(2026, 8, 10), *wm.LastDailyDate())

	// An older backfill must not rewind the cursor.
	wm.AdvanceDaily(day(2026, 8, 3))
	assert.Equal(t, day(2026, 8, 10), *wm.LastDailyDate())

	// Same day is a no-op, newer day advances.
	wm.AdvanceDaily(day(2026, 8, 10))
	assert.Equal(t, day(2026, 8, 10), *wm.LastDailyDate())
	wm.AdvanceDaily(day(2026, 8, 11))
	assert.Equal(t, day(2026, 8, 11), *wm.LastDailyDate())
}

func TestWatermark_AdvanceDailyTruncatesToMidnight(t *testing.T) {
	wm, err := NewWatermark(1, 10)
	require.NoError(t, err)

	wm.AdvanceDaily(time.Date(2026, 8, 10, 17, 30, 12, 0, time.UTC))
	require.NotNil(t, wm.LastDailyDate())
	assert.Equal(t, day(2026, 8, 10), *wm.LastDailyDate())
}

func TestWatermark_SuccessClearsError(t *testing.T) {
	wm, err := NewWatermark(1, 10)
	require.NoError(t, err)

	wm.RecordError("auth expired")
	assert.Equal(t, "auth expired", wm.LastError())

	now := time.Now().UTC()
	wm.RecordSuccess(now)
	assert.Empty(t, wm.LastError())
	require.NotNil(t, wm.LastSuccessAt())
	assert.WithinDuration(t, now, *wm.LastSuccessAt(), time.Second)
}

func TestNewWatermark_RequiresOwners(t *testing.T) {
	_, err := NewWatermark(0, 10)
	assert.Error(t, err)
	_, err = NewWatermark(1, 0)
	assert.Error(t, err)
}
