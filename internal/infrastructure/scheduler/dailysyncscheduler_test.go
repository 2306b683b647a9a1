package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-ads/meridian/internal/shared/logger"
)

func TestDailyScheduler_NextRun(t *testing.T) {
	s := NewDailySyncScheduler(nil, 6, logger.NewLogger())

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before the hour fires today",
			now:  time.Date(2026, 3, 12, 4, 30, 0, 0, time.UTC),
			want: time.Date(2026, 3, 12, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "after the hour fires tomorrow",
			now:  time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 13, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly on the hour fires tomorrow",
			now:  time.Date(2026, 3, 12, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 13, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "month boundary",
			now:  time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC),
			want: time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.nextRun(tt.now))
		})
	}
}

func TestDailyScheduler_ClampsInvalidHour(t *testing.T) {
	s := NewDailySyncScheduler(nil, 99, logger.NewLogger())
	assert.Equal(t, 6, s.hourUTC)

	s = NewDailySyncScheduler(nil, -1, logger.NewLogger())
	assert.Equal(t, 6, s.hourUTC)
}

func TestDailyScheduler_StopIsIdempotent(t *testing.T) {
	s := NewDailySyncScheduler(nil, 6, logger.NewLogger())
	s.Stop()
	s.Stop()
}
