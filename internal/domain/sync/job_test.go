package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunningJob(t *testing.T) *Job {
	t.Helper()
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 0, 2)
	job, err := NewJob(1, 10, KindDaily, since, until)
	require.NoError(t, err)
	return job
}

func TestNewJob_StartsRunning(t *testing.T) {
	job := newRunningJob(t)

	assert.Equal(t, StatusRunning, job.Status())
	assert.NotEmpty(t, job.JobID())
	assert.Nil(t, job.FinishedAt())
}

func TestNewJob_RejectsInvertedRange(t *testing.T) {
	since := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	_, err := NewJob(1, 10, KindDaily, since, since.AddDate(0, 0, -1))
	assert.Error(t, err)
}

func TestJob_CompleteIsTerminal(t *testing.T) {
	job := newRunningJob(t)
	require.NoError(t, job.Complete())

	assert.Equal(t, StatusCompleted, job.Status())
	require.NotNil(t, job.FinishedAt())

	// Terminal states never transition again, in either direction.
	assert.Error(t, job.Fail("late failure"))
	assert.Error(t, job.Complete())
	assert.Equal(t, StatusCompleted, job.Status())
}

func TestJob_FailKeepsSummary(t *testing.T) {
	job := newRunningJob(t)
	require.NoError(t, job.Fail("campaign level: rate limit exhausted"))

	assert.Equal(t, StatusFailed, job.Status())
	assert.Equal(t, "campaign level: rate limit exhausted", job.ErrorText())
	assert.Error(t, job.Complete())
}

func TestJob_RowAccounting(t *testing.T) {
	job := newRunningJob(t)
	job.RecordRows("campaign", 6)
	job.RecordRows("ad", 12)
	job.RecordRows("campaign", 3)
	job.RecordCreatives(10, 2)

	assert.Equal(t, 9, job.RowsByLevel()["campaign"])
	assert.Equal(t, 21, job.TotalRows())
	assert.Equal(t, 10, job.CreativesResolved())
	assert.Equal(t, 2, job.CreativesFailed())
}

func TestParseJobKind(t *testing.T) {
	tests := []struct {
		in      string
		want    JobKind
		wantErr bool
	}{
		{"daily", KindDaily, false},
		{"Intraday", KindIntraday, false},
		{"BACKFILL", KindBackfill, false},
		{"hourly", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseJobKind(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
