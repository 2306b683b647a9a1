// Package sync models sync job executions and per-account watermarks.
package sync

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// JobKind selects the date range a sync covers.
type JobKind string

const (
	KindDaily    JobKind = "daily"
	KindIntraday JobKind = "intraday"
	KindBackfill JobKind = "backfill"
)

// ParseJobKind validates a kind string.
func ParseJobKind(s string) (JobKind, error) {
	switch JobKind(strings.ToLower(s)) {
	case KindDaily:
		return KindDaily, nil
	case KindIntraday:
		return KindIntraday, nil
	case KindBackfill:
		return KindBackfill, nil
	}
	return "", fmt.Errorf("unknown job kind: %q", s)
}

// JobStatus is the job state machine: running -> completed | failed.
// Terminal states are immutable.
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job is one orchestrator execution for one account.
type Job struct {
	internalID  uint
	jobID       string
	tenantID    uint
	accountID   uint
	kind        JobKind
	since       time.Time
	until       time.Time
	status      JobStatus
	rowsByLevel map[string]int
	creativesOK int
	creativesKO int
	errorText   string
	startedAt   time.Time
	finishedAt  *time.Time
	durationMS  int64
}

// NewJob starts a job in the running state with a time-ordered ULID.
func NewJob(tenantID, accountID uint, kind JobKind, since, until time.Time) (*Job, error) {
	if tenantID == 0 || accountID == 0 {
		return nil, fmt.Errorf("tenant and account are required")
	}
	if until.Before(since) {
		return nil, fmt.Errorf("until must not be before since")
	}
	now := time.Now().UTC()
	return &Job{
		jobID:       ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		tenantID:    tenantID,
		accountID:   accountID,
		kind:        kind,
		since:       since,
		until:       until,
		status:      StatusRunning,
		rowsByLevel: make(map[string]int),
		startedAt:   now,
	}, nil
}

// ReconstructJobParams carries persisted state back into the aggregate.
type ReconstructJobParams struct {
	ID          uint
	JobID       string
	TenantID    uint
	AccountID   uint
	Kind        JobKind
	Since       time.Time
	Until       time.Time
	Status      JobStatus
	RowsByLevel map[string]int
	CreativesOK int
	CreativesKO int
	ErrorText   string
	StartedAt   time.Time
	FinishedAt  *time.Time
	DurationMS  int64
}

// ReconstructJob rebuilds a job from persistence.
func ReconstructJob(p ReconstructJobParams) (*Job, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("job ID cannot be zero")
	}
	if p.RowsByLevel == nil {
		p.RowsByLevel = make(map[string]int)
	}
	return &Job{
		internalID:  p.ID,
		jobID:       p.JobID,
		tenantID:    p.TenantID,
		accountID:   p.AccountID,
		kind:        p.Kind,
		since:       p.Since,
		until:       p.Until,
		status:      p.Status,
		rowsByLevel: p.RowsByLevel,
		creativesOK: p.CreativesOK,
		creativesKO: p.CreativesKO,
		errorText:   p.ErrorText,
		startedAt:   p.StartedAt,
		finishedAt:  p.FinishedAt,
		durationMS:  p.DurationMS,
	}, nil
}

func (j *Job) ID() uint                    { return j.internalID }
func (j *Job) JobID() string               { return j.jobID }
func (j *Job) TenantID() uint              { return j.tenantID }
func (j *Job) AccountID() uint             { return j.accountID }
func (j *Job) Kind() JobKind               { return j.kind }
func (j *Job) Since() time.Time            { return j.since }
func (j *Job) Until() time.Time            { return j.until }
func (j *Job) Status() JobStatus           { return j.status }
func (j *Job) RowsByLevel() map[string]int { return j.rowsByLevel }
func (j *Job) CreativesResolved() int      { return j.creativesOK }
func (j *Job) CreativesFailed() int        { return j.creativesKO }
func (j *Job) ErrorText() string           { return j.errorText }
func (j *Job) StartedAt() time.Time        { return j.startedAt }
func (j *Job) FinishedAt() *time.Time      { return j.finishedAt }
func (j *Job) DurationMS() int64           { return j.durationMS }

// SetID records the persistence-assigned ID after Create.
func (j *Job) SetID(dbID uint) error {
	if j.internalID != 0 {
		return fmt.Errorf("job ID already set")
	}
	j.internalID = dbID
	return nil
}

// RecordRows accumulates synced row counts per entity level.
func (j *Job) RecordRows(level string, count int) {
	j.rowsByLevel[level] += count
}

// RecordCreatives accumulates creative resolution outcomes.
func (j *Job) RecordCreatives(resolved, failed int) {
	j.creativesOK += resolved
	j.creativesKO += failed
}

// TotalRows sums synced rows across levels.
func (j *Job) TotalRows() int {
	total := 0
	for _, n := range j.rowsByLevel {
		total += n
	}
	return total
}

// Complete transitions running -> completed.
func (j *Job) Complete() error {
	return j.finish(StatusCompleted, "")
}

// Fail transitions running -> failed with an error summary.
func (j *Job) Fail(summary string) error {
	return j.finish(StatusFailed, summary)
}

func (j *Job) finish(status JobStatus, summary string) error {
	if j.status != StatusRunning {
		return fmt.Errorf("job %s is already %s", j.jobID, j.status)
	}
	now := time.Now().UTC()
	j.status = status
	j.errorText = summary
	j.finishedAt = &now
	j.durationMS = now.Sub(j.startedAt).Milliseconds()
	return nil
}
