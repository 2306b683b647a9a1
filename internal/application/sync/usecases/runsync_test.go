package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ads/meridian/internal/domain/account"
	"github.com/meridian-ads/meridian/internal/domain/connection"
	"github.com/meridian-ads/meridian/internal/domain/metrics"
	syncdomain "github.com/meridian-ads/meridian/internal/domain/sync"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

type fakeAcctRepo struct {
	accounts map[string]*account.AdAccount
}

func (r *fakeAcctRepo) Create(ctx context.Context, acct *account.AdAccount) error { return nil }
func (r *fakeAcctRepo) GetByID(ctx context.Context, dbID uint) (*account.AdAccount, error) {
	for _, acct := range r.accounts {
		if acct.ID() == dbID {
			return acct, nil
		}
	}
	return nil, apperrors.NewNotFoundError("ad account not found")
}
func (r *fakeAcctRepo) GetBySID(ctx context.Context, tenantID uint, sid string) (*account.AdAccount, error) {
	if acct, ok := r.accounts[sid]; ok {
		return acct, nil
	}
	return nil, apperrors.NewNotFoundError("ad account not found")
}
func (r *fakeAcctRepo) GetByExternalID(ctx context.Context, tenantID uint, externalID string) (*account.AdAccount, error) {
	return nil, apperrors.NewNotFoundError("ad account not found")
}
func (r *fakeAcctRepo) ListByTenant(ctx context.Context, tenantID uint) ([]*account.AdAccount, error) {
	return nil, nil
}
func (r *fakeAcctRepo) Update(ctx context.Context, acct *account.AdAccount) error       { return nil }
func (r *fakeAcctRepo) GrantAccess(ctx context.Context, accountID, connID uint) error   { return nil }
func (r *fakeAcctRepo) RevokeAccess(ctx context.Context, accountID, connID uint) error  { return nil }
func (r *fakeAcctRepo) CountAccountsBoundTo(ctx context.Context, connID uint) (int64, error) {
	return 0, nil
}

type fakeConnRepo struct {
	conns   map[uint]*connection.Connection
	updated []*connection.Connection
}

func (r *fakeConnRepo) Create(ctx context.Context, c *connection.Connection) error { return nil }
func (r *fakeConnRepo) GetByID(ctx context.Context, dbID uint) (*connection.Connection, error) {
	if c, ok := r.conns[dbID]; ok {
		return c, nil
	}
	return nil, apperrors.NewNotFoundError("connection not found")
}
func (r *fakeConnRepo) GetBySID(ctx context.Context, tenantID uint, sid string) (*connection.Connection, error) {
	return nil, apperrors.NewNotFoundError("connection not found")
}
func (r *fakeConnRepo) GetDefault(ctx context.Context, tenantID uint, platform string) (*connection.Connection, error) {
	return nil, apperrors.NewNotFoundError("connection not found")
}
func (r *fakeConnRepo) ListByTenant(ctx context.Context, tenantID uint) ([]*connection.Connection, error) {
	return nil, nil
}
func (r *fakeConnRepo) Update(ctx context.Context, c *connection.Connection) error {
	r.updated = append(r.updated, c)
	return nil
}
func (r *fakeConnRepo) SetDefault(ctx context.Context, c *connection.Connection) error { return nil }
func (r *fakeConnRepo) Delete(ctx context.Context, tenantID uint, sid string) error    { return nil }

type fakeJobRepo struct {
	jobs map[string]*syncdomain.Job
}

func (r *fakeJobRepo) Create(ctx context.Context, job *syncdomain.Job) error {
	r.jobs[job.JobID()] = job
	return nil
}
func (r *fakeJobRepo) Update(ctx context.Context, job *syncdomain.Job) error {
	r.jobs[job.JobID()] = job
	return nil
}
func (r *fakeJobRepo) GetByJobID(ctx context.Context, tenantID uint, jobID string) (*syncdomain.Job, error) {
	if job, ok := r.jobs[jobID]; ok {
		return job, nil
	}
	return nil, apperrors.NewNotFoundError("sync job not found")
}
func (r *fakeJobRepo) ListByAccount(ctx context.Context, tenantID, accountID uint, limit int) ([]*syncdomain.Job, error) {
	return nil, nil
}

type fakeWmRepo struct {
	wms map[uint]*syncdomain.Watermark
}

func (r *fakeWmRepo) GetOrCreate(ctx context.Context, tenantID, accountID uint) (*syncdomain.Watermark, error) {
	if wm, ok := r.wms[accountID]; ok {
		return wm, nil
	}
	wm, err := syncdomain.NewWatermark(tenantID, accountID)
	if err != nil {
		return nil, err
	}
	r.wms[accountID] = wm
	return wm, nil
}
func (r *fakeWmRepo) Get(ctx context.Context, tenantID, accountID uint) (*syncdomain.Watermark, error) {
	if wm, ok := r.wms[accountID]; ok {
		return wm, nil
	}
	return nil, apperrors.NewNotFoundError("watermark not found")
}
func (r *fakeWmRepo) Update(ctx context.Context, wm *syncdomain.Watermark) error { return nil }
func (r *fakeWmRepo) ListEnabled(ctx context.Context) ([]*syncdomain.Watermark, error) {
	var out []*syncdomain.Watermark
	for _, wm := range r.wms {
		if wm.Enabled() {
			out = append(out, wm)
		}
	}
	return out, nil
}

type rowKey struct {
	level    metrics.Level
	entityID string
	date     string
}

type fakeMetricRepo struct {
	rows  map[rowKey]*metrics.Row
	snaps []*metrics.Snapshot
}

func newFakeMetricRepo() *fakeMetricRepo {
	return &fakeMetricRepo{rows: make(map[rowKey]*metrics.Row)}
}

func (r *fakeMetricRepo) UpsertRows(ctx context.Context, rows []*metrics.Row) error {
	for _, row := range rows {
		r.rows[rowKey{row.Level, row.EntityID, row.Date.Format("2006-01-02")}] = row
	}
	return nil
}
func (r *fakeMetricRepo) AppendSnapshots(ctx context.Context, snaps []*metrics.Snapshot) error {
	r.snaps = append(r.snaps, snaps...)
	return nil
}
func (r *fakeMetricRepo) ListRows(ctx context.Context, tenantID, accountID uint, level metrics.Level, since, until time.Time) ([]*metrics.Row, error) {
	return nil, nil
}
func (r *fakeMetricRepo) CountRows(ctx context.Context, tenantID, accountID uint, level metrics.Level, since, until time.Time) (int64, error) {
	return 0, nil
}

// fakeInsights emits two campaigns for every day of the requested range.
type fakeInsights struct {
	err       error
	failLevel string
	calls     int
}

func (f *fakeInsights) FetchInsights(ctx context.Context, token, accountExternalID, level string, since, until time.Time, visit func(row metaapi.InsightRow, raw json.RawMessage) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.failLevel != "" && level == f.failLevel {
		return fmt.Errorf("upstream unavailable")
	}
	for day := since; !day.After(until); day = day.AddDate(0, 0, 1) {
		for i := 1; i <= 2; i++ {
			row := metaapi.InsightRow{
				DateStart:    day.Format("2006-01-02"),
				DateStop:     day.Format("2006-01-02"),
				Spend:        "12.50",
				Impressions:  "1000",
				Clicks:       "40",
				Actions:      []metaapi.InsightValue{{ActionType: "purchase", Value: "3"}},
				ActionVals:   []metaapi.InsightValue{{ActionType: "purchase", Value: "90.00"}},
			}
			switch level {
			case "adset":
				row.AdsetID = fmt.Sprintf("as_%d", i)
				row.AdsetName = fmt.Sprintf("Ad Set %d", i)
			case "ad":
				row.AdID = fmt.Sprintf("ad_%d", i)
				row.AdName = fmt.Sprintf("Ad %d", i)
			default:
				row.CampaignID = fmt.Sprintf("c_%d", i)
				row.CampaignName = fmt.Sprintf("Campaign %d", i)
			}
			raw, _ := json.Marshal(row)
			if err := visit(row, raw); err != nil {
				return err
			}
		}
	}
	return nil
}

type fakeVault struct{}

func (fakeVault) Reveal(stored string, isPlaintext bool) (string, error) { return stored, nil }

type fixture struct {
	uc       *RunSyncUseCase
	accounts *fakeAcctRepo
	conns    *fakeConnRepo
	jobs     *fakeJobRepo
	wms      *fakeWmRepo
	metrics  *fakeMetricRepo
	insights *fakeInsights
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := connection.NewConnection(1, "meta", "tok", true, nil)
	require.NoError(t, err)
	require.NoError(t, conn.SetID(10))
	require.NoError(t, conn.MarkConnected())

	acct, err := account.NewAdAccount(1, "900100", "Demo Account", "USD", "active", 10)
	require.NoError(t, err)
	require.NoError(t, acct.SetID(20))

	f := &fixture{
		accounts: &fakeAcctRepo{accounts: map[string]*account.AdAccount{acct.SID(): acct}},
		conns:    &fakeConnRepo{conns: map[uint]*connection.Connection{10: conn}},
		jobs:     &fakeJobRepo{jobs: make(map[string]*syncdomain.Job)},
		wms:      &fakeWmRepo{wms: make(map[uint]*syncdomain.Watermark)},
		metrics:  newFakeMetricRepo(),
		insights: &fakeInsights{},
	}
	f.uc = NewRunSyncUseCase(
		f.accounts, f.conns, f.jobs, f.wms, f.metrics,
		f.insights, fakeVault{}, nil, 28, logger.NewLogger())
	f.uc.now = func() time.Time {
		return time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC)
	}
	return f
}

func (f *fixture) accountSID() string {
	for sid := range f.accounts.accounts {
		return sid
	}
	return ""
}

func TestRunSync_BackfillThreeDaysTwoCampaigns(t *testing.T) {
	f := newFixture(t)

	since := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	result, err := f.uc.Execute(context.Background(), RunSyncCommand{
		TenantID:    1,
		AccountSIDs: []string{f.accountSID()},
		Mode:        "backfill",
		Since:       &since,
		Until:       &until,
		Levels:      []string{"campaign"},
	})
	require.NoError(t, err)
	require.Len(t, result.Accounts, 1)
	assert.Equal(t, 1, result.SucceededCount)

	outcome := result.Accounts[0]
	assert.Equal(t, "completed", outcome.Status)
	assert.Equal(t, 6, outcome.RowsByLevel["campaign"], "2 campaigns x 3 days")

	assert.Len(t, f.metrics.rows, 6)
	assert.Len(t, f.metrics.snaps, 6, "every raw row snapshotted")

	row := f.metrics.rows[rowKey{metrics.LevelCampaign, "c_1", "2026-03-09"}]
	require.NotNil(t, row)
	assert.InDelta(t, 12.50, row.Spend, 0.001)
	assert.InDelta(t, 4.0, row.CTR, 0.001)
	assert.InDelta(t, 3.0, row.Conversions, 0.001)
	assert.InDelta(t, 90.0, row.ConversionValue, 0.001)

	job := f.jobs.jobs[outcome.JobID]
	require.NotNil(t, job)
	assert.Equal(t, syncdomain.StatusCompleted, job.Status())
	assert.NotNil(t, job.FinishedAt())

	wm := f.wms.wms[20]
	require.NotNil(t, wm)
	assert.Nil(t, wm.LastDailyDate(), "backfills rewrite history without moving the daily cursor")
	assert.NotNil(t, wm.LastSuccessAt())
	assert.Empty(t, wm.LastError())
}

func TestRunSync_BackfillLeavesDailyCursorUntouched(t *testing.T) {
	f := newFixture(t)

	daily, err := f.uc.Execute(context.Background(), RunSyncCommand{
		TenantID:    1,
		AccountSIDs: []string{f.accountSID()},
		Mode:        "daily",
		Levels:      []string{"campaign"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, daily.SucceededCount)

	cursor := f.wms.wms[20].LastDailyDate()
	require.NotNil(t, cursor)

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	backfill, err := f.uc.Execute(context.Background(), RunSyncCommand{
		TenantID:    1,
		AccountSIDs: []string{f.accountSID()},
		Mode:        "backfill",
		Since:       &since,
		Until:       &until,
		Levels:      []string{"campaign"},
	})
	require.NoError(t, err)
	assert.Equal(t, string(syncdomain.StatusCompleted), backfill.Accounts[0].Status)

	require.NotNil(t, f.wms.wms[20].LastDailyDate())
	assert.Equal(t, *cursor, *f.wms.wms[20].LastDailyDate(), "completed backfill must not move the daily cursor")
}

func TestRunSync_ReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)

	since := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	cmd := RunSyncCommand{
		TenantID:    1,
		AccountSIDs: []string{f.accountSID()},
		Mode:        "backfill",
		Since:       &since,
		Until:       &until,
		Levels:      []string{"campaign"},
	}

	_, err := f.uc.Execute(context.Background(), cmd)
	require.NoError(t, err)
	_, err = f.uc.Execute(context.Background(), cmd)
	require.NoError(t, err)

	assert.Len(t, f.metrics.rows, 6, "replay upserts the same facts")
	assert.Len(t, f.metrics.snaps, 12, "snapshots are append-only")
}

func TestRunSync_DailyCoversPriorDay(t *testing.T) {
	f := newFixture(t)

	result, err := f.uc.Execute(context.Background(), RunSyncCommand{
		TenantID:    1,
		AccountSIDs: []string{f.accountSID()},
		Mode:        "daily",
		Levels:      []string{"campaign"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Accounts[0].RowsByLevel["campaign"], "one prior day, two campaigns")

	wm := f.wms.wms[20]
	require.NotNil(t, wm.LastDailyDate())
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), *wm.LastDailyDate())
}

func TestRunSync_LevelFailureDoesNotStopSiblings(t *testing.T) {
	f := newFixture(t)
	f.insights.failLevel = "campaign"

	result, err := f.uc.Execute(context.Background(), RunSyncCommand{
		TenantID:    1,
		AccountSIDs: []string{f.accountSID()},
		Mode:        "daily",
		Levels:      []string{"campaign", "ad"},
	})
	require.NoError(t, err)

	outcome := result.Accounts[0]
	assert.Equal(t, string(syncdomain.StatusFailed), outcome.Status)
	assert.Contains(t, outcome.Error, "campaign")
	assert.Equal(t, 2, outcome.RowsByLevel["ad"], "ad level still synced after campaign failed")
	assert.Equal(t, 2, f.insights.calls)

	// Failed jobs never move the daily cursor.
	assert.Nil(t, f.wms.wms[20].LastDailyDate())
}

func TestRunSync_IntradayStampsWithoutAdvancingDaily(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), RunSyncCommand{
		TenantID:    1,
		AccountSIDs: []string{f.accountSID()},
		Mode:        "intraday",
		Levels:      []string{"campaign"},
	})
	require.NoError(t, err)

	wm := f.wms.wms[20]
	assert.Nil(t, wm.LastDailyDate(), "intraday must not advance the daily cursor")
	require.NotNil(t, wm.LastIntradayAt())
}

func TestRunSync_AuthFailureMarksConnectionAndIsolatesAccount(t *testing.T) {
	f := newFixture(t)
	f.insights.err = &metaapi.APIError{Kind: metaapi.KindAuth, Code: 190, Message: "token expired"}

	result, err := f.uc.Execute(context.Background(), RunSyncCommand{
		TenantID:    1,
		AccountSIDs: []string{f.accountSID(), "acct_missing"},
		Mode:        "daily",
		Levels:      []string{"campaign"},
	})
	require.NoError(t, err, "account failures never abort the run")
	assert.Equal(t, 2, result.FailedCount)

	first := result.Accounts[0]
	assert.Equal(t, "failed", first.Status)
	assert.Contains(t, first.Error, "token expired")

	job := f.jobs.jobs[first.JobID]
	require.NotNil(t, job)
	assert.Equal(t, syncdomain.StatusFailed, job.Status())

	conn := f.conns.conns[10]
	assert.Equal(t, connection.StatusError, conn.Status())

	wm := f.wms.wms[20]
	assert.Contains(t, wm.LastError(), "token expired")
	assert.Nil(t, wm.LastDailyDate())

	// The missing sibling fails on its own terms.
	assert.Equal(t, "failed", result.Accounts[1].Status)
	assert.Empty(t, result.Accounts[1].JobID)
}

func TestExecuteScheduled_SyncsEnabledWatermarks(t *testing.T) {
	f := newFixture(t)

	// Seed a watermark so the scheduled run has something to pick up.
	_, err := f.wms.GetOrCreate(context.Background(), 1, 20)
	require.NoError(t, err)

	result, err := f.uc.ExecuteScheduled(context.Background(), "daily")
	require.NoError(t, err)
	require.Len(t, result.Accounts, 1)
	assert.Equal(t, 1, result.SucceededCount)
	assert.Equal(t, 2, result.Accounts[0].RowsByLevel["campaign"])

	wm := f.wms.wms[20]
	require.NotNil(t, wm.LastDailyDate())
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), *wm.LastDailyDate())
}

func TestRunSync_ValidatesInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), RunSyncCommand{TenantID: 1, Mode: "daily"})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = f.uc.Execute(context.Background(), RunSyncCommand{
		TenantID: 1, AccountSIDs: []string{"a"}, Mode: "hourly"})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = f.uc.Execute(context.Background(), RunSyncCommand{
		TenantID: 1, AccountSIDs: []string{"a"}, Mode: "daily", Levels: []string{"bogus"}})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestNormalizeRow(t *testing.T) {
	row, err := normalizeRow(1, 2, metrics.LevelAd, metaapi.InsightRow{
		DateStart: "2026-03-10",
		AdID:      "ad_1",
		AdName:    "Spring ad",
		Spend:     "5.00",
		// Impressions and clicks can be absent entirely.
		Actions: []metaapi.InsightValue{
			{ActionType: "purchase", Value: "2"},
			{ActionType: "link_click", Value: "40"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ad_1", row.EntityID)
	assert.InDelta(t, 2.0, row.Conversions, 0.001, "only purchase variants count")
	assert.Zero(t, row.CTR)

	_, err = normalizeRow(1, 2, metrics.LevelAd, metaapi.InsightRow{DateStart: "not-a-date", AdID: "x"})
	assert.Error(t, err)

	_, err = normalizeRow(1, 2, metrics.LevelCampaign, metaapi.InsightRow{DateStart: "2026-03-10", AdID: "x"})
	assert.Error(t, err, "campaign level requires a campaign identifier")
}
