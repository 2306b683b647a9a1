package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-ads/meridian/internal/application/creative"
	"github.com/meridian-ads/meridian/internal/domain/account"
	"github.com/meridian-ads/meridian/internal/domain/connection"
	"github.com/meridian-ads/meridian/internal/domain/metrics"
	syncdomain "github.com/meridian-ads/meridian/internal/domain/sync"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
	"github.com/meridian-ads/meridian/internal/shared/biztime"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

// InsightsFetcher is the slice of the platform client the orchestrator needs.
type InsightsFetcher interface {
	FetchInsights(ctx context.Context, token, accountExternalID, level string, since, until time.Time, visit func(row metaapi.InsightRow, raw json.RawMessage) error) error
}

// TokenRevealer opens sealed tokens for upstream calls.
type TokenRevealer interface {
	Reveal(stored string, isPlaintext bool) (string, error)
}

// Transactor runs fn inside a storage transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type RunSyncCommand struct {
	TenantID    uint
	AccountSIDs []string
	Mode        string
	// Since and Until override the mode-derived range when both are set.
	Since         *time.Time
	Until         *time.Time
	Levels        []string
	SyncCreatives bool
}

// AccountOutcome is the per-account result of one run. Sibling accounts fail
// independently.
type AccountOutcome struct {
	AccountSID        string
	JobID             string
	Status            string
	RowsByLevel       map[string]int
	CreativesResolved int
	CreativesFailed   int
	Error             string
}

type RunSyncResult struct {
	Accounts       []AccountOutcome
	SucceededCount int
	FailedCount    int
}

// RunSyncUseCase executes metric syncs for a set of accounts: one job per
// account, sequential, with watermark bookkeeping.
type RunSyncUseCase struct {
	acctRepo   account.Repository
	connRepo   connection.Repository
	jobRepo    syncdomain.JobRepository
	wmRepo     syncdomain.WatermarkRepository
	metricRepo metrics.Repository
	insights   InsightsFetcher
	vault      TokenRevealer
	resolver   *creative.Resolver
	tx         Transactor

	backfillDays int
	logger       logger.Interface
	now          func() time.Time

	// scope swaps in a tenant-bound client so fetches draw from that
	// tenant's request budget. Nil means the base fetcher is used as-is.
	scope func(tenantID uint) InsightsFetcher
}

// WithTenantScope makes each account's fetches draw from its tenant's budget.
func (uc *RunSyncUseCase) WithTenantScope(scope func(tenantID uint) InsightsFetcher) *RunSyncUseCase {
	uc.scope = scope
	return uc
}

// WithTransactor makes per-level persistence transactional. Without it each
// write stands alone, which the upsert key still keeps replay-safe.
func (uc *RunSyncUseCase) WithTransactor(tx Transactor) *RunSyncUseCase {
	uc.tx = tx
	return uc
}

func (uc *RunSyncUseCase) insightsFor(tenantID uint) InsightsFetcher {
	if uc.scope != nil {
		return uc.scope(tenantID)
	}
	return uc.insights
}

func NewRunSyncUseCase(
	acctRepo account.Repository,
	connRepo connection.Repository,
	jobRepo syncdomain.JobRepository,
	wmRepo syncdomain.WatermarkRepository,
	metricRepo metrics.Repository,
	insights InsightsFetcher,
	vault TokenRevealer,
	resolver *creative.Resolver,
	backfillDays int,
	log logger.Interface,
) *RunSyncUseCase {
	if backfillDays <= 0 {
		backfillDays = 28
	}
	return &RunSyncUseCase{
		acctRepo:     acctRepo,
		connRepo:     connRepo,
		jobRepo:      jobRepo,
		wmRepo:       wmRepo,
		metricRepo:   metricRepo,
		insights:     insights,
		vault:        vault,
		resolver:     resolver,
		backfillDays: backfillDays,
		logger:       log.Named("sync.orchestrator"),
		now:          biztime.NowUTC,
	}
}

func (uc *RunSyncUseCase) Execute(ctx context.Context, cmd RunSyncCommand) (*RunSyncResult, error) {
	if cmd.TenantID == 0 {
		return nil, apperrors.NewValidationError("tenant is required")
	}
	if len(cmd.AccountSIDs) == 0 {
		return nil, apperrors.NewValidationError("at least one account is required")
	}

	kind, err := syncdomain.ParseJobKind(cmd.Mode)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	levels, err := parseLevels(cmd.Levels)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	since, until := uc.dateRange(kind, cmd.Since, cmd.Until)

	result := &RunSyncResult{Accounts: make([]AccountOutcome, 0, len(cmd.AccountSIDs))}
	for _, sid := range cmd.AccountSIDs {
		outcome := uc.syncAccount(ctx, cmd.TenantID, sid, kind, since, until, levels, cmd.SyncCreatives)
		result.Accounts = append(result.Accounts, outcome)
		if outcome.Status == string(syncdomain.StatusCompleted) {
			result.SucceededCount++
		} else {
			result.FailedCount++
		}
	}
	return result, nil
}

// ExecuteScheduled syncs every account with an enabled watermark. It backs
// the daily and intraday schedulers. Daily runs also refresh creatives;
// intraday runs skip them to keep the loop cheap.
func (uc *RunSyncUseCase) ExecuteScheduled(ctx context.Context, mode string) (*RunSyncResult, error) {
	kind, err := syncdomain.ParseJobKind(mode)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	wms, err := uc.wmRepo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	since, until := uc.dateRange(kind, nil, nil)
	syncCreatives := kind == syncdomain.KindDaily

	result := &RunSyncResult{Accounts: make([]AccountOutcome, 0, len(wms))}
	for _, wm := range wms {
		acct, err := uc.acctRepo.GetByID(ctx, wm.AccountID())
		if err != nil {
			uc.logger.Errorw("skipping watermark with missing account", "account_id", wm.AccountID(), "error", err)
			result.Accounts = append(result.Accounts, AccountOutcome{
				Status: string(syncdomain.StatusFailed),
				Error:  err.Error(),
			})
			result.FailedCount++
			continue
		}

		outcome := uc.syncLoadedAccount(ctx, acct, kind, since, until, metrics.AllLevels(), syncCreatives)
		result.Accounts = append(result.Accounts, outcome)
		if outcome.Status == string(syncdomain.StatusCompleted) {
			result.SucceededCount++
		} else {
			result.FailedCount++
		}
	}
	return result, nil
}

// dateRange derives the sync window. Daily covers the prior full UTC day,
// intraday the current partial day, backfill the trailing window up to
// yesterday.
func (uc *RunSyncUseCase) dateRange(kind syncdomain.JobKind, since, until *time.Time) (time.Time, time.Time) {
	if since != nil && until != nil {
		return biztime.StartOfDay(*since), biztime.StartOfDay(*until)
	}
	today := biztime.StartOfDay(uc.now())
	yesterday := today.AddDate(0, 0, -1)
	switch kind {
	case syncdomain.KindIntraday:
		return today, today
	case syncdomain.KindBackfill:
		return today.AddDate(0, 0, -uc.backfillDays), yesterday
	default:
		return yesterday, yesterday
	}
}

func parseLevels(names []string) ([]metrics.Level, error) {
	if len(names) == 0 {
		return metrics.AllLevels(), nil
	}
	levels := make([]metrics.Level, 0, len(names))
	for _, name := range names {
		level, err := metrics.ParseLevel(name)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func (uc *RunSyncUseCase) syncAccount(
	ctx context.Context,
	tenantID uint,
	accountSID string,
	kind syncdomain.JobKind,
	since, until time.Time,
	levels []metrics.Level,
	syncCreatives bool,
) AccountOutcome {
	acct, err := uc.acctRepo.GetBySID(ctx, tenantID, accountSID)
	if err != nil {
		return AccountOutcome{AccountSID: accountSID, Status: string(syncdomain.StatusFailed), Error: err.Error()}
	}
	return uc.syncLoadedAccount(ctx, acct, kind, since, until, levels, syncCreatives)
}

func (uc *RunSyncUseCase) syncLoadedAccount(
	ctx context.Context,
	acct *account.AdAccount,
	kind syncdomain.JobKind,
	since, until time.Time,
	levels []metrics.Level,
	syncCreatives bool,
) AccountOutcome {
	tenantID := acct.TenantID()
	outcome := AccountOutcome{AccountSID: acct.SID(), Status: string(syncdomain.StatusFailed)}

	job, err := syncdomain.NewJob(tenantID, acct.ID(), kind, since, until)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	if err := uc.jobRepo.Create(ctx, job); err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.JobID = job.JobID()

	wm, err := uc.wmRepo.GetOrCreate(ctx, tenantID, acct.ID())
	if err != nil {
		outcome.Error = err.Error()
		uc.failJob(ctx, job, err)
		return outcome
	}

	uc.logger.Infow("sync started",
		"job_id", job.JobID(),
		"account_sid", acct.SID(),
		"kind", string(kind),
		"since", biztime.FormatDate(since),
		"until", biztime.FormatDate(until))

	runErr := uc.runJob(ctx, job, acct, since, until, levels, syncCreatives)

	if runErr != nil {
		uc.failJob(ctx, job, runErr)
		wm.RecordError(runErr.Error())
		if err := uc.wmRepo.Update(ctx, wm); err != nil {
			uc.logger.Errorw("failed to update watermark", "job_id", job.JobID(), "error", err)
		}
		outcome.Error = runErr.Error()
		outcome.RowsByLevel = job.RowsByLevel()
		return outcome
	}

	if err := job.Complete(); err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	if err := uc.jobRepo.Update(ctx, job); err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	// Only a completed daily run moves the daily cursor. Backfills rewrite
	// history behind it and intraday runs only stamp the partial-day marker.
	now := uc.now()
	switch kind {
	case syncdomain.KindIntraday:
		wm.RecordIntraday(now)
	case syncdomain.KindDaily:
		wm.AdvanceDaily(until)
	}
	wm.RecordSuccess(now)
	if err := uc.wmRepo.Update(ctx, wm); err != nil {
		uc.logger.Errorw("failed to update watermark", "job_id", job.JobID(), "error", err)
	}

	outcome.Status = string(syncdomain.StatusCompleted)
	outcome.RowsByLevel = job.RowsByLevel()
	outcome.CreativesResolved = job.CreativesResolved()
	outcome.CreativesFailed = job.CreativesFailed()

	uc.logger.Infow("sync completed",
		"job_id", job.JobID(),
		"account_sid", acct.SID(),
		"rows", job.TotalRows(),
		"creatives_resolved", job.CreativesResolved(),
		"creatives_failed", job.CreativesFailed(),
		"duration_ms", job.DurationMS())
	return outcome
}

// runJob does the fetch and write work for one account. Auth failures mark
// the connection errored so schedulers skip it until the token is refreshed.
func (uc *RunSyncUseCase) runJob(
	ctx context.Context,
	job *syncdomain.Job,
	acct *account.AdAccount,
	since, until time.Time,
	levels []metrics.Level,
	syncCreatives bool,
) error {
	conn, token, err := uc.resolveCredential(ctx, acct)
	if err != nil {
		return err
	}

	// A failing level does not stop its siblings; an auth failure does,
	// since every remaining call would fail the same way.
	var adIDs []string
	var levelErrs []string
	for _, level := range levels {
		count, levelAdIDs, err := uc.syncLevel(ctx, job, acct, token, level, since, until)
		if err != nil {
			if metaapi.IsAuthError(err) {
				uc.markConnectionError(ctx, conn)
				return err
			}
			levelErrs = append(levelErrs, fmt.Sprintf("%s: %v", level, err))
			continue
		}
		job.RecordRows(string(level), count)
		if level == metrics.LevelAd {
			adIDs = levelAdIDs
		}
	}
	if err := uc.jobRepo.Update(ctx, job); err != nil {
		return err
	}
	if len(levelErrs) > 0 {
		return fmt.Errorf("%s", strings.Join(levelErrs, "; "))
	}

	if syncCreatives && len(adIDs) > 0 && uc.resolver != nil {
		batch, err := uc.resolver.ResolveBatch(ctx, creative.Request{
			TenantID:          job.TenantID(),
			AccountID:         acct.ID(),
			AccountExternalID: acct.ExternalID(),
			Token:             token,
		}, adIDs)
		if err != nil {
			if metaapi.IsAuthError(err) {
				uc.markConnectionError(ctx, conn)
			}
			return err
		}
		job.RecordCreatives(batch.Resolved(), batch.Failed())
	}

	return nil
}

// syncLevel streams one level's insight pages, appending raw snapshots and
// upserting normalized rows. Ad IDs are collected for creative resolution.
func (uc *RunSyncUseCase) syncLevel(
	ctx context.Context,
	job *syncdomain.Job,
	acct *account.AdAccount,
	token string,
	level metrics.Level,
	since, until time.Time,
) (int, []string, error) {
	var (
		rows  []*metrics.Row
		snaps []*metrics.Snapshot
		seen  = make(map[string]struct{})
		ids   []string
	)

	err := uc.insightsFor(job.TenantID()).FetchInsights(ctx, token, acct.ExternalID(), string(level), since, until,
		func(in metaapi.InsightRow, raw json.RawMessage) error {
			snaps = append(snaps, &metrics.Snapshot{
				TenantID:  job.TenantID(),
				AccountID: acct.ID(),
				Level:     level,
				JobID:     job.JobID(),
				Payload:   append([]byte(nil), raw...),
			})

			row, err := normalizeRow(job.TenantID(), acct.ID(), level, in)
			if err != nil {
				// A malformed row is logged and skipped; one bad row must not
				// sink the page.
				uc.logger.Warnw("skipping malformed insight row", "job_id", job.JobID(), "level", string(level), "error", err)
				return nil
			}
			rows = append(rows, row)

			if level == metrics.LevelAd {
				if _, ok := seen[row.EntityID]; !ok {
					seen[row.EntityID] = struct{}{}
					ids = append(ids, row.EntityID)
				}
			}
			return nil
		})
	if err != nil {
		return 0, nil, err
	}

	persist := func(ctx context.Context) error {
		if len(snaps) > 0 {
			if err := uc.metricRepo.AppendSnapshots(ctx, snaps); err != nil {
				return err
			}
		}
		if len(rows) > 0 {
			if err := uc.metricRepo.UpsertRows(ctx, rows); err != nil {
				return err
			}
		}
		return nil
	}

	// Snapshots and rows for one level land together or not at all.
	if uc.tx != nil {
		if err := uc.tx.RunInTransaction(ctx, persist); err != nil {
			return 0, nil, err
		}
	} else if err := persist(ctx); err != nil {
		return 0, nil, err
	}
	return len(rows), ids, nil
}

func (uc *RunSyncUseCase) resolveCredential(ctx context.Context, acct *account.AdAccount) (*connection.Connection, string, error) {
	if acct.PrimaryConnectionID() == 0 {
		return nil, "", apperrors.NewConflictError("account has no primary connection")
	}
	conn, err := uc.connRepo.GetByID(ctx, acct.PrimaryConnectionID())
	if err != nil {
		return nil, "", err
	}
	if !conn.Usable() {
		return nil, "", apperrors.NewConflictError("connection is not usable: status is " + conn.Status().String())
	}
	token, err := uc.vault.Reveal(conn.TokenCiphertext(), conn.TokenIsPlaintext())
	if err != nil {
		return nil, "", apperrors.NewInternalError("failed to reveal connection token", err.Error())
	}
	return conn, token, nil
}

func (uc *RunSyncUseCase) markConnectionError(ctx context.Context, conn *connection.Connection) {
	conn.MarkError()
	if err := uc.connRepo.Update(ctx, conn); err != nil {
		uc.logger.Errorw("failed to mark connection errored", "connection_sid", conn.SID(), "error", err)
	}
}

func (uc *RunSyncUseCase) failJob(ctx context.Context, job *syncdomain.Job, cause error) {
	if err := job.Fail(cause.Error()); err != nil {
		uc.logger.Errorw("failed to finalize job", "job_id", job.JobID(), "error", err)
		return
	}
	if err := uc.jobRepo.Update(ctx, job); err != nil {
		uc.logger.Errorw("failed to persist failed job", "job_id", job.JobID(), "error", err)
	}
}
