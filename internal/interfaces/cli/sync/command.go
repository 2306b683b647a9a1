// Package sync provides a one-shot sync run from the command line,
// useful for backfills and operational replays.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	creativeApp "github.com/meridian-ads/meridian/internal/application/creative"
	syncUsecases "github.com/meridian-ads/meridian/internal/application/sync/usecases"
	"github.com/meridian-ads/meridian/internal/infrastructure/config"
	"github.com/meridian-ads/meridian/internal/infrastructure/database"
	"github.com/meridian-ads/meridian/internal/infrastructure/mediacache"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
	"github.com/meridian-ads/meridian/internal/infrastructure/ratelimit"
	"github.com/meridian-ads/meridian/internal/infrastructure/repository"
	"github.com/meridian-ads/meridian/internal/infrastructure/vault"
	"github.com/meridian-ads/meridian/internal/shared/biztime"
	shareddb "github.com/meridian-ads/meridian/internal/shared/db"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

var (
	env           string
	tenantID      uint
	accountSIDs   []string
	mode          string
	since         string
	until         string
	levels        []string
	syncCreatives bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a metric sync once and exit",
		Long:  `Run a daily, intraday, or backfill sync for the given tenant accounts and print the per-account outcome.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().UintVar(&tenantID, "tenant", 0, "Tenant ID (required)")
	cmd.Flags().StringSliceVar(&accountSIDs, "account", nil, "Account SID, repeatable (required)")
	cmd.Flags().StringVar(&mode, "mode", "daily", "Sync mode (daily, intraday, backfill)")
	cmd.Flags().StringVar(&since, "since", "", "Custom range start (YYYY-MM-DD, requires --until)")
	cmd.Flags().StringVar(&until, "until", "", "Custom range end (YYYY-MM-DD, requires --since)")
	cmd.Flags().StringSliceVar(&levels, "levels", nil, "Metric levels, comma-separated or repeatable (campaign, adset, ad; default all)")
	cmd.Flags().BoolVar(&syncCreatives, "creatives", false, "Resolve creatives for synced ads")
	cmd.MarkFlagRequired("tenant")
	cmd.MarkFlagRequired("account")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	uc, err := buildRunSync(cfg, log)
	if err != nil {
		return err
	}

	runCmd := syncUsecases.RunSyncCommand{
		TenantID:      tenantID,
		AccountSIDs:   accountSIDs,
		Mode:          mode,
		Levels:        levels,
		SyncCreatives: syncCreatives,
	}
	if since != "" {
		t, err := biztime.ParseDate(since)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
		runCmd.Since = &t
	}
	if until != "" {
		t, err := biztime.ParseDate(until)
		if err != nil {
			return fmt.Errorf("invalid --until: %w", err)
		}
		runCmd.Until = &t
	}

	result, err := uc.Execute(context.Background(), runCmd)
	if err != nil {
		return err
	}

	fmt.Printf("\nSync Result: %d succeeded, %d failed\n", result.SucceededCount, result.FailedCount)
	for _, acct := range result.Accounts {
		fmt.Printf("  %s: %s", acct.AccountSID, acct.Status)
		if acct.JobID != "" {
			fmt.Printf(" (job %s)", acct.JobID)
		}
		if acct.Error != "" {
			fmt.Printf(" error=%s", acct.Error)
		}
		for level, rows := range acct.RowsByLevel {
			fmt.Printf(" %s=%d", level, rows)
		}
		if syncCreatives {
			fmt.Printf(" creatives=%d/%d", acct.CreativesResolved, acct.CreativesResolved+acct.CreativesFailed)
		}
		fmt.Println()
	}

	if result.FailedCount > 0 {
		return fmt.Errorf("%d account(s) failed", result.FailedCount)
	}
	return nil
}

func buildRunSync(cfg *config.Config, log logger.Interface) (*syncUsecases.RunSyncUseCase, error) {
	db := database.Get()

	connRepo := repository.NewConnectionRepository(db)
	acctRepo := repository.NewAdAccountRepository(db)
	jobRepo := repository.NewSyncJobRepository(db)
	wmRepo := repository.NewSyncWatermarkRepository(db)
	metricRepo := repository.NewMetricRepository(db)
	creativeRepo := repository.NewCreativeRepository(db)

	tokenVault, err := vault.New(&cfg.Vault, log)
	if err != nil {
		return nil, err
	}

	budget := ratelimit.NewNoopLimiter()
	if cfg.Redis.Enabled {
		budget = ratelimit.NewRedisLimiter(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	}

	client := metaapi.New(metaapi.Options{
		BaseURL:  cfg.Meta.GraphBaseURL,
		Version:  cfg.Meta.APIVersion,
		MaxPages: cfg.Meta.MaxPages,
		BatchCap: cfg.Meta.BatchSize,
		Timeout:  time.Duration(cfg.Meta.RequestTimeoutS) * time.Second,
		Policy: metaapi.RetryPolicy{
			MaxRetries: cfg.Meta.MaxRetries,
			Base:       time.Duration(cfg.Meta.RetryBaseMS) * time.Millisecond,
			Ceiling:    30 * time.Second,
		},
		Budget: budget,
		BudgetConfig: ratelimit.BudgetConfig{
			RequestsPerMinute: cfg.Meta.TenantPerMinute,
			RequestsPerHour:   cfg.Meta.TenantPerHour,
		},
		BreakerThreshold: uint32(cfg.Meta.BreakerThreshold),
		Logger:           log,
	})

	mediaStore := mediacache.NewStore(&cfg.Media, log)

	resolver := creativeApp.NewResolver(
		client, creativeRepo, mediaStore,
		time.Duration(cfg.Meta.InterBatchMS)*time.Millisecond, log,
	).WithTenantScope(func(tid uint) creativeApp.CreativeAPI {
		return client.ForTenant(tid)
	})

	uc := syncUsecases.NewRunSyncUseCase(
		acctRepo, connRepo, jobRepo, wmRepo, metricRepo,
		client, tokenVault, resolver, cfg.Sync.BackfillDays, log,
	).WithTenantScope(func(tid uint) syncUsecases.InsightsFetcher {
		return client.ForTenant(tid)
	}).WithTransactor(shareddb.NewTransactionManager(db))

	return uc, nil
}
