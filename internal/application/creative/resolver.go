// Package creative implements waterfall resolution of ad creative assets.
// Each creative payload offers several media and text sources of varying
// fidelity; the resolver walks them in declared order and keeps the first
// that yields a value.
package creative

import (
	"context"
	"encoding/json"
	"time"

	creativedomain "github.com/meridian-ads/meridian/internal/domain/creative"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

// CreativeAPI is the slice of the platform client the resolver needs.
type CreativeAPI interface {
	GetAdCreative(ctx context.Context, token, adID string) (*metaapi.AdCreative, error)
	GetAdCreativesBatch(ctx context.Context, token string, adIDs []string) (map[string]*metaapi.AdCreative, map[string]error, error)
	GetVideoThumbnails(ctx context.Context, token, videoID string) ([]metaapi.VideoThumbnail, error)
	GetPost(ctx context.Context, token, postID string) (*metaapi.Post, error)
	GetAdImages(ctx context.Context, token, accountExternalID string, hashes []string) (map[string]metaapi.AdImage, error)
	BatchCap() int
}

// MediaStore durably caches resolved media. Optional; a nil store disables
// media caching.
type MediaStore interface {
	Cache(ctx context.Context, tenantID uint, adID, mediaType, sourceURL string) (storedURL string, sizeBytes int64, err error)
}

// Resolver turns ad IDs into persisted creative records.
type Resolver struct {
	api    CreativeAPI
	repo   creativedomain.Repository
	store  MediaStore
	logger logger.Interface

	interBatchDelay time.Duration
	sleep           func(context.Context, time.Duration) error

	// scope swaps in a tenant-bound client so upstream calls draw from that
	// tenant's request budget. Nil means the base client is used as-is.
	scope func(tenantID uint) CreativeAPI
}

func NewResolver(api CreativeAPI, repo creativedomain.Repository, store MediaStore, interBatchDelay time.Duration, log logger.Interface) *Resolver {
	return &Resolver{
		api:             api,
		repo:            repo,
		store:           store,
		logger:          log.Named("creative.resolver"),
		interBatchDelay: interBatchDelay,
		sleep:           sleepCtx,
	}
}

// WithTenantScope makes the resolver draw each run's upstream calls from the
// requesting tenant's budget.
func (r *Resolver) WithTenantScope(scope func(tenantID uint) CreativeAPI) *Resolver {
	r.scope = scope
	return r
}

func (r *Resolver) apiFor(tenantID uint) CreativeAPI {
	if r.scope != nil {
		return r.scope(tenantID)
	}
	return r.api
}

// Request identifies one ad to resolve and the context it lives in.
type Request struct {
	TenantID          uint
	AccountID         uint
	AccountExternalID string
	Token             string
	AdID              string
	CacheMedia        bool
}

// Resolve fetches and resolves a single ad's creative. A record is upserted
// whatever the outcome, so consumers can distinguish "resolution failed" from
// "never attempted". Auth failures are returned without writing a record:
// they indict the connection, not the creative.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*creativedomain.Record, error) {
	api := r.apiFor(req.TenantID)
	rc := newRunCache(api, req.Token)

	ac, err := api.GetAdCreative(ctx, req.Token, req.AdID)
	if err != nil {
		if metaapi.IsAuthError(err) {
			return nil, err
		}
		r.logger.Warnw("creative fetch failed", "ad_id", req.AdID, "error", err)
		rec := r.failedRecord(req)
		return rec, r.persist(ctx, rec)
	}

	rec := r.resolveOne(ctx, rc, req, ac)
	return rec, r.persist(ctx, rec)
}

// BatchOutcome carries parallel per-ad results and errors; one sub-request
// failing never contaminates its siblings.
type BatchOutcome struct {
	Records map[string]*creativedomain.Record
	Errors  map[string]error
}

// Resolved and Failed report the outcome counts.
func (o *BatchOutcome) Resolved() int { return len(o.Records) }
func (o *BatchOutcome) Failed() int   { return len(o.Errors) }

// ResolveBatch resolves many ads with composite batch requests, chunked to
// the client's batch cap and pipelined with a small delay between chunks.
// Lookup caches are shared across the whole run.
func (r *Resolver) ResolveBatch(ctx context.Context, req Request, adIDs []string) (*BatchOutcome, error) {
	api := r.apiFor(req.TenantID)
	rc := newRunCache(api, req.Token)
	outcome := &BatchOutcome{
		Records: make(map[string]*creativedomain.Record, len(adIDs)),
		Errors:  make(map[string]error),
	}

	batchCap := api.BatchCap()
	for start := 0; start < len(adIDs); start += batchCap {
		end := start + batchCap
		if end > len(adIDs) {
			end = len(adIDs)
		}
		chunk := adIDs[start:end]

		if start > 0 && r.interBatchDelay > 0 {
			if err := r.sleep(ctx, r.interBatchDelay); err != nil {
				return outcome, err
			}
		}

		creatives, errs, err := api.GetAdCreativesBatch(ctx, req.Token, chunk)
		if err != nil {
			// The whole chunk failed (transport, auth). Auth aborts the run;
			// anything else marks the chunk's ads failed and moves on.
			if metaapi.IsAuthError(err) {
				return outcome, err
			}
			r.logger.Warnw("creative batch failed", "size", len(chunk), "error", err)
			for _, adID := range chunk {
				outcome.Errors[adID] = err
			}
			continue
		}

		for adID, fetchErr := range errs {
			outcome.Errors[adID] = fetchErr
			sub := req
			sub.AdID = adID
			rec := r.failedRecord(sub)
			if perr := r.persist(ctx, rec); perr != nil {
				r.logger.Errorw("failed to persist failed-creative record", "ad_id", adID, "error", perr)
			}
		}

		for adID, ac := range creatives {
			sub := req
			sub.AdID = adID
			rec := r.resolveOne(ctx, rc, sub, ac)
			if perr := r.persist(ctx, rec); perr != nil {
				// The record still resolved; the write failure is logged, not
				// double-counted against the ad.
				r.logger.Errorw("failed to persist creative record", "ad_id", adID, "error", perr)
			}
			outcome.Records[adID] = rec
		}
	}

	return outcome, nil
}

// resolveOne applies the full waterfall to a fetched creative payload.
func (r *Resolver) resolveOne(ctx context.Context, rc *runCache, req Request, ac *metaapi.AdCreative) *creativedomain.Record {
	now := time.Now().UTC()
	rec := &creativedomain.Record{
		TenantID:   req.TenantID,
		AccountID:  req.AccountID,
		AdID:       req.AdID,
		ResolvedAt: now,
	}
	if raw, err := json.Marshal(ac); err == nil {
		rec.RawSource = raw
	}

	rec.CreativeType = detectType(ac)
	rec.VideoID = primaryVideoID(ac)
	rec.ImageHash = primaryImageHash(ac)
	rec.PostID = ac.EffectiveObjectStoryID

	media := r.resolveMedia(ctx, rc, req.AccountExternalID, ac, rec.CreativeType)
	rec.MediaURL = media.url
	rec.MediaURLHD = media.hdURL
	rec.Width = media.width
	rec.Height = media.height
	rec.Quality = creativedomain.ClassifyQuality(media.width, media.height)

	rec.Texts = r.resolveTexts(ctx, rc, ac)
	rec.Classify()

	if req.CacheMedia && rec.MediaURL != "" && r.store != nil {
		src := rec.MediaURLHD
		if src == "" {
			src = rec.MediaURL
		}
		stored, size, err := r.store.Cache(ctx, req.TenantID, req.AdID, mediaTypeOf(rec.CreativeType), src)
		if err != nil {
			r.logger.Warnw("media caching failed", "ad_id", req.AdID, "error", err)
		} else {
			rec.CachedMediaURL = stored
			rec.CachedBytes = size
		}
	}

	return rec
}

func (r *Resolver) failedRecord(req Request) *creativedomain.Record {
	return &creativedomain.Record{
		TenantID:     req.TenantID,
		AccountID:    req.AccountID,
		AdID:         req.AdID,
		CreativeType: creativedomain.TypeUnknown,
		Quality:      creativedomain.QualityUnknown,
		Status:       creativedomain.FetchFailed,
		ResolvedAt:   time.Now().UTC(),
	}
}

// persist upserts the record. A storage failure is surfaced as a typed error
// but the in-memory record remains valid for the caller.
func (r *Resolver) persist(ctx context.Context, rec *creativedomain.Record) error {
	if err := r.repo.Upsert(ctx, rec); err != nil {
		r.logger.Errorw("failed to persist creative record", "ad_id", rec.AdID, "error", err)
		return apperrors.NewPersistenceError("failed to persist creative record", err.Error())
	}
	return nil
}

func mediaTypeOf(t creativedomain.Type) string {
	if t == creativedomain.TypeVideo {
		return "video"
	}
	return "image"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
