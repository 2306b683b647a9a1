package creative

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	creativedomain "github.com/meridian-ads/meridian/internal/domain/creative"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

type fakeAPI struct {
	mu sync.Mutex

	creatives map[string]*metaapi.AdCreative
	fetchErrs map[string]error
	images    map[string]metaapi.AdImage
	posts     map[string]*metaapi.Post
	thumbs    map[string][]metaapi.VideoThumbnail

	imageCalls int
	postCalls  int
	thumbCalls int
	batchCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		creatives: make(map[string]*metaapi.AdCreative),
		fetchErrs: make(map[string]error),
		images:    make(map[string]metaapi.AdImage),
		posts:     make(map[string]*metaapi.Post),
		thumbs:    make(map[string][]metaapi.VideoThumbnail),
	}
}

func (f *fakeAPI) GetAdCreative(ctx context.Context, token, adID string) (*metaapi.AdCreative, error) {
	if err, ok := f.fetchErrs[adID]; ok {
		return nil, err
	}
	ac, ok := f.creatives[adID]
	if !ok {
		return nil, &metaapi.APIError{Kind: metaapi.KindNotFound, Code: 803, Message: "unknown ad"}
	}
	return ac, nil
}

func (f *fakeAPI) GetAdCreativesBatch(ctx context.Context, token string, adIDs []string) (map[string]*metaapi.AdCreative, map[string]error, error) {
	f.mu.Lock()
	f.batchCalls++
	f.mu.Unlock()

	results := make(map[string]*metaapi.AdCreative)
	errs := make(map[string]error)
	for _, adID := range adIDs {
		if err, ok := f.fetchErrs[adID]; ok {
			errs[adID] = err
			continue
		}
		if ac, ok := f.creatives[adID]; ok {
			results[adID] = ac
		} else {
			errs[adID] = &metaapi.APIError{Kind: metaapi.KindNotFound, Code: 803}
		}
	}
	return results, errs, nil
}

func (f *fakeAPI) GetVideoThumbnails(ctx context.Context, token, videoID string) ([]metaapi.VideoThumbnail, error) {
	f.mu.Lock()
	f.thumbCalls++
	f.mu.Unlock()
	return f.thumbs[videoID], nil
}

func (f *fakeAPI) GetPost(ctx context.Context, token, postID string) (*metaapi.Post, error) {
	f.mu.Lock()
	f.postCalls++
	f.mu.Unlock()
	if post, ok := f.posts[postID]; ok {
		return post, nil
	}
	return nil, &metaapi.APIError{Kind: metaapi.KindNotFound, Code: 803}
}

func (f *fakeAPI) GetAdImages(ctx context.Context, token, accountExternalID string, hashes []string) (map[string]metaapi.AdImage, error) {
	f.mu.Lock()
	f.imageCalls++
	f.mu.Unlock()
	result := make(map[string]metaapi.AdImage)
	for _, h := range hashes {
		if img, ok := f.images[h]; ok {
			result[h] = img
		}
	}
	return result, nil
}

func (f *fakeAPI) BatchCap() int { return 50 }

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*creativedomain.Record
	failing bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*creativedomain.Record)}
}

func (r *fakeRepo) Upsert(ctx context.Context, rec *creativedomain.Record) error {
	if r.failing {
		return fmt.Errorf("disk full")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.AdID] = &cp
	return nil
}

func (r *fakeRepo) GetByAdID(ctx context.Context, tenantID uint, adID string) (*creativedomain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[adID]; ok {
		return rec, nil
	}
	return nil, apperrors.NewNotFoundError("creative record not found")
}

func (r *fakeRepo) ListByAccount(ctx context.Context, tenantID, accountID uint, limit int) ([]*creativedomain.Record, error) {
	return nil, nil
}

func newTestResolver(api *fakeAPI, repo *fakeRepo) *Resolver {
	r := NewResolver(api, repo, nil, 0, logger.NewLogger())
	r.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return r
}

func baseRequest(adID string) Request {
	return Request{
		TenantID:          1,
		AccountID:         2,
		AccountExternalID: "act_100",
		Token:             "tok",
		AdID:              adID,
	}
}

func TestResolve_DirectImageURLWinsOverLowResFields(t *testing.T) {
	api := newFakeAPI()
	api.creatives["ad_1"] = &metaapi.AdCreative{
		ID:           "cr_1",
		ImageURL:     "https://cdn.example.com/full.jpg?width=1920&height=1080",
		ThumbnailURL: "https://cdn.example.com/thumb.jpg",
		Title:        "Hello",
		Body:         "World",
	}
	repo := newFakeRepo()

	rec, err := newTestResolver(api, repo).Resolve(context.Background(), baseRequest("ad_1"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/full.jpg?width=1920&height=1080", rec.MediaURL)
	assert.Equal(t, creativedomain.TypeImage, rec.CreativeType)
	assert.Equal(t, 1920, rec.Width)
	assert.Equal(t, creativedomain.QualityHD, rec.Quality)
	assert.Equal(t, creativedomain.FetchSuccess, rec.Status)
	assert.NotNil(t, repo.records["ad_1"])
	assert.Zero(t, api.imageCalls, "direct URL must preempt hash lookup")
}

func TestResolve_VideoPicksLargestThumbnail(t *testing.T) {
	api := newFakeAPI()
	api.creatives["ad_2"] = &metaapi.AdCreative{
		ID:      "cr_2",
		VideoID: "vid_9",
		ObjectStorySpec: &metaapi.StorySpec{
			VideoData: &metaapi.VideoData{
				VideoID: "vid_9",
				Title:   "Launch video",
				Message: "Watch now",
			},
		},
	}
	api.thumbs["vid_9"] = []metaapi.VideoThumbnail{
		{URI: "https://cdn.example.com/small.jpg", Width: 320, Height: 180},
		{URI: "https://cdn.example.com/big.jpg", Width: 1280, Height: 720, IsPreferred: true},
	}
	repo := newFakeRepo()

	rec, err := newTestResolver(api, repo).Resolve(context.Background(), baseRequest("ad_2"))
	require.NoError(t, err)

	assert.Equal(t, creativedomain.TypeVideo, rec.CreativeType)
	assert.Equal(t, "https://cdn.example.com/big.jpg", rec.MediaURL)
	assert.Equal(t, creativedomain.QualityHD, rec.Quality)
	assert.Equal(t, "vid_9", rec.VideoID)
	assert.Equal(t, "Launch video", rec.Texts.Title)
}

func TestResolve_PostFullPictureBeatsGenericFields(t *testing.T) {
	api := newFakeAPI()
	api.creatives["ad_3"] = &metaapi.AdCreative{
		ID:                     "cr_3",
		ThumbnailURL:           "https://cdn.example.com/64x64.jpg",
		EffectiveObjectStoryID: "page_post_77",
	}
	api.posts["page_post_77"] = &metaapi.Post{
		ID:          "page_post_77",
		FullPicture: "https://cdn.example.com/p1080x1080/original.jpg",
		Message:     "Organic copy",
	}
	repo := newFakeRepo()

	rec, err := newTestResolver(api, repo).Resolve(context.Background(), baseRequest("ad_3"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/p1080x1080/original.jpg", rec.MediaURL)
	assert.Equal(t, 1080, rec.Width)
	assert.Equal(t, "Organic copy", rec.Texts.Body)
	assert.Equal(t, 1, api.postCalls, "post fetched once for media and texts")
}

func TestResolve_HashLookupFallback(t *testing.T) {
	api := newFakeAPI()
	api.creatives["ad_4"] = &metaapi.AdCreative{
		ID:        "cr_4",
		ImageHash: "abc123",
	}
	api.images["abc123"] = metaapi.AdImage{
		Hash: "abc123", URL: "https://cdn.example.com/hashed.jpg",
		Width: 640, Height: 480,
	}
	repo := newFakeRepo()

	rec, err := newTestResolver(api, repo).Resolve(context.Background(), baseRequest("ad_4"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/hashed.jpg", rec.MediaURL)
	assert.Equal(t, creativedomain.QualitySD, rec.Quality)
	assert.Equal(t, "abc123", rec.ImageHash)
}

func TestResolveBatch_SharedHashFetchedOnce(t *testing.T) {
	api := newFakeAPI()
	for i := 1; i <= 3; i++ {
		api.creatives[fmt.Sprintf("ad_%d", i)] = &metaapi.AdCreative{
			ID:        fmt.Sprintf("cr_%d", i),
			ImageHash: "shared_hash",
		}
	}
	api.images["shared_hash"] = metaapi.AdImage{
		Hash: "shared_hash", URL: "https://cdn.example.com/shared.jpg", Width: 1280, Height: 720,
	}
	repo := newFakeRepo()

	outcome, err := newTestResolver(api, repo).ResolveBatch(
		context.Background(), baseRequest(""), []string{"ad_1", "ad_2", "ad_3"})
	require.NoError(t, err)

	assert.Len(t, outcome.Records, 3)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, 1, api.imageCalls, "three ads sharing one hash cost one lookup")
	for _, rec := range outcome.Records {
		assert.Equal(t, "https://cdn.example.com/shared.jpg", rec.MediaURL)
	}
}

func TestResolveBatch_PartialFailureIsolated(t *testing.T) {
	api := newFakeAPI()
	api.creatives["ad_ok"] = &metaapi.AdCreative{
		ID:       "cr_ok",
		ImageURL: "https://cdn.example.com/fine.jpg",
		Body:     "copy",
	}
	api.fetchErrs["ad_bad"] = &metaapi.APIError{Kind: metaapi.KindNotFound, Code: 803, Message: "deleted"}
	repo := newFakeRepo()

	outcome, err := newTestResolver(api, repo).ResolveBatch(
		context.Background(), baseRequest(""), []string{"ad_ok", "ad_bad"})
	require.NoError(t, err)

	require.Contains(t, outcome.Records, "ad_ok")
	assert.Equal(t, creativedomain.FetchSuccess, outcome.Records["ad_ok"].Status)

	require.Contains(t, outcome.Errors, "ad_bad")
	// The failure is recorded, not just reported.
	failed := repo.records["ad_bad"]
	require.NotNil(t, failed)
	assert.Equal(t, creativedomain.FetchFailed, failed.Status)
}

func TestResolveBatch_PersistFailureCountsAdOnce(t *testing.T) {
	api := newFakeAPI()
	api.creatives["ad_1"] = &metaapi.AdCreative{
		ID:       "cr_1",
		ImageURL: "https://cdn.example.com/one.jpg",
	}
	api.creatives["ad_2"] = &metaapi.AdCreative{
		ID:       "cr_2",
		ImageURL: "https://cdn.example.com/two.jpg",
	}
	repo := newFakeRepo()
	repo.failing = true

	outcome, err := newTestResolver(api, repo).ResolveBatch(
		context.Background(), baseRequest(""), []string{"ad_1", "ad_2"})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Resolved()+outcome.Failed(), "every ad lands in exactly one bucket")
	for adID := range outcome.Records {
		assert.NotContains(t, outcome.Errors, adID)
	}
	assert.Len(t, outcome.Records, 2, "resolved creatives survive a write failure")
}

func TestResolve_PersistenceErrorStillReturnsRecord(t *testing.T) {
	api := newFakeAPI()
	api.creatives["ad_5"] = &metaapi.AdCreative{
		ID:       "cr_5",
		ImageURL: "https://cdn.example.com/x.jpg",
	}
	repo := newFakeRepo()
	repo.failing = true

	rec, err := newTestResolver(api, repo).Resolve(context.Background(), baseRequest("ad_5"))
	require.Error(t, err)
	assert.True(t, apperrors.IsPersistenceError(err))
	require.NotNil(t, rec)
	assert.Equal(t, "https://cdn.example.com/x.jpg", rec.MediaURL)
}

func TestResolve_UnknownAdWritesFailedRecord(t *testing.T) {
	api := newFakeAPI()
	repo := newFakeRepo()

	rec, err := newTestResolver(api, repo).Resolve(context.Background(), baseRequest("ad_missing"))
	require.NoError(t, err)
	assert.Equal(t, creativedomain.FetchFailed, rec.Status)
	assert.Equal(t, creativedomain.TypeUnknown, rec.CreativeType)
	assert.NotNil(t, repo.records["ad_missing"])
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		ac   *metaapi.AdCreative
		want creativedomain.Type
	}{
		{"video by id", &metaapi.AdCreative{VideoID: "v1"}, creativedomain.TypeVideo},
		{"carousel needs multiple cards", &metaapi.AdCreative{
			ObjectStorySpec: &metaapi.StorySpec{LinkData: &metaapi.LinkData{
				ChildAttachments: []metaapi.ChildAttachment{{Link: "a"}, {Link: "b"}},
			}},
		}, creativedomain.TypeCarousel},
		{"single card is not a carousel", &metaapi.AdCreative{
			ObjectStorySpec: &metaapi.StorySpec{LinkData: &metaapi.LinkData{
				ImageHash:        "h",
				ChildAttachments: []metaapi.ChildAttachment{{Link: "a"}},
			}},
		}, creativedomain.TypeImage},
		{"dynamic asset feed", &metaapi.AdCreative{
			AssetFeedSpec: &metaapi.AssetFeedSpec{Images: []metaapi.FeedImage{{Hash: "h"}}},
		}, creativedomain.TypeDynamic},
		{"video in asset feed wins over dynamic", &metaapi.AdCreative{
			AssetFeedSpec: &metaapi.AssetFeedSpec{Videos: []metaapi.FeedVideo{{VideoID: "v"}}},
		}, creativedomain.TypeVideo},
		{"plain image", &metaapi.AdCreative{ImageURL: "u"}, creativedomain.TypeImage},
		{"nothing", &metaapi.AdCreative{}, creativedomain.TypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectType(tt.ac))
		})
	}
}

func TestDimsFromURL(t *testing.T) {
	tests := []struct {
		url  string
		w, h int
	}{
		{"https://x.com/i.jpg?width=1280&height=720", 1280, 720},
		{"https://x.com/i.jpg?w=640&h=480", 640, 480},
		{"https://x.com/i.jpg?stp=dst-jpg_p720x720", 720, 720},
		{"https://x.com/p1080x1080/i.jpg", 1080, 1080},
		{"https://x.com/i.jpg", 0, 0},
		{"://bad", 0, 0},
	}
	for _, tt := range tests {
		w, h := dimsFromURL(tt.url)
		assert.Equal(t, tt.w, w, tt.url)
		assert.Equal(t, tt.h, h, tt.url)
	}
}
