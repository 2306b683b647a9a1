package creative

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
)

// runCache memoizes platform lookups for the lifetime of one resolution run.
// Ads in the same account routinely share image hashes, posts, and videos;
// within a run each is fetched at most once. singleflight collapses
// concurrent duplicate lookups onto a single upstream call.
type runCache struct {
	api   CreativeAPI
	token string

	group singleflight.Group

	mu     sync.Mutex
	images map[string]metaapi.AdImage
	posts  map[string]*metaapi.Post
	thumbs map[string][]metaapi.VideoThumbnail
}

func newRunCache(api CreativeAPI, token string) *runCache {
	return &runCache{
		api:    api,
		token:  token,
		images: make(map[string]metaapi.AdImage),
		posts:  make(map[string]*metaapi.Post),
		thumbs: make(map[string][]metaapi.VideoThumbnail),
	}
}

// Image resolves an image hash to its full-size asset via the account's
// adimages endpoint.
func (rc *runCache) Image(ctx context.Context, accountExternalID, hash string) (metaapi.AdImage, bool, error) {
	rc.mu.Lock()
	if img, ok := rc.images[hash]; ok {
		rc.mu.Unlock()
		return img, img.URL != "", nil
	}
	rc.mu.Unlock()

	_, err, _ := rc.group.Do("image:"+hash, func() (any, error) {
		found, err := rc.api.GetAdImages(ctx, rc.token, accountExternalID, []string{hash})
		if err != nil {
			return nil, err
		}
		rc.mu.Lock()
		defer rc.mu.Unlock()
		// Negative results are cached too so a dead hash costs one call.
		rc.images[hash] = found[hash]
		return nil, nil
	})
	if err != nil {
		return metaapi.AdImage{}, false, err
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	img := rc.images[hash]
	return img, img.URL != "", nil
}

// Post resolves an effective story ID to the originating page post.
func (rc *runCache) Post(ctx context.Context, postID string) (*metaapi.Post, error) {
	rc.mu.Lock()
	if post, ok := rc.posts[postID]; ok {
		rc.mu.Unlock()
		return post, nil
	}
	rc.mu.Unlock()

	_, err, _ := rc.group.Do("post:"+postID, func() (any, error) {
		post, err := rc.api.GetPost(ctx, rc.token, postID)
		if err != nil {
			return nil, err
		}
		rc.mu.Lock()
		defer rc.mu.Unlock()
		rc.posts[postID] = post
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	post, ok := rc.posts[postID]
	if !ok {
		return nil, fmt.Errorf("post %s not cached after fetch", postID)
	}
	return post, nil
}

// Thumbnails resolves a video ID to its thumbnail set.
func (rc *runCache) Thumbnails(ctx context.Context, videoID string) ([]metaapi.VideoThumbnail, error) {
	rc.mu.Lock()
	if thumbs, ok := rc.thumbs[videoID]; ok {
		rc.mu.Unlock()
		return thumbs, nil
	}
	rc.mu.Unlock()

	_, err, _ := rc.group.Do("video:"+videoID, func() (any, error) {
		thumbs, err := rc.api.GetVideoThumbnails(ctx, rc.token, videoID)
		if err != nil {
			return nil, err
		}
		rc.mu.Lock()
		defer rc.mu.Unlock()
		rc.thumbs[videoID] = thumbs
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.thumbs[videoID], nil
}
