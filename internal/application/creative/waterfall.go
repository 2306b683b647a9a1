package creative

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	creativedomain "github.com/meridian-ads/meridian/internal/domain/creative"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
)

// detectType classifies a creative payload. Order matters: a video reference
// wins, then a multi-card carousel, then a dynamic asset feed, then anything
// with an image source.
func detectType(ac *metaapi.AdCreative) creativedomain.Type {
	if primaryVideoID(ac) != "" || strings.EqualFold(ac.ObjectType, "VIDEO") {
		return creativedomain.TypeVideo
	}
	if ld := linkData(ac); ld != nil && len(ld.ChildAttachments) > 1 {
		return creativedomain.TypeCarousel
	}
	if afs := ac.AssetFeedSpec; afs != nil &&
		(len(afs.Images) > 0 || len(afs.Videos) > 0 || len(afs.Bodies) > 0 || len(afs.Titles) > 0) {
		return creativedomain.TypeDynamic
	}
	if ac.ImageURL != "" || primaryImageHash(ac) != "" || ac.ThumbnailURL != "" {
		return creativedomain.TypeImage
	}
	return creativedomain.TypeUnknown
}

func linkData(ac *metaapi.AdCreative) *metaapi.LinkData {
	if ac.ObjectStorySpec == nil {
		return nil
	}
	return ac.ObjectStorySpec.LinkData
}

// primaryVideoID finds the creative's video reference, wherever it hides.
func primaryVideoID(ac *metaapi.AdCreative) string {
	if ac.VideoID != "" {
		return ac.VideoID
	}
	if ac.ObjectStorySpec != nil && ac.ObjectStorySpec.VideoData != nil {
		return ac.ObjectStorySpec.VideoData.VideoID
	}
	if afs := ac.AssetFeedSpec; afs != nil && len(afs.Videos) > 0 {
		return afs.Videos[0].VideoID
	}
	return ""
}

// primaryImageHash finds the best image hash: direct field, then story spec
// (link, photo, video poster), then first carousel card, then asset feed.
func primaryImageHash(ac *metaapi.AdCreative) string {
	if ac.ImageHash != "" {
		return ac.ImageHash
	}
	if spec := ac.ObjectStorySpec; spec != nil {
		if spec.LinkData != nil {
			if spec.LinkData.ImageHash != "" {
				return spec.LinkData.ImageHash
			}
			for _, child := range spec.LinkData.ChildAttachments {
				if child.ImageHash != "" {
					return child.ImageHash
				}
			}
		}
		if spec.PhotoData != nil && spec.PhotoData.ImageHash != "" {
			return spec.PhotoData.ImageHash
		}
		if spec.VideoData != nil && spec.VideoData.ImageHash != "" {
			return spec.VideoData.ImageHash
		}
	}
	if afs := ac.AssetFeedSpec; afs != nil && len(afs.Images) > 0 {
		return afs.Images[0].Hash
	}
	return ""
}

// mediaCandidate is one resolved media source.
type mediaCandidate struct {
	url    string
	hdURL  string
	width  int
	height int
}

// resolveMedia walks the media waterfall. Each source either produces a
// candidate or passes to the next; the first hit wins.
func (r *Resolver) resolveMedia(ctx context.Context, rc *runCache, accountExternalID string, ac *metaapi.AdCreative, typ creativedomain.Type) mediaCandidate {
	sources := []func() (mediaCandidate, bool){
		// Full-size direct URL.
		func() (mediaCandidate, bool) {
			if ac.ImageURL == "" || typ == creativedomain.TypeVideo {
				return mediaCandidate{}, false
			}
			c := mediaCandidate{url: ac.ImageURL, hdURL: ac.ImageURL}
			c.width, c.height = dimsFromURL(ac.ImageURL)
			return c, true
		},
		// Video thumbnail set: largest area wins, generic picture as HD twin.
		func() (mediaCandidate, bool) {
			videoID := primaryVideoID(ac)
			if videoID == "" {
				return mediaCandidate{}, false
			}
			thumbs, err := rc.Thumbnails(ctx, videoID)
			if err != nil || len(thumbs) == 0 {
				return mediaCandidate{}, false
			}
			best := thumbs[0]
			for _, t := range thumbs[1:] {
				if t.Width*t.Height > best.Width*best.Height {
					best = t
				}
			}
			return mediaCandidate{url: best.URI, hdURL: best.URI, width: best.Width, height: best.Height}, true
		},
		// Originating post full_picture, for non-video creatives. Higher
		// fidelity than the generic fields below, so it is tried first.
		func() (mediaCandidate, bool) {
			if typ == creativedomain.TypeVideo || ac.EffectiveObjectStoryID == "" {
				return mediaCandidate{}, false
			}
			post, err := rc.Post(ctx, ac.EffectiveObjectStoryID)
			if err != nil || post == nil || post.FullPicture == "" {
				return mediaCandidate{}, false
			}
			c := mediaCandidate{url: post.FullPicture, hdURL: post.FullPicture}
			c.width, c.height = dimsFromURL(post.FullPicture)
			return c, true
		},
		// Image-hash lookup through the per-run cache.
		func() (mediaCandidate, bool) {
			hash := primaryImageHash(ac)
			if hash == "" {
				return mediaCandidate{}, false
			}
			img, ok, err := rc.Image(ctx, accountExternalID, hash)
			if err != nil || !ok {
				return mediaCandidate{}, false
			}
			width, height := img.Width, img.Height
			if img.OriginalWidth*img.OriginalHeight > width*height {
				width, height = img.OriginalWidth, img.OriginalHeight
			}
			return mediaCandidate{url: img.URL, hdURL: img.URL, width: width, height: height}, true
		},
		// Low-resolution direct fields, last resort.
		func() (mediaCandidate, bool) {
			for _, candidate := range lowResURLs(ac) {
				if candidate != "" {
					c := mediaCandidate{url: candidate}
					c.width, c.height = dimsFromURL(candidate)
					return c, true
				}
			}
			return mediaCandidate{}, false
		},
	}

	for _, source := range sources {
		if c, ok := source(); ok {
			return c
		}
	}
	return mediaCandidate{}
}

func lowResURLs(ac *metaapi.AdCreative) []string {
	urls := []string{ac.ThumbnailURL}
	if spec := ac.ObjectStorySpec; spec != nil {
		if spec.LinkData != nil {
			urls = append(urls, spec.LinkData.Picture)
			for _, child := range spec.LinkData.ChildAttachments {
				urls = append(urls, child.Picture)
			}
		}
		if spec.VideoData != nil {
			urls = append(urls, spec.VideoData.ImageURL)
		}
		if spec.PhotoData != nil {
			urls = append(urls, spec.PhotoData.URL)
		}
	}
	if afs := ac.AssetFeedSpec; afs != nil {
		for _, img := range afs.Images {
			urls = append(urls, img.URL)
		}
		for _, vid := range afs.Videos {
			urls = append(urls, vid.ThumbnailURL)
		}
	}
	return urls
}

// dimPattern matches embedded size hints like p720x720 or s600x600 used in
// CDN transform paths.
var dimPattern = regexp.MustCompile(`[sp](\d{2,5})x(\d{2,5})`)

// dimsFromURL extracts pixel dimensions from URL query parameters or CDN
// transform hints. Returns zeros when no hint is present.
func dimsFromURL(rawURL string) (int, int) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, 0
	}

	q := u.Query()
	for _, pair := range [][2]string{{"width", "height"}, {"w", "h"}} {
		w, _ := strconv.Atoi(q.Get(pair[0]))
		h, _ := strconv.Atoi(q.Get(pair[1]))
		if w > 0 && h > 0 {
			return w, h
		}
	}

	// The stp transform parameter and some CDN paths embed dimensions.
	for _, hint := range []string{q.Get("stp"), u.Path} {
		if m := dimPattern.FindStringSubmatch(hint); m != nil {
			w, _ := strconv.Atoi(m[1])
			h, _ := strconv.Atoi(m[2])
			if w > 0 && h > 0 {
				return w, h
			}
		}
	}
	return 0, 0
}
