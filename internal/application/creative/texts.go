package creative

import (
	"context"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	creativedomain "github.com/meridian-ads/meridian/internal/domain/creative"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
)

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup and normalizes whitespace. Platform text fields
// occasionally carry HTML fragments from page posts.
func sanitizeText(s string) string {
	s = textPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// firstText returns the first non-empty candidate, sanitized.
func firstText(candidates ...string) string {
	for _, c := range candidates {
		if cleaned := sanitizeText(c); cleaned != "" {
			return cleaned
		}
	}
	return ""
}

// resolveTexts runs the independent per-field waterfalls: structured
// sub-objects first, then asset-feed arrays, then originating post fields.
// Each field falls back on its own; a missing title does not stop the body.
func (r *Resolver) resolveTexts(ctx context.Context, rc *runCache, ac *metaapi.AdCreative) creativedomain.Texts {
	ld := linkData(ac)
	var vd *metaapi.VideoData
	var pd *metaapi.PhotoData
	if ac.ObjectStorySpec != nil {
		vd = ac.ObjectStorySpec.VideoData
		pd = ac.ObjectStorySpec.PhotoData
	}
	afs := ac.AssetFeedSpec

	texts := creativedomain.Texts{
		Title:        firstText(ac.Title, fieldOf(ld, func(l *metaapi.LinkData) string { return l.Name }), fieldOfVideo(vd, func(v *metaapi.VideoData) string { return v.Title }), firstFeedText(feedTitles(afs))),
		Body:         firstText(ac.Body, fieldOf(ld, func(l *metaapi.LinkData) string { return l.Message }), fieldOfVideo(vd, func(v *metaapi.VideoData) string { return v.Message }), photoCaption(pd), firstFeedText(feedBodies(afs))),
		Description:  firstText(fieldOf(ld, func(l *metaapi.LinkData) string { return l.Description }), firstChildText(ld), firstFeedText(feedDescriptions(afs))),
		CallToAction: firstText(ac.CallToActionType, ctaType(ld, vd), firstCTAType(afs)),
		LinkURL:      firstText(ac.LinkURL, fieldOf(ld, func(l *metaapi.LinkData) string { return l.Link }), ctaLink(ld, vd), firstChildLink(ld), firstFeedLink(afs)),
	}

	// The originating post is the final fallback for body and link.
	if (texts.Body == "" || texts.LinkURL == "") && ac.EffectiveObjectStoryID != "" {
		if post, err := rc.Post(ctx, ac.EffectiveObjectStoryID); err == nil && post != nil {
			if texts.Body == "" {
				texts.Body = firstText(post.Message, post.Story)
			}
			if texts.LinkURL == "" {
				texts.LinkURL = firstText(post.PermalinkURL)
			}
		}
	}

	return texts
}

func fieldOf(ld *metaapi.LinkData, get func(*metaapi.LinkData) string) string {
	if ld == nil {
		return ""
	}
	return get(ld)
}

func fieldOfVideo(vd *metaapi.VideoData, get func(*metaapi.VideoData) string) string {
	if vd == nil {
		return ""
	}
	return get(vd)
}

func photoCaption(pd *metaapi.PhotoData) string {
	if pd == nil {
		return ""
	}
	return pd.Caption
}

func firstChildText(ld *metaapi.LinkData) string {
	if ld == nil {
		return ""
	}
	for _, child := range ld.ChildAttachments {
		if child.Description != "" {
			return child.Description
		}
	}
	return ""
}

func firstChildLink(ld *metaapi.LinkData) string {
	if ld == nil {
		return ""
	}
	for _, child := range ld.ChildAttachments {
		if child.Link != "" {
			return child.Link
		}
	}
	return ""
}

func ctaType(ld *metaapi.LinkData, vd *metaapi.VideoData) string {
	if ld != nil && ld.CallToAction != nil {
		return ld.CallToAction.Type
	}
	if vd != nil && vd.CallToAction != nil {
		return vd.CallToAction.Type
	}
	return ""
}

func ctaLink(ld *metaapi.LinkData, vd *metaapi.VideoData) string {
	if ld != nil && ld.CallToAction != nil {
		return ld.CallToAction.Value.Link
	}
	if vd != nil && vd.CallToAction != nil {
		return vd.CallToAction.Value.Link
	}
	return ""
}

func feedTitles(afs *metaapi.AssetFeedSpec) []metaapi.FeedText {
	if afs == nil {
		return nil
	}
	return afs.Titles
}

func feedBodies(afs *metaapi.AssetFeedSpec) []metaapi.FeedText {
	if afs == nil {
		return nil
	}
	return afs.Bodies
}

func feedDescriptions(afs *metaapi.AssetFeedSpec) []metaapi.FeedText {
	if afs == nil {
		return nil
	}
	return afs.Descriptions
}

func firstFeedText(entries []metaapi.FeedText) string {
	for _, e := range entries {
		if e.Text != "" {
			return e.Text
		}
	}
	return ""
}

func firstCTAType(afs *metaapi.AssetFeedSpec) string {
	if afs == nil || len(afs.CallToActionTypes) == 0 {
		return ""
	}
	return afs.CallToActionTypes[0]
}

func firstFeedLink(afs *metaapi.AssetFeedSpec) string {
	if afs == nil {
		return ""
	}
	for _, l := range afs.LinkURLs {
		if l.WebsiteURL != "" {
			return l.WebsiteURL
		}
	}
	return ""
}
