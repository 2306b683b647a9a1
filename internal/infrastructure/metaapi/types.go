package metaapi

import "encoding/json"

// page is the standard Graph list envelope: {data: [...], paging: {next}}.
type page struct {
	Data   []json.RawMessage `json:"data"`
	Paging *paging           `json:"paging"`
	Error  *errorBody        `json:"error"`
}

type paging struct {
	Next    string `json:"next"`
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
}

// errorBody is the Graph error envelope payload.
type errorBody struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
}

type errorEnvelope struct {
	Error *errorBody `json:"error"`
}

// BatchRequest is one sub-request of a composite batch call.
type BatchRequest struct {
	Method      string `json:"method"`
	RelativeURL string `json:"relative_url"`
}

// BatchResponse is the parallel result for one sub-request. A null entry in
// the upstream response (upstream timeout for that slot) is surfaced as a
// transient error by the client.
type BatchResponse struct {
	Code int    `json:"code"`
	Body string `json:"body"`
}

// InsightRow is one row of the insights report. Numeric facts arrive as
// strings on the wire.
type InsightRow struct {
	DateStart    string `json:"date_start"`
	DateStop     string `json:"date_stop"`
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	AdsetID      string `json:"adset_id"`
	AdsetName    string `json:"adset_name"`
	AdID         string `json:"ad_id"`
	AdName       string `json:"ad_name"`

	Spend       string         `json:"spend"`
	Impressions string         `json:"impressions"`
	Clicks      string         `json:"clicks"`
	Actions     []InsightValue `json:"actions"`
	ActionVals  []InsightValue `json:"action_values"`
}

// InsightValue is one conversion aggregate entry.
type InsightValue struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// AdAccountInfo is one catalog entry from the adaccounts listing.
type AdAccountInfo struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	AccountStatus int    `json:"account_status"`
}

// Status maps the numeric account_status to a readable state.
func (a AdAccountInfo) Status() string {
	switch a.AccountStatus {
	case 1:
		return "active"
	case 2:
		return "disabled"
	case 3:
		return "unsettled"
	case 7:
		return "pending_risk_review"
	case 9:
		return "in_grace_period"
	case 101:
		return "closed"
	default:
		return "unknown"
	}
}

// AdCreative is the creative payload attached to an ad, covering every field
// the resolution waterfall inspects.
type AdCreative struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	Title                  string         `json:"title"`
	Body                   string         `json:"body"`
	ObjectType             string         `json:"object_type"`
	ImageURL               string         `json:"image_url"`
	ImageHash              string         `json:"image_hash"`
	ThumbnailURL           string         `json:"thumbnail_url"`
	VideoID                string         `json:"video_id"`
	LinkURL                string         `json:"link_url"`
	CallToActionType       string         `json:"call_to_action_type"`
	EffectiveObjectStoryID string         `json:"effective_object_story_id"`
	ObjectStorySpec        *StorySpec     `json:"object_story_spec"`
	AssetFeedSpec          *AssetFeedSpec `json:"asset_feed_spec"`
}

// StorySpec is the structured page-post spec on a creative.
type StorySpec struct {
	PageID    string     `json:"page_id"`
	LinkData  *LinkData  `json:"link_data"`
	VideoData *VideoData `json:"video_data"`
	PhotoData *PhotoData `json:"photo_data"`
}

// LinkData describes link-style creatives, including carousels.
type LinkData struct {
	Link             string            `json:"link"`
	Message          string            `json:"message"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Caption          string            `json:"caption"`
	Picture          string            `json:"picture"`
	ImageHash        string            `json:"image_hash"`
	CallToAction     *CallToAction     `json:"call_to_action"`
	ChildAttachments []ChildAttachment `json:"child_attachments"`
}

// ChildAttachment is one carousel card.
type ChildAttachment struct {
	Link        string `json:"link"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Picture     string `json:"picture"`
	ImageHash   string `json:"image_hash"`
	VideoID     string `json:"video_id"`
}

// VideoData describes video-style creatives.
type VideoData struct {
	VideoID      string        `json:"video_id"`
	Title        string        `json:"title"`
	Message      string        `json:"message"`
	ImageURL     string        `json:"image_url"`
	ImageHash    string        `json:"image_hash"`
	CallToAction *CallToAction `json:"call_to_action"`
}

// PhotoData describes photo-post creatives.
type PhotoData struct {
	Caption   string `json:"caption"`
	ImageHash string `json:"image_hash"`
	URL       string `json:"url"`
}

// CallToAction is a structured CTA with an optional link.
type CallToAction struct {
	Type  string `json:"type"`
	Value struct {
		Link string `json:"link"`
	} `json:"value"`
}

// AssetFeedSpec is the dynamic-creative asset feed.
type AssetFeedSpec struct {
	Images            []FeedImage `json:"images"`
	Videos            []FeedVideo `json:"videos"`
	Bodies            []FeedText  `json:"bodies"`
	Titles            []FeedText  `json:"titles"`
	Descriptions      []FeedText  `json:"descriptions"`
	LinkURLs          []FeedLink  `json:"link_urls"`
	CallToActionTypes []string    `json:"call_to_action_types"`
}

type FeedImage struct {
	Hash string `json:"hash"`
	URL  string `json:"url"`
}

type FeedVideo struct {
	VideoID      string `json:"video_id"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type FeedText struct {
	Text string `json:"text"`
}

type FeedLink struct {
	WebsiteURL string `json:"website_url"`
}

// VideoThumbnail is one entry of a video's thumbnail set.
type VideoThumbnail struct {
	URI         string  `json:"uri"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Scale       float64 `json:"scale"`
	IsPreferred bool    `json:"is_preferred"`
}

// Post is an originating page post; full_picture is the highest-fidelity
// image source for non-video creatives.
type Post struct {
	ID           string `json:"id"`
	Message      string `json:"message"`
	Story        string `json:"story"`
	FullPicture  string `json:"full_picture"`
	Picture      string `json:"picture"`
	PermalinkURL string `json:"permalink_url"`
}

// AdImage is one hash-lookup result from the adimages endpoint.
type AdImage struct {
	Hash           string `json:"hash"`
	URL            string `json:"url"`
	URL128         string `json:"url_128"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
}

// adEnvelope is the ad object wrapper used when fetching creatives by ad ID.
type adEnvelope struct {
	ID       string      `json:"id"`
	Creative *AdCreative `json:"creative"`
}
