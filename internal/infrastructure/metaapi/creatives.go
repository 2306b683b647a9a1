package metaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// creativeFields covers every field the resolution waterfall inspects.
const creativeFields = "id,name,title,body,object_type,image_url,image_hash,thumbnail_url,video_id,link_url,call_to_action_type,effective_object_story_id," +
	"object_story_spec{page_id,link_data{link,message,name,description,caption,picture,image_hash,call_to_action,child_attachments},video_data{video_id,title,message,image_url,image_hash,call_to_action},photo_data{caption,image_hash,url}}," +
	"asset_feed_spec{images{hash,url},videos{video_id,thumbnail_url},bodies{text},titles{text},descriptions{text},link_urls{website_url},call_to_action_types}"

// GetAdCreative fetches the creative payload attached to one ad.
func (c *Client) GetAdCreative(ctx context.Context, token, adID string) (*AdCreative, error) {
	params := url.Values{}
	params.Set("fields", "id,creative{"+creativeFields+"}")

	var env adEnvelope
	if err := c.GetObject(ctx, token, adID, params, &env); err != nil {
		return nil, err
	}
	if env.Creative == nil {
		return nil, &APIError{Kind: KindNotFound, Message: fmt.Sprintf("ad %s has no creative", adID)}
	}
	return env.Creative, nil
}

// GetAdCreativesBatch fetches creatives for many ads as one composite call.
// One failing sub-request never aborts its siblings: each ad ID lands either
// in the result map or in the error map.
func (c *Client) GetAdCreativesBatch(ctx context.Context, token string, adIDs []string) (map[string]*AdCreative, map[string]error, error) {
	if len(adIDs) == 0 {
		return nil, nil, nil
	}
	if len(adIDs) > c.batchCap {
		return nil, nil, fmt.Errorf("batch of %d ads exceeds cap %d", len(adIDs), c.batchCap)
	}

	requests := make([]BatchRequest, len(adIDs))
	for i, adID := range adIDs {
		requests[i] = BatchRequest{
			Method:      http.MethodGet,
			RelativeURL: fmt.Sprintf("%s?fields=%s", adID, url.QueryEscape("id,creative{"+creativeFields+"}")),
		}
	}

	responses, err := c.FetchBatch(ctx, token, requests)
	if err != nil {
		return nil, nil, err
	}

	results := make(map[string]*AdCreative, len(adIDs))
	failures := make(map[string]error)
	for i, resp := range responses {
		adID := adIDs[i]
		if resp.Code != http.StatusOK {
			failures[adID] = classifyError(resp.Code, decodeErrorBody([]byte(resp.Body)))
			continue
		}
		var env adEnvelope
		if err := json.Unmarshal([]byte(resp.Body), &env); err != nil {
			failures[adID] = fmt.Errorf("decode creative for ad %s: %w", adID, err)
			continue
		}
		if env.Creative == nil {
			failures[adID] = &APIError{Kind: KindNotFound, Message: fmt.Sprintf("ad %s has no creative", adID)}
			continue
		}
		results[adID] = env.Creative
	}
	return results, failures, nil
}

// GetVideoThumbnails fetches the thumbnail set of a video.
func (c *Client) GetVideoThumbnails(ctx context.Context, token, videoID string) ([]VideoThumbnail, error) {
	params := url.Values{}
	params.Set("fields", "uri,width,height,scale,is_preferred")

	var thumbs []VideoThumbnail
	err := c.FetchAll(ctx, token, videoID+"/thumbnails", params, func(raw json.RawMessage) error {
		var t VideoThumbnail
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("decode thumbnail: %w", err)
		}
		thumbs = append(thumbs, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return thumbs, nil
}

// GetPost fetches an originating page post by its story ID.
func (c *Client) GetPost(ctx context.Context, token, postID string) (*Post, error) {
	params := url.Values{}
	params.Set("fields", "id,message,story,full_picture,picture,permalink_url")

	var post Post
	if err := c.GetObject(ctx, token, postID, params, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetAdImages resolves image hashes to URLs and dimensions through the
// account's adimages listing.
func (c *Client) GetAdImages(ctx context.Context, token, accountExternalID string, hashes []string) (map[string]AdImage, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	hashesJSON, err := json.Marshal(hashes)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("fields", "hash,url,url_128,width,height,original_width,original_height")
	params.Set("hashes", string(hashesJSON))

	images := make(map[string]AdImage, len(hashes))
	path := fmt.Sprintf("act_%s/adimages", strings.TrimPrefix(accountExternalID, "act_"))
	err = c.FetchAll(ctx, token, path, params, func(raw json.RawMessage) error {
		var img AdImage
		if err := json.Unmarshal(raw, &img); err != nil {
			return fmt.Errorf("decode ad image: %w", err)
		}
		images[img.Hash] = img
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}
