// Package creative models the resolved creative asset for one advertisement.
package creative

import (
	"fmt"
	"time"
)

// Type classifies the creative asset.
type Type string

const (
	TypeImage    Type = "image"
	TypeVideo    Type = "video"
	TypeCarousel Type = "carousel"
	TypeDynamic  Type = "dynamic"
	TypeUnknown  Type = "unknown"
)

// FetchStatus classifies resolution completeness. A record is upserted in all
// three cases so consumers can tell "no creative" from "not yet attempted".
type FetchStatus string

const (
	FetchSuccess FetchStatus = "success"
	FetchPartial FetchStatus = "partial"
	FetchFailed  FetchStatus = "failed"
)

// Texts holds the independently resolved text fields.
type Texts struct {
	Title        string `json:"title,omitempty"`
	Body         string `json:"body,omitempty"`
	Description  string `json:"description,omitempty"`
	CallToAction string `json:"call_to_action,omitempty"`
	LinkURL      string `json:"link_url,omitempty"`
}

// Empty reports whether no text field resolved.
func (t Texts) Empty() bool {
	return t.Title == "" && t.Body == "" && t.Description == "" && t.CallToAction == "" && t.LinkURL == ""
}

// Record is the resolved creative for one (tenant, ad). Re-resolution
// overwrites prior values; history for analysis lives elsewhere.
type Record struct {
	TenantID  uint
	AccountID uint
	AdID      string

	CreativeType Type
	MediaURL     string
	MediaURLHD   string
	Width        int
	Height       int
	Quality      Quality
	Texts        Texts
	Status       FetchStatus

	VideoID   string
	ImageHash string
	PostID    string

	CachedMediaURL string
	CachedBytes    int64

	RawSource []byte

	ResolvedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the upsert key is complete.
func (r *Record) Validate() error {
	if r.TenantID == 0 {
		return fmt.Errorf("tenant is required")
	}
	if r.AdID == "" {
		return fmt.Errorf("ad ID is required")
	}
	return nil
}

// Classify sets Status from what actually resolved.
func (r *Record) Classify() {
	hasMedia := r.MediaURL != ""
	hasText := !r.Texts.Empty()
	switch {
	case hasMedia && hasText:
		r.Status = FetchSuccess
	case hasMedia || hasText:
		r.Status = FetchPartial
	default:
		r.Status = FetchFailed
	}
}
