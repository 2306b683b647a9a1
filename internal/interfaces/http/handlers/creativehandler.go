package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	creativeUsecases "github.com/meridian-ads/meridian/internal/application/creative/usecases"
	creativedomain "github.com/meridian-ads/meridian/internal/domain/creative"
	"github.com/meridian-ads/meridian/internal/interfaces/http/middleware"
	"github.com/meridian-ads/meridian/internal/shared/logger"
	"github.com/meridian-ads/meridian/internal/shared/utils"
)

type CreativeHandler struct {
	resolveUC      *creativeUsecases.ResolveCreativeUseCase
	resolveBatchUC *creativeUsecases.ResolveCreativesBatchUseCase
	getUC          *creativeUsecases.GetCreativeUseCase
	logger         logger.Interface
}

func NewCreativeHandler(
	resolveUC *creativeUsecases.ResolveCreativeUseCase,
	resolveBatchUC *creativeUsecases.ResolveCreativesBatchUseCase,
	getUC *creativeUsecases.GetCreativeUseCase,
) *CreativeHandler {
	return &CreativeHandler{
		resolveUC:      resolveUC,
		resolveBatchUC: resolveBatchUC,
		getUC:          getUC,
		logger:         logger.NewLogger(),
	}
}

type ResolveCreativeRequest struct {
	AdID       string `json:"ad_id" binding:"required"`
	CacheMedia bool   `json:"cache_media"`
}

type ResolveCreativesBatchRequest struct {
	AdIDs      []string `json:"ad_ids" binding:"required,min=1"`
	CacheMedia bool     `json:"cache_media"`
}

type CreativeTextsResponse struct {
	Title        string `json:"title,omitempty"`
	Body         string `json:"body,omitempty"`
	Description  string `json:"description,omitempty"`
	CallToAction string `json:"call_to_action,omitempty"`
	LinkURL      string `json:"link_url,omitempty"`
}

type CreativeResponse struct {
	AdID           string                `json:"ad_id"`
	CreativeType   string                `json:"creative_type"`
	MediaURL       string                `json:"media_url,omitempty"`
	MediaURLHD     string                `json:"media_url_hd,omitempty"`
	Width          int                   `json:"width,omitempty"`
	Height         int                   `json:"height,omitempty"`
	Quality        string                `json:"quality"`
	Texts          CreativeTextsResponse `json:"texts"`
	Status         string                `json:"status"`
	VideoID        string                `json:"video_id,omitempty"`
	ImageHash      string                `json:"image_hash,omitempty"`
	PostID         string                `json:"post_id,omitempty"`
	CachedMediaURL string                `json:"cached_media_url,omitempty"`
	CachedBytes    int64                 `json:"cached_bytes,omitempty"`
	ResolvedAt     time.Time             `json:"resolved_at"`
}

type ResolveBatchResponse struct {
	Resolved int                         `json:"resolved"`
	Failed   int                         `json:"failed"`
	Records  map[string]CreativeResponse `json:"records"`
	Errors   map[string]string           `json:"errors,omitempty"`
}

func (h *CreativeHandler) Resolve(c *gin.Context) {
	var req ResolveCreativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for resolve creative", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.resolveUC.Execute(c.Request.Context(), creativeUsecases.ResolveCreativeCommand{
		TenantID:   middleware.TenantID(c),
		AccountSID: c.Param("accountSID"),
		AdID:       req.AdID,
		CacheMedia: req.CacheMedia,
	})
	if err != nil {
		// A persistence failure still carries a resolved record worth
		// returning; everything else is a plain error.
		if result == nil || result.Record == nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		h.logger.Warnw("creative resolved but not persisted", "ad_id", req.AdID, "error", err)
	}

	utils.SuccessResponse(c, http.StatusOK, "", toCreativeResponse(result.Record))
}

func (h *CreativeHandler) ResolveBatch(c *gin.Context) {
	var req ResolveCreativesBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for resolve creatives batch", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.resolveBatchUC.Execute(c.Request.Context(), creativeUsecases.ResolveCreativesBatchCommand{
		TenantID:   middleware.TenantID(c),
		AccountSID: c.Param("accountSID"),
		AdIDs:      req.AdIDs,
		CacheMedia: req.CacheMedia,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := ResolveBatchResponse{
		Resolved: result.Resolved,
		Failed:   result.Failed,
		Records:  make(map[string]CreativeResponse, len(result.Records)),
		Errors:   result.Errors,
	}
	for adID, rec := range result.Records {
		resp.Records[adID] = toCreativeResponse(rec)
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *CreativeHandler) Get(c *gin.Context) {
	result, err := h.getUC.Execute(c.Request.Context(), creativeUsecases.GetCreativeCommand{
		TenantID:   middleware.TenantID(c),
		AccountSID: c.Param("accountSID"),
		AdID:       c.Param("adID"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", toCreativeResponse(result.Record))
}

func toCreativeResponse(rec *creativedomain.Record) CreativeResponse {
	return CreativeResponse{
		AdID:         rec.AdID,
		CreativeType: string(rec.CreativeType),
		MediaURL:     rec.MediaURL,
		MediaURLHD:   rec.MediaURLHD,
		Width:        rec.Width,
		Height:       rec.Height,
		Quality:      string(rec.Quality),
		Texts: CreativeTextsResponse{
			Title:        rec.Texts.Title,
			Body:         rec.Texts.Body,
			Description:  rec.Texts.Description,
			CallToAction: rec.Texts.CallToAction,
			LinkURL:      rec.Texts.LinkURL,
		},
		Status:         string(rec.Status),
		VideoID:        rec.VideoID,
		ImageHash:      rec.ImageHash,
		PostID:         rec.PostID,
		CachedMediaURL: rec.CachedMediaURL,
		CachedBytes:    rec.CachedBytes,
		ResolvedAt:     rec.ResolvedAt,
	}
}
