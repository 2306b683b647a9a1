package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	syncUsecases "github.com/meridian-ads/meridian/internal/application/sync/usecases"
	syncdomain "github.com/meridian-ads/meridian/internal/domain/sync"
	"github.com/meridian-ads/meridian/internal/interfaces/http/middleware"
	"github.com/meridian-ads/meridian/internal/shared/biztime"
	"github.com/meridian-ads/meridian/internal/shared/logger"
	"github.com/meridian-ads/meridian/internal/shared/utils"
)

type SyncHandler struct {
	runSyncUC      *syncUsecases.RunSyncUseCase
	getJobUC       *syncUsecases.GetSyncJobUseCase
	getWatermarkUC *syncUsecases.GetWatermarkUseCase
	logger         logger.Interface
}

func NewSyncHandler(
	runSyncUC *syncUsecases.RunSyncUseCase,
	getJobUC *syncUsecases.GetSyncJobUseCase,
	getWatermarkUC *syncUsecases.GetWatermarkUseCase,
) *SyncHandler {
	return &SyncHandler{
		runSyncUC:      runSyncUC,
		getJobUC:       getJobUC,
		getWatermarkUC: getWatermarkUC,
		logger:         logger.NewLogger(),
	}
}

type RunSyncRequest struct {
	AccountSIDs   []string `json:"account_sids" binding:"required,min=1"`
	Mode          string   `json:"mode" binding:"required,oneof=daily intraday backfill"`
	Since         string   `json:"since"`
	Until         string   `json:"until"`
	Levels        []string `json:"levels"`
	SyncCreatives bool     `json:"sync_creatives"`
}

type SyncJobResponse struct {
	JobID             string         `json:"job_id"`
	Kind              string         `json:"kind"`
	Status            string         `json:"status"`
	Since             string         `json:"since"`
	Until             string         `json:"until"`
	RowsByLevel       map[string]int `json:"rows_by_level,omitempty"`
	CreativesResolved int            `json:"creatives_resolved"`
	CreativesFailed   int            `json:"creatives_failed"`
	Error             string         `json:"error,omitempty"`
	StartedAt         time.Time      `json:"started_at"`
	FinishedAt        *time.Time     `json:"finished_at,omitempty"`
	DurationMS        int64          `json:"duration_ms"`
}

type WatermarkResponse struct {
	AccountSID     string     `json:"account_sid"`
	LastDailyDate  *string    `json:"last_daily_date,omitempty"`
	LastIntradayAt *time.Time `json:"last_intraday_at,omitempty"`
	LastSuccessAt  *time.Time `json:"last_success_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	Enabled        bool       `json:"enabled"`
}

func (h *SyncHandler) RunSync(c *gin.Context) {
	var req RunSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for run sync", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := syncUsecases.RunSyncCommand{
		TenantID:      middleware.TenantID(c),
		AccountSIDs:   req.AccountSIDs,
		Mode:          req.Mode,
		Levels:        req.Levels,
		SyncCreatives: req.SyncCreatives,
	}

	if req.Since != "" && req.Until != "" {
		since, err := biztime.ParseDate(req.Since)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid since date, expected YYYY-MM-DD")
			return
		}
		until, err := biztime.ParseDate(req.Until)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid until date, expected YYYY-MM-DD")
			return
		}
		if until.Before(since) {
			utils.ErrorResponse(c, http.StatusBadRequest, "until must not precede since")
			return
		}
		cmd.Since = &since
		cmd.Until = &until
	}

	result, err := h.runSyncUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "sync run finished", result)
}

func (h *SyncHandler) GetJob(c *gin.Context) {
	result, err := h.getJobUC.Execute(c.Request.Context(), syncUsecases.GetSyncJobCommand{
		TenantID: middleware.TenantID(c),
		JobID:    c.Param("id"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", toJobResponse(result.Job))
}

func (h *SyncHandler) GetWatermark(c *gin.Context) {
	result, err := h.getWatermarkUC.Execute(c.Request.Context(), syncUsecases.GetWatermarkCommand{
		TenantID:   middleware.TenantID(c),
		AccountSID: c.Param("accountSID"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	wm := result.Watermark
	resp := WatermarkResponse{
		AccountSID:     result.Account.SID(),
		LastIntradayAt: wm.LastIntradayAt(),
		LastSuccessAt:  wm.LastSuccessAt(),
		LastError:      wm.LastError(),
		Enabled:        wm.Enabled(),
	}
	if d := wm.LastDailyDate(); d != nil {
		formatted := biztime.FormatDate(*d)
		resp.LastDailyDate = &formatted
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func toJobResponse(job *syncdomain.Job) SyncJobResponse {
	return SyncJobResponse{
		JobID:             job.JobID(),
		Kind:              string(job.Kind()),
		Status:            string(job.Status()),
		Since:             biztime.FormatDate(job.Since()),
		Until:             biztime.FormatDate(job.Until()),
		RowsByLevel:       job.RowsByLevel(),
		CreativesResolved: job.CreativesResolved(),
		CreativesFailed:   job.CreativesFailed(),
		Error:             job.ErrorText(),
		StartedAt:         job.StartedAt(),
		FinishedAt:        job.FinishedAt(),
		DurationMS:        job.DurationMS(),
	}
}
