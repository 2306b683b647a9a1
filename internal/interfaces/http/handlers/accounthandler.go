package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meridian-ads/meridian/internal/domain/account"
	"github.com/meridian-ads/meridian/internal/interfaces/http/middleware"
	"github.com/meridian-ads/meridian/internal/shared/utils"
)

type AccountHandler struct {
	acctRepo account.Repository
}

func NewAccountHandler(acctRepo account.Repository) *AccountHandler {
	return &AccountHandler{acctRepo: acctRepo}
}

type AccountResponse struct {
	SID        string    `json:"sid"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.acctRepo.ListByTenant(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for _, acct := range accounts {
		resp = append(resp, AccountResponse{
			SID:        acct.SID(),
			ExternalID: acct.ExternalID(),
			Name:       acct.Name(),
			Currency:   acct.Currency(),
			Status:     acct.Status(),
			CreatedAt:  acct.CreatedAt(),
		})
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *AccountHandler) Get(c *gin.Context) {
	acct, err := h.acctRepo.GetBySID(c.Request.Context(), middleware.TenantID(c), c.Param("accountSID"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", AccountResponse{
		SID:        acct.SID(),
		ExternalID: acct.ExternalID(),
		Name:       acct.Name(),
		Currency:   acct.Currency(),
		Status:     acct.Status(),
		CreatedAt:  acct.CreatedAt(),
	})
}
