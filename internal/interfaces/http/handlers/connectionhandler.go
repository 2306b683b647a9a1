package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	connUsecases "github.com/meridian-ads/meridian/internal/application/connection/usecases"
	"github.com/meridian-ads/meridian/internal/domain/connection"
	"github.com/meridian-ads/meridian/internal/interfaces/http/middleware"
	"github.com/meridian-ads/meridian/internal/shared/logger"
	"github.com/meridian-ads/meridian/internal/shared/utils"
)

type ConnectionHandler struct {
	connectUC *connUsecases.ConnectAccountUseCase
	refreshUC *connUsecases.RefreshTokenUseCase
	revokeUC  *connUsecases.RevokeConnectionUseCase
	connRepo  connection.Repository
	logger    logger.Interface
}

func NewConnectionHandler(
	connectUC *connUsecases.ConnectAccountUseCase,
	refreshUC *connUsecases.RefreshTokenUseCase,
	revokeUC *connUsecases.RevokeConnectionUseCase,
	connRepo connection.Repository,
) *ConnectionHandler {
	return &ConnectionHandler{
		connectUC: connectUC,
		refreshUC: refreshUC,
		revokeUC:  revokeUC,
		connRepo:  connRepo,
		logger:    logger.NewLogger(),
	}
}

type ConnectAccountRequest struct {
	// Code is an OAuth authorization code; ShortToken a user token obtained
	// out of band. Exactly one must be set.
	Code        string   `json:"code"`
	ShortToken  string   `json:"short_token"`
	Scopes      []string `json:"scopes"`
	MakeDefault bool     `json:"make_default"`
}

type RefreshTokenRequest struct {
	ShortToken string `json:"short_token"`
}

type ConnectionResponse struct {
	SID             string     `json:"sid"`
	Platform        string     `json:"platform"`
	Status          string     `json:"status"`
	LongLived       bool       `json:"long_lived"`
	TokenExpiresAt  *time.Time `json:"token_expires_at,omitempty"`
	Scopes          []string   `json:"scopes,omitempty"`
	IsDefault       bool       `json:"is_default"`
	LastValidatedAt *time.Time `json:"last_validated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type ConnectAccountResponse struct {
	Connection         ConnectionResponse `json:"connection"`
	AccountsDiscovered int                `json:"accounts_discovered"`
}

func (h *ConnectionHandler) Connect(c *gin.Context) {
	var req ConnectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for connect account", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.connectUC.Execute(c.Request.Context(), connUsecases.ConnectAccountCommand{
		TenantID:    middleware.TenantID(c),
		Code:        req.Code,
		ShortToken:  req.ShortToken,
		Scopes:      req.Scopes,
		MakeDefault: req.MakeDefault,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, ConnectAccountResponse{
		Connection:         toConnectionResponse(result.Connection),
		AccountsDiscovered: result.AccountsDiscovered,
	})
}

func (h *ConnectionHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for refresh token", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.refreshUC.Execute(c.Request.Context(), connUsecases.RefreshTokenCommand{
		TenantID:   middleware.TenantID(c),
		SID:        c.Param("sid"),
		ShortToken: req.ShortToken,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "token refreshed", toConnectionResponse(result.Connection))
}

func (h *ConnectionHandler) Revoke(c *gin.Context) {
	err := h.revokeUC.Execute(c.Request.Context(), connUsecases.RevokeConnectionCommand{
		TenantID: middleware.TenantID(c),
		SID:      c.Param("sid"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "connection revoked", nil)
}

func (h *ConnectionHandler) List(c *gin.Context) {
	conns, err := h.connRepo.ListByTenant(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := make([]ConnectionResponse, 0, len(conns))
	for _, conn := range conns {
		resp = append(resp, toConnectionResponse(conn))
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func toConnectionResponse(conn *connection.Connection) ConnectionResponse {
	return ConnectionResponse{
		SID:             conn.SID(),
		Platform:        conn.Platform(),
		Status:          conn.Status().String(),
		LongLived:       conn.LongLived(),
		TokenExpiresAt:  conn.TokenExpiresAt(),
		Scopes:          conn.Scopes(),
		IsDefault:       conn.IsDefault(),
		LastValidatedAt: conn.LastValidatedAt(),
		CreatedAt:       conn.CreatedAt(),
	}
}
