package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brightdesk/books-connect/internal/domain"
	"github.com/brightdesk/books-connect/internal/http/middleware"
	"github.com/brightdesk/books-connect/internal/service/connect"
)

// callbackHTML closes the interactive consent window.
const callbackHTML = `<script>window.close();</script>`

// ConnectHandler exposes the accounting-connection endpoints.
type ConnectHandler struct {
	Connect connect.Service
	Logger  *zap.Logger
}

// NewConnectHandler creates the handler set.
func NewConnectHandler(svc connect.Service, logger *zap.Logger) *ConnectHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &ConnectHandler{Connect: svc, Logger: logger}
}

// Authorize hands out the provider consent URL for the caller's tenant.
func (h *ConnectHandler) Authorize(c *gin.Context) {
	tenantID := strings.TrimSpace(c.Query("tenantId"))
	if tenantID == "" {
		var req struct {
			TenantID string `json:"tenantId"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			tenantID = strings.TrimSpace(req.TenantID)
		}
	}
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "tenantId required."})
		return
	}
	subject, _ := middleware.GetSubject(c)

	uri, err := h.Connect.BeginAuthorization(c.Request.Context(), tenantID, subject)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authorizationUri": uri})
}

// Callback consumes the provider redirect and closes the consent window.
func (h *ConnectHandler) Callback(c *gin.Context) {
	if err := h.Connect.CompleteAuthorization(c.Request.Context(), c.Request.URL.String()); err != nil {
		h.Logger.Warn("authorization callback failed", zap.Error(err))
		c.String(http.StatusBadRequest, "Callback error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(callbackHTML))
}

// CheckConnection reports connection status, refreshing lazily.
func (h *ConnectHandler) CheckConnection(c *gin.Context) {
	tenantID, ok := bindTenant(c)
	if !ok {
		return
	}
	connected, err := h.Connect.CheckConnection(c.Request.Context(), tenantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": connected})
}

// Disconnect revokes and clears the tenant's connection.
func (h *ConnectHandler) Disconnect(c *gin.Context) {
	tenantID, ok := bindTenant(c)
	if !ok {
		return
	}
	if err := h.Connect.Disconnect(c.Request.Context(), tenantID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "Disconnected"})
}

// GetEntity proxies an entity query to the provider.
func (h *ConnectHandler) GetEntity(c *gin.Context) {
	var req struct {
		TenantID string `json:"tenantId" binding:"required"`
		Entity   string `json:"entity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "tenantId and entity required."})
		return
	}
	body, err := h.Connect.FetchEntity(c.Request.Context(), req.TenantID, req.Entity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// CreateBills submits one batched provider write.
func (h *ConnectHandler) CreateBills(c *gin.Context) {
	var req struct {
		TenantID string `json:"tenantId" binding:"required"`
		connect.CreateBillsInput
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "tenantId required."})
		return
	}
	body, err := h.Connect.CreateBills(c.Request.Context(), req.TenantID, req.CreateBillsInput)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

func bindTenant(c *gin.Context) (string, bool) {
	var req struct {
		TenantID string `json:"tenantId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "tenantId required."})
		return "", false
	}
	return req.TenantID, true
}

// respondError translates domain errors to HTTP responses. Provider-side
// failures become a generic 500 with no internal detail in the body.
func (h *ConnectHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownEntity):
		c.String(http.StatusBadRequest, "Invalid entity")
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
	case errors.Is(err, domain.ErrNotConnected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "not_connected"})
	default:
		h.Logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}
