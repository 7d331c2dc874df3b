package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brightdesk/books-connect/internal/domain"
	"github.com/brightdesk/books-connect/internal/http/middleware"
	"github.com/brightdesk/books-connect/internal/service/invite"
)

// InviteHandler exposes the workspace invitation endpoints.
type InviteHandler struct {
	Invites *invite.Service
	Logger  *zap.Logger
}

// NewInviteHandler creates the handler set.
func NewInviteHandler(svc *invite.Service, logger *zap.Logger) *InviteHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &InviteHandler{Invites: svc, Logger: logger}
}

// Send creates an invitation and dispatches the invitation mail.
func (h *InviteHandler) Send(c *gin.Context) {
	var req struct {
		TenantID string `json:"tenantId" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "tenantId, email, and role required."})
		return
	}
	subject, _ := middleware.GetSubject(c)

	record, err := h.Invites.Send(c.Request.Context(), req.TenantID, subject, req.Email, req.Role)
	if err != nil {
		h.Logger.Error("invitation send failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":     record.Token,
		"expiresAt": record.ExpiresAt,
	})
}

// Validate checks an invitation token without consuming it.
func (h *InviteHandler) Validate(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "token required."})
		return
	}

	record, err := h.Invites.Validate(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvitationNotFound),
			errors.Is(err, domain.ErrInvitationExpired),
			errors.Is(err, domain.ErrInvitationUsed):
			c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "invalid_invitation"})
		default:
			h.Logger.Error("invitation validate failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"tenantId": record.TenantID,
		"email":    record.InviteeEmail,
		"role":     record.InviteeRole,
	})
}
