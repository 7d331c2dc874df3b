package invite

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brightdesk/books-connect/internal/domain"
	"github.com/brightdesk/books-connect/internal/mail"
	"github.com/brightdesk/books-connect/internal/repository"
)

// TTL bounds how long an invitation stays acceptable.
const TTL = 7 * 24 * time.Hour

// Service manages workspace invitations: send, validate, consume.
type Service struct {
	invitations repository.InvitationRepository
	mailer      mail.Sender
	node        *snowflake.Node
	acceptURL   string
	logger      *zap.Logger
	now         func() time.Time
}

// NewService wires the invitation service. acceptURL is the workspace
// application page the mailed link points at; the token is appended as a
// query parameter.
func NewService(invitations repository.InvitationRepository, mailer mail.Sender, node *snowflake.Node, acceptURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	return &Service{
		invitations: invitations,
		mailer:      mailer,
		node:        node,
		acceptURL:   acceptURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Send creates the invitation record and dispatches the invitation mail.
func (s *Service) Send(ctx context.Context, tenantID, inviterID, email, role string) (domain.InvitationRecord, error) {
	now := s.now().UTC()
	record := domain.InvitationRecord{
		ID:           s.node.Generate().Int64(),
		Token:        uuid.NewString(),
		TenantID:     tenantID,
		InviterID:    inviterID,
		InviteeEmail: email,
		InviteeRole:  role,
		ExpiresAt:    now.Add(TTL),
		CreatedAt:    now,
	}
	created, err := s.invitations.Create(ctx, record)
	if err != nil {
		return domain.InvitationRecord{}, fmt.Errorf("create invitation: %w", err)
	}

	link := fmt.Sprintf("%s?token=%s", s.acceptURL, created.Token)
	body := fmt.Sprintf("You have been invited to a workspace as %s.\r\n\r\nAccept the invitation: %s\r\n\r\nThe link expires in 7 days.", role, link)
	if err := s.mailer.Send(email, "Workspace invitation", body); err != nil {
		// The record stands; the inviter can resend.
		s.logger.Warn("invitation mail dispatch failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}
	return created, nil
}

// Validate checks an invitation token for existence, expiry, and prior use.
// It performs no write; MarkUsed is the consumption step.
func (s *Service) Validate(ctx context.Context, token string) (domain.InvitationRecord, error) {
	record, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return domain.InvitationRecord{}, err
	}
	if s.now().After(record.ExpiresAt) {
		return domain.InvitationRecord{}, domain.ErrInvitationExpired
	}
	if record.Used {
		return domain.InvitationRecord{}, domain.ErrInvitationUsed
	}
	return record, nil
}

// MarkUsed consumes the invitation after the downstream acceptance step
// completes.
func (s *Service) MarkUsed(ctx context.Context, token string) error {
	return s.invitations.MarkUsed(ctx, token)
}
