package repository

import (
	"context"

	"github.com/brightdesk/books-connect/internal/domain"
)

// CredentialRepository persists one accounting-API credential per tenant.
// Save overwrites the whole record; Load returns domain.ErrNotConnected when
// no record exists.
type CredentialRepository interface {
	Save(ctx context.Context, record domain.CredentialRecord) error
	Load(ctx context.Context, tenantID string) (domain.CredentialRecord, error)
	Delete(ctx context.Context, tenantID string) error
}

// InvitationRepository persists workspace invitations.
type InvitationRepository interface {
	Create(ctx context.Context, invitation domain.InvitationRecord) (domain.InvitationRecord, error)
	GetByToken(ctx context.Context, token string) (domain.InvitationRecord, error)
	MarkUsed(ctx context.Context, token string) error
}
