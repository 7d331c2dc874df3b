package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightdesk/books-connect/internal/domain"
)

// Compile-time interface assertions.
var (
	_ CredentialRepository = (*PostgresCredentialRepo)(nil)
	_ InvitationRepository = (*PostgresInvitationRepo)(nil)
)

// PostgresCredentialRepo implements CredentialRepository over pgx.
type PostgresCredentialRepo struct {
	db *pgxpool.Pool
}

func NewPostgresCredentialRepo(pool *pgxpool.Pool) *PostgresCredentialRepo {
	return &PostgresCredentialRepo{db: pool}
}

const upsertCredentialSQL = `INSERT INTO credentials (tenant_id, access_token, refresh_token, token_type, expires_in, issued_at, realm_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (tenant_id) DO UPDATE SET
	access_token = EXCLUDED.access_token,
	refresh_token = EXCLUDED.refresh_token,
	token_type = EXCLUDED.token_type,
	expires_in = EXCLUDED.expires_in,
	issued_at = EXCLUDED.issued_at,
	realm_id = EXCLUDED.realm_id`

func (r *PostgresCredentialRepo) Save(ctx context.Context, record domain.CredentialRecord) error {
	_, err := r.db.Exec(ctx, upsertCredentialSQL,
		record.TenantID,
		record.AccessToken,
		record.RefreshToken,
		record.TokenType,
		record.ExpiresInSeconds,
		record.IssuedAt,
		record.RealmID,
	)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

const selectCredentialSQL = `SELECT tenant_id, access_token, refresh_token, token_type, expires_in, issued_at, realm_id
FROM credentials WHERE tenant_id = $1`

func (r *PostgresCredentialRepo) Load(ctx context.Context, tenantID string) (domain.CredentialRecord, error) {
	var record domain.CredentialRecord
	err := r.db.QueryRow(ctx, selectCredentialSQL, tenantID).Scan(
		&record.TenantID,
		&record.AccessToken,
		&record.RefreshToken,
		&record.TokenType,
		&record.ExpiresInSeconds,
		&record.IssuedAt,
		&record.RealmID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CredentialRecord{}, domain.ErrNotConnected
		}
		return domain.CredentialRecord{}, fmt.Errorf("load credential: %w", err)
	}
	return record, nil
}

func (r *PostgresCredentialRepo) Delete(ctx context.Context, tenantID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM credentials WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// PostgresInvitationRepo implements InvitationRepository over pgx.
type PostgresInvitationRepo struct {
	db *pgxpool.Pool
}

func NewPostgresInvitationRepo(pool *pgxpool.Pool) *PostgresInvitationRepo {
	return &PostgresInvitationRepo{db: pool}
}

const insertInvitationSQL = `INSERT INTO invitations (id, token, tenant_id, inviter_id, invitee_email, invitee_role, used, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, token, tenant_id, inviter_id, invitee_email, invitee_role, used, expires_at, created_at`

func (r *PostgresInvitationRepo) Create(ctx context.Context, invitation domain.InvitationRecord) (domain.InvitationRecord, error) {
	row := r.db.QueryRow(ctx, insertInvitationSQL,
		invitation.ID,
		invitation.Token,
		invitation.TenantID,
		invitation.InviterID,
		invitation.InviteeEmail,
		invitation.InviteeRole,
		invitation.Used,
		invitation.ExpiresAt,
		invitation.CreatedAt,
	)
	var inserted domain.InvitationRecord
	if err := row.Scan(
		&inserted.ID,
		&inserted.Token,
		&inserted.TenantID,
		&inserted.InviterID,
		&inserted.InviteeEmail,
		&inserted.InviteeRole,
		&inserted.Used,
		&inserted.ExpiresAt,
		&inserted.CreatedAt,
	); err != nil {
		return domain.InvitationRecord{}, fmt.Errorf("create invitation: %w", err)
	}
	return inserted, nil
}

const selectInvitationSQL = `SELECT id, token, tenant_id, inviter_id, invitee_email, invitee_role, used, expires_at, created_at
FROM invitations WHERE token = $1`

func (r *PostgresInvitationRepo) GetByToken(ctx context.Context, token string) (domain.InvitationRecord, error) {
	var record domain.InvitationRecord
	err := r.db.QueryRow(ctx, selectInvitationSQL, token).Scan(
		&record.ID,
		&record.Token,
		&record.TenantID,
		&record.InviterID,
		&record.InviteeEmail,
		&record.InviteeRole,
		&record.Used,
		&record.ExpiresAt,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.InvitationRecord{}, domain.ErrInvitationNotFound
		}
		return domain.InvitationRecord{}, fmt.Errorf("get invitation: %w", err)
	}
	return record, nil
}

func (r *PostgresInvitationRepo) MarkUsed(ctx context.Context, token string) error {
	tag, err := r.db.Exec(ctx, `UPDATE invitations SET used = TRUE WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("mark invitation used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}
