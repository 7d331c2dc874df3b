package domain

import (
	"fmt"
	"strings"
	"time"
)

// TokenResponse models the provider token endpoint payload, for both the
// authorization-code exchange and the refresh grant.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Raw          map[string]any
}

// CredentialRecord is the persisted accounting-API connection for one tenant.
// One record per tenant, overwritten whole on (re)authorization and refresh.
type CredentialRecord struct {
	TenantID         string
	AccessToken      string
	RefreshToken     string
	TokenType        string
	ExpiresInSeconds int64
	IssuedAt         time.Time
	RealmID          string
}

// NewCredentialRecord maps a raw provider token response onto a credential
// record, stamping the issue instant. Pure transformation; the only failure
// path is a malformed payload.
func NewCredentialRecord(tenantID, realmID string, tok TokenResponse, now time.Time) (CredentialRecord, error) {
	if strings.TrimSpace(tok.AccessToken) == "" {
		return CredentialRecord{}, fmt.Errorf("missing access_token: %w", ErrMalformedToken)
	}
	if tok.ExpiresIn <= 0 {
		return CredentialRecord{}, fmt.Errorf("non-positive expires_in %d: %w", tok.ExpiresIn, ErrMalformedToken)
	}
	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return CredentialRecord{
		TenantID:         tenantID,
		AccessToken:      tok.AccessToken,
		RefreshToken:     tok.RefreshToken,
		TokenType:        tokenType,
		ExpiresInSeconds: tok.ExpiresIn,
		IssuedAt:         now.UTC(),
		RealmID:          realmID,
	}, nil
}

// ExpiresAt is the authoritative expiry instant.
func (c CredentialRecord) ExpiresAt() time.Time {
	return c.IssuedAt.Add(time.Duration(c.ExpiresInSeconds) * time.Second)
}

// IsExpired reports whether the access token is unusable at now. The exact
// boundary counts as expired; no clock-skew margin is applied.
func (c CredentialRecord) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt())
}
