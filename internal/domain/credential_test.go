package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewCredentialRecord(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	record, err := NewCredentialRecord("w1", "realm-1", TokenResponse{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "bearer",
		ExpiresIn:    3600,
	}, now)
	require.NoError(t, err)
	require.Equal(t, "w1", record.TenantID)
	require.Equal(t, "realm-1", record.RealmID)
	require.Equal(t, now, record.IssuedAt)
	require.Equal(t, now.Add(time.Hour), record.ExpiresAt())
}

func TestNewCredentialRecord_DefaultsTokenType(t *testing.T) {
	record, err := NewCredentialRecord("w1", "", TokenResponse{AccessToken: "a", ExpiresIn: 60}, time.Now())
	require.NoError(t, err)
	require.Equal(t, "bearer", record.TokenType)
}

func TestNewCredentialRecord_MalformedPayload(t *testing.T) {
	_, err := NewCredentialRecord("w1", "", TokenResponse{ExpiresIn: 3600}, time.Now())
	require.ErrorIs(t, err, ErrMalformedToken)

	_, err = NewCredentialRecord("w1", "", TokenResponse{AccessToken: "a"}, time.Now())
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestCredentialRecord_IsExpiredBoundary(t *testing.T) {
	issued := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	record := CredentialRecord{IssuedAt: issued, ExpiresInSeconds: 3600}

	require.False(t, record.IsExpired(issued.Add(time.Hour-time.Second)))
	// Exact boundary counts as expired.
	require.True(t, record.IsExpired(issued.Add(time.Hour)))
	require.True(t, record.IsExpired(issued.Add(time.Hour+time.Second)))
}
