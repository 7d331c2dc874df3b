package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/brightdesk/books-connect/internal/domain"
)

// Verifier checks an opaque bearer credential and returns the verified
// subject id.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

// OIDCVerifier validates identity tokens against the workspace identity
// provider's published keys.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ Verifier = (*OIDCVerifier)(nil)

// NewOIDCVerifier discovers the issuer and prepares the token verifier.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover identity issuer: %w", err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Verify returns the subject of a valid token, or ErrUnauthorized.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", fmt.Errorf("verify identity token: %v: %w", err, domain.ErrUnauthorized)
	}
	return token.Subject, nil
}
