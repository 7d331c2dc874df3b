package domain

import "errors"

var (
	// ErrUnauthorized signals a failed identity verification; checked before
	// any tenant-scoped operation runs.
	ErrUnauthorized = errors.New("connect: unauthorized")
	// ErrStateNotFound indicates the state token is absent, which includes
	// an already-consumed token.
	ErrStateNotFound = errors.New("connect: state not found")
	// ErrStateExpired indicates the state token outlived its window.
	ErrStateExpired = errors.New("connect: state expired")
	// ErrInvalidState covers any CSRF state mismatch on callback.
	ErrInvalidState = errors.New("connect: invalid state")
	// ErrNotConnected means no credential record exists for the tenant.
	ErrNotConnected = errors.New("connect: not connected")
	// ErrRefreshFailed means the provider rejected the stored refresh token.
	ErrRefreshFailed = errors.New("connect: refresh failed")
	// ErrUpstreamUnavailable covers network or timeout failures reaching the
	// provider; no state was mutated and the call is safe to retry.
	ErrUpstreamUnavailable = errors.New("connect: upstream unavailable")
	// ErrUnknownEntity rejects entity kinds outside the closed table.
	ErrUnknownEntity = errors.New("connect: unknown entity")
	// ErrMalformedToken indicates an unusable provider token payload.
	ErrMalformedToken = errors.New("connect: malformed token response")

	// ErrInvitationNotFound signals a missing invitation token.
	ErrInvitationNotFound = errors.New("connect: invitation not found")
	// ErrInvitationExpired signals an invitation past its expiry.
	ErrInvitationExpired = errors.New("connect: invitation expired")
	// ErrInvitationUsed signals an invitation that was already consumed.
	ErrInvitationUsed = errors.New("connect: invitation already used")
)
