package domain

import "time"

// InvitationRecord tracks a pending workspace invitation. Validation on
// acceptance is read-only; a separate consumption step flips Used.
type InvitationRecord struct {
	ID           int64
	Token        string
	TenantID     string
	InviterID    string
	InviteeEmail string
	InviteeRole  string
	Used         bool
	ExpiresAt    time.Time
	CreatedAt    time.Time
}
