package domain

import "time"

// OAuthStateRecord binds an in-flight authorization request to the tenant and
// user that initiated it. Written when an authorization URI is handed out,
// consumed exactly once by the provider callback.
type OAuthStateRecord struct {
	StateToken string    `json:"state_token"`
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
