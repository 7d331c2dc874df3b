package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brightdesk/books-connect/internal/identity"
)

const subjectKey = "identitySubject"

// Auth verifies the caller's bearer identity credential before any
// tenant-scoped logic runs.
type Auth struct {
	Verifier identity.Verifier
}

// VerifyIdentity ensures the request carries a valid bearer token and
// attaches the verified subject.
func (m *Auth) VerifyIdentity(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authorization header required."})
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Bearer token required."})
		return
	}
	subject, err := m.Verifier.Verify(c.Request.Context(), parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid identity token."})
		return
	}
	c.Set(subjectKey, subject)
	c.Next()
}

// GetSubject exposes the verified subject id to handlers.
func GetSubject(c *gin.Context) (string, bool) {
	value, ok := c.Get(subjectKey)
	if !ok {
		return "", false
	}
	subject, ok := value.(string)
	return subject, ok
}
