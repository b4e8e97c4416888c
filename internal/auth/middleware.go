package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Anton0729/ToDo-List-Project/internal/models"
	"github.com/Anton0729/ToDo-List-Project/internal/storage/sqlite"
)

// principalKey is the context key handlers use to read the resolved user.
const principalKey = "auth.principal"

// RequireAuth resolves the bearer principal for the request: extract the
// token, decode it, and re-resolve the subject against the user store. Any
// failure along the way aborts with the same 401 so a client cannot probe
// which step rejected it.
func RequireAuth(store *sqlite.Store, codec *Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.Request)
		if token == "" {
			unauthorized(c)
			return
		}

		claims, err := codec.Decode(token)
		if err != nil || claims.Subject == "" {
			unauthorized(c)
			return
		}

		// The token may outlive its account; a deleted user must not
		// resolve even with a cryptographically valid token.
		user, err := store.FindUserByUsername(c.Request.Context(), claims.Subject)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(principalKey, user)
		c.Next()
	}
}

// CurrentUser returns the principal stored by RequireAuth.
func CurrentUser(c *gin.Context) models.User {
	user, _ := c.Get(principalKey)
	principal, _ := user.(models.User)
	return principal
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
}
