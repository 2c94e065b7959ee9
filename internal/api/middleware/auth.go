package middleware

import (
	"net/http"

	"collab-service/internal/auth"
	"collab-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the verified user id.
const UserIDKey = "user_id"

type AuthMiddleware struct {
	identity auth.IdentityProvider
}

func NewAuthMiddleware(identity auth.IdentityProvider) *AuthMiddleware {
	return &AuthMiddleware{identity: identity}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.TokenFromRequest(c.Request)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "authorization header is required")
			return
		}

		userID, err := am.identity.Verify(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "invalid token")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
