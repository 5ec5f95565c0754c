package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
	"github.com/noah-isme/jiu-academy-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// AccessTokenCookie carries the access token for browser clients.
	AccessTokenCookie = "accessToken"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// JWT requires a valid access token from the Authorization header or the
// accessToken cookie, in that order.
func JWT(validator tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "No token provided"))
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// CurrentUser returns the claims stored by JWT.
func CurrentUser(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}
