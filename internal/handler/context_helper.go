package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jiu-academy-api/internal/middleware"
	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
	"github.com/noah-isme/jiu-academy-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims writes a 401 and returns false when the request carries no identity.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid request body"))
		return false
	}
	return true
}
