package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jiu-academy-api/internal/middleware"
	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/pkg/config"
	"github.com/noah-isme/jiu-academy-api/pkg/response"
)

// RefreshTokenCookie carries the refresh token between browser and API.
const RefreshTokenCookie = "refreshToken"

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookies config.CookieConfig
	now     func() time.Time
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookies config.CookieConfig) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, now: time.Now}
}

// Register godoc
// @Summary Register user
// @Description Create an account and sign it in
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Register payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setAuthCookies(c, res)
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setAuthCookies(c, res)
	response.JSON(c, http.StatusOK, res, nil)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange a refresh token from the body or the refreshToken cookie for a new pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest false "Refresh payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	req := models.RefreshTokenRequest{RefreshToken: h.refreshTokenFrom(c)}

	res, err := h.service.RefreshToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setAuthCookies(c, res)
	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the refresh token and clear the auth cookies
// @Tags Authentication
// @Accept json
// @Param payload body models.RefreshTokenRequest false "Refresh payload"
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := h.refreshTokenFrom(c); token != "" {
		if err := h.service.Logout(c.Request.Context(), token); err != nil {
			response.Error(c, err)
			return
		}
	}

	h.clearAuthCookies(c)
	response.NoContent(c)
}

// refreshTokenFrom prefers the JSON body and falls back to the cookie.
func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	var body models.RefreshTokenRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&body)
	}
	if body.RefreshToken != "" {
		return body.RefreshToken
	}
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
		return cookie
	}
	return ""
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, res *models.AuthResponse) {
	refreshAge := int(res.RefreshTokenExpiresAt.Sub(h.now()).Seconds())
	if refreshAge < 0 {
		refreshAge = 0
	}
	h.writeCookie(c, middleware.AccessTokenCookie, res.AccessToken, int(res.ExpiresIn))
	h.writeCookie(c, RefreshTokenCookie, res.RefreshToken, refreshAge)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	h.writeCookie(c, middleware.AccessTokenCookie, "", -1)
	h.writeCookie(c, RefreshTokenCookie, "", -1)
}

func (h *AuthHandler) writeCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, "/", h.cookies.Domain, h.cookies.Secure, true)
}
