package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/pkg/config"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

type fakeAuthService struct {
	response     *models.AuthResponse
	err          error
	refreshToken string
	loggedOut    []string
}

func (f *fakeAuthService) Register(context.Context, models.RegisterRequest) (*models.AuthResponse, error) {
	return f.response, f.err
}

func (f *fakeAuthService) Login(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
	return f.response, f.err
}

func (f *fakeAuthService) RefreshToken(_ context.Context, req models.RefreshTokenRequest) (*models.AuthResponse, error) {
	f.refreshToken = req.RefreshToken
	if req.RefreshToken == "" {
		return nil, appErrors.ErrInvalidRefreshToken
	}
	return f.response, f.err
}

func (f *fakeAuthService) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func sampleAuthResponse(now time.Time) *models.AuthResponse {
	return &models.AuthResponse{
		User:                  models.UserInfo{ID: "u1", Email: "ana@jiu.test", Name: "Ana", Role: models.RoleAluno, BeltColor: "white"},
		AccessToken:           "access-1",
		RefreshToken:          "refresh-1",
		ExpiresIn:             900,
		RefreshTokenExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func newAuthRouter(svc *fakeAuthService, now time.Time) http.Handler {
	h := NewAuthHandler(svc, config.CookieConfig{Domain: "jiu.test", Secure: true})
	h.now = func() time.Time { return now }
	r := newTestRouter(nil)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
	return r
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestAuthHandlerRegisterSetsCookies(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r := newAuthRouter(&fakeAuthService{response: sampleAuthResponse(now)}, now)

	rec := perform(r, http.MethodPost, "/auth/register", `{"email":"ana@jiu.test","password":"secret123","name":"Ana","role":"aluno"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeData(t, rec)
	assert.Equal(t, "access-1", env.Data["accessToken"])

	cookies := cookiesByName(rec)
	require.Contains(t, cookies, "accessToken")
	require.Contains(t, cookies, "refreshToken")
	assert.Equal(t, 900, cookies["accessToken"].MaxAge)
	assert.Equal(t, 7*24*3600, cookies["refreshToken"].MaxAge)
	assert.True(t, cookies["accessToken"].HttpOnly)
	assert.True(t, cookies["accessToken"].Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookies["refreshToken"].SameSite)
}

func TestAuthHandlerLoginPropagatesError(t *testing.T) {
	r := newAuthRouter(&fakeAuthService{err: appErrors.ErrInvalidCredentials}, time.Now())

	rec := perform(r, http.MethodPost, "/auth/login", `{"email":"ana@jiu.test","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeError(t, rec).Error)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthHandlerLoginRejectsMalformedBody(t *testing.T) {
	r := newAuthRouter(&fakeAuthService{}, time.Now())

	rec := perform(r, http.MethodPost, "/auth/login", `{"email":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerRefreshTokenSources(t *testing.T) {
	now := time.Now()

	t.Run("body", func(t *testing.T) {
		svc := &fakeAuthService{response: sampleAuthResponse(now)}
		rec := perform(newAuthRouter(svc, now), http.MethodPost, "/auth/refresh", `{"refreshToken":"from-body"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "from-body", svc.refreshToken)
	})

	t.Run("cookie", func(t *testing.T) {
		svc := &fakeAuthService{response: sampleAuthResponse(now)}
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "from-cookie"})
		rec := httptest.NewRecorder()
		newAuthRouter(svc, now).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "from-cookie", svc.refreshToken)
	})

	t.Run("missing", func(t *testing.T) {
		svc := &fakeAuthService{response: sampleAuthResponse(now)}
		rec := perform(newAuthRouter(svc, now), http.MethodPost, "/auth/refresh", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid refresh token", decodeError(t, rec).Error)
	})
}

func TestAuthHandlerLogoutClearsCookies(t *testing.T) {
	svc := &fakeAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(""))
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "refresh-1"})
	rec := httptest.NewRecorder()
	newAuthRouter(svc, time.Now()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"refresh-1"}, svc.loggedOut)
	cookies := cookiesByName(rec)
	require.Contains(t, cookies, "accessToken")
	assert.Equal(t, "", cookies["accessToken"].Value)
	assert.True(t, cookies["refreshToken"].MaxAge < 0)
}
