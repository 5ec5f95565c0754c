package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jiu-academy-api/internal/middleware"
	"github.com/noah-isme/jiu-academy-api/internal/models"
)

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

type errorEnvelope struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details"`
}

func newTestRouter(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if claims != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserKey, claims)
			c.Next()
		})
	}
	return r
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func aluno(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Email: id + "@jiu.test", Role: models.RoleAluno}
}

func professor(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Email: id + "@jiu.test", Role: models.RoleProfessor}
}

func admin(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Email: id + "@jiu.test", Role: models.RoleAdmin}
}
