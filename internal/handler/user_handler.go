package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/service"
	"github.com/noah-isme/jiu-academy-api/pkg/response"
)

type userService interface {
	Me(ctx context.Context, userID string) (*models.UserWithProfile, error)
	UpdateMe(ctx context.Context, userID string, req service.UpdateMeRequest) (*models.UserWithProfile, error)
	List(ctx context.Context, role string) ([]models.User, error)
}

// UserHandler exposes the account endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user with its profile
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	user, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UpdateMe godoc
// @Summary Update current user
// @Description Partially updates the caller's account and upserts its profile
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body service.UpdateMeRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.service.UpdateMe(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param role query string false "Role filter (aluno, professor, admin)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}
