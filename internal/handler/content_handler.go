package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/service"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
	"github.com/noah-isme/jiu-academy-api/pkg/response"
	"github.com/noah-isme/jiu-academy-api/pkg/storage"
)

type contentService interface {
	Create(ctx context.Context, lessonID, callerID string, req service.CreateContentRequest, upload *service.Upload) (*models.LessonContent, error)
	ListByLesson(ctx context.Context, lessonID string) ([]models.LessonContent, error)
	Library(ctx context.Context) ([]models.LibraryItem, error)
	Get(ctx context.Context, id string) (*models.LessonContent, error)
}

// fileResolver maps a signed download token to a file on local disk.
type fileResolver interface {
	Resolve(token string) (string, error)
}

// multipartOverhead covers the form fields and boundaries around the file part.
const multipartOverhead = 1 << 20

// ContentHandler exposes lesson content and the content library.
type ContentHandler struct {
	service   contentService
	files     fileResolver
	maxUpload int64
}

// NewContentHandler constructs a content handler. files may be nil when uploads
// are not kept on local disk. A positive maxUpload caps multipart request bodies.
func NewContentHandler(svc contentService, files fileResolver, maxUpload int64) *ContentHandler {
	return &ContentHandler{service: svc, files: files, maxUpload: maxUpload}
}

// Upload godoc
// @Summary Attach content to a lesson
// @Description Accepts a JSON payload or a multipart form with a file field
// @Tags Content
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param payload body service.CreateContentRequest false "Content payload"
// @Param file formData file false "Uploaded file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /content/upload/{lessonId} [post]
func (h *ContentHandler) Upload(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var (
		req    service.CreateContentRequest
		upload *service.Upload
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if h.maxUpload > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)
		}
		if err := c.ShouldBind(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, []service.FieldError{{
					Field:   "file",
					Message: fmt.Sprintf("must be at most %d bytes", h.maxUpload),
				}}))
				return
			}
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid form data"))
			return
		}
		fileHeader, err := c.FormFile("file")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid file upload"))
			return
		default:
			file, err := fileHeader.Open()
			if err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
				return
			}
			defer file.Close()
			upload = &service.Upload{
				Name:        fileHeader.Filename,
				Size:        fileHeader.Size,
				ContentType: fileHeader.Header.Get("Content-Type"),
				Body:        file,
			}
		}
	} else if !bindJSON(c, &req) {
		return
	}

	content, err := h.service.Create(c.Request.Context(), c.Param("lessonId"), claims.UserID, req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, content)
}

// ListByLesson godoc
// @Summary Content of a lesson
// @Tags Content
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /content/lesson/{lessonId} [get]
func (h *ContentHandler) ListByLesson(c *gin.Context) {
	items, err := h.service.ListByLesson(c.Request.Context(), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Library godoc
// @Summary Content library
// @Description The 50 most recent items with their lesson date and topic
// @Tags Content
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /content/library [get]
func (h *ContentHandler) Library(c *gin.Context) {
	items, err := h.service.Library(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get content
// @Tags Content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /content/{id} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// File godoc
// @Summary Download a stored file
// @Tags Content
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /content/files/{token} [get]
func (h *ContentHandler) File(c *gin.Context) {
	if h.files == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "File not found"))
		return
	}
	path, err := h.files.Resolve(c.Param("token"))
	switch {
	case err == nil:
		c.File(path)
	case errors.Is(err, storage.ErrTokenExpired):
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "Download link expired"))
	case errors.Is(err, storage.ErrInvalidToken), errors.Is(err, storage.ErrNotFound):
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "File not found"))
	default:
		response.Error(c, err)
	}
}
