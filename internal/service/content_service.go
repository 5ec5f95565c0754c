package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
	"github.com/noah-isme/jiu-academy-api/pkg/storage"
)

const (
	libraryLimit = 50
	// storedURLPrefix marks file_url values that reference the storage backend
	// rather than an external link. They are resolved to a fresh URL on read.
	storedURLPrefix = "storage://"
)

type contentRepository interface {
	Create(ctx context.Context, content *models.LessonContent) error
	FindByID(ctx context.Context, id string) (*models.LessonContent, error)
	ListByLesson(ctx context.Context, lessonID string) ([]models.LessonContent, error)
	Library(ctx context.Context, limit int) ([]models.LibraryItem, error)
}

// CreateContentRequest describes lesson material. FileURL is used for external
// links; uploaded files fill the file fields themselves.
type CreateContentRequest struct {
	Title       string             `json:"title" form:"title" validate:"required,max=255"`
	Description *string            `json:"description" form:"description"`
	ContentType models.ContentType `json:"contentType" form:"contentType" validate:"omitempty,oneof=video pdf image note"`
	FileURL     *string            `json:"fileUrl" form:"fileUrl" validate:"omitempty,url"`
	FileName    *string            `json:"fileName" form:"fileName" validate:"omitempty,max=255"`
	FileSize    *int64             `json:"fileSize" form:"fileSize" validate:"omitempty,gte=0"`
	Duration    *int               `json:"duration" form:"duration" validate:"omitempty,gte=0"`
	Positions   []string           `json:"positions" form:"positions" validate:"dive,required,max=100"`
	Techniques  []string           `json:"techniques" form:"techniques" validate:"dive,required,max=100"`
}

// Upload is a file received with a content request.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// ContentService manages lesson material and its stored files.
type ContentService struct {
	repo      contentRepository
	lessons   lessonFinder
	store     storage.Storage
	maxBytes  int64
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContentService constructs a ContentService. A nil store disables file uploads.
func NewContentService(repo contentRepository, lessons lessonFinder, store storage.Storage, maxBytes int64, validate *validator.Validate, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{
		repo:      repo,
		lessons:   lessons,
		store:     store,
		maxBytes:  maxBytes,
		validator: ensureValidator(validate),
		logger:    logger,
	}
}

// Create attaches content to a lesson, storing upload when present.
func (s *ContentService) Create(ctx context.Context, lessonID, callerID string, req CreateContentRequest, upload *Upload) (*models.LessonContent, error) {
	if upload != nil && req.ContentType == "" {
		req.ContentType = contentTypeFromMIME(upload.ContentType, upload.Name)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.ContentType == "" {
		return nil, fieldValidation("contentType", "is required")
	}
	if _, err := s.lessons.FindByID(ctx, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	content := &models.LessonContent{
		ID:          uuid.NewString(),
		LessonID:    lessonID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ContentType: req.ContentType,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		Duration:    req.Duration,
		Positions:   req.Positions,
		Techniques:  req.Techniques,
	}
	if callerID != "" {
		content.CreatedBy = &callerID
	}

	if upload != nil {
		if err := s.storeUpload(ctx, content, upload); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, content); err != nil {
		if upload != nil {
			s.discardUpload(ctx, content)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create content")
	}
	s.logger.Info("lesson content created",
		zap.String("content_id", content.ID),
		zap.String("lesson_id", lessonID),
		zap.String("content_type", string(content.ContentType)),
	)
	s.present(ctx, content)
	return content, nil
}

func (s *ContentService) storeUpload(ctx context.Context, content *models.LessonContent, upload *Upload) error {
	if s.store == nil {
		return appErrors.Clone(appErrors.ErrInternal, "file storage is not configured")
	}
	if s.maxBytes > 0 && upload.Size > s.maxBytes {
		return fieldValidation("file", fmt.Sprintf("must be at most %d bytes", s.maxBytes))
	}
	key := storage.ObjectKey(path.Join("lessons", content.LessonID), content.ID, upload.Name)
	if err := s.store.Put(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	ref := storedURLPrefix + key
	name := upload.Name
	size := upload.Size
	content.FileURL = &ref
	content.FileName = &name
	content.FileSize = &size
	return nil
}

// discardUpload removes a stored file whose content row was never written.
func (s *ContentService) discardUpload(ctx context.Context, content *models.LessonContent) {
	if content.FileURL == nil || !strings.HasPrefix(*content.FileURL, storedURLPrefix) {
		return
	}
	key := strings.TrimPrefix(*content.FileURL, storedURLPrefix)
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
	}
}

// ListByLesson returns a lesson's content, newest first.
func (s *ContentService) ListByLesson(ctx context.Context, lessonID string) ([]models.LessonContent, error) {
	items, err := s.repo.ListByLesson(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list content")
	}
	if items == nil {
		items = []models.LessonContent{}
	}
	for i := range items {
		s.present(ctx, &items[i])
	}
	return items, nil
}

// Library returns the latest content across all lessons.
func (s *ContentService) Library(ctx context.Context) ([]models.LibraryItem, error) {
	items, err := s.repo.Library(ctx, libraryLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content library")
	}
	if items == nil {
		items = []models.LibraryItem{}
	}
	for i := range items {
		s.present(ctx, &items[i].LessonContent)
	}
	return items, nil
}

// Get returns one content item.
func (s *ContentService) Get(ctx context.Context, id string) (*models.LessonContent, error) {
	content, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Content not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content")
	}
	s.present(ctx, content)
	return content, nil
}

// present swaps a stored reference for a download URL.
func (s *ContentService) present(ctx context.Context, content *models.LessonContent) {
	if content.FileURL == nil || !strings.HasPrefix(*content.FileURL, storedURLPrefix) {
		return
	}
	key := strings.TrimPrefix(*content.FileURL, storedURLPrefix)
	if s.store == nil {
		content.FileURL = nil
		return
	}
	url, err := s.store.URL(ctx, key)
	if err != nil {
		s.logger.Warn("failed to sign content url", zap.String("content_id", content.ID), zap.Error(err))
		content.FileURL = nil
		return
	}
	content.FileURL = &url
}

func contentTypeFromMIME(mimeType, filename string) models.ContentType {
	mimeType = strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return models.ContentVideo
	case strings.HasPrefix(mimeType, "image/"):
		return models.ContentImage
	case mimeType == "application/pdf", strings.EqualFold(path.Ext(filename), ".pdf"):
		return models.ContentPDF
	case strings.HasPrefix(mimeType, "text/"):
		return models.ContentNote
	}
	return ""
}
