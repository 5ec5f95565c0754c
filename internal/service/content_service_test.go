package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

type mockContentRepo struct {
	items     map[string]*models.LessonContent
	limit     int
	created   []*models.LessonContent
	createErr error
}

func newMockContentRepo() *mockContentRepo {
	return &mockContentRepo{items: map[string]*models.LessonContent{}}
}

func (m *mockContentRepo) Create(ctx context.Context, content *models.LessonContent) error {
	if m.createErr != nil {
		return m.createErr
	}
	copy := *content
	m.items[content.ID] = &copy
	m.created = append(m.created, &copy)
	return nil
}

func (m *mockContentRepo) FindByID(ctx context.Context, id string) (*models.LessonContent, error) {
	if c, ok := m.items[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockContentRepo) ListByLesson(ctx context.Context, lessonID string) ([]models.LessonContent, error) {
	var out []models.LessonContent
	for _, c := range m.created {
		if c.LessonID == lessonID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockContentRepo) Library(ctx context.Context, limit int) ([]models.LibraryItem, error) {
	m.limit = limit
	var out []models.LibraryItem
	for _, c := range m.created {
		out = append(out, models.LibraryItem{LessonContent: *c, LessonDate: "2024-05-01"})
	}
	return out, nil
}

type memoryStore struct {
	objects   map[string]string
	putErr    error
	deleteErr error
	deleted   []string
}

func (m *memoryStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = string(data)
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) URL(ctx context.Context, key string) (string, error) {
	return "https://files.local/" + key, nil
}

func newContentFixture() (*ContentService, *mockContentRepo, *memoryStore) {
	lessons := newMockLessonRepo()
	lessons.lessons["l1"] = &models.ScheduledLesson{ID: "l1", ClassID: "c1", Date: "2024-05-01", StartTime: "19:00", EndTime: "20:00"}
	repo := newMockContentRepo()
	store := &memoryStore{objects: map[string]string{}}
	return NewContentService(repo, lessons, store, 1024, nil, nil), repo, store
}

func TestContentCreateFromJSON(t *testing.T) {
	svc, repo, _ := newContentFixture()
	url := "https://youtu.be/armbar"

	content, err := svc.Create(context.Background(), "l1", "p1", CreateContentRequest{
		Title:       "Armbar from guard",
		ContentType: models.ContentVideo,
		FileURL:     &url,
		Positions:   []string{"closed guard"},
		Techniques:  []string{"armbar"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "l1", content.LessonID)
	assert.Equal(t, "p1", *content.CreatedBy)
	assert.Equal(t, url, *content.FileURL)
	assert.Len(t, repo.created, 1)
}

func TestContentCreateWithUpload(t *testing.T) {
	svc, repo, store := newContentFixture()

	content, err := svc.Create(context.Background(), "l1", "p1", CreateContentRequest{Title: "Guard notes"}, &Upload{
		Name:        "guard notes.pdf",
		Size:        4,
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContentPDF, content.ContentType)
	require.Len(t, store.objects, 1)

	stored := repo.created[0]
	require.NotNil(t, stored.FileURL)
	assert.True(t, strings.HasPrefix(*stored.FileURL, "storage://lessons/l1/"))
	assert.True(t, strings.HasPrefix(*content.FileURL, "https://files.local/lessons/l1/"))
	assert.Equal(t, "guard notes.pdf", *content.FileName)
	assert.Equal(t, int64(4), *content.FileSize)

	fetched, err := svc.Get(context.Background(), content.ID)
	require.NoError(t, err)
	assert.Equal(t, *content.FileURL, *fetched.FileURL)
}

func TestContentCreateRejections(t *testing.T) {
	svc, _, store := newContentFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, "l1", "p1", CreateContentRequest{ContentType: models.ContentNote}, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, "l1", "p1", CreateContentRequest{Title: "x", ContentType: "audio"}, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, "l1", "p1", CreateContentRequest{Title: "x"}, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, "missing", "p1", CreateContentRequest{Title: "x", ContentType: models.ContentNote}, nil)
	require.Error(t, err)
	assert.Equal(t, "Lesson not found", appErrors.FromError(err).Message)

	_, err = svc.Create(ctx, "l1", "p1", CreateContentRequest{Title: "big"}, &Upload{Name: "big.mp4", Size: 4096, ContentType: "video/mp4", Body: strings.NewReader("")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	store.putErr = errors.New("disk full")
	_, err = svc.Create(ctx, "l1", "p1", CreateContentRequest{Title: "pic"}, &Upload{Name: "a.png", Size: 1, ContentType: "image/png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestContentListingAndLibrary(t *testing.T) {
	svc, repo, _ := newContentFixture()
	ctx := context.Background()

	items, err := svc.ListByLesson(ctx, "l1")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = svc.Create(ctx, "l1", "p1", CreateContentRequest{Title: "Notes", ContentType: models.ContentNote}, nil)
	require.NoError(t, err)

	items, err = svc.ListByLesson(ctx, "l1")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	library, err := svc.Library(ctx)
	require.NoError(t, err)
	assert.Len(t, library, 1)
	assert.Equal(t, 50, repo.limit)

	_, err = svc.Get(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, "Content not found", appErrors.FromError(err).Message)
}

func TestContentCreateRemovesUploadWhenInsertFails(t *testing.T) {
	svc, repo, store := newContentFixture()
	repo.createErr = errors.New("connection reset")

	_, err := svc.Create(context.Background(), "l1", "p1", CreateContentRequest{Title: "Guard notes"}, &Upload{
		Name:        "notes.pdf",
		Size:        4,
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF"),
	})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Empty(t, store.objects)
	require.Len(t, store.deleted, 1)
	assert.True(t, strings.HasPrefix(store.deleted[0], "lessons/l1/"))
}

func TestContentCreateKeepsErrorWhenCleanupFails(t *testing.T) {
	svc, repo, store := newContentFixture()
	repo.createErr = errors.New("connection reset")
	store.deleteErr = errors.New("disk busy")

	_, err := svc.Create(context.Background(), "l1", "p1", CreateContentRequest{Title: "Guard notes"}, &Upload{
		Name: "notes.pdf", Size: 4, ContentType: "application/pdf", Body: strings.NewReader("%PDF"),
	})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Len(t, store.deleted, 1)
}

func TestContentCreateWithoutUploadSkipsCleanup(t *testing.T) {
	svc, repo, store := newContentFixture()
	repo.createErr = errors.New("connection reset")
	url := "storage://lessons/l1/existing.pdf"

	_, err := svc.Create(context.Background(), "l1", "p1", CreateContentRequest{Title: "Linked", ContentType: models.ContentPDF, FileURL: &url}, nil)
	assert.Error(t, err)
	assert.Empty(t, store.deleted)
}
