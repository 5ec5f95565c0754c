package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/service"
	"github.com/noah-isme/jiu-academy-api/pkg/storage"
)

type fakeContentService struct {
	lessonID string
	callerID string
	req      service.CreateContentRequest
	upload   []byte
	uploadFn string
}

func (f *fakeContentService) Create(_ context.Context, lessonID, callerID string, req service.CreateContentRequest, upload *service.Upload) (*models.LessonContent, error) {
	f.lessonID, f.callerID, f.req = lessonID, callerID, req
	if upload != nil {
		body, err := io.ReadAll(upload.Body)
		if err != nil {
			return nil, err
		}
		f.upload = body
		f.uploadFn = upload.Name
	}
	return &models.LessonContent{ID: "ct1", LessonID: lessonID, Title: req.Title, ContentType: req.ContentType}, nil
}

func (f *fakeContentService) ListByLesson(context.Context, string) ([]models.LessonContent, error) {
	return []models.LessonContent{}, nil
}

func (f *fakeContentService) Library(context.Context) ([]models.LibraryItem, error) {
	return []models.LibraryItem{}, nil
}

func (f *fakeContentService) Get(_ context.Context, id string) (*models.LessonContent, error) {
	return &models.LessonContent{ID: id}, nil
}

type fakeResolver struct {
	path string
	err  error
}

func (f fakeResolver) Resolve(string) (string, error) { return f.path, f.err }

func newContentRouter(svc *fakeContentService, files fileResolver) http.Handler {
	return newLimitedContentRouter(svc, files, 0)
}

func newLimitedContentRouter(svc *fakeContentService, files fileResolver, maxUpload int64) http.Handler {
	h := NewContentHandler(svc, files, maxUpload)
	r := newTestRouter(professor("p1"))
	r.POST("/content/upload/:lessonId", h.Upload)
	r.GET("/content/library", h.Library)
	r.GET("/content/lesson/:lessonId", h.ListByLesson)
	r.GET("/content/files/:token", h.File)
	r.GET("/content/:id", h.Get)
	return r
}

func TestContentHandlerUploadJSON(t *testing.T) {
	svc := &fakeContentService{}
	rec := perform(newContentRouter(svc, nil), http.MethodPost, "/content/upload/l1",
		`{"title":"Armbar from guard","contentType":"video","fileUrl":"https://videos.test/armbar","positions":["guard"]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "l1", svc.lessonID)
	assert.Equal(t, "p1", svc.callerID)
	assert.Equal(t, []string{"guard"}, svc.req.Positions)
	assert.Nil(t, svc.upload)
}

func TestContentHandlerUploadMultipart(t *testing.T) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("title", "Guard passing notes"))
	require.NoError(t, writer.WriteField("techniques", "knee slice"))
	part, err := writer.CreateFormFile("file", "notes.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/content/upload/l1", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	svc := &fakeContentService{}
	newContentRouter(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Guard passing notes", svc.req.Title)
	assert.Equal(t, []string{"knee slice"}, svc.req.Techniques)
	assert.Equal(t, "notes.pdf", svc.uploadFn)
	assert.Equal(t, []byte("%PDF-1.4"), svc.upload)
}

func TestContentHandlerUploadRejectsOversizedBody(t *testing.T) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("title", "Full seminar"))
	part, err := writer.CreateFormFile("file", "seminar.mp4")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 2*multipartOverhead))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/content/upload/l1", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	svc := &fakeContentService{}
	newLimitedContentRouter(svc, nil, 1024).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.lessonID)
	assert.Contains(t, rec.Body.String(), "must be at most 1024 bytes")
}

func TestContentHandlerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	tests := []struct {
		name     string
		resolver fileResolver
		status   int
	}{
		{name: "served", resolver: fakeResolver{path: path}, status: http.StatusOK},
		{name: "expired", resolver: fakeResolver{err: storage.ErrTokenExpired}, status: http.StatusForbidden},
		{name: "forged", resolver: fakeResolver{err: storage.ErrInvalidToken}, status: http.StatusNotFound},
		{name: "missing file", resolver: fakeResolver{err: storage.ErrNotFound}, status: http.StatusNotFound},
		{name: "no local storage", resolver: nil, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perform(newContentRouter(&fakeContentService{}, tt.resolver), http.MethodGet, "/content/files/tok", "")
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "hello", rec.Body.String())
			}
		})
	}
}

func TestContentHandlerStaticRoutesWinOverID(t *testing.T) {
	rec := perform(newContentRouter(&fakeContentService{}, nil), http.MethodGet, "/content/library", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = perform(newContentRouter(&fakeContentService{}, nil), http.MethodGet, "/content/ct9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ct9", decodeData(t, rec).Data["id"])
}
