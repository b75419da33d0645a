package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupress/school-portal-api/internal/middleware"
	"github.com/edupress/school-portal-api/internal/models"
	"github.com/edupress/school-portal-api/internal/service"
)

type noticeRepoFake struct {
	notices map[string]*models.Notice
}

func newNoticeRepoFake() *noticeRepoFake {
	return &noticeRepoFake{notices: make(map[string]*models.Notice)}
}

func (r *noticeRepoFake) List(ctx context.Context, page models.NoticePage) ([]models.Notice, int, error) {
	result := make([]models.Notice, 0, len(r.notices))
	for _, n := range r.notices {
		result = append(result, *n)
	}
	return result, len(result), nil
}

func (r *noticeRepoFake) ListMarquee(ctx context.Context) ([]models.Notice, error) {
	return nil, nil
}

func (r *noticeRepoFake) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	if n, ok := r.notices[id]; ok {
		copy := *n
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *noticeRepoFake) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = fmt.Sprintf("notice-%d", len(r.notices)+1)
	}
	stored := *notice
	r.notices[notice.ID] = &stored
	return nil
}

func (r *noticeRepoFake) ListAttachmentURLs(ctx context.Context) ([]string, error) {
	urls := make([]string, 0)
	for _, n := range r.notices {
		if n.AttachmentURL != nil {
			urls = append(urls, *n.AttachmentURL)
		}
	}
	return urls, nil
}

func (r *noticeRepoFake) Update(ctx context.Context, notice *models.Notice, actorID string) (int64, error) {
	existing, ok := r.notices[notice.ID]
	if !ok || existing.PublishedBy != actorID {
		return 0, nil
	}
	existing.Title = notice.Title
	existing.Content = notice.Content
	existing.AttachmentURL = notice.AttachmentURL
	return 1, nil
}

type blobFake struct{ saved map[string][]byte }

func (b *blobFake) SaveStream(name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.saved[name] = data
	return nil
}

func (b *blobFake) Delete(name string) error {
	delete(b.saved, name)
	return nil
}

func (b *blobFake) CleanupOlderThan(olderThan time.Duration, keep map[string]struct{}) ([]string, error) {
	removed := make([]string, 0)
	for name := range b.saved {
		if _, referenced := keep[name]; referenced {
			continue
		}
		delete(b.saved, name)
		removed = append(removed, name)
	}
	return removed, nil
}

type resolverFake struct{}

func (resolverFake) Resolve(name string) string { return "http://files.local/" + name }

func (resolverFake) ObjectName(url string) string {
	if !strings.HasPrefix(url, "http://files.local/") {
		return ""
	}
	return strings.TrimPrefix(url, "http://files.local/")
}

func newNoticeHandlerForTest(repo *noticeRepoFake) *NoticeHandler {
	svc := service.NewNoticeService(repo, &blobFake{saved: make(map[string][]byte)}, resolverFake{}, nil, nil, nil, nil, service.NoticeServiceConfig{})
	return NewNoticeHandler(svc)
}

type noticeEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
}

func multipartNoticeBody(t *testing.T, fields map[string]string, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func authedContext(rec *httptest.ResponseRecorder, userID string) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: models.RoleAdmin})
	return c, r
}

func TestNoticeHandlerCreateWithAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newNoticeRepoFake()
	handler := newNoticeHandlerForTest(repo)

	body, contentType := multipartNoticeBody(t, map[string]string{
		"title":    "Annual sports day",
		"content":  "<p>Field events begin at 9am.</p>",
		"priority": "urgent",
	}, "schedule.pdf", []byte("%PDF-1.4 fake"))

	rec := httptest.NewRecorder()
	c, _ := authedContext(rec, "admin-1")
	c.Request = httptest.NewRequest(http.MethodPost, "/notices", body)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var envelope noticeEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Annual sports day", envelope.Data["title"])
	assert.Equal(t, "urgent", envelope.Data["priority"])
	assert.Contains(t, envelope.Data["attachment_url"], "http://files.local/notices/")
}

func TestNoticeHandlerCreateMissingTitle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNoticeHandlerForTest(newNoticeRepoFake())

	body, contentType := multipartNoticeBody(t, map[string]string{"content": "body"}, "", nil)

	rec := httptest.NewRecorder()
	c, _ := authedContext(rec, "admin-1")
	c.Request = httptest.NewRequest(http.MethodPost, "/notices", body)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoticeHandlerCreateUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNoticeHandlerForTest(newNoticeRepoFake())

	body, contentType := multipartNoticeBody(t, map[string]string{"title": "t", "content": "c"}, "", nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/notices", body)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNoticeHandlerUpdateForbiddenForNonOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newNoticeRepoFake()
	repo.notices["n1"] = &models.Notice{ID: "n1", Title: "old", Content: "old", PublishedBy: "owner"}
	handler := newNoticeHandlerForTest(repo)

	body, contentType := multipartNoticeBody(t, map[string]string{"title": "new", "content": "new"}, "", nil)

	rec := httptest.NewRecorder()
	c, _ := authedContext(rec, "intruder")
	c.Request = httptest.NewRequest(http.MethodPut, "/notices/n1", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "id", Value: "n1"}}

	handler.Update(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNoticeHandlerCreateAttachmentTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	blobs := &blobFake{saved: make(map[string][]byte)}
	svc := service.NewNoticeService(newNoticeRepoFake(), blobs, resolverFake{}, nil, nil, nil, nil, service.NoticeServiceConfig{MaxAttachmentSize: 8})
	handler := NewNoticeHandler(svc)

	body, contentType := multipartNoticeBody(t, map[string]string{
		"title":   "Budget report",
		"content": "attached",
	}, "report.pdf", []byte("sixteen bytes!!!"))

	rec := httptest.NewRecorder()
	c, _ := authedContext(rec, "admin-1")
	c.Request = httptest.NewRequest(http.MethodPost, "/notices", body)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Create(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, blobs.saved, "a rejected upload must not be stored")
}

func TestNoticeHandlerCleanupAttachments(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newNoticeRepoFake()
	url := "http://files.local/notices/1-keep.pdf"
	repo.notices["n1"] = &models.Notice{ID: "n1", Title: "kept", PublishedBy: "admin-1", AttachmentURL: &url}
	blobs := &blobFake{saved: map[string][]byte{
		"notices/1-keep.pdf":   []byte("k"),
		"notices/2-orphan.pdf": []byte("o"),
	}}
	svc := service.NewNoticeService(repo, blobs, resolverFake{}, nil, nil, nil, nil, service.NoticeServiceConfig{})
	handler := NewNoticeHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := authedContext(rec, "admin-1")
	c.Request = httptest.NewRequest(http.MethodPost, "/maintenance/attachments/cleanup?older_than=1h", nil)

	handler.CleanupAttachments(c)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "notices/2-orphan.pdf")
	_, kept := blobs.saved["notices/1-keep.pdf"]
	assert.True(t, kept)
}

func TestNoticeHandlerGetMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNoticeHandlerForTest(newNoticeRepoFake())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notices/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
