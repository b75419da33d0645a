package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupress/school-portal-api/internal/models"
	appErrors "github.com/edupress/school-portal-api/pkg/errors"
)

type noticeRepoStub struct {
	notices     map[string]*models.Notice
	createErr   error
	updateRows  int64
	updateErr   error
	createCalls int
	updateCalls int
	lastActor   string
	lastPage    models.NoticePage
}

func newNoticeRepoStub() *noticeRepoStub {
	return &noticeRepoStub{notices: make(map[string]*models.Notice), updateRows: 1}
}

func (r *noticeRepoStub) List(ctx context.Context, page models.NoticePage) ([]models.Notice, int, error) {
	r.lastPage = page
	result := make([]models.Notice, 0, len(r.notices))
	for _, n := range r.notices {
		result = append(result, *n)
	}
	return result, len(result), nil
}

func (r *noticeRepoStub) ListMarquee(ctx context.Context) ([]models.Notice, error) {
	result := make([]models.Notice, 0)
	for _, n := range r.notices {
		if n.IsMarquee && n.Priority == models.NoticePriorityUrgent {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (r *noticeRepoStub) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	if n, ok := r.notices[id]; ok {
		copy := *n
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *noticeRepoStub) Create(ctx context.Context, notice *models.Notice) error {
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	if notice.ID == "" {
		notice.ID = fmt.Sprintf("notice-%d", len(r.notices)+1)
	}
	stored := *notice
	r.notices[notice.ID] = &stored
	return nil
}

func (r *noticeRepoStub) ListAttachmentURLs(ctx context.Context) ([]string, error) {
	urls := make([]string, 0)
	for _, n := range r.notices {
		if n.AttachmentURL != nil {
			urls = append(urls, *n.AttachmentURL)
		}
	}
	return urls, nil
}

func (r *noticeRepoStub) Update(ctx context.Context, notice *models.Notice, actorID string) (int64, error) {
	r.updateCalls++
	r.lastActor = actorID
	if r.updateErr != nil {
		return 0, r.updateErr
	}
	if r.updateRows > 0 {
		if existing, ok := r.notices[notice.ID]; ok {
			existing.Title = notice.Title
			existing.Content = notice.Content
			existing.Priority = notice.Priority
			existing.TargetAudience = notice.TargetAudience
			existing.IsMarquee = notice.IsMarquee
			existing.AttachmentURL = notice.AttachmentURL
		}
	}
	return r.updateRows, nil
}

type blobStoreStub struct {
	saved    map[string][]byte
	deleted  []string
	saveErr  error
	saveHits int
}

func newBlobStoreStub() *blobStoreStub {
	return &blobStoreStub{saved: make(map[string][]byte)}
}

func (s *blobStoreStub) SaveStream(name string, r io.Reader) error {
	s.saveHits++
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.saved[name] = data
	return nil
}

func (s *blobStoreStub) Delete(name string) error {
	s.deleted = append(s.deleted, name)
	delete(s.saved, name)
	return nil
}

// CleanupOlderThan treats every stored object as past the age cutoff.
func (s *blobStoreStub) CleanupOlderThan(olderThan time.Duration, keep map[string]struct{}) ([]string, error) {
	removed := make([]string, 0)
	for name := range s.saved {
		if _, referenced := keep[name]; referenced {
			continue
		}
		delete(s.saved, name)
		removed = append(removed, name)
	}
	return removed, nil
}

type resolverStub struct{}

func (resolverStub) Resolve(name string) string { return "http://files.local/" + name }

func (resolverStub) ObjectName(url string) string {
	if !strings.HasPrefix(url, "http://files.local/") {
		return ""
	}
	return strings.TrimPrefix(url, "http://files.local/")
}

func newTestNoticeService(repo *noticeRepoStub, blobs *blobStoreStub) *NoticeService {
	svc := NewNoticeService(repo, blobs, resolverStub{}, nil, nil, nil, nil, NoticeServiceConfig{
		MaxAttachmentSize: 10 * 1024 * 1024,
	})
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestNoticeCreateSuccess(t *testing.T) {
	repo := newNoticeRepoStub()
	blobs := newBlobStoreStub()
	svc := newTestNoticeService(repo, blobs)

	notice, err := svc.Create(context.Background(), "user-1", CreateNoticeRequest{
		Title:   "  Exam schedule  ",
		Content: "Term finals start Monday.",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Exam schedule", notice.Title)
	assert.Equal(t, models.NoticePriorityNormal, notice.Priority)
	assert.Equal(t, models.NoticeAudienceAll, notice.TargetAudience)
	assert.Equal(t, "user-1", notice.PublishedBy)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), notice.PublishedAt)
	assert.Nil(t, notice.AttachmentURL)
}

func TestNoticeCreateRequiresActor(t *testing.T) {
	repo := newNoticeRepoStub()
	svc := newTestNoticeService(repo, newBlobStoreStub())

	_, err := svc.Create(context.Background(), "", CreateNoticeRequest{Title: "a", Content: "b"}, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
	assert.Zero(t, repo.createCalls)
}

func TestNoticeCreateValidationBeforeAnyCall(t *testing.T) {
	repo := newNoticeRepoStub()
	blobs := newBlobStoreStub()
	svc := newTestNoticeService(repo, blobs)

	cases := []CreateNoticeRequest{
		{Title: "", Content: "body"},
		{Title: "   ", Content: "body"},
		{Title: "title", Content: "   "},
		{Title: "title", Content: "body", Priority: "severe"},
		{Title: "title", Content: "body", TargetAudience: "aliens"},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), "user-1", req, &NoticeAttachment{Filename: "a.pdf", Size: 1, Content: strings.NewReader("x")})
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "request %+v", req)
	}
	assert.Zero(t, repo.createCalls)
	assert.Zero(t, blobs.saveHits)
}

// readTracker counts Read calls so tests can prove a stream was never
// consumed.
type readTracker struct {
	reads int
}

func (r *readTracker) Read(p []byte) (int, error) {
	r.reads++
	return 0, io.EOF
}

func TestNoticeCreateAttachmentTooLarge(t *testing.T) {
	repo := newNoticeRepoStub()
	blobs := newBlobStoreStub()
	svc := newTestNoticeService(repo, blobs)

	tracker := &readTracker{}
	attachment := &NoticeAttachment{Filename: "big.pdf", Size: 10*1024*1024 + 1, Content: tracker}
	_, err := svc.Create(context.Background(), "user-1", CreateNoticeRequest{Title: "t", Content: "c"}, attachment)

	assert.True(t, appErrors.Is(err, appErrors.ErrAttachmentTooLarge))
	assert.Zero(t, blobs.saveHits)
	assert.Zero(t, repo.createCalls)
	assert.Zero(t, tracker.reads, "an oversized upload must be rejected without reading it")
}

func TestNoticeCreateUploadFailureSkipsInsert(t *testing.T) {
	repo := newNoticeRepoStub()
	blobs := newBlobStoreStub()
	blobs.saveErr = errors.New("disk full")
	svc := newTestNoticeService(repo, blobs)

	attachment := &NoticeAttachment{Filename: "a.pdf", Size: 3, Content: strings.NewReader("abc")}
	_, err := svc.Create(context.Background(), "user-1", CreateNoticeRequest{Title: "t", Content: "c"}, attachment)

	assert.True(t, appErrors.Is(err, appErrors.ErrAttachmentUpload))
	assert.Zero(t, repo.createCalls)
}

func TestNoticeCreateInsertFailureDeletesBlob(t *testing.T) {
	repo := newNoticeRepoStub()
	repo.createErr = errors.New("connection reset")
	blobs := newBlobStoreStub()
	svc := newTestNoticeService(repo, blobs)

	attachment := &NoticeAttachment{Filename: "a.pdf", Size: 3, Content: strings.NewReader("abc")}
	_, err := svc.Create(context.Background(), "user-1", CreateNoticeRequest{Title: "t", Content: "c"}, attachment)

	require.Error(t, err)
	require.Len(t, blobs.deleted, 1)
	assert.True(t, strings.HasPrefix(blobs.deleted[0], "notices/"))
	assert.Empty(t, blobs.saved, "orphaned blob must be removed")
}

func TestNoticeCreateUploadsBeforeInsert(t *testing.T) {
	repo := newNoticeRepoStub()
	blobs := newBlobStoreStub()
	svc := newTestNoticeService(repo, blobs)

	attachment := &NoticeAttachment{Filename: "circular.PDF", Size: 3, Content: strings.NewReader("abc")}
	notice, err := svc.Create(context.Background(), "user-1", CreateNoticeRequest{Title: "t", Content: "c"}, attachment)
	require.NoError(t, err)

	require.NotNil(t, notice.AttachmentURL)
	assert.True(t, strings.HasPrefix(*notice.AttachmentURL, "http://files.local/notices/"))
	assert.True(t, strings.HasSuffix(*notice.AttachmentURL, ".pdf"), "extension must be kept lowercase")
	assert.Len(t, blobs.saved, 1)
}

func TestNoticeUpdateNotFound(t *testing.T) {
	repo := newNoticeRepoStub()
	repo.updateRows = 0
	svc := newTestNoticeService(repo, newBlobStoreStub())

	_, err := svc.Update(context.Background(), "missing", "user-1", UpdateNoticeRequest{Title: "t", Content: "c"}, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestNoticeUpdateForbiddenForNonOwner(t *testing.T) {
	repo := newNoticeRepoStub()
	repo.notices["n1"] = &models.Notice{ID: "n1", Title: "old", PublishedBy: "owner"}
	repo.updateRows = 0
	blobs := newBlobStoreStub()
	svc := newTestNoticeService(repo, blobs)

	attachment := &NoticeAttachment{Filename: "a.pdf", Size: 3, Content: strings.NewReader("abc")}
	_, err := svc.Update(context.Background(), "n1", "intruder", UpdateNoticeRequest{Title: "t", Content: "c"}, attachment)

	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Equal(t, "intruder", repo.lastActor)
	assert.Len(t, blobs.deleted, 1, "the fresh upload must not be left behind")
}

func TestNoticeUpdateClearsAttachment(t *testing.T) {
	repo := newNoticeRepoStub()
	url := "http://files.local/notices/1-old.pdf"
	repo.notices["n1"] = &models.Notice{ID: "n1", Title: "old", PublishedBy: "user-1", AttachmentURL: &url}
	svc := newTestNoticeService(repo, newBlobStoreStub())

	empty := "   "
	updated, err := svc.Update(context.Background(), "n1", "user-1", UpdateNoticeRequest{
		Title:                 "new title",
		Content:               "new body",
		ExistingAttachmentURL: &empty,
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.AttachmentURL, "blank existing url must persist as no attachment")
}

func TestNoticeUpdateKeepsExistingAttachment(t *testing.T) {
	repo := newNoticeRepoStub()
	url := "http://files.local/notices/1-old.pdf"
	repo.notices["n1"] = &models.Notice{ID: "n1", Title: "old", PublishedBy: "user-1", AttachmentURL: &url}
	svc := newTestNoticeService(repo, newBlobStoreStub())

	updated, err := svc.Update(context.Background(), "n1", "user-1", UpdateNoticeRequest{
		Title:                 "new title",
		Content:               "new body",
		ExistingAttachmentURL: &url,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.AttachmentURL)
	assert.Equal(t, url, *updated.AttachmentURL)
}

func TestNoticeUpdateNewUploadReplacesExisting(t *testing.T) {
	repo := newNoticeRepoStub()
	url := "http://files.local/notices/1-old.pdf"
	repo.notices["n1"] = &models.Notice{ID: "n1", Title: "old", PublishedBy: "user-1", AttachmentURL: &url}
	blobs := newBlobStoreStub()
	svc := newTestNoticeService(repo, blobs)

	attachment := &NoticeAttachment{Filename: "fresh.png", Size: 3, Content: strings.NewReader("png")}
	updated, err := svc.Update(context.Background(), "n1", "user-1", UpdateNoticeRequest{
		Title:                 "new title",
		Content:               "new body",
		ExistingAttachmentURL: &url,
	}, attachment)
	require.NoError(t, err)
	require.NotNil(t, updated.AttachmentURL)
	assert.NotEqual(t, url, *updated.AttachmentURL)
	assert.True(t, strings.HasSuffix(*updated.AttachmentURL, ".png"))
}

func TestNoticeUpdateRowWriteFailureDeletesBlob(t *testing.T) {
	repo := newNoticeRepoStub()
	repo.updateErr = errors.New("connection reset")
	blobs := newBlobStoreStub()
	svc := newTestNoticeService(repo, blobs)

	attachment := &NoticeAttachment{Filename: "a.pdf", Size: 3, Content: strings.NewReader("abc")}
	_, err := svc.Update(context.Background(), "n1", "user-1", UpdateNoticeRequest{Title: "t", Content: "c"}, attachment)

	require.Error(t, err)
	assert.Len(t, blobs.deleted, 1)
}

func TestNoticeMarqueeOnlyUrgentTicker(t *testing.T) {
	repo := newNoticeRepoStub()
	repo.notices["a"] = &models.Notice{ID: "a", IsMarquee: true, Priority: models.NoticePriorityUrgent}
	repo.notices["b"] = &models.Notice{ID: "b", IsMarquee: true, Priority: models.NoticePriorityHigh}
	repo.notices["c"] = &models.Notice{ID: "c", IsMarquee: false, Priority: models.NoticePriorityUrgent}
	svc := newTestNoticeService(repo, newBlobStoreStub())

	rows, err := svc.ListMarquee(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].ID)
}

func TestNoticeListPageBounds(t *testing.T) {
	repo := newNoticeRepoStub()
	svc := newTestNoticeService(repo, newBlobStoreStub())

	_, _, err := svc.List(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Equal(t, models.NoticePage{Limit: 10, Offset: 20}, repo.lastPage)

	_, pagination, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, models.NoticePage{Limit: 10, Offset: 0}, repo.lastPage)
	assert.Equal(t, 1, pagination.Page)
}

func TestNoticeCleanupOrphanAttachments(t *testing.T) {
	repo := newNoticeRepoStub()
	url := "http://files.local/notices/1-keep.pdf"
	repo.notices["n1"] = &models.Notice{ID: "n1", Title: "kept", PublishedBy: "user-1", AttachmentURL: &url}
	blobs := newBlobStoreStub()
	blobs.saved["notices/1-keep.pdf"] = []byte("k")
	blobs.saved["notices/2-orphan.pdf"] = []byte("o")
	svc := newTestNoticeService(repo, blobs)

	removed, err := svc.CleanupOrphanAttachments(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"notices/2-orphan.pdf"}, removed)

	_, kept := blobs.saved["notices/1-keep.pdf"]
	assert.True(t, kept, "referenced blobs must survive the sweep")
}

func TestNoticeObjectNamesAreUnique(t *testing.T) {
	svc := newTestNoticeService(newNoticeRepoStub(), newBlobStoreStub())

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		name := svc.generateObjectName("report.pdf")
		if _, dup := seen[name]; dup {
			t.Fatalf("duplicate object name %q", name)
		}
		seen[name] = struct{}{}
	}
}
