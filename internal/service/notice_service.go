package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupress/school-portal-api/internal/models"
	appErrors "github.com/edupress/school-portal-api/pkg/errors"
)

type noticeRepository interface {
	List(ctx context.Context, page models.NoticePage) ([]models.Notice, int, error)
	ListMarquee(ctx context.Context) ([]models.Notice, error)
	GetByID(ctx context.Context, id string) (*models.Notice, error)
	Create(ctx context.Context, notice *models.Notice) error
	Update(ctx context.Context, notice *models.Notice, actorID string) (int64, error)
	ListAttachmentURLs(ctx context.Context) ([]string, error)
}

type noticeBlobStore interface {
	SaveStream(name string, r io.Reader) error
	Delete(name string) error
	CleanupOlderThan(olderThan time.Duration, keep map[string]struct{}) ([]string, error)
}

type noticeURLResolver interface {
	Resolve(name string) string
	ObjectName(url string) string
}

const marqueeCacheKey = "notices:marquee"

// NoticeAttachment carries an uploaded file destined for the blob store.
// Size is the declared length; Content is not read until the size has been
// validated, so an oversized upload is rejected without buffering it.
type NoticeAttachment struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// NoticeServiceConfig holds validation parameters and cache tuning.
type NoticeServiceConfig struct {
	MaxAttachmentSize int64
	MarqueeCacheTTL   time.Duration
	CleanupMaxAge     time.Duration
}

// NoticeService coordinates the notice store and the blob store. The two
// writes are not atomic; uploads always happen before the row write so a
// persisted attachment_url always points at an existing blob, and a failed
// row write triggers a compensating delete of the blob just uploaded.
type NoticeService struct {
	repo      noticeRepository
	blobs     noticeBlobStore
	urls      noticeURLResolver
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	cfg       NoticeServiceConfig
}

// NewNoticeService constructs the service.
func NewNoticeService(repo noticeRepository, blobs noticeBlobStore, urls noticeURLResolver, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg NoticeServiceConfig) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttachmentSize <= 0 {
		cfg.MaxAttachmentSize = 10 * 1024 * 1024
	}
	if cfg.MarqueeCacheTTL <= 0 {
		cfg.MarqueeCacheTTL = time.Minute
	}
	if cfg.CleanupMaxAge <= 0 {
		cfg.CleanupMaxAge = 24 * time.Hour
	}
	svc := &NoticeService{
		repo:      repo,
		blobs:     blobs,
		urls:      urls,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
	svc.validator.RegisterValidation("notice_priority", func(fl validator.FieldLevel) bool {
		switch models.NoticePriority(strings.ToLower(fl.Field().String())) {
		case models.NoticePriorityUrgent, models.NoticePriorityHigh, models.NoticePriorityNormal, models.NoticePriorityLow:
			return true
		default:
			return false
		}
	})
	svc.validator.RegisterValidation("notice_audience", func(fl validator.FieldLevel) bool {
		switch models.NoticeAudience(strings.ToLower(fl.Field().String())) {
		case models.NoticeAudienceAll, models.NoticeAudienceStudents, models.NoticeAudienceTeachers, models.NoticeAudienceParents:
			return true
		default:
			return false
		}
	})
	return svc
}

// CreateNoticeRequest describes the create payload.
type CreateNoticeRequest struct {
	Title          string `json:"title" form:"title" validate:"required"`
	Content        string `json:"content" form:"content" validate:"required"`
	Priority       string `json:"priority" form:"priority" validate:"omitempty,notice_priority"`
	TargetAudience string `json:"target_audience" form:"target_audience" validate:"omitempty,notice_audience"`
	IsMarquee      bool   `json:"is_marquee" form:"is_marquee"`
}

// UpdateNoticeRequest describes the update payload. ExistingAttachmentURL is
// the attachment URL the caller saw before editing; clearing it signals
// attachment removal and is persisted as NULL.
type UpdateNoticeRequest struct {
	Title                 string  `json:"title" form:"title" validate:"required"`
	Content               string  `json:"content" form:"content" validate:"required"`
	Priority              string  `json:"priority" form:"priority" validate:"omitempty,notice_priority"`
	TargetAudience        string  `json:"target_audience" form:"target_audience" validate:"omitempty,notice_audience"`
	IsMarquee             bool    `json:"is_marquee" form:"is_marquee"`
	ExistingAttachmentURL *string `json:"existing_attachment_url" form:"existing_attachment_url"`
}

// List returns a page of notices ordered by published_at descending.
func (s *NoticeService) List(ctx context.Context, page, pageSize int) ([]models.Notice, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	rows, total, err := s.repo.List(ctx, models.NoticePage{Limit: pageSize, Offset: (page - 1) * pageSize})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a notice by id.
func (s *NoticeService) Get(ctx context.Context, id string) (*models.Notice, error) {
	notice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get notice")
	}
	return notice, nil
}

// ListMarquee returns the urgent ticker notices, newest first, at most five.
// Results are cached briefly since the public home page polls this feed.
func (s *NoticeService) ListMarquee(ctx context.Context) ([]models.Notice, error) {
	var cached []models.Notice
	if hit, _ := s.cache.Get(ctx, marqueeCacheKey, &cached); hit {
		return cached, nil
	}
	rows, err := s.repo.ListMarquee(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marquee notices")
	}
	if err := s.cache.Set(ctx, marqueeCacheKey, rows, s.cfg.MarqueeCacheTTL); err != nil {
		s.logger.Warn("failed to cache marquee notices", zap.Error(err))
	}
	return rows, nil
}

// Create validates the payload, uploads the attachment if any, then inserts
// the record. The upload happens first so an inserted row never references a
// missing blob; if the insert fails the uploaded blob is deleted again.
func (s *NoticeService) Create(ctx context.Context, actorID string, req CreateNoticeRequest, attachment *NoticeAttachment) (*models.Notice, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validateFields(req.Title, req.Content, req.Priority, req.TargetAudience); err != nil {
		return nil, err
	}
	if err := s.checkAttachmentSize(attachment); err != nil {
		return nil, err
	}

	var attachmentURL *string
	var objectName string
	if attachment != nil {
		name, url, err := s.uploadAttachment(attachment)
		if err != nil {
			return nil, err
		}
		objectName = name
		attachmentURL = &url
	}

	notice := &models.Notice{
		Title:          strings.TrimSpace(req.Title),
		Content:        strings.TrimSpace(req.Content),
		Priority:       priorityOrDefault(req.Priority),
		TargetAudience: audienceOrDefault(req.TargetAudience),
		IsMarquee:      req.IsMarquee,
		AttachmentURL:  attachmentURL,
		PublishedBy:    actorID,
		PublishedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, notice); err != nil {
		if objectName != "" {
			if delErr := s.blobs.Delete(objectName); delErr != nil {
				s.logger.Warn("failed to remove orphaned attachment", zap.String("object", objectName), zap.Error(delErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}

	s.invalidateCaches(ctx)
	s.logger.Info("notice created",
		zap.String("notice_id", notice.ID),
		zap.String("published_by", actorID),
		zap.Bool("has_attachment", attachmentURL != nil),
	)
	return notice, nil
}

// Update rewrites a notice's mutable fields. Only the owner may update; a
// zero-row match is reported as NotFound or Forbidden rather than success.
func (s *NoticeService) Update(ctx context.Context, id, actorID string, req UpdateNoticeRequest, attachment *NoticeAttachment) (*models.Notice, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validateFields(req.Title, req.Content, req.Priority, req.TargetAudience); err != nil {
		return nil, err
	}
	if err := s.checkAttachmentSize(attachment); err != nil {
		return nil, err
	}

	attachmentURL := normalizeURL(req.ExistingAttachmentURL)
	var objectName string
	if attachment != nil {
		name, url, err := s.uploadAttachment(attachment)
		if err != nil {
			return nil, err
		}
		objectName = name
		attachmentURL = &url
	}

	notice := &models.Notice{
		ID:             id,
		Title:          strings.TrimSpace(req.Title),
		Content:        strings.TrimSpace(req.Content),
		Priority:       priorityOrDefault(req.Priority),
		TargetAudience: audienceOrDefault(req.TargetAudience),
		IsMarquee:      req.IsMarquee,
		AttachmentURL:  attachmentURL,
	}
	affected, err := s.repo.Update(ctx, notice, actorID)
	if err != nil {
		if objectName != "" {
			if delErr := s.blobs.Delete(objectName); delErr != nil {
				s.logger.Warn("failed to remove orphaned attachment", zap.String("object", objectName), zap.Error(delErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notice")
	}
	if affected == 0 {
		if objectName != "" {
			if delErr := s.blobs.Delete(objectName); delErr != nil {
				s.logger.Warn("failed to remove orphaned attachment", zap.String("object", objectName), zap.Error(delErr))
			}
		}
		if _, getErr := s.repo.GetByID(ctx, id); getErr != nil {
			if errors.Is(getErr, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
			}
			return nil, appErrors.Wrap(getErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "notice belongs to another user")
	}

	s.invalidateCaches(ctx)
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load updated notice")
	}
	s.logger.Info("notice updated", zap.String("notice_id", id), zap.String("published_by", actorID))
	return updated, nil
}

func (s *NoticeService) validateFields(title, content, priority, audience string) error {
	payload := CreateNoticeRequest{Title: title, Content: content, Priority: priority, TargetAudience: audience}
	if err := s.validator.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title and content are required")
	}
	return nil
}

func (s *NoticeService) checkAttachmentSize(attachment *NoticeAttachment) error {
	if attachment == nil {
		return nil
	}
	if attachment.Size <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "attachment is empty")
	}
	if attachment.Size > s.cfg.MaxAttachmentSize {
		return appErrors.Clone(appErrors.ErrAttachmentTooLarge, fmt.Sprintf("attachment exceeds %d bytes limit", s.cfg.MaxAttachmentSize))
	}
	return nil
}

// CleanupOrphanAttachments removes stored blobs older than olderThan that no
// notice row references. Blobs referenced by a row are never touched
// regardless of age, so a sweep cannot break a published attachment link.
// A non-positive olderThan falls back to the configured retention window.
func (s *NoticeService) CleanupOrphanAttachments(ctx context.Context, olderThan time.Duration) ([]string, error) {
	if olderThan <= 0 {
		olderThan = s.cfg.CleanupMaxAge
	}
	urls, err := s.repo.ListAttachmentURLs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list referenced attachments")
	}
	keep := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if name := s.urls.ObjectName(u); name != "" {
			keep[name] = struct{}{}
		}
	}
	removed, err := s.blobs.CleanupOlderThan(olderThan, keep)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clean up attachments")
	}
	if len(removed) > 0 {
		s.logger.Info("orphaned attachments removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

// uploadAttachment streams the blob under a generated unique name and
// returns the object name and its public URL.
func (s *NoticeService) uploadAttachment(attachment *NoticeAttachment) (string, string, error) {
	name := s.generateObjectName(attachment.Filename)
	if err := s.blobs.SaveStream(name, attachment.Content); err != nil {
		s.metrics.RecordUpload("failure")
		return "", "", appErrors.Wrap(err, appErrors.ErrAttachmentUpload.Code, appErrors.ErrAttachmentUpload.Status, "failed to upload attachment")
	}
	s.metrics.RecordUpload("success")
	return name, s.urls.Resolve(name), nil
}

// generateObjectName builds a unique blob name: millisecond timestamp plus a
// random hex suffix, keeping the original extension. Uniqueness is owned
// here, not by the store.
func (s *NoticeService) generateObjectName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("notices/%d-%s%s", s.now().UnixMilli(), randomSuffix(), ext)
}

func (s *NoticeService) invalidateCaches(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "notices:*"); err != nil {
		s.logger.Warn("failed to invalidate notice caches", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard caches", zap.Error(err))
	}
}

func priorityOrDefault(raw string) models.NoticePriority {
	if raw == "" {
		return models.NoticePriorityNormal
	}
	return models.NoticePriority(strings.ToLower(raw))
}

func audienceOrDefault(raw string) models.NoticeAudience {
	if raw == "" {
		return models.NoticeAudienceAll
	}
	return models.NoticeAudience(strings.ToLower(raw))
}

func normalizeURL(url *string) *string {
	if url == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*url)
	if trimmed == "" {
		return nil
	}
	result := trimmed
	return &result
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
