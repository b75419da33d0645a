package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupress/school-portal-api/internal/models"
)

const marqueeLimit = 5

// NoticeRepository provides persistence for notices.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository creates the repository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// List returns notices ordered by published_at descending, sliced by the
// page bounds, together with the total row count.
func (r *NoticeRepository) List(ctx context.Context, page models.NoticePage) ([]models.Notice, int, error) {
	limit := page.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT id, title, content, priority, target_audience, is_marquee, attachment_url, published_by, published_at, created_at
FROM notices
ORDER BY published_at DESC
LIMIT %d OFFSET %d`, limit, offset)
	var notices []models.Notice
	if err := r.db.SelectContext(ctx, &notices, query); err != nil {
		return nil, 0, fmt.Errorf("list notices: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notices"); err != nil {
		return nil, 0, fmt.Errorf("count notices: %w", err)
	}
	return notices, total, nil
}

// ListMarquee returns the newest urgent ticker notices, capped at five.
func (r *NoticeRepository) ListMarquee(ctx context.Context) ([]models.Notice, error) {
	query := fmt.Sprintf(`SELECT id, title, content, priority, target_audience, is_marquee, attachment_url, published_by, published_at, created_at
FROM notices
WHERE is_marquee = TRUE AND priority = $1
ORDER BY published_at DESC
LIMIT %d`, marqueeLimit)
	var notices []models.Notice
	if err := r.db.SelectContext(ctx, &notices, query, models.NoticePriorityUrgent); err != nil {
		return nil, fmt.Errorf("list marquee notices: %w", err)
	}
	return notices, nil
}

// GetByID returns a notice by identifier.
func (r *NoticeRepository) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	const query = `SELECT id, title, content, priority, target_audience, is_marquee, attachment_url, published_by, published_at, created_at
FROM notices WHERE id = $1`
	var notice models.Notice
	if err := r.db.GetContext(ctx, &notice, query, id); err != nil {
		return nil, err
	}
	return &notice, nil
}

// Create inserts a new notice row.
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notices (id, title, content, priority, target_audience, is_marquee, attachment_url, published_by, published_at, created_at)
VALUES (:id, :title, :content, :priority, :target_audience, :is_marquee, :attachment_url, :published_by, :published_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a notice. The statement is filtered
// by both id and published_by so a caller can only touch rows it owns; the
// affected-row count is returned so the service layer can tell an ownership
// mismatch apart from a successful write. attachment_url is always written,
// including NULL, so clearing an attachment actually persists.
func (r *NoticeRepository) Update(ctx context.Context, notice *models.Notice, actorID string) (int64, error) {
	const query = `UPDATE notices
SET title = $1, content = $2, priority = $3, target_audience = $4, is_marquee = $5, attachment_url = $6
WHERE id = $7 AND published_by = $8`
	result, err := r.db.ExecContext(ctx, query,
		notice.Title,
		notice.Content,
		notice.Priority,
		notice.TargetAudience,
		notice.IsMarquee,
		notice.AttachmentURL,
		notice.ID,
		actorID,
	)
	if err != nil {
		return 0, fmt.Errorf("update notice: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update notice rows affected: %w", err)
	}
	return affected, nil
}

// ListAttachmentURLs returns every attachment URL referenced by a notice
// row. The orphan sweep uses this set to know which blobs are still live.
func (r *NoticeRepository) ListAttachmentURLs(ctx context.Context) ([]string, error) {
	var urls []string
	if err := r.db.SelectContext(ctx, &urls, "SELECT attachment_url FROM notices WHERE attachment_url IS NOT NULL"); err != nil {
		return nil, fmt.Errorf("list attachment urls: %w", err)
	}
	return urls, nil
}

// Count returns the total number of notices.
func (r *NoticeRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notices"); err != nil {
		return 0, fmt.Errorf("count notices: %w", err)
	}
	return total, nil
}
