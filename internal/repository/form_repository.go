package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupress/school-portal-api/internal/models"
)

// FormRepository manages form types and their submissions.
type FormRepository struct {
	db *sqlx.DB
}

// NewFormRepository constructs a FormRepository.
func NewFormRepository(db *sqlx.DB) *FormRepository {
	return &FormRepository{db: db}
}

// ListActiveTypes returns active form types.
func (r *FormRepository) ListActiveTypes(ctx context.Context) ([]models.FormType, error) {
	const query = `SELECT id, name_english, name_bangla, description, form_fields, is_active, created_at
FROM form_types WHERE is_active = TRUE ORDER BY created_at DESC`
	var types []models.FormType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list form types: %w", err)
	}
	return types, nil
}

// GetSubmission returns a submission by identifier.
func (r *FormRepository) GetSubmission(ctx context.Context, id string) (*models.FormSubmission, error) {
	const query = `SELECT id, form_type_id, user_id, form_data, status, submitted_at, processed_at, processed_by, remarks
FROM form_submissions WHERE id = $1`
	var submission models.FormSubmission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListSubmissions returns submissions, optionally filtered by status,
// newest first, with a total count.
func (r *FormRepository) ListSubmissions(ctx context.Context, status models.SubmissionStatus, page, pageSize int) ([]models.FormSubmission, int, error) {
	base := "FROM form_submissions"
	args := []interface{}{}
	where := ""
	if status != "" {
		where = " WHERE status = $1"
		args = append(args, status)
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, form_type_id, user_id, form_data, status, submitted_at, processed_at, processed_by, remarks
%s%s ORDER BY submitted_at DESC LIMIT %d OFFSET %d`, base, where, pageSize, offset)
	var submissions []models.FormSubmission
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list form submissions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s%s", base, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count form submissions: %w", err)
	}
	return submissions, total, nil
}

// CreateSubmission inserts a new submission in pending state.
func (r *FormRepository) CreateSubmission(ctx context.Context, submission *models.FormSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO form_submissions (id, form_type_id, user_id, form_data, status, submitted_at)
VALUES (:id, :form_type_id, :user_id, :form_data, :status, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create form submission: %w", err)
	}
	return nil
}

// CountSubmissionsByStatus returns how many submissions sit in a status.
func (r *FormRepository) CountSubmissionsByStatus(ctx context.Context, status models.SubmissionStatus) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM form_submissions WHERE status = $1", status); err != nil {
		return 0, fmt.Errorf("count form submissions: %w", err)
	}
	return total, nil
}

// UpdateSubmissionStatus applies a workflow transition with processing metadata.
func (r *FormRepository) UpdateSubmissionStatus(ctx context.Context, id string, status models.SubmissionStatus, processedBy string, remarks *string, processedAt time.Time) error {
	const query = `UPDATE form_submissions
SET status = $1, processed_by = $2, remarks = $3, processed_at = $4
WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, status, processedBy, remarks, processedAt, id); err != nil {
		return fmt.Errorf("update form submission status: %w", err)
	}
	return nil
}
