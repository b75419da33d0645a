package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupress/school-portal-api/internal/models"
	appErrors "github.com/edupress/school-portal-api/pkg/errors"
)

type formRepository interface {
	ListActiveTypes(ctx context.Context) ([]models.FormType, error)
	GetSubmission(ctx context.Context, id string) (*models.FormSubmission, error)
	ListSubmissions(ctx context.Context, status models.SubmissionStatus, page, pageSize int) ([]models.FormSubmission, int, error)
	CreateSubmission(ctx context.Context, submission *models.FormSubmission) error
	UpdateSubmissionStatus(ctx context.Context, id string, status models.SubmissionStatus, processedBy string, remarks *string, processedAt time.Time) error
}

// FormService handles applicable form types and the submission workflow.
type FormService struct {
	repo      formRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFormService constructs the service.
func NewFormService(repo formRepository, validate *validator.Validate, logger *zap.Logger) *FormService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// ListTypes returns all active form types.
func (s *FormService) ListTypes(ctx context.Context) ([]models.FormType, error) {
	types, err := s.repo.ListActiveTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list form types")
	}
	return types, nil
}

// SubmitFormRequest carries a user's answers for a form type.
type SubmitFormRequest struct {
	FormTypeID string          `json:"form_type_id" validate:"required"`
	FormData   json.RawMessage `json:"form_data" validate:"required"`
}

// Submit creates a new submission in pending state.
func (s *FormService) Submit(ctx context.Context, userID string, req SubmitFormRequest) (*models.FormSubmission, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid form submission")
	}
	if !json.Valid(req.FormData) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "form data must be valid JSON")
	}
	submission := &models.FormSubmission{
		FormTypeID:  req.FormTypeID,
		UserID:      userID,
		FormData:    req.FormData,
		Status:      models.SubmissionPending,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create form submission")
	}
	return submission, nil
}

// GetSubmission returns one submission by id.
func (s *FormService) GetSubmission(ctx context.Context, id string) (*models.FormSubmission, error) {
	submission, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get form submission")
	}
	return submission, nil
}

// ListSubmissions returns submissions filtered by status, newest first.
func (s *FormService) ListSubmissions(ctx context.Context, status models.SubmissionStatus, page, pageSize int) ([]models.FormSubmission, *models.Pagination, error) {
	if status != "" {
		switch status {
		case models.SubmissionPending, models.SubmissionProcessing, models.SubmissionApproved, models.SubmissionRejected:
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown submission status %q", status))
		}
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	submissions, total, err := s.repo.ListSubmissions(ctx, status, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list form submissions")
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return submissions, pagination, nil
}

// ProcessSubmissionRequest carries a workflow transition.
type ProcessSubmissionRequest struct {
	Status  models.SubmissionStatus `json:"status" validate:"required,oneof=processing approved rejected"`
	Remarks *string                 `json:"remarks"`
}

// Process moves a submission through the workflow. Transitions that the
// current state does not allow are rejected.
func (s *FormService) Process(ctx context.Context, actorID, id string, req ProcessSubmissionRequest) (*models.FormSubmission, error) {
	if actorID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	submission, err := s.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if !submission.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot move submission from %s to %s", submission.Status, req.Status))
	}

	processedAt := s.now().UTC()
	if err := s.repo.UpdateSubmissionStatus(ctx, id, req.Status, actorID, req.Remarks, processedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update form submission")
	}

	submission.Status = req.Status
	submission.ProcessedBy = &actorID
	submission.ProcessedAt = &processedAt
	submission.Remarks = req.Remarks
	return submission, nil
}
