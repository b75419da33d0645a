package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupress/school-portal-api/internal/models"
	appErrors "github.com/edupress/school-portal-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.Attendance) error
	ListByDate(ctx context.Context, date time.Time) ([]models.Attendance, error)
	ListByStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.Attendance, error)
}

// AttendanceService handles daily attendance marking and reporting.
type AttendanceService struct {
	repo      attendanceRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// MarkAttendanceRequest carries one student's status for a date.
type MarkAttendanceRequest struct {
	StudentID string                  `json:"student_id" validate:"required"`
	Date      time.Time               `json:"date" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=present absent late"`
}

// Mark records or replaces a student's attendance for a date.
func (s *AttendanceService) Mark(ctx context.Context, actorID string, req MarkAttendanceRequest) (*models.Attendance, error) {
	if actorID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	record := &models.Attendance{
		StudentID: req.StudentID,
		Date:      req.Date.UTC().Truncate(24 * time.Hour),
		Status:    req.Status,
		MarkedBy:  actorID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return record, nil
}

// MarkBulk records attendance for several students at once. It stops at the
// first failure so partially applied batches surface immediately.
func (s *AttendanceService) MarkBulk(ctx context.Context, actorID string, reqs []MarkAttendanceRequest) ([]models.Attendance, error) {
	if actorID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	records := make([]models.Attendance, 0, len(reqs))
	for _, req := range reqs {
		record, err := s.Mark(ctx, actorID, req)
		if err != nil {
			return records, err
		}
		records = append(records, *record)
	}
	return records, nil
}

// ListByDate returns every record for the given calendar date.
func (s *AttendanceService) ListByDate(ctx context.Context, date time.Time) ([]models.Attendance, error) {
	records, err := s.repo.ListByDate(ctx, date.UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// StudentHistory returns a student's records in the given range. A zero range
// defaults to the last 30 days.
func (s *AttendanceService) StudentHistory(ctx context.Context, studentID string, from, to time.Time) ([]models.Attendance, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	records, err := s.repo.ListByStudent(ctx, studentID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance history")
	}
	return records, nil
}
