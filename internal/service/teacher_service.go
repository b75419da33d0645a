package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupress/school-portal-api/internal/models"
	appErrors "github.com/edupress/school-portal-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
}

// TeacherService handles teacher roster workflows.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the service.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// CreateTeacherRequest describes the create payload.
type CreateTeacherRequest struct {
	EmployeeID            string    `json:"employee_id" validate:"required"`
	NameBangla            string    `json:"name_bangla" validate:"required"`
	NameEnglish           string    `json:"name_english" validate:"required"`
	Designation           string    `json:"designation" validate:"required"`
	Qualification         string    `json:"qualification"`
	SubjectSpecialization string    `json:"subject_specialization"`
	JoiningDate           time.Time `json:"joining_date" validate:"required"`
	Phone                 string    `json:"phone"`
	Email                 string    `json:"email" validate:"omitempty,email"`
	Address               string    `json:"address"`
	PhotoURL              *string   `json:"photo_url"`
}

// List returns teachers with pagination.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get teacher")
	}
	return teacher, nil
}

// Create registers a new teacher.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher := &models.Teacher{
		EmployeeID:            strings.TrimSpace(req.EmployeeID),
		NameBangla:            strings.TrimSpace(req.NameBangla),
		NameEnglish:           strings.TrimSpace(req.NameEnglish),
		Designation:           strings.TrimSpace(req.Designation),
		Qualification:         req.Qualification,
		SubjectSpecialization: req.SubjectSpecialization,
		JoiningDate:           req.JoiningDate,
		Phone:                 req.Phone,
		Email:                 req.Email,
		Address:               req.Address,
		PhotoURL:              req.PhotoURL,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}
