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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
}

// StudentService handles student roster workflows.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// CreateStudentRequest describes the create payload.
type CreateStudentRequest struct {
	StudentID          string    `json:"student_id" validate:"required"`
	NameBangla         string    `json:"name_bangla" validate:"required"`
	NameEnglish        string    `json:"name_english" validate:"required"`
	BirthCertificateNo string    `json:"birth_certificate_no" validate:"required"`
	BloodGroup         string    `json:"blood_group"`
	ClassID            string    `json:"class_id" validate:"required"`
	SectionID          string    `json:"section_id" validate:"required"`
	AdmissionDate      time.Time `json:"admission_date" validate:"required"`
	FatherName         string    `json:"father_name" validate:"required"`
	MotherName         string    `json:"mother_name" validate:"required"`
	Address            string    `json:"address"`
	Phone              string    `json:"phone"`
	PhotoURL           *string   `json:"photo_url"`
}

// List returns students with pagination.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		StudentID:          strings.TrimSpace(req.StudentID),
		NameBangla:         strings.TrimSpace(req.NameBangla),
		NameEnglish:        strings.TrimSpace(req.NameEnglish),
		BirthCertificateNo: strings.TrimSpace(req.BirthCertificateNo),
		BloodGroup:         req.BloodGroup,
		ClassID:            req.ClassID,
		SectionID:          req.SectionID,
		AdmissionDate:      req.AdmissionDate,
		FatherName:         strings.TrimSpace(req.FatherName),
		MotherName:         strings.TrimSpace(req.MotherName),
		Address:            req.Address,
		Phone:              req.Phone,
		PhotoURL:           req.PhotoURL,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update rewrites an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	existing.StudentID = strings.TrimSpace(req.StudentID)
	existing.NameBangla = strings.TrimSpace(req.NameBangla)
	existing.NameEnglish = strings.TrimSpace(req.NameEnglish)
	existing.BirthCertificateNo = strings.TrimSpace(req.BirthCertificateNo)
	existing.BloodGroup = req.BloodGroup
	existing.ClassID = req.ClassID
	existing.SectionID = req.SectionID
	existing.AdmissionDate = req.AdmissionDate
	existing.FatherName = strings.TrimSpace(req.FatherName)
	existing.MotherName = strings.TrimSpace(req.MotherName)
	existing.Address = req.Address
	existing.Phone = req.Phone
	existing.PhotoURL = req.PhotoURL
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return existing, nil
}
