package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edupress/school-portal-api/internal/models"
	appErrors "github.com/edupress/school-portal-api/pkg/errors"
	"github.com/edupress/school-portal-api/pkg/export"
)

// ExportFormat names a supported export encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type exportRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type exportNoticeRepository interface {
	List(ctx context.Context, page models.NoticePage) ([]models.Notice, int, error)
}

type exportStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

// ExportResult carries rendered bytes with transport metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders notice board and student roster downloads.
type ExportService struct {
	notices  exportNoticeRepository
	students exportStudentRepository
	csv      exportRenderer
	pdf      exportRenderer
	logger   *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(notices exportNoticeRepository, students exportStudentRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		notices:  notices,
		students: students,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

const exportSliceLimit = 1000

// NoticeBoard exports the newest notices as CSV or PDF.
func (s *ExportService) NoticeBoard(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	notices, _, err := s.notices.List(ctx, models.NoticePage{Limit: exportSliceLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notices for export")
	}

	table := export.Table{
		Title:   "Notice Board",
		Columns: []string{"Title", "Priority", "Audience", "Marquee", "Published At"},
	}
	for _, n := range notices {
		marquee := "no"
		if n.IsMarquee {
			marquee = "yes"
		}
		table.Rows = append(table.Rows, []string{
			n.Title,
			string(n.Priority),
			string(n.TargetAudience),
			marquee,
			n.PublishedAt.Format("2006-01-02 15:04"),
		})
	}
	return s.render("notices", format, table)
}

// StudentRoster exports the student list, optionally filtered by class and
// section, as CSV or PDF.
func (s *ExportService) StudentRoster(ctx context.Context, format ExportFormat, classID, sectionID string) (*ExportResult, error) {
	filter := models.StudentFilter{ClassID: classID, SectionID: sectionID, Page: 1, PageSize: exportSliceLimit}
	students, _, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students for export")
	}

	table := export.Table{
		Title:   "Student Roster",
		Columns: []string{"Student ID", "Name (English)", "Name (Bangla)", "Class", "Section", "Father's Name", "Phone"},
	}
	for _, st := range students {
		table.Rows = append(table.Rows, []string{
			st.StudentID,
			st.NameEnglish,
			st.NameBangla,
			st.ClassID,
			st.SectionID,
			st.FatherName,
			st.Phone,
		})
	}
	return s.render("students", format, table)
}

func (s *ExportService) render(name string, format ExportFormat, table export.Table) (*ExportResult, error) {
	switch format {
	case ExportCSV:
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{FileName: name + ".csv", ContentType: "text/csv", Data: data}, nil
	case ExportPDF:
		data, err := s.pdf.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{FileName: name + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
