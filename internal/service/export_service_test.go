package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupress/school-portal-api/internal/models"
	appErrors "github.com/edupress/school-portal-api/pkg/errors"
)

type exportNoticesStub struct{ notices []models.Notice }

func (s exportNoticesStub) List(ctx context.Context, page models.NoticePage) ([]models.Notice, int, error) {
	return s.notices, len(s.notices), nil
}

type exportStudentsStub struct {
	students []models.Student
	filter   models.StudentFilter
}

func (s *exportStudentsStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	s.filter = filter
	return s.students, len(s.students), nil
}

func TestExportNoticeBoardCSV(t *testing.T) {
	notices := exportNoticesStub{notices: []models.Notice{
		{Title: "Sports day", Priority: models.NoticePriorityHigh, TargetAudience: models.NoticeAudienceAll, IsMarquee: true, PublishedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
	}}
	svc := NewExportService(notices, &exportStudentsStub{}, nil)

	result, err := svc.NoticeBoard(context.Background(), ExportCSV)
	require.NoError(t, err)

	assert.Equal(t, "notices.csv", result.FileName)
	assert.Equal(t, "text/csv", result.ContentType)
	body := string(result.Data)
	assert.True(t, strings.HasPrefix(body, "Title,Priority,Audience,Marquee,Published At"))
	assert.Contains(t, body, "Sports day,high,all,yes,2025-03-01 09:00")
}

func TestExportStudentRosterPDF(t *testing.T) {
	students := &exportStudentsStub{students: []models.Student{
		{StudentID: "S-001", NameEnglish: "Rahim", NameBangla: "রহিম", ClassID: "6", SectionID: "A", FatherName: "Karim"},
	}}
	svc := NewExportService(exportNoticesStub{}, students, nil)

	result, err := svc.StudentRoster(context.Background(), ExportPDF, "6", "A")
	require.NoError(t, err)

	assert.Equal(t, "students.pdf", result.FileName)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF")))
	assert.Equal(t, "6", students.filter.ClassID)
	assert.Equal(t, "A", students.filter.SectionID)
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewExportService(exportNoticesStub{}, &exportStudentsStub{}, nil)

	_, err := svc.NoticeBoard(context.Background(), ExportFormat("xlsx"))
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
