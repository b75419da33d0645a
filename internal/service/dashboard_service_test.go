package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupress/school-portal-api/internal/models"
)

type countStub struct {
	value int
	calls int
}

func (c *countStub) Count(ctx context.Context) (int, error) {
	c.calls++
	return c.value, nil
}

type submissionCounterStub struct {
	pending int
	status  models.SubmissionStatus
}

func (c *submissionCounterStub) CountSubmissionsByStatus(ctx context.Context, status models.SubmissionStatus) (int, error) {
	c.status = status
	return c.pending, nil
}

func TestDashboardStats(t *testing.T) {
	students := &countStub{value: 420}
	teachers := &countStub{value: 35}
	notices := &countStub{value: 12}
	forms := &submissionCounterStub{pending: 4}

	svc := NewDashboardService(students, teachers, notices, forms, nil, 0, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 420, stats.TotalStudents)
	assert.Equal(t, 35, stats.TotalTeachers)
	assert.Equal(t, 12, stats.TotalNotices)
	assert.Equal(t, 4, stats.PendingSubmissions)
	assert.Equal(t, models.SubmissionPending, forms.status)
	assert.False(t, stats.GeneratedAt.IsZero())
}
