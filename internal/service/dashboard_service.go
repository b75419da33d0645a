package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edupress/school-portal-api/internal/models"
	appErrors "github.com/edupress/school-portal-api/pkg/errors"
)

const dashboardStatsCacheKey = "dashboard:stats"

type countRepository interface {
	Count(ctx context.Context) (int, error)
}

type submissionCounter interface {
	CountSubmissionsByStatus(ctx context.Context, status models.SubmissionStatus) (int, error)
}

// DashboardService aggregates headline counts, cached to keep the landing
// page cheap.
type DashboardService struct {
	students countRepository
	teachers countRepository
	notices  countRepository
	forms    submissionCounter
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(students, teachers, notices countRepository, forms submissionCounter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		students: students,
		teachers: teachers,
		notices:  notices,
		forms:    forms,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Stats returns the dashboard counters, serving from cache when possible.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, dashboardStatsCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	stats := &models.DashboardStats{GeneratedAt: s.now().UTC()}

	var err error
	if stats.TotalStudents, err = s.students.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if stats.TotalTeachers, err = s.teachers.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	if stats.TotalNotices, err = s.notices.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notices")
	}
	if stats.PendingSubmissions, err = s.forms.CountSubmissionsByStatus(ctx, models.SubmissionPending); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending submissions")
	}

	if err := s.cache.Set(ctx, dashboardStatsCacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
	}
	return stats, nil
}
