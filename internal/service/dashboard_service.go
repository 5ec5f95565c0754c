package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

const (
	dashboardUpcomingLimit  = 5
	dashboardRecentLimit    = 5
	dashboardProfessorLimit = 10
)

type upcomingLessonLister interface {
	Upcoming(ctx context.Context, filter models.UpcomingFilter) ([]models.LessonDetail, error)
	CountOnDate(ctx context.Context, date string) (int, error)
}

type attendanceSummarizer interface {
	Recent(ctx context.Context, userID string, limit int) ([]models.AttendanceHistoryItem, error)
	CountByStatus(ctx context.Context, userID string, status models.AttendanceStatus) (int, error)
}

type userCounter interface {
	CountByRole(ctx context.Context) (map[models.UserRole]int, error)
}

type classCounter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardServiceParams groups dependencies for the dashboard service.
type DashboardServiceParams struct {
	Lessons    upcomingLessonLister
	Attendance attendanceSummarizer
	Users      userCounter
	Classes    classCounter
	Cache      dashboardCache
	CacheTTL   time.Duration
	Logger     *zap.Logger
}

// DashboardService composes the per-role landing payloads. Every method reports
// whether the payload came from the cache.
type DashboardService struct {
	lessons    upcomingLessonLister
	attendance attendanceSummarizer
	users      userCounter
	classes    classCounter
	cache      dashboardCache
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &DashboardService{
		lessons:    params.Lessons,
		attendance: params.Attendance,
		users:      params.Users,
		classes:    params.Classes,
		cache:      params.Cache,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// dashboardCacheKey is shared with the attendance service, which invalidates student payloads.
func dashboardCacheKey(role models.UserRole, userID string) string {
	return fmt.Sprintf("dash:%s:%s", role, userID)
}

// Student returns upcoming lessons, recent attendance and attended count for userID.
func (s *DashboardService) Student(ctx context.Context, userID string) (*models.StudentDashboard, bool, error) {
	return loadDashboard(ctx, s, dashboardCacheKey(models.RoleAluno, userID), func() (*models.StudentDashboard, error) {
		upcoming, err := s.lessons.Upcoming(ctx, models.UpcomingFilter{From: s.today(), Limit: dashboardUpcomingLimit})
		if err != nil {
			return nil, fmt.Errorf("upcoming lessons: %w", err)
		}
		recent, err := s.attendance.Recent(ctx, userID, dashboardRecentLimit)
		if err != nil {
			return nil, fmt.Errorf("recent attendance: %w", err)
		}
		attended, err := s.attendance.CountByStatus(ctx, userID, models.AttendancePresent)
		if err != nil {
			return nil, fmt.Errorf("attended count: %w", err)
		}
		if upcoming == nil {
			upcoming = []models.LessonDetail{}
		}
		if recent == nil {
			recent = []models.AttendanceHistoryItem{}
		}
		return &models.StudentDashboard{
			UpcomingLessons:  upcoming,
			RecentAttendance: recent,
			Stats:            models.StudentDashboardStats{TotalAttended: attended},
		}, nil
	})
}

// Professor returns the next lessons taught by userID.
func (s *DashboardService) Professor(ctx context.Context, userID string) (*models.ProfessorDashboard, bool, error) {
	return loadDashboard(ctx, s, dashboardCacheKey(models.RoleProfessor, userID), func() (*models.ProfessorDashboard, error) {
		lessons, err := s.lessons.Upcoming(ctx, models.UpcomingFilter{From: s.today(), ProfessorID: userID, Limit: dashboardProfessorLimit})
		if err != nil {
			return nil, fmt.Errorf("professor lessons: %w", err)
		}
		if lessons == nil {
			lessons = []models.LessonDetail{}
		}
		return &models.ProfessorDashboard{MyLessons: lessons}, nil
	})
}

// Admin returns academy-wide counters.
func (s *DashboardService) Admin(ctx context.Context, userID string) (*models.AdminDashboard, bool, error) {
	return loadDashboard(ctx, s, dashboardCacheKey(models.RoleAdmin, userID), func() (*models.AdminDashboard, error) {
		byRole, err := s.users.CountByRole(ctx)
		if err != nil {
			return nil, fmt.Errorf("count users: %w", err)
		}
		classes, err := s.classes.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count classes: %w", err)
		}
		today, err := s.lessons.CountOnDate(ctx, s.today())
		if err != nil {
			return nil, fmt.Errorf("count lessons today: %w", err)
		}
		summary := &models.AdminDashboard{
			TotalStudents:   byRole[models.RoleAluno],
			TotalProfessors: byRole[models.RoleProfessor],
			TotalClasses:    classes,
			LessonsToday:    today,
		}
		for _, n := range byRole {
			summary.TotalUsers += n
		}
		return summary, nil
	})
}

// loadDashboard serves key from the cache or composes and stores it. Cache
// failures degrade to a fresh composition.
func loadDashboard[T any](ctx context.Context, s *DashboardService, key string, compose func() (*T, error)) (*T, bool, error) {
	if s.cache != nil {
		var cached T
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	payload, err := compose()
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return payload, false, nil
}

func (s *DashboardService) today() string {
	return s.now().Format(dateLayout)
}
