// Package server assembles the gin engine and its route table.
package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/handler"
	"github.com/noah-isme/jiu-academy-api/internal/middleware"
	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/service"
	"github.com/noah-isme/jiu-academy-api/pkg/config"
	"github.com/noah-isme/jiu-academy-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/jiu-academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/jiu-academy-api/pkg/middleware/requestid"
)

// TokenValidator verifies access tokens for the auth middleware.
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Class      *handler.ClassHandler
	Lesson     *handler.LessonHandler
	Attendance *handler.AttendanceHandler
	Content    *handler.ContentHandler
	Dashboard  *handler.DashboardHandler
	Progress   *handler.ProgressHandler
	System     *handler.MetricsHandler
}

// Deps are the collaborators needed to build the router.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Metrics     *service.MetricsService
	Tokens      TokenValidator
	RateLimiter *middleware.RateLimiter
	Handlers    Handlers
}

// NewRouter builds the engine with the global middleware chain and all routes.
func NewRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, forwarded headers ignored", zap.Strings("proxies", cfg.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(cfg.Env == config.EnvProduction))

	h := deps.Handlers
	r.GET("/metrics", h.System.Prometheus)
	r.GET("/health", h.System.Health)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/health", h.System.Health)

	auth := api.Group("/auth")
	if deps.RateLimiter != nil {
		auth.POST("/register", deps.RateLimiter.Middleware("register"), h.Auth.Register)
		auth.POST("/login", deps.RateLimiter.Middleware("login"), h.Auth.Login)
	} else {
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Signed tokens authorize file downloads on their own.
	api.GET("/content/files/:token", h.Content.File)

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.Tokens))
	staff := middleware.RequireStaff()

	users := protected.Group("/users")
	users.GET("/me", h.User.Me)
	users.PUT("/me", h.User.UpdateMe)
	users.GET("", staff, h.User.List)

	classes := protected.Group("/classes")
	classes.GET("", h.Class.List)
	classes.GET("/:id", h.Class.Get)
	classes.POST("", staff, h.Class.Create)
	classes.PUT("/:id", staff, h.Class.Update)
	classes.DELETE("/:id", staff, h.Class.Delete)
	classes.GET("/:id/students", staff, h.Class.Students)
	classes.POST("/:id/enroll", staff, h.Class.Enroll)
	classes.DELETE("/:id/enroll/:studentId", staff, h.Class.Unenroll)

	lessons := protected.Group("/lessons")
	lessons.GET("", h.Lesson.List)
	lessons.GET("/upcoming", h.Lesson.Upcoming)
	lessons.GET("/:id", h.Lesson.Get)
	lessons.POST("", staff, h.Lesson.Create)
	lessons.PUT("/:id", staff, h.Lesson.Update)
	lessons.PUT("/:id/status", staff, h.Lesson.UpdateStatus)
	lessons.DELETE("/:id", staff, h.Lesson.Delete)
	lessons.GET("/:id/attendance", staff, h.Attendance.LessonAttendance)

	attendance := protected.Group("/attendance")
	attendance.PUT("/:lessonId", staff, h.Attendance.Register)
	attendance.POST("/check-in", h.Attendance.CheckIn)
	attendance.GET("/status/:lessonId", h.Attendance.Status)
	attendance.GET("/lesson/:lessonId", staff, h.Attendance.LessonAttendance)
	attendance.GET("/stats/:userId", h.Attendance.Stats)
	attendance.GET("/stats/:userId/export", h.Attendance.Export)
	attendance.GET("/me/stats", h.Attendance.MyStats)

	content := protected.Group("/content")
	content.POST("/upload/:lessonId", staff, h.Content.Upload)
	content.GET("/lesson/:lessonId", h.Content.ListByLesson)
	content.GET("/library", h.Content.Library)
	content.GET("/:id", h.Content.Get)

	dashboard := protected.Group("/dashboard")
	dashboard.GET("", h.Dashboard.Dashboard)
	dashboard.GET("/aluno", middleware.RequireRoles(models.RoleAluno, models.RoleAdmin), h.Dashboard.Student)
	dashboard.GET("/professor", middleware.RequireRoles(models.RoleProfessor, models.RoleAdmin), h.Dashboard.Professor)
	dashboard.GET("/admin", middleware.RequireRoles(models.RoleAdmin), h.Dashboard.Admin)

	progress := protected.Group("/progress")
	progress.GET("/:studentId", h.Progress.List)
	progress.PUT("/:studentId", staff, h.Progress.Upsert)

	return r
}
