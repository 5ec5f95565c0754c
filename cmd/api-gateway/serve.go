package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/jiu-academy-api/api/swagger"
	"github.com/noah-isme/jiu-academy-api/internal/handler"
	"github.com/noah-isme/jiu-academy-api/internal/middleware"
	"github.com/noah-isme/jiu-academy-api/internal/migrations"
	"github.com/noah-isme/jiu-academy-api/internal/repository"
	"github.com/noah-isme/jiu-academy-api/internal/server"
	"github.com/noah-isme/jiu-academy-api/internal/service"
	"github.com/noah-isme/jiu-academy-api/pkg/cache"
	"github.com/noah-isme/jiu-academy-api/pkg/config"
	"github.com/noah-isme/jiu-academy-api/pkg/database"
	"github.com/noah-isme/jiu-academy-api/pkg/jobs"
	"github.com/noah-isme/jiu-academy-api/pkg/logger"
	"github.com/noah-isme/jiu-academy-api/pkg/mailer"
	"github.com/noah-isme/jiu-academy-api/pkg/storage"
)

const (
	shutdownTimeout    = 15 * time.Second
	tokenPurgeInterval = time.Hour
)

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(ctx, db.DB); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		logr.Info("database migrations applied")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled and rate limiting kept in memory", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	store, files, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	classRepo := repository.NewClassRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	contentRepo := repository.NewContentRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	var (
		cacheRepo   service.CacheRepository
		rateCounter middleware.HitCounter
	)
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		rateCounter = repository.NewRateLimitRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	validate := service.NewValidator()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenSecret: cfg.JWT.RefreshSecret,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, profileRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, userRepo, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, classRepo, userRepo, validate, logr)
	lessonSvc.AttachCache(cacheSvc)
	contentSvc := service.NewContentService(contentRepo, lessonRepo, store, cfg.Storage.MaxUploadBytes, validate, logr)
	progressSvc := service.NewProgressService(progressRepo, userRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Lessons:    lessonRepo,
		Attendance: attendanceRepo,
		Users:      userRepo,
		Classes:    classRepo,
		Cache:      cacheSvc,
		CacheTTL:   cfg.Dashboard.CacheTTL,
		Logger:     logr,
	})

	notifier := service.NewNotificationService(mailer.New(cfg.SMTP, logr), metrics, logr)
	queue := jobs.NewQueue("notifications", notifier.Handle, jobs.QueueConfig{
		Workers:    cfg.Notify.Workers,
		MaxRetries: cfg.Notify.Retries,
		RetryDelay: cfg.Notify.RetryDelay,
		OnGiveUp:   notifier.Abandon,
		Logger:     logr,
	})
	notifier.AttachQueue(queue)
	queue.Start(ctx)
	defer queue.Stop()

	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceParams{
		Repo:        attendanceRepo,
		Lessons:     lessonRepo,
		Users:       userRepo,
		Enrollments: classRepo,
		Notifier:    notifier,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
	})

	limiter := middleware.NewRateLimiter(rateCounter, cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow, metrics, logr)

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		Logger:      logr,
		Metrics:     metrics,
		Tokens:      authSvc,
		RateLimiter: limiter,
		Handlers: server.Handlers{
			Auth:       handler.NewAuthHandler(authSvc, cfg.Cookie),
			User:       handler.NewUserHandler(userSvc),
			Class:      handler.NewClassHandler(classSvc),
			Lesson:     handler.NewLessonHandler(lessonSvc),
			Attendance: handler.NewAttendanceHandler(attendanceSvc),
			Content:    handler.NewContentHandler(contentSvc, files, cfg.Storage.MaxUploadBytes),
			Dashboard:  handler.NewDashboardHandler(dashboardSvc),
			Progress:   handler.NewProgressHandler(progressSvc),
			System:     handler.NewMetricsHandler(metrics, db),
		},
	})

	go purgeRefreshTokens(ctx, authSvc, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type fileResolver interface {
	Resolve(token string) (string, error)
}

// newStorage picks the upload backend. The resolver is only set for local disk,
// where the API itself serves the signed download URLs.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, fileResolver, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverS3:
		s3Store, err := storage.NewS3Storage(ctx, cfg.S3, cfg.Storage.SignedURLTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return s3Store, nil, nil
	default:
		signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
		local, err := storage.NewLocalStorage(cfg.Storage.Dir, cfg.APIPrefix+"/content/files", signer)
		if err != nil {
			return nil, nil, fmt.Errorf("init local storage: %w", err)
		}
		return local, local, nil
	}
}

func purgeRefreshTokens(ctx context.Context, auth *service.AuthService, logr *zap.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := auth.PurgeExpiredRefreshTokens(ctx)
			if err != nil {
				logr.Warn("refresh token purge failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logr.Info("expired refresh tokens purged", zap.Int64("removed", removed))
			}
		}
	}
}
