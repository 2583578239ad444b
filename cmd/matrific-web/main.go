package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/matrific/matrific-web/api/swagger"
	"github.com/matrific/matrific-web/internal/handler"
	"github.com/matrific/matrific-web/internal/middleware"
	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/internal/repository"
	"github.com/matrific/matrific-web/internal/service"
	"github.com/matrific/matrific-web/internal/store"
	"github.com/matrific/matrific-web/internal/wizard"
	"github.com/matrific/matrific-web/internal/workspace"
	"github.com/matrific/matrific-web/pkg/apiclient"
	"github.com/matrific/matrific-web/pkg/cache"
	"github.com/matrific/matrific-web/pkg/config"
	"github.com/matrific/matrific-web/pkg/database"
	"github.com/matrific/matrific-web/pkg/export"
	"github.com/matrific/matrific-web/pkg/jobs"
	"github.com/matrific/matrific-web/pkg/logger"
	corsmiddleware "github.com/matrific/matrific-web/pkg/middleware/cors"
	reqidmiddleware "github.com/matrific/matrific-web/pkg/middleware/requestid"
	"github.com/matrific/matrific-web/pkg/storage"
	"github.com/matrific/matrific-web/pkg/validation"
)

// @title MatriFIC Web
// @version 1.0.0
// @description Session-holding client for the MatriFIC course enrollment API.
// @BasePath /
// @schemes http

const sweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()
	validate := validation.NewValidator(time.Now)
	limits := validation.FileLimits{MaxFiles: cfg.Uploads.MaxFiles, MaxFileSize: cfg.Uploads.MaxFileSize}

	var redisClient *redis.Client
	if cfg.Session.Driver == config.SessionDriverRedis || cfg.Locality.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("redis unavailable", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
	}

	sessions, probes, closeSessions, err := sessionRepository(cfg, redisClient, logr)
	if err != nil {
		logr.Fatal("session repository unavailable", zap.Error(err), zap.String("driver", cfg.Session.Driver))
	}
	defer closeSessions()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "matrific:", logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Locality.CacheTTL, logr, cfg.Locality.CacheEnabled)

	api := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout,
		apiclient.WithObserver(metrics),
		apiclient.WithLogger(logr),
	)

	manager := workspace.NewManager(workspace.Dependencies{
		API:      api,
		Sessions: sessions,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Rules:    validation.NewRules(limits, time.Now),
		Logger:   logr,
	}, workspace.Options{
		StorageKey:  cfg.Session.StorageKey,
		IdleTTL:     cfg.Session.IdleTTL,
		RefreshSkew: cfg.Session.RefreshSkew,
		Debounce:    cfg.Locality.Debounce,
		Flow:        wizard.FlowByName(cfg.Wizard.Flow),
	})

	sweeper := jobs.NewPeriodic("workspace-sweeper", func(ctx context.Context) error {
		evicted, err := manager.EvictIdle(ctx)
		if evicted > 0 {
			logr.Info("idle workspaces evicted", zap.Int("count", evicted))
		}
		return err
	}, jobs.PeriodicConfig{Interval: sweepInterval, Logger: logr})

	r := gin.New()
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSize * int64(cfg.Uploads.MaxFiles)
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, probes)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, manager, cfg, validate, limits, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sweeper.Start(ctx)

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "api", cfg.API.BaseURL, "session_driver", cfg.Session.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func registerRoutes(r *gin.Engine, manager *workspace.Manager, cfg *config.Config, validate *validator.Validate, limits validation.FileLimits, logr *zap.Logger) {
	authHandler := handler.NewAuthHandler(validate, manager, logr)
	profileHandler := handler.NewProfileHandler(validate, logr)
	dashboardHandler := handler.NewDashboardHandler()
	pdf := export.NewPDFExporter()
	courseHandler := handler.NewCourseHandler(validate, export.NewCSVExporter(), pdf, logr)
	enrollmentHandler := handler.NewEnrollmentHandler(validate, pdf, logr)
	wizardHandler := handler.NewWizardHandler(validate, limits, logr)
	professorHandler := handler.NewProfessorHandler(validate, logr)
	localityHandler := handler.NewLocalityHandler()

	staff := middleware.RequireGroups(models.GroupProfessor, models.GroupCoordinator)

	app := r.Group("/")
	app.Use(middleware.Session(manager, middleware.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		MaxAge: cfg.Session.IdleTTL,
	}, logr))
	app.POST("/login", authHandler.Login)

	authed := app.Group("/")
	authed.Use(middleware.RequireAuth())
	authed.POST("/logout", authHandler.Logout)
	authed.GET("/menu", authHandler.Menu)
	authed.GET(middleware.ProfileCompletePath, profileHandler.Get)
	authed.POST(middleware.ProfileCompletePath, profileHandler.Submit)
	authed.GET("/localidades/estados", localityHandler.States)
	authed.GET("/localidades/municipios", localityHandler.Cities)

	complete := authed.Group("/")
	complete.Use(middleware.RequireCompleteProfile(middleware.ProfileCompletePath))
	complete.GET("/dashboard", dashboardHandler.Show)

	courses := complete.Group("/cursos")
	courses.GET("", courseHandler.List)
	courses.GET("/:id", courseHandler.Get)
	courses.POST("", staff, middleware.Audit(logr, "create", "course"), courseHandler.Create)
	courses.PATCH("/:id", staff, middleware.Audit(logr, "update", "course"), courseHandler.Update)
	courses.DELETE("/:id", staff, middleware.Audit(logr, "delete", "course"), courseHandler.Delete)
	courses.GET("/:id/inscricoes/export", staff, courseHandler.ExportApplicants)

	enrollments := complete.Group("/inscricoes")
	enrollments.GET("", enrollmentHandler.List)
	enrollments.POST("/:id/validar", staff, middleware.Audit(logr, "validate", "enrollment"), enrollmentHandler.Validate)
	enrollments.GET("/:id/dossie", staff, enrollmentHandler.Dossier)

	enroll := complete.Group("/inscricao")
	enroll.Use(middleware.RequireGroups(models.GroupStudent))
	enroll.GET("", wizardHandler.State)
	enroll.PUT("/form", wizardHandler.UpdateForm)
	enroll.POST("/vaga", wizardHandler.SelectVacancy)
	enroll.POST("/arquivos", wizardHandler.AddFiles)
	enroll.DELETE("/arquivos/:index", wizardHandler.RemoveFile)
	enroll.POST("/next", wizardHandler.Next)
	enroll.POST("/prev", wizardHandler.Prev)
	enroll.POST("/submit", middleware.Audit(logr, "submit", "enrollment"), wizardHandler.Submit)

	professors := complete.Group("/professores")
	professors.Use(middleware.RequireGroups(models.GroupCoordinator))
	professors.GET("", professorHandler.List)
	professors.GET("/:id", professorHandler.Get)
	professors.POST("", middleware.Audit(logr, "create", "professor"), professorHandler.Create)
	professors.PATCH("/:id", middleware.Audit(logr, "update", "professor"), professorHandler.Update)
}

// sessionRepository opens the configured session driver. The returned probes
// back /ready and close releases the driver's connections.
func sessionRepository(cfg *config.Config, redisClient *redis.Client, logr *zap.Logger) (store.SessionRepository, map[string]handler.Probe, func(), error) {
	probes := map[string]handler.Probe{}
	noop := func() {}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	switch cfg.Session.Driver {
	case config.SessionDriverMemory:
		logr.Warn("in-memory sessions do not survive restarts")
		return repository.NewMemorySessionRepository(), probes, noop, nil
	case config.SessionDriverRedis:
		return repository.NewRedisSessionRepository(redisClient, cfg.Session.IdleTTL), probes, noop, nil
	case config.SessionDriverPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, noop, err
		}
		repo := repository.NewPostgresSessionRepository(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, noop, err
		}
		probes["postgres"] = db.PingContext
		return repo, probes, func() { _ = db.Close() }, nil
	case config.SessionDriverFile, "":
		files, err := storage.NewLocalStorage(cfg.Session.Dir)
		if err != nil {
			return nil, nil, noop, err
		}
		return repository.NewFileSessionRepository(files), probes, noop, nil
	default:
		return nil, nil, noop, fmt.Errorf("unknown session driver %q", cfg.Session.Driver)
	}
}
