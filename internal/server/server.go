package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasklist/docs"
	"tasklist/internal/admin"
	"tasklist/internal/auth"
	"tasklist/internal/config"
	"tasklist/internal/database"
	"tasklist/internal/handler"
	"tasklist/internal/i18n"
	"tasklist/internal/listing"
	"tasklist/internal/middleware"
	"tasklist/internal/repository"
	"tasklist/internal/session"
	"tasklist/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config
	Log    *zap.Logger
}

// Sessions is what the router needs from the session store.
type Sessions interface {
	handler.SessionStore
	middleware.SessionReader
}

// Deps are the collaborators NewRouter wires into the routes.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Sessions Sessions
	Log      *zap.Logger
	// Now overrides the clock of the list filters; nil means time.Now.
	Now func() time.Time
}

func Init(cfg *config.Config, log *zap.Logger) (*Server, error) {
	// Миграции до подключения gorm
	if err := database.Migrate(cfg, log); err != nil {
		return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Info("✅ Connected to database", zap.String("driver", cfg.DBDriver))

	rdb := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// API по токенам продолжает работать и без redis
		log.Warn("⚠️ Redis is not reachable, browser sessions will fail", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	} else {
		log.Info("✅ Connected to redis", zap.String("addr", cfg.RedisAddr))
	}

	gin.SetMode(gin.ReleaseMode)
	r, err := NewRouter(Deps{
		Config:   cfg,
		DB:       db,
		Sessions: session.NewStore(rdb, cfg.SessionTTL),
		Log:      log,
	})
	if err != nil {
		return nil, err
	}

	docs.SwaggerInfo.Host = "localhost:" + cfg.ServerPort

	return &Server{
		Engine: r,
		DB:     db,
		Redis:  rdb,
		Config: cfg,
		Log:    log,
	}, nil
}

// NewRouter builds the gin engine with every route of the application.
func NewRouter(d Deps) (*gin.Engine, error) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := d.Config

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// Валидаторы и переводы регистрируются на движке gin
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, errors.New("unexpected validator engine")
	}
	if err := handler.RegisterValidators(v); err != nil {
		return nil, err
	}
	catalog, err := i18n.New(v, cfg.DefaultLocale)
	if err != nil {
		return nil, err
	}

	renderer, err := web.NewRenderer(loc, d.Now)
	if err != nil {
		return nil, err
	}

	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(d.DB)
	taskRepo := repository.NewTaskRepository(d.DB)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	pipeline := listing.NewPipeline(taskRepo, loc, d.Now)
	registry := admin.Default()
	lister, err := admin.NewTaskLister(registry, taskRepo, loc, d.Now)
	if err != nil {
		return nil, err
	}

	// Initialize handlers
	errorHandler := handler.NewErrorHandler(catalog, log)
	taskHandler := handler.NewTaskHandler(taskRepo, pipeline, renderer, catalog, loc)
	userHandler := handler.NewUserHandler(userRepo, d.Sessions, tokens, catalog)
	adminHandler := handler.NewAdminHandler(registry, lister)
	healthHandler := handler.NewHealthHandler(sqlDB)

	r := gin.New()
	r.SetHTMLTemplate(renderer.Template())
	r.Use(
		middleware.RequestLogger(log),
		gin.CustomRecoveryWithWriter(io.Discard, errorHandler.Recovery),
		errorHandler.Middleware(),
		middleware.Identify(tokens, d.Sessions, log),
	)
	r.NoRoute(errorHandler.NoRoute)

	// Operational routes
	r.GET("/healthz", healthHandler.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	getPost := []string{http.MethodGet, http.MethodPost}
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/tasks/") })
	r.Match(getPost, "/register/", userHandler.Register)
	r.Match(getPost, "/login/", userHandler.Login)
	r.POST("/logout/", userHandler.Logout)
	r.POST("/api/token", userHandler.Token)

	// Task routes - require authentication
	tasks := r.Group("/tasks", middleware.RequireUser())
	{
		tasks.GET("/", taskHandler.List)
		tasks.Match(getPost, "/new/", taskHandler.New)
		tasks.Match(getPost, "/:id/edit/", taskHandler.Edit)
		tasks.Match(getPost, "/:id/delete/", taskHandler.Delete)
		tasks.POST("/:id/toggle/", taskHandler.Toggle)
	}

	// Admin routes - staff only
	staff := r.Group("/admin", middleware.RequireUser(), middleware.RequireStaff(userRepo))
	{
		staff.GET("/", adminHandler.Index)
		staff.GET("/tasks/", adminHandler.ListTasks)
	}

	return r, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.Log.Info("🚀 Server running", zap.String("port", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Fatal("❌ Failed to listen", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Log.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Log.Error("❌ Server forced to shutdown", zap.Error(err))
	}

	if err := database.Close(s.DB); err != nil {
		s.Log.Error("❌ Failed to close DB", zap.Error(err))
	}
	if err := s.Redis.Close(); err != nil {
		s.Log.Error("❌ Failed to close redis", zap.Error(err))
	}

	s.Log.Info("✅ Server exited properly")
}
