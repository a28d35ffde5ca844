package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ephraimVPA/Helfzen-zn/internal/config"
	"github.com/ephraimVPA/Helfzen-zn/internal/database"
	"github.com/ephraimVPA/Helfzen-zn/internal/handlers"
	"github.com/ephraimVPA/Helfzen-zn/internal/metrics"
	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
	"github.com/ephraimVPA/Helfzen-zn/internal/pages"
	"github.com/ephraimVPA/Helfzen-zn/internal/repositories"
	"github.com/ephraimVPA/Helfzen-zn/internal/routes"
	"github.com/ephraimVPA/Helfzen-zn/internal/services"
	"github.com/ephraimVPA/Helfzen-zn/internal/tables"
)

type Server struct {
	cfg     *config.Config
	log     *logrus.Logger
	http    *http.Server
	closers []func()
}

// NewServer opens the configured table backend and optional Redis, and builds
// the HTTP server. Only misconfiguration is an error; an unreachable Redis is
// logged and skipped.
func NewServer(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Server, error) {
	s := &Server{cfg: cfg, log: log}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	table, err := s.openTable(ctx, m)
	if err != nil {
		s.Close()
		return nil, err
	}

	var blacklist services.TokenBlacklist
	if rdb := s.openRedis(ctx); rdb != nil {
		blacklist = repositories.NewRedisRepository(rdb)
	}

	router, err := NewRouter(Deps{
		Config:    cfg,
		Log:       log,
		Table:     table,
		Blacklist: blacklist,
		Metrics:   m,
		Gatherer:  reg,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

func (s *Server) HTTPServer() *http.Server {
	return s.http
}

// Close releases backend connections.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (s *Server) openTable(ctx context.Context, m *metrics.Metrics) (tables.Table, error) {
	log := s.log.WithField("backend", s.cfg.TableBackend)

	switch s.cfg.TableBackend {
	case config.BackendSheets:
		t, err := tables.NewSheets(ctx, s.cfg.SpreadsheetID, s.cfg.GoogleClientEmail, s.cfg.GooglePrivateKey, m)
		if err != nil {
			return nil, err
		}
		log.WithField("spreadsheet", s.cfg.SpreadsheetID).Info("using Google Sheets backend")
		return t, nil

	case config.BackendWorkbook:
		t, err := tables.NewWorkbook(s.cfg.WorkbookPath, m)
		if err != nil {
			return nil, err
		}
		log.WithField("path", s.cfg.WorkbookPath).Info("using workbook backend")
		return t, nil

	case config.BackendPostgres:
		if err := database.EnsureDatabaseExists(ctx, s.cfg.DatabaseURL, log); err != nil {
			return nil, err
		}
		pool, err := database.Connect(ctx, s.cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if err := database.RunMigrations(ctx, pool, log); err != nil {
			return nil, err
		}
		return tables.NewPostgres(pool, m), nil
	}
	return nil, fmt.Errorf("unknown table backend %q", s.cfg.TableBackend)
}

func (s *Server) openRedis(ctx context.Context) *redis.Client {
	if s.cfg.RedisAddr == "" {
		s.log.Info("REDIS_ADDR not set, logout will not blacklist tokens")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: s.cfg.RedisAddr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		s.log.WithError(err).WithField("addr", s.cfg.RedisAddr).Warn("redis unavailable, continuing without token blacklist")
		_ = rdb.Close()
		return nil
	}
	s.closers = append(s.closers, func() { _ = rdb.Close() })
	s.log.WithField("addr", s.cfg.RedisAddr).Info("connected to Redis")
	return rdb
}

// Deps is everything NewRouter needs. Blacklist, Metrics and Gatherer may be nil.
type Deps struct {
	Config    *config.Config
	Log       logrus.FieldLogger
	Table     tables.Table
	Blacklist services.TokenBlacklist
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := pages.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	router := gin.New()
	// Client IPs key the login rate limit.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.SetHTMLTemplate(tmpl)
	router.Use(gin.Recovery(), middlewares.RequestLogger(d.Log), middlewares.Metrics(d.Metrics))
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Dependency injection
	userRepo := repositories.NewUserRepository(d.Table, cfg.UsersSheet, d.Log)
	commentRepo := repositories.NewCommentRepository(d.Table, cfg.CommentsSheet, d.Log)

	authService := services.NewAuthService(userRepo, d.Blacklist, []byte(cfg.JWTSecret), cfg.SessionTTL, d.Log)
	commentService := services.NewCommentService(commentRepo, d.Log)

	h := routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService, cfg.CookieSecure),
		Comment: handlers.NewCommentHandler(commentService),
		Admin:   handlers.NewAdminHandler(commentService),
		Page:    handlers.NewPageHandler(cfg.GoogleClientID != ""),
	}
	if cfg.GoogleClientID != "" {
		googleService := services.NewGoogleAuthService(config.OAuthConfig(cfg), userRepo, authService, d.Log)
		h.GoogleAuth = handlers.NewGoogleAuthHandler(googleService, cfg.CookieSecure)
	}
	if cfg.EnableDebugRoutes {
		h.Debug = handlers.NewDebugHandler(d.Table, userRepo, commentService)
	}

	limiter := middlewares.NewRateLimiter(cfg.LoginRatePerMinute, d.Log)
	routes.RegisterRoutes(router, h, authService, limiter)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": d.Table.Name()})
	})
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	return router, nil
}
