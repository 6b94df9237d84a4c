// Package web provides the Wanderlust web server: routing, templates,
// sessions, static assets and background jobs.
package web

import (
	"context"
	"crypto/tls"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/wanderlust/wanderlust/caching"
	"github.com/wanderlust/wanderlust/config"
	"github.com/wanderlust/wanderlust/database"
	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/util/common"
	"github.com/wanderlust/wanderlust/web/cache"
	"github.com/wanderlust/wanderlust/web/controller"
	"github.com/wanderlust/wanderlust/web/job"
	"github.com/wanderlust/wanderlust/web/locale"
	"github.com/wanderlust/wanderlust/web/middleware"
	"github.com/wanderlust/wanderlust/web/network"
	"github.com/wanderlust/wanderlust/web/service"
	"github.com/wanderlust/wanderlust/web/session"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var startTime = time.Now()

const (
	shutdownTimeout = 10 * time.Second
	assetsMaxAge    = 24 * time.Hour
)

// wrapAssetsFS serves the embedded assets/ directory with a fixed
// modification time so browsers can cache across restarts of one build.
type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

type wrapAssetsFileInfo struct {
	fs.FileInfo
}

func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// Server owns the listener, the store, the redis connection and the cron
// scheduler for one run of the application.
type Server struct {
	cfg *config.Config

	httpServer *http.Server
	listener   net.Listener

	store database.Store
	redis *cache.Redis

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{cfg: cfg, ctx: ctx, cancel: cancel}
}

// getHtmlFiles walks the local `web/html` directory and returns a list of
// template file paths. Used only in debug/development mode.
func getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	dir, _ := os.Getwd()
	err := fs.WalkDir(os.DirFS(dir), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// getHtmlTemplate parses embedded HTML templates from the bundled `htmlFS`.
func getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			newT, err := t.ParseFS(htmlFS, path+"/*.html")
			if err != nil {
				// ignore folders without matches
				return nil
			}
			t = newT
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// newSessionStore picks the session backend named in the configuration.
func newSessionStore(cfg *config.Config, store database.Store, redisClient *redis.Client) *cache.SessionStore {
	var backend cache.SessionBackend = store
	if cfg.SessionStore == config.SessionStoreRedis && redisClient != nil {
		backend = cache.NewRedisBackend(redisClient)
	}
	sessionStore := cache.NewSessionStore(backend, cache.KeyPairs(cfg.Secret)...)
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge / time.Second),
		HttpOnly: true,
		Secure:   cfg.CertFile != "",
		SameSite: http.SameSiteLaxMode,
	})
	return sessionStore
}

// NewHandler wires services, controllers and middleware over the given
// store and returns the root handler of the site. redisClient may be nil,
// which disables rate limiting.
func NewHandler(cfg *config.Config, store database.Store, redisClient *redis.Client) (http.Handler, error) {
	engine, err := newRouter(cfg, store, redisClient)
	if err != nil {
		return nil, err
	}
	return middleware.MethodOverride(engine), nil
}

func newRouter(cfg *config.Config, store database.Store, redisClient *redis.Client) (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}

	userService := service.NewUserService(store, caching.NewCache(0), cfg.BcryptCost)
	listingService := service.NewListingService(store)
	reviewService := service.NewReviewService(store)

	engine := gin.New()
	if config.IsDebug() {
		engine.Use(gin.Logger())
	}
	if cfg.Domain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(cfg.Domain))
	}
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(sessions.Sessions(session.CookieName, newSessionStore(cfg, store, redisClient)))
	engine.Use(locale.LocalizerMiddleware())
	engine.Use(controller.ErrorHandler())
	engine.Use(controller.Recovery())
	engine.Use(middleware.CurrentUser(userService))

	funcMap := controller.FuncMap()
	engine.SetFuncMap(funcMap)

	// Static files & templates
	assets := engine.Group("/assets", middleware.CacheControl(assetsMaxAge))
	if config.IsDebug() {
		files, err := getHtmlFiles()
		if err != nil {
			return nil, err
		}
		engine.LoadHTMLFiles(files...)
		assets.StaticFS("/", http.FS(os.DirFS("web/assets")))
	} else {
		tpl, err := getHtmlTemplate(funcMap)
		if err != nil {
			return nil, err
		}
		engine.SetHTMLTemplate(tpl)
		assets.StaticFS("/", http.FS(&wrapAssetsFS{FS: assetsFS}))
	}

	var limiter gin.HandlerFunc
	if redisClient != nil && cfg.LoginRateLimit > 0 {
		limiter = middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig(redisClient, cfg.LoginRateLimit))
	}

	g := engine.Group("/")
	controller.NewUserController(g, userService, limiter)
	controller.NewListingController(g, listingService)
	controller.NewReviewController(g, reviewService, cfg.ReviewsRequireLogin)

	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/listings")
	})

	engine.NoRoute(controller.NotFound)

	return engine, nil
}

// startTask schedules background jobs.
func (s *Server) startTask() {
	if _, err := s.cron.AddJob("@hourly", job.NewClearSessionsJob(s.store)); err != nil {
		logger.Warning("Add NewClearSessionsJob error", err)
	}
}

// Start opens the store and redis, then starts serving.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.store, err = database.Open(s.ctx, s.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	s.redis, err = cache.NewRedis(s.ctx, s.cfg.RedisAddr)
	if err != nil {
		return err
	}
	if s.redis.IsEmbedded() && s.cfg.SessionStore == config.SessionStoreRedis {
		logger.Warning("sessions are kept in embedded Redis and will not survive a restart")
	}

	handler, err := NewHandler(s.cfg, s.store, s.redis.Client())
	if err != nil {
		return err
	}

	s.cron = cron.New()
	s.cron.Start()

	listenAddr := net.JoinHostPort(s.cfg.Listen, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	if s.cfg.CertFile != "" || s.cfg.KeyFile != "" {
		if cert, err := tls.LoadX509KeyPair(s.cfg.CertFile, s.cfg.KeyFile); err == nil {
			c := &tls.Config{Certificates: []tls.Certificate{cert}}
			listener = network.NewHTTPSRedirectListener(listener)
			listener = tls.NewListener(listener, c)
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("serve:", err)
		}
	}()

	s.startTask()

	return nil
}

// Stop shuts the server down and releases the store and redis.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}

	var errs []error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errs = append(errs, s.httpServer.Shutdown(ctx))
	} else if s.listener != nil {
		errs = append(errs, s.listener.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return common.Combine(errs...)
}
