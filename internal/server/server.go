// Package server is the todod HTTP backend.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/store"
)

type Options struct {
	Store    store.Store
	Users    []config.User
	Secret   []byte
	TokenTTL time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

type Server struct {
	store    store.Store
	users    map[string]config.User
	secret   []byte
	ttl      time.Duration
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
	validate *validator.Validate
	engine   *gin.Engine
}

func New(opt Options) *Server {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.NewID == nil {
		opt.NewID = uuid.NewString
	}
	if opt.TokenTTL <= 0 {
		opt.TokenTTL = 72 * time.Hour
	}
	s := &Server{
		store:    opt.Store,
		users:    make(map[string]config.User, len(opt.Users)),
		secret:   opt.Secret,
		ttl:      opt.TokenTTL,
		log:      opt.Logger,
		now:      opt.Now,
		newID:    opt.NewID,
		validate: validator.New(),
	}
	for _, u := range opt.Users {
		s.users[u.Name] = u
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), countRequests())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/auth/login", s.login)

	todos := api.Group("/todos", s.requireAuth())
	todos.GET("", s.listTodos)
	todos.POST("", s.createTodo)
	todos.POST("/:id/toggle", s.toggleTodo)
	todos.DELETE("/completed", s.deleteCompleted)
	return r
}

// Handler is the engine wrapped in the access log.
func (s *Server) Handler() http.Handler { return accessLog(s.log, s.engine) }

// Serve runs until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
