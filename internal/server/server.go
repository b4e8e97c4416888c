package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Anton0729/ToDo-List-Project/internal/auth"
	"github.com/Anton0729/ToDo-List-Project/internal/storage/sqlite"
)

// Server provides HTTP handlers for the to-do list backend.
type Server struct {
	engine *gin.Engine
	store  *sqlite.Store
	logger *slog.Logger
	auth   *auth.Authenticator
	codec  *auth.Codec
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, logger *slog.Logger, authn *auth.Authenticator, codec *auth.Codec) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine: router,
		store:  store,
		logger: logger,
		auth:   authn,
		codec:  codec,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires the public auth endpoints and the token-protected
// task endpoints together.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	authGroup := s.engine.Group("/auth")
	{
		authGroup.POST("/signup", s.handleSignup)
		authGroup.POST("/token", s.handleLogin)
	}

	tasks := s.engine.Group("/tasks", auth.RequireAuth(s.store, s.codec))
	{
		tasks.GET("/", s.handleListMyTasks)
		tasks.GET("/all", s.handleListAllTasks)
		tasks.GET("/:id", s.handleGetTask)
		tasks.POST("/", s.handleCreateTask)
		tasks.PUT("/:id", s.handleUpdateTask)
		tasks.DELETE("/:id", s.handleDeleteTask)
		tasks.PUT("/:id/complete", s.handleCompleteTask)
	}
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError logs the error and returns the detail envelope the API uses
// for every failure.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"detail": err.Error()})
}
