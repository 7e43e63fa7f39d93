package api

import (
	"context"
	"net/http"
	"time"

	"hotelops/internal/board"
	"hotelops/internal/common"
	"hotelops/internal/extraction"
	"hotelops/internal/models"
	"hotelops/internal/monitoring"
	"hotelops/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Publisher receives every outcome produced by a request.
type Publisher interface {
	Publish(topic string, outcome common.Outcome)
}

// MenuBackend saves and lists menu items. The gorm store and the remote
// client both satisfy it.
type MenuBackend interface {
	extraction.RecordSink
	ListCategories(ctx context.Context) ([]extraction.CategoryRef, error)
	ListMenuItems(ctx context.Context) ([]store.MenuItem, error)
}

// TaskBackend serves the raw task routes.
type TaskBackend interface {
	board.TaskSource
	board.Roster
	Events(ctx context.Context, taskID string) ([]models.TaskEvent, error)
}

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Menu      MenuBackend
	Tasks     TaskBackend
	Board     *board.Board
	Extractor extraction.Extractor
	Metrics   *monitoring.MetricsCollector
	Publisher Publisher
	Logger    *zap.Logger

	// Stream serves the outcome websocket; nil disables /ws.
	Stream gin.HandlerFunc

	JWTSecret     string
	SessionTTL    time.Duration
	MenuCacheTTL  time.Duration
	UploadLimits  extraction.UploadLimits
	LowConfidence float64
}

// Server is the hotelops HTTP API.
type Server struct {
	Router *gin.Engine

	deps     Deps
	log      *zap.Logger
	sessions *SessionStore
	menu     *MenuCache
	batcher  *extraction.Batcher
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetricsCollector(nil)
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 30 * time.Minute
	}
	if deps.MenuCacheTTL <= 0 {
		deps.MenuCacheTTL = 5 * time.Minute
	}
	log := deps.Logger.Named("api")

	router := gin.New()
	router.Use(RequestID(), RequestLogger(log), Recovery(log))

	s := &Server{
		Router:   router,
		deps:     deps,
		log:      log,
		sessions: NewSessionStore(deps.SessionTTL, log, deps.Metrics.SetSessionsOpen),
		menu:     NewMenuCache(deps.MenuCacheTTL),
	}
	s.batcher = extraction.NewBatcher(deps.Menu, s.menu, deps.Metrics, deps.Logger.Named("commit"))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "hotelops API is running"})
	})
	auth := AuthMiddleware(s.deps.JWTSecret)
	if s.deps.Stream != nil {
		s.Router.GET("/ws", auth, s.deps.Stream)
	}

	v1 := s.Router.Group("/api/v1")
	{
		v1.GET("/stats", s.GetStats)

		menu := v1.Group("/menu")
		menu.GET("/items", s.ListMenuItems)
		menu.GET("/categories", s.ListCategories)

		manager := v1.Group("", auth)
		manager.POST("/menu/items", s.CreateMenuItem)

		sessions := manager.Group("/extraction/sessions")
		sessions.POST("", s.CreateSession)
		sessions.GET("/:id", s.GetSession)
		sessions.DELETE("/:id", s.DeleteSession)
		sessions.POST("/:id/image", s.SubmitImage)
		sessions.POST("/:id/url", s.SubmitURL)
		sessions.POST("/:id/selection/:index/toggle", s.ToggleCandidate)
		sessions.POST("/:id/selection/all", s.SelectAll)
		sessions.POST("/:id/selection/none", s.SelectNone)
		sessions.POST("/:id/candidates/:index/edit", s.StartEdit)
		sessions.POST("/:id/candidates/:index/cancel", s.CancelEdit)
		sessions.PUT("/:id/candidates/:index", s.SaveEdit)
		sessions.DELETE("/:id/candidates/:index", s.DeleteCandidate)
		sessions.POST("/:id/regenerate", s.Regenerate)
		sessions.POST("/:id/commit", s.Commit)
		sessions.POST("/:id/retry", s.RetryFailed)
		sessions.POST("/:id/reset", s.ResetSession)

		tasks := manager.Group("/tasks")
		tasks.GET("", s.ListTasks)
		tasks.POST("", s.CreateTask)
		tasks.POST("/:id/assign", s.AssignTask)
		tasks.POST("/:id/cancel", s.CancelTask)
		tasks.GET("/:id/events", s.ListTaskEvents)
		manager.GET("/staff", s.ListStaff)

		b := manager.Group("/board")
		b.GET("", s.GetBoard)
		b.GET("/:id/candidates", s.GetCandidates)
		b.POST("/:id/assign", s.BoardAssign)
		b.POST("/:id/unassign", s.BoardUnassign)
		b.POST("/tasks", s.BoardCreateTask)
		b.POST("/auto-assign", s.AutoAssign)
	}
}

// GetStats returns the monitor snapshot.
func (s *Server) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Metrics.Monitor().GetMetrics())
}

func (s *Server) publish(topic string, outcome common.Outcome) {
	s.deps.Metrics.Monitor().RecordOutcome(topic, outcome)
	if s.deps.Publisher != nil {
		s.deps.Publisher.Publish(topic, outcome)
	}
}
