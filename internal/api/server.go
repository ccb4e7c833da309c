// Package api exposes the assessment pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tumorboard/tumorboard/internal/domain"
	"github.com/tumorboard/tumorboard/internal/engine"
	"github.com/tumorboard/tumorboard/internal/history"
	"github.com/tumorboard/tumorboard/internal/middleware"
)

// Version is the reported service version.
const Version = "1.0.0"

// HistoryReader is the read-only history surface the server exposes.
type HistoryReader interface {
	List(ctx context.Context, limit, offset int) ([]*history.Entry, error)
	Count(ctx context.Context) (int64, error)
}

// Server serves the assessment API.
type Server struct {
	config  domain.ServerConfig
	engine  *engine.Engine
	history HistoryReader
	logger  *logrus.Logger
	router  *gin.Engine
	server  *http.Server
}

// NewServer creates the HTTP server. history may be nil when the history
// store is disabled.
func NewServer(config *domain.Config, assessmentEngine *engine.Engine, historyStore HistoryReader, logger *logrus.Logger) *Server {
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))

	server := &Server{
		config:  config.Server,
		engine:  assessmentEngine,
		history: historyStore,
		logger:  logger,
		router:  router,
	}
	server.setupRoutes()

	return server
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.logger.WithField("addr", addr).Info("HTTP server started")

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assess", s.handleAssess)
		v1.POST("/assess/batch", s.handleBatchAssess)
		v1.GET("/history", s.handleHistory)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   Version,
	})
}

func (s *Server) handleAssess(c *gin.Context) {
	var input domain.VariantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := input.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment, err := s.engine.AssessVariant(c.Request.Context(), input)
	if err != nil {
		s.logger.WithError(err).Error("Assessment request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, assessment)
}

type batchRequest struct {
	Variants []domain.VariantInput `json:"variants"`
}

func (s *Server) handleBatchAssess(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Variants) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "variants list is empty"})
		return
	}
	for _, input := range req.Variants {
		if err := input.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("variant %s: %v", input.Label(), err)})
			return
		}
	}

	outcome, err := s.engine.BatchAssess(c.Request.Context(), req.Variants)
	if err != nil {
		s.logger.WithError(err).Error("Batch assessment request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	failed := make([]gin.H, 0, len(outcome.Failed))
	for _, failure := range outcome.Failed {
		failed = append(failed, gin.H{
			"gene":    failure.Input.Gene,
			"variant": failure.Input.Variant,
			"error":   failure.Err.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"assessments":       outcome.Assessments,
		"failed":            failed,
		"tier_distribution": outcome.TierDistribution(),
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history store is disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	entries, err := s.history.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("History listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}
	total, err := s.history.Count(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("History count failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}

	if entries == nil {
		entries = []*history.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"entries": entries,
	})
}
