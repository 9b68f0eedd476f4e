package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/budgyapp/budgy-backend/internal/auth"
	"github.com/budgyapp/budgy-backend/internal/common"
	"github.com/budgyapp/budgy-backend/internal/export"
	"github.com/budgyapp/budgy-backend/internal/receipts"
)

const serviceName = "budgy-backend"

// Server wires the HTTP surface over the receipt service.
type Server struct {
	engine   *gin.Engine
	service  *receipts.Service
	exporter *export.Service
	verifier *auth.Verifier
	logger   *slog.Logger
}

// New builds the router with CORS, rate limiting, and bearer auth on /api.
func New(service *receipts.Service, exporter *export.Service, verifier *auth.Verifier, cfg *common.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine:   gin.New(),
		service:  service,
		exporter: exporter,
		verifier: verifier,
		logger:   logger,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	api.Use(RateLimit(cfg.RateLimit, time.Now))
	api.Use(s.requireAuth())
	{
		api.POST("/process-receipt", s.handleProcessReceipt)

		api.GET("/receipts", s.handleListReceipts)
		api.GET("/receipts/export", s.handleExportReceipts)
		api.GET("/receipts/:id", s.handleGetReceipt)
		api.PUT("/receipts/:id", s.handleUpdateReceipt)
		api.DELETE("/receipts/:id", s.handleDeleteReceipt)

		api.GET("/budget", s.handleGetBudget)
		api.PUT("/budget", s.handleSetBudget)
	}

	return s
}

// Handler exposes the engine for serving and for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
	})
}

// statusFor maps failure kinds onto wire codes. The mapping lives here only;
// services never see HTTP.
func statusFor(kind common.Kind) int {
	switch kind {
	case common.KindUnauthenticated:
		return http.StatusUnauthorized
	case common.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case common.KindInvalidInput, common.KindGenerationParseFailure:
		return http.StatusBadRequest
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindGenerationFailure, common.KindStoreFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	kind := common.KindOf(err)
	desc := common.Describe(kind)
	status := statusFor(kind)

	body := gin.H{
		"error":     desc.Message,
		"retryable": desc.Retryable,
	}
	if desc.Suggestion != "" {
		body["suggestion"] = desc.Suggestion
	}
	if status >= 500 {
		body["details"] = err.Error()
	}

	if status >= 500 {
		s.logger.Error("http.request_failed", "kind", string(kind), "error", err)
	} else {
		s.logger.Info("http.request_rejected", "kind", string(kind), "error", err)
	}
	c.JSON(status, body)
}
