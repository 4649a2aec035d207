// Package httpapi wires C10's gin server: route registration, the
// Prometheus exposition endpoint, and graceful start/stop, mirroring
// the teacher's interfaces/http.Server.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chriscoletech/qwen-gateway/internal/credentials"
	"github.com/chriscoletech/qwen-gateway/internal/httpapi/handlers"
	"github.com/chriscoletech/qwen-gateway/internal/httpapi/middleware"
	"github.com/chriscoletech/qwen-gateway/internal/orchestrator"
	"github.com/chriscoletech/qwen-gateway/internal/relay"
	"github.com/chriscoletech/qwen-gateway/internal/sessionstore"
	"github.com/chriscoletech/qwen-gateway/internal/domain/repository"
)

// Server is the gateway's HTTP surface.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Deps bundles everything setupRoutes needs, to keep New's signature
// manageable as the handler set grows.
type Deps struct {
	Orchestrator   *orchestrator.Orchestrator
	Relay          *relay.Relay
	Sessions       *sessionstore.Store
	SessionsQuery  repository.SessionQueryRepository
	Requests       repository.RequestRepository
	Responses      repository.ResponseRepository
	Credentials    *credentials.Holder
	Logger         *zap.Logger
	TrustedProxies []string
	ReleaseMode    bool
}

// New builds the gin engine and wraps it in an http.Server listening
// on port.
func New(port int, deps Deps) *Server {
	if deps.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.ZapLogger(deps.Logger))
	_ = router.SetTrustedProxies(deps.TrustedProxies)

	openaiHandler := handlers.NewOpenAIHandler(deps.Orchestrator, deps.Relay, deps.Logger)
	auditHandler := handlers.NewAuditHandler(deps.Sessions, deps.SessionsQuery, deps.Requests, deps.Responses, deps.Logger)

	router.GET("/health", handlers.Health(deps.Credentials.TokenPreview(), deps.Credentials.CookiePreview()))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/chat/completions", openaiHandler.ChatCompletions)
		v1.GET("/models", openaiHandler.ListModels)
		v1.GET("/models/:id", openaiHandler.GetModel)

		v1.GET("/sessions", auditHandler.ListSessions)
		v1.GET("/sessions/:id", auditHandler.GetSession)
		v1.DELETE("/sessions/:id", auditHandler.DeleteSession)
		v1.GET("/sessions/:id/stats", auditHandler.UsageStats)
		v1.GET("/sessions/:id/requests", auditHandler.ListSessionRequests)

		v1.GET("/requests", auditHandler.ListRequests)
		v1.GET("/requests/:id", auditHandler.GetRequest)
		v1.GET("/requests/:id/response", auditHandler.GetRequestResponse)

		v1.GET("/responses/stats", auditHandler.GlobalUsageStats)
		v1.GET("/responses", auditHandler.ListResponses)
		v1.GET("/responses/:id", auditHandler.GetResponse)
	}

	return &Server{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		},
		logger: deps.Logger,
	}
}

// Start begins serving in the background.
func (s *Server) Start() {
	s.logger.Info("starting http server", zap.String("addr", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()
}

// Shutdown drains in-flight requests within ctx's deadline, per the
// graceful shutdown draining supplemented feature (spec.md §7).
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
