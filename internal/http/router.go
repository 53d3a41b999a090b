package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/flowgen-backend/internal/http/handlers"
	httpMW "github.com/yungbote/flowgen-backend/internal/http/middleware"
	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log           *logger.Logger
	Metrics       *observability.Metrics
	ServiceName   string
	AllowedOrigin string

	WorkflowHandler *httpH.WorkflowHandler
	PromptsHandler  *httpH.PromptsHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = observability.DefaultServiceName
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigin))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	ai := r.Group("/api/ai")
	{
		if cfg.WorkflowHandler != nil {
			ai.POST("/workflow", cfg.WorkflowHandler.GenerateWorkflow)
		}
		if cfg.PromptsHandler != nil {
			ai.GET("/prompts", cfg.PromptsHandler.ListPrompts)
		}
	}

	return r
}
