package app

import (
	"github.com/yungbote/flowgen-backend/internal/catalog"
	apphttp "github.com/yungbote/flowgen-backend/internal/http"
	httpH "github.com/yungbote/flowgen-backend/internal/http/handlers"
	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen"
	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Workflow *httpH.WorkflowHandler
	Prompts  *httpH.PromptsHandler
}

func wireHandlers(log *logger.Logger, workflows workflowgen.Usecases, samples []catalog.Sample) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Workflow: httpH.NewWorkflowHandler(log, workflows),
		Prompts:  httpH.NewPromptsHandler(workflows, samples),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		AllowedOrigin:   cfg.AllowedOrigin,
		WorkflowHandler: handlers.Workflow,
		PromptsHandler:  handlers.Prompts,
		HealthHandler:   handlers.Health,
	})
}
