package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/flowgen-backend/internal/http/response"
	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen"
	"github.com/yungbote/flowgen-backend/internal/platform/apierr"
	"github.com/yungbote/flowgen-backend/internal/platform/ctxutil"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

type WorkflowGenerator interface {
	Generate(ctx context.Context, req workflowgen.GenerationRequest) (workflowgen.GenerationResult, error)
}

type WorkflowHandler struct {
	log *logger.Logger
	gen WorkflowGenerator
}

func NewWorkflowHandler(log *logger.Logger, gen WorkflowGenerator) *WorkflowHandler {
	return &WorkflowHandler{log: log.With("handler", "WorkflowHandler"), gen: gen}
}

type generateWorkflowRequest struct {
	Prompt           string `json:"prompt"`
	ExistingWorkflow any    `json:"existingWorkflow"`
}

// POST /api/ai/workflow
func (h *WorkflowHandler) GenerateWorkflow(c *gin.Context) {
	var req generateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidBody, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		response.RespondError(c, http.StatusBadRequest, apierr.CodePromptRequired, workflowgen.ErrPromptRequired)
		return
	}

	ctx := c.Request.Context()
	res, err := h.gen.Generate(ctx, workflowgen.GenerationRequest{
		Prompt:           req.Prompt,
		ExistingWorkflow: req.ExistingWorkflow,
	})
	if err != nil {
		ae := mapGenerateError(err)
		h.log.Error("Workflow generation failed", append(ctxutil.LogFields(ctx), "code", ae.Code, "error", err)...)
		response.RespondAPIError(c, ae)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "suggestion": res})
}

// mapGenerateError checks cancellation before chain exhaustion: a cancelled
// stage still surfaces wrapped in a *ChainError.
func mapGenerateError(err error) *apierr.Error {
	var chainErr *workflowgen.ChainError
	switch {
	case errors.Is(err, workflowgen.ErrPromptRequired):
		return apierr.New(http.StatusBadRequest, apierr.CodePromptRequired, err)
	case errors.Is(err, workflowgen.ErrModelNotConfigured):
		return apierr.New(http.StatusInternalServerError, apierr.CodeModelNotConfigured, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusGatewayTimeout, apierr.CodeGenerationFailed, err)
	case errors.As(err, &chainErr):
		return apierr.New(http.StatusBadGateway, apierr.CodeGenerationFailed, err)
	default:
		return apierr.From(err)
	}
}
