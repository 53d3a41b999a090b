package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/flowgen-backend/internal/catalog"
	"github.com/yungbote/flowgen-backend/internal/http/response"
	"github.com/yungbote/flowgen-backend/internal/platform/apierr"
)

const maxPromptLimit = 50

var errInvalidLimit = errors.New("limit must be a positive integer")

type PromptLister interface {
	PromptExamples(samples []catalog.Sample, limit int) []catalog.PromptExample
}

type PromptsHandler struct {
	lister  PromptLister
	samples []catalog.Sample
}

func NewPromptsHandler(lister PromptLister, samples []catalog.Sample) *PromptsHandler {
	return &PromptsHandler{lister: lister, samples: samples}
}

// GET /api/ai/prompts?limit=N
func (h *PromptsHandler) ListPrompts(c *gin.Context) {
	limit := catalog.DefaultPromptLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidBody, errInvalidLimit)
			return
		}
		limit = min(n, maxPromptLimit)
	}
	prompts := h.lister.PromptExamples(h.samples, limit)
	response.RespondOK(c, gin.H{"prompts": prompts, "count": len(prompts)})
}
