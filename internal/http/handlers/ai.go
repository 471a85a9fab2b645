package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/http/response"
	"github.com/yungbote/formcraft-backend/internal/modules/formgen"
	"github.com/yungbote/formcraft-backend/internal/platform/apierr"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type AIHandler struct {
	log *logger.Logger
	ai  formgen.Service
}

func NewAIHandler(log *logger.Logger, ai formgen.Service) *AIHandler {
	return &AIHandler{log: log.With("handler", "AIHandler"), ai: ai}
}

// GET /api/ai/status
func (h *AIHandler) Status(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"available": h.ai.Available(),
		"provider":  h.ai.ProviderName(),
	})
}

// POST /api/ai/forms/generate
func (h *AIHandler) Generate(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var req struct {
		Prompt   string `json:"prompt"`
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("prompt is required"))
		return
	}
	response.RespondOK(c, h.ai.GenerateForms(c.Request.Context(), req.Prompt, req.Language))
}

// POST /api/ai/forms/refine
func (h *AIHandler) Refine(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var req struct {
		Form        forms.GeneratedForm `json:"form"`
		Instruction string              `json:"instruction"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("instruction is required"))
		return
	}
	form, err := h.ai.RefineForm(c.Request.Context(), req.Form, req.Instruction)
	if errors.Is(err, formgen.ErrRefinementFailed) {
		h.log.Warn("Refinement failed", "error", err)
		response.RespondAPIError(c, errRefinementFailed)
		return
	}
	if err != nil {
		respondServiceError(c, h.log, "Refine", err)
		return
	}
	response.RespondOK(c, gin.H{"form": form})
}

var errRefinementFailed = apierr.New(http.StatusBadGateway, "refinement_failed", errors.New("Failed to refine form with AI."))

// POST /api/ai/forms/translate
func (h *AIHandler) Translate(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var req struct {
		Form           forms.GeneratedForm `json:"form"`
		TargetLanguage string              `json:"target_language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("target_language is required"))
		return
	}
	response.RespondOK(c, gin.H{"form": h.ai.TranslateForm(c.Request.Context(), req.Form, req.TargetLanguage)})
}
