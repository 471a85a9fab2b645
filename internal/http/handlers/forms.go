package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/http/response"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/services"
)

type FormHandler struct {
	log         *logger.Logger
	forms       services.FormService
	submissions services.SubmissionService
	analytics   services.AnalyticsService
}

func NewFormHandler(
	log *logger.Logger,
	formService services.FormService,
	submissionService services.SubmissionService,
	analyticsService services.AnalyticsService,
) *FormHandler {
	return &FormHandler{
		log:         log.With("handler", "FormHandler"),
		forms:       formService,
		submissions: submissionService,
		analytics:   analyticsService,
	}
}

// GET /api/forms
func (h *FormHandler) ListForms(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.forms.GetUserForms(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.log, "List forms", err)
		return
	}
	response.RespondOK(c, gin.H{"forms": list})
}

// POST /api/forms
func (h *FormHandler) CreateForm(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var form forms.GeneratedForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	saved, err := h.forms.SaveForm(c.Request.Context(), userID, form)
	if err != nil {
		respondServiceError(c, h.log, "Save form", err)
		return
	}
	response.RespondCreated(c, gin.H{"form": saved})
}

// GET /api/forms/:id
func (h *FormHandler) GetForm(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	formID, ok := pathID(c, "invalid_form_id")
	if !ok {
		return
	}
	form, err := h.forms.GetFormByID(c.Request.Context(), userID, formID)
	if err != nil {
		respondServiceError(c, h.log, "Get form", err)
		return
	}
	response.RespondOK(c, gin.H{"form": form})
}

// PUT /api/forms/:id
func (h *FormHandler) UpdateForm(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	formID, ok := pathID(c, "invalid_form_id")
	if !ok {
		return
	}
	var form forms.GeneratedForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updated, err := h.forms.UpdateForm(c.Request.Context(), userID, formID, form)
	if err != nil {
		respondServiceError(c, h.log, "Update form", err)
		return
	}
	response.RespondOK(c, gin.H{"form": updated})
}

// DELETE /api/forms/:id
func (h *FormHandler) DeleteForm(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	formID, ok := pathID(c, "invalid_form_id")
	if !ok {
		return
	}
	if err := h.forms.DeleteForm(c.Request.Context(), userID, formID); err != nil {
		respondServiceError(c, h.log, "Delete form", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/forms/:id/publish
func (h *FormHandler) PublishForm(c *gin.Context) {
	h.setPublished(c, true)
}

// POST /api/forms/:id/unpublish
func (h *FormHandler) UnpublishForm(c *gin.Context) {
	h.setPublished(c, false)
}

func (h *FormHandler) setPublished(c *gin.Context, publish bool) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	formID, ok := pathID(c, "invalid_form_id")
	if !ok {
		return
	}
	var (
		form forms.GeneratedForm
		err  error
	)
	if publish {
		form, err = h.forms.PublishForm(c.Request.Context(), userID, formID)
	} else {
		form, err = h.forms.UnpublishForm(c.Request.Context(), userID, formID)
	}
	if err != nil {
		respondServiceError(c, h.log, "Set published", err)
		return
	}
	response.RespondOK(c, gin.H{"form": form})
}

// GET /api/forms/published-ids
func (h *FormHandler) PublishedIDs(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ids, err := h.forms.GetPublishedFormIDs(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.log, "Published ids", err)
		return
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	response.RespondOK(c, gin.H{"ids": out})
}

// GET /api/forms/:id/submissions
func (h *FormHandler) ListSubmissions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	formID, ok := pathID(c, "invalid_form_id")
	if !ok {
		return
	}
	list, err := h.submissions.GetFormSubmissions(c.Request.Context(), userID, formID)
	if err != nil {
		respondServiceError(c, h.log, "List submissions", err)
		return
	}
	response.RespondOK(c, gin.H{"submissions": list})
}

// GET /api/forms/:id/analytics?refresh=true
func (h *FormHandler) GetAnalytics(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	formID, ok := pathID(c, "invalid_form_id")
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(c.Query("refresh"))
	res, err := h.analytics.GetAnalytics(c.Request.Context(), userID, formID, force)
	if err != nil {
		respondServiceError(c, h.log, "Analytics", err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/forms/:id/insights
func (h *FormHandler) AskInsights(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	formID, ok := pathID(c, "invalid_form_id")
	if !ok {
		return
	}
	var req struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	answer, err := h.analytics.AskInsights(c.Request.Context(), userID, formID, req.Question)
	if err != nil {
		respondServiceError(c, h.log, "Insights", err)
		return
	}
	response.RespondOK(c, gin.H{"answer": answer})
}

// GET /api/stats
func (h *FormHandler) Stats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	stats, err := h.forms.GetAggregatedStats(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.log, "Stats", err)
		return
	}
	response.RespondOK(c, stats)
}
