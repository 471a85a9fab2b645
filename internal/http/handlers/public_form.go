package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/http/response"
	"github.com/yungbote/formcraft-backend/internal/modules/formrender"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/services"
)

// multipartOverhead is the slack allowed on top of the file size for boundaries and headers.
const multipartOverhead = 1 << 20

// PublicFormHandler serves published forms to respondents. None of its routes need a
// session.
type PublicFormHandler struct {
	log         *logger.Logger
	forms       services.FormService
	submissions services.SubmissionService
	uploads     services.UploadService
}

func NewPublicFormHandler(
	log *logger.Logger,
	formService services.FormService,
	submissionService services.SubmissionService,
	uploadService services.UploadService,
) *PublicFormHandler {
	return &PublicFormHandler{
		log:         log.With("handler", "PublicFormHandler"),
		forms:       formService,
		submissions: submissionService,
		uploads:     uploadService,
	}
}

// GET /form/:id, GET /api/public/forms/:id
func (h *PublicFormHandler) GetForm(c *gin.Context) {
	formID, ok := pathID(c, "invalid_form_id")
	if !ok {
		return
	}
	form, err := h.forms.GetPublishedForm(c.Request.Context(), formID)
	if err != nil {
		respondServiceError(c, h.log, "Public form", err)
		return
	}
	response.RespondOK(c, gin.H{"form": form})
}

// POST /api/public/forms/:id/submissions
func (h *PublicFormHandler) Submit(c *gin.Context) {
	formID, ok := pathID(c, "invalid_form_id")
	if !ok {
		return
	}
	var req struct {
		Data           forms.SubmissionData `json:"data"`
		CompletionTime *float64             `json:"completion_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Data == nil {
		req.Data = forms.SubmissionData{}
	}
	ctx := c.Request.Context()
	form, err := h.forms.GetPublishedForm(ctx, formID)
	if err != nil {
		respondServiceError(c, h.log, "Public form", err)
		return
	}
	if verrs := formrender.Validate(form, req.Data); verrs != nil {
		response.RespondValidation(c, verrs)
		return
	}
	rec, err := h.submissions.SaveSubmission(ctx, formID, req.Data, req.CompletionTime)
	if err != nil {
		respondServiceError(c, h.log, "Save submission", err)
		return
	}
	response.RespondCreated(c, gin.H{"submission": rec})
}

// POST /api/public/forms/:id/uploads (multipart field "file")
func (h *PublicFormHandler) Upload(c *gin.Context) {
	if h.uploads == nil || !h.uploads.Enabled() {
		response.RespondAPIError(c, services.ErrUploadsDisabled)
		return
	}
	formID, ok := pathID(c, "invalid_form_id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadBytes+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.RespondAPIError(c, services.ErrFileTooLarge)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer f.Close()

	url, err := h.uploads.UploadFile(c.Request.Context(), formID, fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		respondServiceError(c, h.log, "Upload", err)
		return
	}
	response.RespondCreated(c, gin.H{"url": url})
}
