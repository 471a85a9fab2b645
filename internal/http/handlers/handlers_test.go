package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/formcraft-backend/internal/data/repos"
	"github.com/yungbote/formcraft-backend/internal/data/repos/testutil"
	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/http/response"
	"github.com/yungbote/formcraft-backend/internal/modules/formgen"
	"github.com/yungbote/formcraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/formcraft-backend/internal/services"
)

type harness struct {
	engine *gin.Engine
	t      *testing.T
}

// asUser stands in for the auth middleware.
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != uuid.Nil {
			ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func newHarness(t *testing.T, userID uuid.UUID, ai formgen.Service) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	formRepo := repos.NewFormRepo(db, log)
	submissionRepo := repos.NewSubmissionRepo(db, log)
	cacheRepo := repos.NewAnalyticsCacheRepo(db, log)
	if ai == nil {
		ai = formgen.New(log, nil)
	}

	formSvc := services.NewFormService(db, log, formRepo, submissionRepo, cacheRepo)
	submissionSvc := services.NewSubmissionService(log, formRepo, submissionRepo)
	analyticsSvc := services.NewAnalyticsService(log, time.Hour, formRepo, submissionRepo, cacheRepo, ai)
	convSvc := services.NewConversationService(log, repos.NewConversationRepo(db, log), repos.NewChatMessageRepo(db, log), formSvc, ai)

	fh := NewFormHandler(log, formSvc, submissionSvc, analyticsSvc)
	ph := NewPublicFormHandler(log, formSvc, submissionSvc, services.NewUploadService(log, nil, formSvc))
	ah := NewAIHandler(log, ai)
	ch := NewConversationHandler(log, convSvc)

	r := gin.New()
	r.GET("/api/public/forms/:id", ph.GetForm)
	r.POST("/api/public/forms/:id/submissions", ph.Submit)
	r.POST("/api/public/forms/:id/uploads", ph.Upload)

	p := r.Group("/api", asUser(userID))
	p.GET("/forms", fh.ListForms)
	p.POST("/forms", fh.CreateForm)
	p.GET("/forms/:id", fh.GetForm)
	p.POST("/forms/:id/publish", fh.PublishForm)
	p.GET("/forms/:id/analytics", fh.GetAnalytics)
	p.GET("/stats", fh.Stats)
	p.POST("/ai/forms/generate", ah.Generate)
	p.POST("/ai/forms/refine", ah.Refine)
	p.POST("/conversations", ch.Create)
	p.POST("/conversations/:id/messages", ch.SendPrompt)

	return &harness{engine: r, t: t}
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body=%s", rec.Body.String())
	return out
}

func TestFormLifecycleOverHTTP(t *testing.T) {
	db := testutil.DB(t)
	user := testutil.SeedUser(t, context.Background(), db, "owner-"+uuid.NewString()[:8]+"@example.com")
	h := newHarness(t, user.ID, nil)

	rec := h.do(http.MethodPost, "/api/forms", testutil.SampleForm("Signup"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Form forms.GeneratedForm `json:"form"`
	}](t, rec)
	require.Equal(t, "Signup", created.Form.Title)
	require.Nil(t, created.Form.PublishedAt)

	// Drafts are not public.
	rec = h.do(http.MethodGet, "/api/public/forms/"+created.Form.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPost, "/api/forms/"+created.Form.ID+"/publish", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/public/forms/"+created.Form.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/api/public/forms/"+created.Form.ID+"/submissions", gin.H{
		"data": gin.H{"email": "not-an-email"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	verr := decode[response.ErrorEnvelope](t, rec)
	require.Equal(t, "validation_failed", verr.Error.Code)
	require.Contains(t, verr.Error.Fields, "name")

	rec = h.do(http.MethodPost, "/api/public/forms/"+created.Form.ID+"/submissions", gin.H{
		"data":            gin.H{"name": "Ada", "email": "ada@example.com"},
		"completion_time": 42.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/forms/"+created.Form.ID+"/analytics?refresh=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.AnalyticsResult](t, rec)
	require.Equal(t, 1, res.Analysis.TotalSubmissions)
	require.False(t, res.Cached)

	rec = h.do(http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[forms.AggregatedStats](t, rec)
	require.Equal(t, 1, stats.TotalForms)
	require.Equal(t, 1, stats.TotalSubmissions)
}

func TestFormRoutesRejectOtherUsers(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	owner := testutil.SeedUser(t, ctx, db, "a-"+uuid.NewString()[:8]+"@example.com")
	other := testutil.SeedUser(t, ctx, db, "b-"+uuid.NewString()[:8]+"@example.com")
	row := testutil.SeedForm(t, ctx, db, owner.ID, testutil.SampleForm("Private"), time.Now())

	h := newHarness(t, other.ID, nil)
	rec := h.do(http.MethodGet, "/api/forms/"+row.ID.String(), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", decode[response.ErrorEnvelope](t, rec).Error.Code)

	rec = h.do(http.MethodGet, "/api/forms/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/api/forms/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	anon := newHarness(t, uuid.Nil, nil)
	rec = anon.do(http.MethodGet, "/api/forms", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

// brokenRefiner fails every refinement the way a misbehaving model does.
type brokenRefiner struct {
	formgen.Service
}

func (brokenRefiner) RefineForm(context.Context, forms.GeneratedForm, string) (forms.GeneratedForm, error) {
	return forms.GeneratedForm{}, formgen.ErrRefinementFailed
}

func TestAIRoutes(t *testing.T) {
	user := uuid.New()
	h := newHarness(t, user, nil)

	rec := h.do(http.MethodPost, "/api/ai/forms/generate", gin.H{"prompt": "event registration"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	gen := decode[formgen.Generation](t, rec)
	require.Len(t, gen.Forms, 2)
	require.True(t, gen.Fallback)

	rec = h.do(http.MethodPost, "/api/ai/forms/generate", gin.H{"prompt": "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	broken := newHarness(t, user, brokenRefiner{Service: formgen.New(testutil.Logger(t), nil)})
	rec = broken.do(http.MethodPost, "/api/ai/forms/refine", gin.H{
		"form":        testutil.SampleForm("Feedback"),
		"instruction": "add a phone field",
	})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	env := decode[response.ErrorEnvelope](t, rec)
	require.Equal(t, "refinement_failed", env.Error.Code)
	require.Equal(t, "Failed to refine form with AI.", env.Error.Message)
}

func TestConversationPromptOverHTTP(t *testing.T) {
	db := testutil.DB(t)
	user := testutil.SeedUser(t, context.Background(), db, "chat-"+uuid.NewString()[:8]+"@example.com")
	h := newHarness(t, user.ID, nil)

	rec := h.do(http.MethodPost, "/api/conversations", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	conv := decode[struct {
		Conversation struct {
			ID string `json:"id"`
		} `json:"conversation"`
	}](t, rec)

	rec = h.do(http.MethodPost, "/api/conversations/"+conv.Conversation.ID+"/messages", gin.H{"content": "Customer feedback survey"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[services.PromptResult](t, rec)
	require.Len(t, res.Forms, 2)

	rec = h.do(http.MethodGet, "/api/forms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Forms []forms.GeneratedForm `json:"forms"`
	}](t, rec)
	require.Len(t, list.Forms, 2)
}

func TestUploadDisabled(t *testing.T) {
	h := newHarness(t, uuid.Nil, nil)
	rec := h.do(http.MethodPost, "/api/public/forms/"+uuid.NewString()+"/uploads", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "uploads_disabled", decode[response.ErrorEnvelope](t, rec).Error.Code)
}
