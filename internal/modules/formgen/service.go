package formgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/observability"
	"github.com/yungbote/formcraft-backend/internal/platform/llm"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

// ErrRefinementFailed is returned by RefineForm when a configured model fails or
// answers with something that is not a usable form.
var ErrRefinementFailed = errors.New("formgen: refinement failed")

// Generation is the result of GenerateForms: always exactly two forms.
type Generation struct {
	Forms    []forms.GeneratedForm `json:"forms"`
	Fallback bool                  `json:"fallback"`
}

type Service interface {
	GenerateForms(ctx context.Context, prompt, language string) Generation
	RefineForm(ctx context.Context, existing forms.GeneratedForm, instruction string) (forms.GeneratedForm, error)
	TranslateForm(ctx context.Context, form forms.GeneratedForm, targetLanguage string) forms.GeneratedForm
	AnalyzeFormData(ctx context.Context, input forms.AnalysisInput) forms.FormAnalytics
	GetAIInsights(ctx context.Context, question string, input forms.AnalysisInput) string
	// Available reports whether a model is configured.
	Available() bool
	ProviderName() string
}

type Option func(*service)

// WithIDGenerator replaces uuid.NewString for form and field ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithCredentialName sets the env var named in the "not available" insights answer.
func WithCredentialName(name string) Option {
	return func(s *service) {
		if name = strings.TrimSpace(name); name != "" {
			s.credential = name
		}
	}
}

type service struct {
	log        *logger.Logger
	provider   llm.Provider
	newID      func() string
	credential string
}

// New builds the service. A nil provider puts every operation on its fallback path.
func New(log *logger.Logger, provider llm.Provider, opts ...Option) Service {
	s := &service{
		log:        log.With("service", "FormGenService"),
		provider:   provider,
		newID:      uuid.NewString,
		credential: "GEMINI_API_KEY",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Available() bool { return s.provider != nil }

func (s *service) ProviderName() string {
	if s.provider == nil {
		return "fallback"
	}
	return s.provider.Name()
}

func (s *service) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	ctx, span := observability.Tracer().Start(ctx, "formgen."+op)
	span.SetAttributes(attribute.String("formgen.provider", s.ProviderName()))
	return ctx, span
}

func (s *service) finish(span trace.Span, op string, outcome string, err error) {
	span.SetAttributes(attribute.Bool("formgen.fallback", outcome == "fallback"))
	if err != nil {
		span.RecordError(err)
		if outcome == "error" {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
	observability.Current().ObserveAIOperation(op, outcome)
}

func (s *service) GenerateForms(ctx context.Context, prompt, language string) Generation {
	ctx, span := s.startSpan(ctx, "GenerateForms")
	if strings.TrimSpace(language) == "" {
		language = forms.DefaultLanguage
	}
	if s.provider == nil {
		s.finish(span, "generate_forms", "fallback", nil)
		return Generation{Forms: s.sampleFormsFor(language), Fallback: true}
	}

	out, err := s.generateWithModel(ctx, prompt, language)
	if err != nil {
		s.log.Warn("form generation fell back to sample forms", "operation", "generate_forms", "error", err)
		s.finish(span, "generate_forms", "fallback", err)
		return Generation{Forms: s.sampleFormsFor(language), Fallback: true}
	}
	s.finish(span, "generate_forms", "model", nil)
	return Generation{Forms: out}
}

func (s *service) generateWithModel(ctx context.Context, prompt, language string) ([]forms.GeneratedForm, error) {
	raw, err := s.provider.CompleteJSON(ctx, generateSystemPrompt(language), generateUserPrompt(prompt))
	if err != nil {
		return nil, err
	}
	res, err := parseForms(raw)
	if err != nil {
		return nil, err
	}
	if res.Shape == ShapeObject {
		return nil, &ParseError{Reason: "expected an array of forms, got a single object"}
	}
	if len(res.Forms) < 2 {
		return nil, &ParseError{Reason: "fewer than 2 valid forms"}
	}
	out := res.Forms[:2]
	for i := range out {
		out[i].ID = s.newID()
		s.mintFieldIDs(&out[i], nil)
		out[i].Language = language
		out[i].PublishedAt = nil
	}
	return out, nil
}

func (s *service) RefineForm(ctx context.Context, existing forms.GeneratedForm, instruction string) (forms.GeneratedForm, error) {
	ctx, span := s.startSpan(ctx, "RefineForm")
	if s.provider == nil {
		s.finish(span, "refine_form", "fallback", nil)
		return s.refineFallback(existing, instruction), nil
	}

	language := existing.Language
	if language == "" {
		language = forms.DefaultLanguage
	}
	formJSON, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		s.finish(span, "refine_form", "error", err)
		return forms.GeneratedForm{}, err
	}
	raw, err := s.provider.CompleteJSON(ctx, refineSystemPrompt(language), refineUserPrompt(string(formJSON), instruction))
	if err == nil {
		var res ParseResult
		res, err = parseSingle(raw)
		if err == nil {
			out := res.Forms[0]
			out.ID = existing.ID
			s.mintFieldIDs(&out, existing.FieldIDs())
			if out.Language == "" {
				out.Language = existing.Language
			}
			out.PublishedAt = existing.Clone().PublishedAt
			s.finish(span, "refine_form", "model", nil)
			return out, nil
		}
	}
	s.log.Warn("form refinement failed", "operation", "refine_form", "form_id", existing.ID, "error", err)
	s.finish(span, "refine_form", "error", err)
	return forms.GeneratedForm{}, ErrRefinementFailed
}

func (s *service) TranslateForm(ctx context.Context, form forms.GeneratedForm, targetLanguage string) forms.GeneratedForm {
	ctx, span := s.startSpan(ctx, "TranslateForm")
	fallback := func(err error) forms.GeneratedForm {
		if err != nil {
			s.log.Warn("form translation fell back to the original form", "operation", "translate_form", "form_id", form.ID, "error", err)
		}
		s.finish(span, "translate_form", "fallback", err)
		out := form.Clone()
		out.Language = targetLanguage
		return out
	}
	if s.provider == nil {
		return fallback(nil)
	}

	formJSON, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return fallback(err)
	}
	raw, err := s.provider.CompleteJSON(ctx, translateSystemPrompt(targetLanguage), translateUserPrompt(targetLanguage, string(formJSON)))
	if err != nil {
		return fallback(err)
	}
	res, err := parseSingle(raw)
	if err != nil {
		return fallback(err)
	}
	out := res.Forms[0]
	out.ID = form.ID
	s.mintFieldIDs(&out, form.FieldIDs())
	out.Language = targetLanguage
	out.PublishedAt = form.Clone().PublishedAt
	s.finish(span, "translate_form", "model", nil)
	return out
}

func (s *service) AnalyzeFormData(ctx context.Context, input forms.AnalysisInput) forms.FormAnalytics {
	ctx, span := s.startSpan(ctx, "AnalyzeFormData")
	out := computeAnalytics(input)
	if s.provider == nil {
		out.Insights = cannedInsightList()
		s.finish(span, "analyze_form_data", "fallback", nil)
		return out
	}

	insights, err := s.modelInsights(ctx, input)
	if err != nil {
		s.log.Warn("form analysis fell back to canned insights", "operation", "analyze_form_data", "error", err)
		out.Insights = cannedInsightList()
		s.finish(span, "analyze_form_data", "fallback", err)
		return out
	}
	out.Insights = insights
	s.finish(span, "analyze_form_data", "model", nil)
	return out
}

func (s *service) modelInsights(ctx context.Context, input forms.AnalysisInput) ([]string, error) {
	dataJSON, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return nil, err
	}
	text, err := s.provider.CompleteText(ctx, analyzeSystemPrompt, analyzeUserPrompt(string(dataJSON)))
	if err != nil {
		return nil, err
	}
	insights := splitInsights(text)
	if len(insights) == 0 {
		return nil, llm.ErrEmptyResponse
	}
	return insights, nil
}

func (s *service) GetAIInsights(ctx context.Context, question string, input forms.AnalysisInput) string {
	ctx, span := s.startSpan(ctx, "GetAIInsights")
	if s.provider == nil {
		s.finish(span, "get_ai_insights", "fallback", nil)
		return unavailableMessage(s.credential)
	}
	dataJSON, err := json.MarshalIndent(input, "", "  ")
	if err == nil {
		var text string
		text, err = s.provider.CompleteText(ctx, insightsSystemPrompt, insightsUserPrompt(question, string(dataJSON)))
		if text = strings.TrimSpace(text); err == nil && text != "" {
			s.finish(span, "get_ai_insights", "model", nil)
			return text
		}
		if err == nil {
			err = llm.ErrEmptyResponse
		}
	}
	s.log.Warn("insights question failed", "operation", "get_ai_insights", "error", err)
	s.finish(span, "get_ai_insights", "fallback", err)
	return insightsErrorMessage
}

// parseSingle accepts only the single-object layout.
func parseSingle(raw json.RawMessage) (ParseResult, error) {
	res, err := parseForms(raw)
	if err != nil {
		return res, err
	}
	if res.Shape != ShapeObject {
		return res, &ParseError{Reason: "expected a single form object, got " + string(res.Shape)}
	}
	return res, nil
}

// mintFieldIDs gives every field a unique id. Ids listed in keep survive when a field
// still carries one of them; anything else is replaced with a fresh id.
func (s *service) mintFieldIDs(f *forms.GeneratedForm, keep []string) {
	allowed := make(map[string]bool, len(keep))
	for _, id := range keep {
		allowed[id] = true
	}
	seen := make(map[string]bool, len(f.Fields))
	for i := range f.Fields {
		id := f.Fields[i].ID
		if id == "" || !allowed[id] || seen[id] {
			id = s.newID()
		}
		seen[id] = true
		f.Fields[i].ID = id
	}
}
