package formgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/yungbote/formcraft-backend/internal/domain/forms"
)

// Shape names which of the accepted response layouts the model used.
type Shape string

const (
	ShapeArray   Shape = "array"
	ShapeWrapped Shape = "wrapped"
	ShapeObject  Shape = "object"
)

// ParseResult is the successful variant: the coerced forms plus how many
// candidates were rejected on the way.
type ParseResult struct {
	Shape   Shape
	Forms   []forms.GeneratedForm
	Dropped int
}

// ParseError is the failure variant.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "formgen: unusable model output: " + e.Reason }

// parseForms checks the three layouts in order: bare array, {"forms": [...]}, single object.
// Candidates that fail the structural check or end up with no renderable field are dropped.
func parseForms(raw json.RawMessage) (ParseResult, error) {
	loadSchemas()
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ParseResult{}, &ParseError{Reason: "empty response"}
	}

	var (
		shape      Shape
		candidates []json.RawMessage
	)
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &candidates); err != nil {
			return ParseResult{}, &ParseError{Reason: "malformed array: " + err.Error()}
		}
		shape = ShapeArray
	case '{':
		var wrapper struct {
			Forms json.RawMessage `json:"forms"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return ParseResult{}, &ParseError{Reason: "malformed object: " + err.Error()}
		}
		if w := bytes.TrimSpace(wrapper.Forms); len(w) > 0 && w[0] == '[' {
			if err := json.Unmarshal(w, &candidates); err != nil {
				return ParseResult{}, &ParseError{Reason: "malformed forms array: " + err.Error()}
			}
			shape = ShapeWrapped
		} else {
			candidates = []json.RawMessage{trimmed}
			shape = ShapeObject
		}
	default:
		return ParseResult{}, &ParseError{Reason: "not a JSON array or object"}
	}

	res := ParseResult{Shape: shape}
	for _, c := range candidates {
		f, ok := coerceForm(c)
		if !ok {
			res.Dropped++
			continue
		}
		res.Forms = append(res.Forms, f)
	}
	if len(res.Forms) == 0 {
		return res, &ParseError{Reason: fmt.Sprintf("no valid form among %d candidate(s)", len(candidates))}
	}
	return res, nil
}

// looseID accepts ids the model wrote as strings or numbers.
type looseID string

func (l *looseID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = looseID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*l = looseID(n.String())
	return nil
}

type candidateForm struct {
	ID          looseID           `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Theme       *string           `json:"theme"`
	Language    *string           `json:"language"`
	Fields      []json.RawMessage `json:"fields"`
}

type candidateField struct {
	ID          looseID           `json:"id"`
	Type        string            `json:"type"`
	Label       string            `json:"label"`
	Placeholder *string           `json:"placeholder"`
	Required    *bool             `json:"required"`
	Options     []string          `json:"options"`
	Validation  *forms.Validation `json:"validation"`
}

func coerceForm(raw json.RawMessage) (forms.GeneratedForm, bool) {
	if err := checkShape(formSchema, raw); err != nil {
		return forms.GeneratedForm{}, false
	}
	var c candidateForm
	if err := json.Unmarshal(raw, &c); err != nil {
		return forms.GeneratedForm{}, false
	}
	out := forms.GeneratedForm{
		ID:          string(c.ID),
		Title:       sanitizeText(c.Title),
		Description: sanitizeText(deref(c.Description)),
		Theme:       forms.Theme(strings.ToLower(strings.TrimSpace(deref(c.Theme)))),
		Language:    strings.TrimSpace(deref(c.Language)),
	}
	if out.Title == "" {
		return forms.GeneratedForm{}, false
	}
	if !out.Theme.Valid() {
		out.Theme = forms.ThemeModern
	}
	for _, fr := range c.Fields {
		if fld, ok := coerceField(fr); ok {
			out.Fields = append(out.Fields, fld)
		}
	}
	if len(out.Fields) == 0 {
		return forms.GeneratedForm{}, false
	}
	return out, true
}

func coerceField(raw json.RawMessage) (forms.FormField, bool) {
	if err := checkShape(fieldSchema, raw); err != nil {
		return forms.FormField{}, false
	}
	var c candidateField
	if err := json.Unmarshal(raw, &c); err != nil {
		return forms.FormField{}, false
	}
	f := forms.FormField{
		ID:          string(c.ID),
		Type:        forms.FieldType(strings.ToLower(strings.TrimSpace(c.Type))),
		Label:       sanitizeText(c.Label),
		Placeholder: sanitizeText(deref(c.Placeholder)),
		Required:    c.Required != nil && *c.Required,
		Validation:  c.Validation,
	}
	if !f.Type.Valid() || f.Label == "" {
		return forms.FormField{}, false
	}
	if f.Type.HasOptions() {
		for _, o := range c.Options {
			if o = sanitizeText(o); o != "" {
				f.Options = append(f.Options, o)
			}
		}
		if len(f.Options) == 0 {
			return forms.FormField{}, false
		}
	}
	normalizeValidation(&f)
	return f, true
}

// normalizeValidation enforces the per-type validation invariants.
func normalizeValidation(f *forms.FormField) {
	v := f.Validation
	if v == nil {
		v = &forms.Validation{}
	}
	if v.Pattern != "" {
		if _, err := regexp.Compile(v.Pattern); err != nil {
			v.Pattern = ""
		}
	}
	switch f.Type {
	case forms.FieldRating:
		stars := float64(forms.RatingMaxDefault)
		if v.Max != nil {
			stars = *v.Max
		}
		if stars < forms.RatingMaxLow {
			stars = forms.RatingMaxLow
		}
		if stars > forms.RatingMaxHigh {
			stars = forms.RatingMaxHigh
		}
		v.Max = forms.Float(stars)
	case forms.FieldSlider:
		if v.Min == nil {
			v.Min = forms.Float(0)
		}
		if v.Max == nil {
			v.Max = forms.Float(100)
		}
		if *v.Max <= *v.Min {
			v.Max = forms.Float(*v.Min + 100)
		}
		if v.Step == nil || *v.Step <= 0 {
			v.Step = forms.Float(1)
		}
	}
	if v.Empty() {
		f.Validation = nil
		return
	}
	f.Validation = v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ordinalPrefix matches a leading "N. " list marker.
var ordinalPrefix = regexp.MustCompile(`^\d+\.\s*`)

func splitInsights(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = ordinalPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
