package formrender

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/formcraft-backend/internal/domain/forms"
)

const (
	msgRequired = "This field is required"
	msgInvalid  = "Invalid format"
)

// ValidationErrors maps field id to the first failing rule's message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	ids := make([]string, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+": "+v[id])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate applies the renderer's pre-submission rules to values and returns nil when
// every field passes. Values for ids the form does not know are ignored.
func Validate(form forms.GeneratedForm, values forms.SubmissionData) ValidationErrors {
	errs := ValidationErrors{}
	for _, field := range form.Fields {
		if msg := validateField(field, values[field.ID]); msg != "" {
			errs[field.ID] = msg
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateField(field forms.FormField, value forms.SubmissionValue) string {
	if field.Required && value.Missing() {
		return msgRequired
	}
	s, ok := value.AsString()
	if !ok || s == "" || field.Validation == nil {
		return ""
	}
	// Character bounds only mean something for text input; slider and rating reuse min/max.
	if field.Type == forms.FieldSlider || field.Type == forms.FieldRating {
		return ""
	}
	// When several rules fail the later one is reported: pattern, then max, then min.
	v := field.Validation
	if v.Pattern != "" {
		re, err := compile(v.Pattern)
		if err == nil && !re.MatchString(s) {
			return msgInvalid
		}
	}
	n := utf8.RuneCountInString(s)
	if v.Max != nil && float64(n) > *v.Max {
		return fmt.Sprintf("Maximum %s characters allowed", formatBound(*v.Max))
	}
	if v.Min != nil && float64(n) < *v.Min {
		return fmt.Sprintf("Minimum %s characters required", formatBound(*v.Min))
	}
	return ""
}

func formatBound(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
