package formgen

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/formcraft-backend/internal/domain/forms"
)

//go:embed fallback_forms.yaml
var fallbackFormsYAML []byte

var (
	sampleOnce  sync.Once
	sampleForms []forms.GeneratedForm
)

var cannedInsights = []string{
	"Sample insight: Your form is performing well!",
	"Consider adding more fields to gather comprehensive data.",
	"Mobile users show higher completion rates.",
	"Forms with 5-7 fields tend to perform best.",
}

const (
	refineFallbackPlaceholder = "This is a sample refined field"
	insightsErrorMessage      = "Sorry, I encountered an error while analyzing your data."
)

func loadSampleForms() []forms.GeneratedForm {
	sampleOnce.Do(func() {
		var parsed []forms.GeneratedForm
		if err := yaml.Unmarshal(fallbackFormsYAML, &parsed); err != nil {
			panic(fmt.Sprintf("formgen: invalid fallback_forms.yaml: %v", err))
		}
		if len(parsed) != 2 {
			panic(fmt.Sprintf("formgen: fallback_forms.yaml must hold 2 forms, got %d", len(parsed)))
		}
		sampleForms = parsed
	})
	return sampleForms
}

// sampleFormsFor returns fresh copies of the sample forms with new ids and the requested language.
func (s *service) sampleFormsFor(language string) []forms.GeneratedForm {
	base := loadSampleForms()
	out := make([]forms.GeneratedForm, 0, len(base))
	for _, f := range base {
		c := f.Clone()
		c.ID = s.newID()
		s.mintFieldIDs(&c, nil)
		c.Language = language
		out = append(out, c)
	}
	return out
}

func (s *service) refineFallback(existing forms.GeneratedForm, instruction string) forms.GeneratedForm {
	out := existing.Clone()
	out.Fields = append(out.Fields, forms.FormField{
		ID:          s.newID(),
		Type:        forms.FieldText,
		Label:       fmt.Sprintf("New field based on: \"%s\" (Fallback)", instruction),
		Placeholder: refineFallbackPlaceholder,
		Required:    false,
	})
	return out
}

func cannedInsightList() []string {
	return append([]string(nil), cannedInsights...)
}

func unavailableMessage(credential string) string {
	return fmt.Sprintf("AI insights are not available. Please set up your %s to enable this feature.", credential)
}
