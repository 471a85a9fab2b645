package forms

import "time"

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
	FieldFile     FieldType = "file"
	FieldPassword FieldType = "password"
	FieldSlider   FieldType = "slider"
	FieldSwitch   FieldType = "switch"
	FieldRating   FieldType = "rating"
)

// FieldTypes is the closed set, in the order they are listed to the model.
var FieldTypes = []FieldType{
	FieldText, FieldEmail, FieldNumber, FieldTextarea, FieldSelect, FieldRadio, FieldCheckbox,
	FieldDate, FieldFile, FieldPassword, FieldSlider, FieldSwitch, FieldRating,
}

func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// HasOptions reports whether the type must carry at least one option.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldRadio || t == FieldCheckbox
}

// TextLike types take a placeholder and character-length validation.
func (t FieldType) TextLike() bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldTextarea, FieldPassword:
		return true
	default:
		return false
	}
}

const (
	RatingMaxLow     = 3
	RatingMaxHigh    = 10
	RatingMaxDefault = 5
)

// Validation semantics depend on the field type: character bounds for text-like fields,
// numeric range and step for sliders, star count (Max) for ratings.
type Validation struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step    *float64 `json:"step,omitempty" yaml:"step,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

func (v *Validation) Empty() bool {
	return v == nil || (v.Min == nil && v.Max == nil && v.Step == nil && v.Pattern == "")
}

type FormField struct {
	ID          string      `json:"id" yaml:"id"`
	Type        FieldType   `json:"type" yaml:"type"`
	Label       string      `json:"label" yaml:"label"`
	Placeholder string      `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool        `json:"required" yaml:"required"`
	Options     []string    `json:"options,omitempty" yaml:"options,omitempty"`
	Validation  *Validation `json:"validation,omitempty" yaml:"validation,omitempty"`
}

type Theme string

const (
	ThemeModern   Theme = "modern"
	ThemeClassic  Theme = "classic"
	ThemeMinimal  Theme = "minimal"
	ThemeColorful Theme = "colorful"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeModern, ThemeClassic, ThemeMinimal, ThemeColorful:
		return true
	default:
		return false
	}
}

const DefaultLanguage = "English"

// GeneratedForm is the renderable form document. PublishedAt present means publicly servable.
type GeneratedForm struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Fields      []FormField `json:"fields" yaml:"fields"`
	Theme       Theme       `json:"theme" yaml:"theme"`
	Language    string      `json:"language" yaml:"language"`
	PublishedAt *time.Time  `json:"publishedAt,omitempty" yaml:"-"`
}

func (f GeneratedForm) Published() bool { return f.PublishedAt != nil }

// Clone returns a deep copy; slices, validation bags and the timestamp are not shared.
func (f GeneratedForm) Clone() GeneratedForm {
	out := f
	if f.PublishedAt != nil {
		ts := *f.PublishedAt
		out.PublishedAt = &ts
	}
	if f.Fields != nil {
		out.Fields = make([]FormField, len(f.Fields))
		for i, fld := range f.Fields {
			out.Fields[i] = fld.Clone()
		}
	}
	return out
}

func (f FormField) Clone() FormField {
	out := f
	if f.Options != nil {
		out.Options = append([]string(nil), f.Options...)
	}
	if f.Validation != nil {
		v := *f.Validation
		v.Min = copyFloat(f.Validation.Min)
		v.Max = copyFloat(f.Validation.Max)
		v.Step = copyFloat(f.Validation.Step)
		out.Validation = &v
	}
	return out
}

// FieldIDs lists field ids in display order.
func (f GeneratedForm) FieldIDs() []string {
	out := make([]string, 0, len(f.Fields))
	for _, fld := range f.Fields {
		out = append(out, fld.ID)
	}
	return out
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func Float(v float64) *float64 { return &v }
