package forms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindStrings
	KindNumber
	KindBool
)

// SubmissionValue is one answer: a string, a list of strings (checkbox), a number
// (slider, rating, number) or a boolean (switch). The zero value is null.
type SubmissionValue struct {
	kind ValueKind
	str  string
	strs []string
	num  float64
	b    bool
}

func StringValue(s string) SubmissionValue { return SubmissionValue{kind: KindString, str: s} }

func StringsValue(s []string) SubmissionValue {
	return SubmissionValue{kind: KindStrings, strs: append([]string{}, s...)}
}

func NumberValue(n float64) SubmissionValue { return SubmissionValue{kind: KindNumber, num: n} }

func BoolValue(b bool) SubmissionValue { return SubmissionValue{kind: KindBool, b: b} }

func NullValue() SubmissionValue { return SubmissionValue{} }

func (v SubmissionValue) Kind() ValueKind { return v.kind }

func (v SubmissionValue) IsNull() bool { return v.kind == KindNull }

func (v SubmissionValue) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v SubmissionValue) AsStrings() ([]string, bool) { return v.strs, v.kind == KindStrings }

func (v SubmissionValue) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

func (v SubmissionValue) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Blank reports null or the empty string. Other values, including 0, false and an
// empty list, count as answered for analytics.
func (v SubmissionValue) Blank() bool {
	return v.kind == KindNull || (v.kind == KindString && v.str == "")
}

// Missing is the stricter "required" check used before submission: it also treats
// whitespace-only strings, false, 0 and empty lists as not provided.
func (v SubmissionValue) Missing() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindStrings:
		return len(v.strs) == 0
	case KindNumber:
		return v.num == 0
	case KindBool:
		return !v.b
	default:
		return true
	}
}

func (v SubmissionValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindStrings:
		if v.strs == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.strs)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

func (v *SubmissionValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = NullValue()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case '[':
		var s []string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("submission value: list must contain only strings: %w", err)
		}
		*v = StringsValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case '{':
		return fmt.Errorf("submission value: objects are not supported")
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("submission value: %w", err)
		}
		*v = NumberValue(n)
	}
	return nil
}

// SubmissionData maps field id to answer.
type SubmissionData map[string]SubmissionValue
