package forms

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSubmissionDataDecode(t *testing.T) {
	raw := `{"name":"Ada","topics":["go","sql"],"score":4,"subscribe":false,"note":null}`
	var data SubmissionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if s, ok := data["name"].AsString(); !ok || s != "Ada" {
		t.Fatalf("name: got=%q ok=%v", s, ok)
	}
	if l, ok := data["topics"].AsStrings(); !ok || len(l) != 2 {
		t.Fatalf("topics: got=%v ok=%v", l, ok)
	}
	if n, ok := data["score"].AsNumber(); !ok || n != 4 {
		t.Fatalf("score: got=%v ok=%v", n, ok)
	}
	if b, ok := data["subscribe"].AsBool(); !ok || b {
		t.Fatalf("subscribe: got=%v ok=%v", b, ok)
	}
	if !data["note"].IsNull() {
		t.Fatalf("note should be null")
	}
}

func TestSubmissionDataRoundTripKeepsShapes(t *testing.T) {
	in := SubmissionData{
		"a": StringValue("x"),
		"b": StringsValue([]string{"1"}),
		"c": NumberValue(2.5),
		"d": BoolValue(true),
		"e": NullValue(),
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(b, &generic); err != nil {
		t.Fatalf("unmarshal generic: %v", err)
	}
	want := map[string]any{"a": "x", "b": []any{"1"}, "c": 2.5, "d": true, "e": nil}
	if diff := cmp.Diff(want, generic); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmissionValueRejectsObjects(t *testing.T) {
	var v SubmissionValue
	if err := json.Unmarshal([]byte(`{"nested":1}`), &v); err == nil {
		t.Fatalf("expected error for object value")
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &v); err == nil {
		t.Fatalf("expected error for numeric list")
	}
}

func TestBlankAndMissing(t *testing.T) {
	cases := []struct {
		name    string
		v       SubmissionValue
		blank   bool
		missing bool
	}{
		{"null", NullValue(), true, true},
		{"empty string", StringValue(""), true, true},
		{"whitespace", StringValue("  "), false, true},
		{"zero", NumberValue(0), false, true},
		{"false", BoolValue(false), false, true},
		{"empty list", StringsValue(nil), false, true},
		{"text", StringValue("hi"), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.Blank(); got != tc.blank {
				t.Fatalf("Blank: got=%v want=%v", got, tc.blank)
			}
			if got := tc.v.Missing(); got != tc.missing {
				t.Fatalf("Missing: got=%v want=%v", got, tc.missing)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	f := GeneratedForm{
		ID: "f1",
		Fields: []FormField{{
			ID: "a", Type: FieldSelect, Label: "Pick", Options: []string{"x"},
			Validation: &Validation{Max: Float(5)},
		}},
	}
	c := f.Clone()
	c.Fields[0].Options[0] = "changed"
	*c.Fields[0].Validation.Max = 9
	if f.Fields[0].Options[0] != "x" || *f.Fields[0].Validation.Max != 5 {
		t.Fatalf("clone shares memory with original: %+v", f.Fields[0])
	}
}
