package llm

import (
	"errors"
	"testing"
)

func TestSelection(t *testing.T) {
	cases := []struct {
		name     string
		provider string
		gemini   string
		openai   string
		want     string
	}{
		{name: "none", want: ""},
		{name: "gemini key", gemini: "g", want: ProviderGemini},
		{name: "openai key", openai: "o", want: ProviderOpenAI},
		{name: "both prefers gemini", gemini: "g", openai: "o", want: ProviderGemini},
		{name: "forced openai", provider: "openai", gemini: "g", openai: "o", want: ProviderOpenAI},
		{name: "forced without key", provider: "openai", gemini: "g", want: ""},
		{name: "forced fallback", provider: "none", gemini: "g", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("LLM_PROVIDER", tc.provider)
			t.Setenv("GEMINI_API_KEY", tc.gemini)
			t.Setenv("OPENAI_API_KEY", tc.openai)
			if got := Selection(); got != tc.want {
				t.Fatalf("Selection: got=%q want=%q", got, tc.want)
			}
		})
	}
}

func TestRawJSON(t *testing.T) {
	got, err := RawJSON("```json\n{\"a\":1}\n```")
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("RawJSON fenced: got=%s err=%v", got, err)
	}
	if _, err := RawJSON("not json"); !errors.Is(err, ErrNotJSON) {
		t.Fatalf("RawJSON invalid: err=%v", err)
	}
	if _, err := RawJSON("   "); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("RawJSON empty: err=%v", err)
	}
}
