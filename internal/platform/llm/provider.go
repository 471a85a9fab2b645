package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/yungbote/formcraft-backend/internal/platform/envutil"
)

// Provider is the text-generation capability the form AI depends on.
// A nil Provider means no model is configured.
type Provider interface {
	// CompleteJSON asks for a JSON response and returns it undecoded.
	CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error)
	CompleteText(ctx context.Context, system, user string) (string, error)
	Name() string
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var (
	ErrEmptyResponse = errors.New("llm: empty response")
	ErrNotJSON       = errors.New("llm: response is not valid JSON")
)

// Settings shared by every concrete provider.
type Settings struct {
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
}

func SettingsFromEnv() Settings {
	s := Settings{
		Timeout:     envutil.Seconds("LLM_TIMEOUT_SECONDS", 60*time.Second),
		MaxRetries:  envutil.Int("LLM_MAX_RETRIES", 0),
		Temperature: envutil.Float("LLM_TEMPERATURE", 0.7),
	}
	if s.Timeout <= 0 {
		s.Timeout = 60 * time.Second
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	return s
}

// Selection decides which provider to build: LLM_PROVIDER when set, otherwise
// whichever credential is present, Gemini first. "" means fallback mode.
func Selection() string {
	switch strings.ToLower(envutil.String("LLM_PROVIDER", "")) {
	case ProviderGemini:
		if envutil.String("GEMINI_API_KEY", "") != "" {
			return ProviderGemini
		}
		return ""
	case ProviderOpenAI:
		if envutil.String("OPENAI_API_KEY", "") != "" {
			return ProviderOpenAI
		}
		return ""
	case "none", "fallback":
		return ""
	}
	if envutil.String("GEMINI_API_KEY", "") != "" {
		return ProviderGemini
	}
	if envutil.String("OPENAI_API_KEY", "") != "" {
		return ProviderOpenAI
	}
	return ""
}

// CredentialName is the env var users are told to set when AI is unavailable.
func CredentialName(selected string) string {
	if selected == ProviderOpenAI || strings.EqualFold(envutil.String("LLM_PROVIDER", ""), ProviderOpenAI) {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// StripCodeFence removes a ```json fence some models wrap around JSON output.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// RawJSON validates text and returns it as a RawMessage.
func RawJSON(text string) (json.RawMessage, error) {
	text = StripCodeFence(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	if !json.Valid([]byte(text)) {
		return nil, ErrNotJSON
	}
	return json.RawMessage(text), nil
}
