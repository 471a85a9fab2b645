package llmprovider

import (
	"context"
	"testing"

	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

func TestFromEnvWithoutCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "")

	p, credential, err := FromEnv(context.Background(), logger.Nop())
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if p != nil {
		t.Fatalf("provider: got=%v want=nil", p)
	}
	if credential != "GEMINI_API_KEY" {
		t.Fatalf("credential: got=%q", credential)
	}
}

func TestFromEnvOpenAI(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_PROVIDER", "")

	p, credential, err := FromEnv(context.Background(), logger.Nop())
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if p == nil || p.Name() != "openai" || credential != "OPENAI_API_KEY" {
		t.Fatalf("got provider=%v credential=%q", p, credential)
	}
}
