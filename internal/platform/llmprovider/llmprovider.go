package llmprovider

import (
	"context"
	"fmt"

	"github.com/yungbote/formcraft-backend/internal/platform/gemini"
	"github.com/yungbote/formcraft-backend/internal/platform/llm"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/platform/openai"
)

// FromEnv builds the provider picked by llm.Selection. A nil provider with a nil error
// means no credential is configured and callers run in fallback mode. The returned name
// is the credential users should set to enable AI.
func FromEnv(ctx context.Context, log *logger.Logger) (llm.Provider, string, error) {
	selected := llm.Selection()
	credential := llm.CredentialName(selected)
	switch selected {
	case llm.ProviderGemini:
		p, err := gemini.New(ctx, log, gemini.ConfigFromEnv())
		if err != nil {
			return nil, credential, fmt.Errorf("init gemini provider: %w", err)
		}
		log.Info("LLM provider selected", "provider", p.Name())
		return p, credential, nil
	case llm.ProviderOpenAI:
		c, err := openai.NewClient(log, openai.ConfigFromEnv())
		if err != nil {
			return nil, credential, fmt.Errorf("init openai provider: %w", err)
		}
		log.Info("LLM provider selected", "provider", c.Name())
		return c, credential, nil
	default:
		log.Warn("No LLM credential configured; AI operations use fallback data", "credential", credential)
		return nil, credential, nil
	}
}
