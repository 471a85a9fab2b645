package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/formcraft-backend/internal/observability"
	"github.com/yungbote/formcraft-backend/internal/platform/envutil"
	"github.com/yungbote/formcraft-backend/internal/platform/httpx"
	"github.com/yungbote/formcraft-backend/internal/platform/llm"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type Config struct {
	APIKey   string
	Model    string
	Settings llm.Settings
	// BaseURL and HTTPClient are overridden in tests.
	BaseURL    string
	HTTPClient *http.Client
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:   envutil.String("GEMINI_API_KEY", ""),
		Model:    envutil.String("GEMINI_MODEL", "gemini-2.5-flash"),
		Settings: llm.SettingsFromEnv(),
		BaseURL:  envutil.String("GEMINI_BASE_URL", ""),
	}
}

// Provider implements llm.Provider on the Gemini API.
type Provider struct {
	log         *logger.Logger
	client      *genai.Client
	model       string
	timeout     time.Duration
	maxRetries  int
	temperature float32
}

var _ llm.Provider = (*Provider)(nil)

func New(ctx context.Context, log *logger.Logger, cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Provider{
		log:         log.With("client", "GeminiProvider"),
		client:      client,
		model:       model,
		timeout:     cfg.Settings.Timeout,
		maxRetries:  cfg.Settings.MaxRetries,
		temperature: float32(cfg.Settings.Temperature),
	}, nil
}

func (p *Provider) Name() string { return llm.ProviderGemini }

func (p *Provider) CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	text, err := p.generate(ctx, system, user, "application/json")
	if err != nil {
		return nil, err
	}
	return llm.RawJSON(text)
}

func (p *Provider) CompleteText(ctx context.Context, system, user string) (string, error) {
	text, err := p.generate(ctx, system, user, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (p *Provider) generate(ctx context.Context, system, user, mime string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(p.temperature),
		ResponseMIMEType:  mime,
	}

	start := time.Now()
	backoff := 1 * time.Second
	for attempt := 0; ; attempt++ {
		resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(user), cfg)
		if err == nil {
			text := resp.Text()
			in, out := usage(resp)
			observability.Current().ObserveLLMRequest(p.Name(), p.model, "200", time.Since(start), in, out)
			if strings.TrimSpace(text) == "" {
				return "", llm.ErrEmptyResponse
			}
			return text, nil
		}
		if attempt >= p.maxRetries || !httpx.IsRetryableError(err) {
			observability.Current().ObserveLLMRequest(p.Name(), p.model, "error", time.Since(start), 0, 0)
			return "", fmt.Errorf("gemini generate: %w", err)
		}
		sleepFor := httpx.JitterSleep(backoff)
		p.log.Warn("Gemini request retrying", "attempt", attempt+1, "sleep", sleepFor.String(), "error", err.Error())
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return "", err
		}
		backoff *= 2
	}
}

func usage(resp *genai.GenerateContentResponse) (int, int) {
	if resp == nil || resp.UsageMetadata == nil {
		return 0, 0
	}
	return int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount)
}
