package adapters

import (
	"context"
	"log"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dyike/QuorumGo/config"
	"github.com/dyike/QuorumGo/consts"
	"github.com/dyike/QuorumGo/internal/personas"
)

const maxTokens = 8192

// NewAdapters builds one adapter per persona from the configured providers:
// DeepSeek for the balanced analyst, OpenAI for the growth analyst and
// DashScope (OpenAI-compatible endpoint) for the macro analyst. A persona
// whose provider is unconfigured gets a nil backend; its calls return
// ErrNoBackend and the orchestrator substitutes the deterministic fallback,
// so the pipeline still works fully offline.
func NewAdapters(ctx context.Context, cfg *config.Config) map[string]Generator {
	timeout := time.Duration(cfg.BackendTimeoutSec) * time.Second

	out := make(map[string]Generator, len(consts.PersonaOrder))
	for _, p := range personas.All() {
		var chat model.BaseChatModel
		switch p.ID {
		case consts.BalancedAnalyst:
			chat = newDeepSeekModel(ctx, cfg)
		case consts.GrowthAnalyst:
			chat = newOpenAIModel(ctx, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		case consts.MacroAnalyst:
			chat = newOpenAIModel(ctx, cfg.DashScopeAPIKey, cfg.DashScopeBaseURL, cfg.DashScopeModel)
		}
		out[p.ID] = NewPersonaAdapter(p, chat, timeout)
	}
	return out
}

func newDeepSeekModel(ctx context.Context, cfg *config.Config) model.BaseChatModel {
	if cfg.DeepSeekAPIKey == "" {
		return nil
	}
	chat, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		APIKey:    cfg.DeepSeekAPIKey,
		BaseURL:   cfg.DeepSeekBaseURL,
		Model:     cfg.DeepSeekModel,
		MaxTokens: maxTokens,
	})
	if err != nil {
		log.Printf("deepseek model init failed, persona will use fallback: %v", err)
		return nil
	}
	return chat
}

func newOpenAIModel(ctx context.Context, apiKey, baseURL, modelName string) model.BaseChatModel {
	if apiKey == "" {
		return nil
	}
	tokens := maxTokens
	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Model:     modelName,
		MaxTokens: &tokens,
	})
	if err != nil {
		log.Printf("openai-compatible model init failed for %s, persona will use fallback: %v", baseURL, err)
		return nil
	}
	return chat
}
