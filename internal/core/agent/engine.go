package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/astralisone/voice-agent-be/internal/core/llm"
	"github.com/astralisone/voice-agent-be/internal/core/tenant"
	"github.com/astralisone/voice-agent-be/internal/models"
	"github.com/astralisone/voice-agent-be/internal/repositories"
	"github.com/astralisone/voice-agent-be/internal/shared/utils"
)

// Engine runs the interaction chain: resolve the client, bind its
// bundle, answer. A knowledge or LLM problem degrades to a capability
// answer, never an error at the conversational surface.
type Engine struct {
	store    repositories.ProfileStore
	resolver *tenant.Resolver
	binder   *Binder
	provider llm.Provider
	convLog  repositories.ConversationLog
}

func NewEngine(
	store repositories.ProfileStore,
	resolver *tenant.Resolver,
	binder *Binder,
	provider llm.Provider,
	convLog repositories.ConversationLog,
) *Engine {
	return &Engine{
		store:    store,
		resolver: resolver,
		binder:   binder,
		provider: provider,
		convLog:  convLog,
	}
}

// Reply is the runtime answer plus the TTS settings for speaking it.
type Reply struct {
	ClientID string               `json:"client_id"`
	Text     string               `json:"text"`
	Voice    models.VoiceSettings `json:"voice"`
}

// HandleInteraction answers one inbound utterance. When capability
// names one of the bundle's capabilities it is invoked directly;
// otherwise the LLM provider drives the answer under the bundle's
// system prompt, falling back to knowledge base search when no provider
// is configured or the provider fails.
func (e *Engine) HandleInteraction(ctx context.Context, metadata map[string]string, capability, utterance string) (Reply, error) {
	if strings.TrimSpace(utterance) == "" {
		return Reply{}, fmt.Errorf("utterance is required: %w", models.ErrValidation)
	}

	clientID := e.resolver.Resolve(metadata)
	var profile models.ClientProfile
	ok := false
	if clientID != "" {
		profile, ok = e.store.Get(clientID)
	}
	if !ok {
		utils.LogWarn("no client profile resolved, using default agent", map[string]interface{}{
			"client_id": clientID,
		})
		profile = DefaultProfile()
	}

	bundle := e.binder.Bind(ctx, profile)

	var text string
	switch {
	case capability != "":
		fn, known := bundle.Capabilities[capability]
		if !known {
			return Reply{}, fmt.Errorf("capability %q: %w", capability, models.ErrNotFound)
		}
		text = fn(utterance)
	case e.provider != nil:
		answer, err := e.provider.GenerateResponse(ctx, bundle.SystemPrompt, utterance, bundle.MaxTokens)
		if err != nil {
			utils.LogError("LLM error, answering from knowledge base", err, map[string]interface{}{
				"client_id": bundle.ClientID,
			})
			text = bundle.Capabilities[CapKnowledgeSearch](utterance)
		} else {
			text = answer
		}
	default:
		text = bundle.Capabilities[CapKnowledgeSearch](utterance)
	}

	if e.convLog != nil {
		go func() {
			if err := e.convLog.LogConversation(bundle.ClientID, utterance, text); err != nil {
				utils.LogError("failed to log conversation", err, map[string]interface{}{
					"client_id": bundle.ClientID,
				})
			}
		}()
	}

	return Reply{ClientID: bundle.ClientID, Text: text, Voice: bundle.Voice}, nil
}
