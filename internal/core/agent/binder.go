package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/astralisone/voice-agent-be/internal/core/kb"
	"github.com/astralisone/voice-agent-be/internal/models"
	"github.com/astralisone/voice-agent-be/internal/shared/utils"
)

const ttsModel = "playai-tts"

// Bundle is everything the conversational layer needs to act for one
// client: instructions, the response-length budget, the bound
// capabilities and the voice settings.
type Bundle struct {
	ClientID     string
	SystemPrompt string
	MaxTokens    int
	Capabilities map[string]func(query string) string
	Voice        models.VoiceSettings
}

// Binder composes a client profile and its knowledge content into a
// Bundle. The only I/O it triggers is the content load.
type Binder struct {
	loader *kb.Loader
}

func NewBinder(loader *kb.Loader) *Binder {
	return &Binder{loader: loader}
}

// Bind loads the client's knowledge content (a load failure degrades to
// "no knowledge base") and assembles the bundle.
func (b *Binder) Bind(ctx context.Context, profile models.ClientProfile) Bundle {
	content := ""
	if !profile.KnowledgeBase.IsZero() {
		loaded, err := b.loader.Load(ctx, profile.KnowledgeBase)
		if err != nil {
			utils.LogError("knowledge base unavailable, continuing without it", err, map[string]interface{}{
				"client_id": profile.ClientID,
				"kind":      profile.KnowledgeBase.Kind,
			})
		} else {
			content = loaded
		}
	}
	return BindWithContent(profile, content)
}

// BindWithContent is the pure assembler behind Bind.
func BindWithContent(profile models.ClientProfile, content string) Bundle {
	profile.Normalize()

	capabilities := make(map[string]func(string) string, len(capabilityTable))
	for name, fn := range capabilityTable {
		fn := fn
		capabilities[name] = func(query string) string {
			return fn(profile, content, query)
		}
	}

	return Bundle{
		ClientID:     profile.ClientID,
		SystemPrompt: buildSystemPrompt(profile),
		MaxTokens:    profile.MaxTokens,
		Capabilities: capabilities,
		Voice: models.VoiceSettings{
			Model:          ttsModel,
			Voice:          profile.VoiceName,
			ResponseFormat: "wav",
		},
	}
}

func buildSystemPrompt(p models.ClientProfile) string {
	services := "various business solutions"
	if len(p.Services) > 0 {
		services = strings.Join(p.Services, ", ")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are %s for %s.\n\n", p.AgentPersona, p.BrandName))
	sb.WriteString(fmt.Sprintf("%s provides professional services to help businesses grow and succeed.\n\n", p.CompanyName))
	sb.WriteString(fmt.Sprintf("Our main services include: %s.\n\n", services))
	sb.WriteString("When responding:\n")
	sb.WriteString("- Keep responses under 2-3 sentences and conversational\n")
	sb.WriteString("- Be direct and concise - this is voice conversation\n")
	sb.WriteString("- Use your tools to get specific information when needed\n")
	sb.WriteString("- Focus on key benefits, not detailed explanations\n")
	sb.WriteString("- Ask one simple question at a time\n")
	sb.WriteString("- Avoid lists, bullet points, or complex details in voice responses\n")
	sb.WriteString("- Speak naturally as this will be converted to audio\n")
	sb.WriteString(fmt.Sprintf("- Always represent %s professionally\n\n", p.BrandName))
	sb.WriteString("Always use your available tools when customers ask about specific services, pricing, or company information.")
	return sb.String()
}

// DefaultProfile backs interactions that resolve to no client, so the
// runtime path always produces a bundle.
func DefaultProfile() models.ClientProfile {
	p := models.ClientProfile{
		ClientID:     "default",
		CompanyName:  "AstralisOne",
		BrandName:    "AstralisOne",
		AgentPersona: "a helpful customer support agent",
		Services: []string{
			"Customer Support System",
			"Marketing Automation Suite",
			"Operations Automation",
			"Intelligence Platform",
			"SMB AI Services",
		},
	}
	p.Normalize()
	return p
}
