package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

const (
	DefaultVoiceName = "Celeste-PlayAI"
	DefaultPersona   = "helpful assistant"
	DefaultMaxTokens = 150
)

// KnowledgeSource describes where a client's reference content lives.
// Kind is "file", "url" or "text"; Source is a path, an absolute URL or
// the literal text. An empty descriptor means no knowledge base.
type KnowledgeSource struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
}

func (s KnowledgeSource) IsZero() bool {
	return s.Kind == "" || s.Source == ""
}

type PricingTier struct {
	Price    string   `json:"price"`
	Features []string `json:"features"`
}

// VoiceSettings are the TTS parameters handed downstream with a reply.
type VoiceSettings struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// ClientProfile is the configuration record for one white-label client.
// ClientID is immutable once created and doubles as the persistence
// file name.
type ClientProfile struct {
	ClientID        string                 `json:"client_id"`
	CompanyName     string                 `json:"company_name"`
	BrandName       string                 `json:"brand_name"`
	VoiceName       string                 `json:"voice_name"`
	AgentPersona    string                 `json:"agent_persona"`
	Services        []string               `json:"services"`
	PricingTiers    map[string]PricingTier `json:"pricing_tiers"`
	ContactInfo     map[string]string      `json:"contact_info"`
	CustomResponses map[string]string      `json:"custom_responses"`
	KnowledgeBase   KnowledgeSource        `json:"knowledge_base"`
	MaxTokens       int                    `json:"max_tokens"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Normalize fills defaults and makes sure collection fields are never
// nil, so formatting code downstream never branches on nullability.
func (p *ClientProfile) Normalize() {
	if p.VoiceName == "" {
		p.VoiceName = DefaultVoiceName
	}
	if p.AgentPersona == "" {
		p.AgentPersona = DefaultPersona
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	}
	if p.Services == nil {
		p.Services = []string{}
	}
	if p.PricingTiers == nil {
		p.PricingTiers = map[string]PricingTier{}
	}
	if p.ContactInfo == nil {
		p.ContactInfo = map[string]string{}
	}
	if p.CustomResponses == nil {
		p.CustomResponses = map[string]string{}
	}
	for name, tier := range p.PricingTiers {
		if tier.Features == nil {
			tier.Features = []string{}
			p.PricingTiers[name] = tier
		}
	}
}

// Validate checks the fields required to persist a profile. ClientID
// doubles as the persistence file name, so path-like ids are rejected.
// A zero MaxTokens is accepted; Normalize replaces it with the default.
func (p *ClientProfile) Validate() error {
	id := strings.TrimSpace(p.ClientID)
	if id == "" {
		return fmt.Errorf("client_id is required: %w", ErrValidation)
	}
	if id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("client_id %q must not contain path separators: %w", id, ErrValidation)
	}
	if strings.TrimSpace(p.CompanyName) == "" {
		return fmt.Errorf("company_name is required: %w", ErrValidation)
	}
	if strings.TrimSpace(p.BrandName) == "" {
		return fmt.Errorf("brand_name is required: %w", ErrValidation)
	}
	if p.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative: %w", ErrValidation)
	}
	return nil
}

// Clone returns a deep copy so callers get a snapshot that cannot
// mutate the store's canonical record.
func (p ClientProfile) Clone() ClientProfile {
	out := p
	out.Services = slices.Clone(p.Services)
	out.ContactInfo = maps.Clone(p.ContactInfo)
	out.CustomResponses = maps.Clone(p.CustomResponses)
	if p.PricingTiers != nil {
		out.PricingTiers = make(map[string]PricingTier, len(p.PricingTiers))
		for name, tier := range p.PricingTiers {
			tier.Features = slices.Clone(tier.Features)
			out.PricingTiers[name] = tier
		}
	}
	return out
}

// Conversation is one logged exchange between a customer and a client's
// agent.
type Conversation struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}
