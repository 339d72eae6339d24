package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astralisone/voice-agent-be/internal/core/kb"
	"github.com/astralisone/voice-agent-be/internal/core/llm"
	"github.com/astralisone/voice-agent-be/internal/core/tenant"
	"github.com/astralisone/voice-agent-be/internal/models"
	"github.com/astralisone/voice-agent-be/internal/repositories"
)

type stubProvider struct {
	reply string
	err   error

	mu         sync.Mutex
	calls      int
	lastMax    int
	lastPrompt string
}

func (s *stubProvider) GenerateResponse(_ context.Context, systemPrompt, _ string, maxTokens int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastMax = maxTokens
	s.lastPrompt = systemPrompt
	return s.reply, s.err
}

func (s *stubProvider) GetProviderName() string { return "stub" }

type memoryConvLog struct {
	mu      sync.Mutex
	entries []models.Conversation
}

func (l *memoryConvLog) LogConversation(clientID, message, response string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, models.Conversation{
		ClientID: clientID, Message: message, Response: response,
	})
	return nil
}

func (l *memoryConvLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func newTestEngine(t *testing.T, provider *stubProvider, convLog repositories.ConversationLog) (*Engine, repositories.ProfileStore) {
	t.Helper()
	store, err := repositories.NewProfileStore(t.TempDir())
	require.NoError(t, err)

	loader := kb.NewLoader(t.TempDir())
	resolver := tenant.NewResolver(store)
	binder := NewBinder(loader)

	var p llm.Provider
	if provider != nil {
		p = provider
	}
	return NewEngine(store, resolver, binder, p, convLog), store
}

func createAcme(t *testing.T, store repositories.ProfileStore) {
	t.Helper()
	require.NoError(t, store.Create(models.ClientProfile{
		ClientID:    "acme",
		CompanyName: "Acme LLC",
		BrandName:   "Acme Solutions",
		Services:    []string{"Widgets"},
		KnowledgeBase: models.KnowledgeSource{
			Kind:   "text",
			Source: "Widgets ship worldwide within 3 days.\n\nSupport is available around the clock.",
		},
	}))
}

func TestServiceCapabilityEndToEnd(t *testing.T) {
	engine, store := newTestEngine(t, nil, nil)
	createAcme(t, store)

	metadata := map[string]string{tenant.ClientIDKey: "acme"}

	reply, err := engine.HandleInteraction(context.Background(), metadata, CapServiceInfo, "widgets")
	require.NoError(t, err)
	assert.Equal(t, "acme", reply.ClientID)
	assert.Contains(t, reply.Text, "Acme Solutions")
	assert.Contains(t, reply.Text, "Widgets")

	reply, err = engine.HandleInteraction(context.Background(), metadata, CapServiceInfo, "paragliding")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Widgets")
	assert.Contains(t, reply.Text, "How can I help you with these services?")
}

func TestUnresolvedTenantUsesDefaultAgent(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)

	reply, err := engine.HandleInteraction(context.Background(), map[string]string{}, CapCompanyInfo, "tell me about the company")
	require.NoError(t, err)
	assert.Equal(t, "default", reply.ClientID)
	assert.Contains(t, reply.Text, "AstralisOne")
	assert.Equal(t, models.DefaultVoiceName, reply.Voice.Voice)
}

func TestConversationalPathUsesProviderWithBudget(t *testing.T) {
	provider := &stubProvider{reply: "Happy to help with widgets!"}
	engine, store := newTestEngine(t, provider, nil)
	createAcme(t, store)

	reply, err := engine.HandleInteraction(context.Background(),
		map[string]string{tenant.ClientIDKey: "acme"}, "", "do you ship widgets?")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help with widgets!", reply.Text)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, models.DefaultMaxTokens, provider.lastMax)
	assert.Contains(t, provider.lastPrompt, "Acme Solutions")
}

func TestProviderFailureFallsBackToKnowledgeBase(t *testing.T) {
	provider := &stubProvider{err: errors.New("rate limited")}
	engine, store := newTestEngine(t, provider, nil)
	createAcme(t, store)

	reply, err := engine.HandleInteraction(context.Background(),
		map[string]string{tenant.ClientIDKey: "acme"}, "", "when do widgets ship?")
	require.NoError(t, err)
	assert.Equal(t, "Widgets ship worldwide within 3 days.", reply.Text)
}

func TestNoProviderAnswersFromKnowledgeBase(t *testing.T) {
	engine, store := newTestEngine(t, nil, nil)
	createAcme(t, store)

	reply, err := engine.HandleInteraction(context.Background(),
		map[string]string{tenant.ClientIDKey: "acme"}, "", "is support available?")
	require.NoError(t, err)
	assert.Equal(t, "Support is available around the clock.", reply.Text)
}

func TestUnknownCapability(t *testing.T) {
	engine, store := newTestEngine(t, nil, nil)
	createAcme(t, store)

	_, err := engine.HandleInteraction(context.Background(),
		map[string]string{tenant.ClientIDKey: "acme"}, "launch_rockets", "go")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestEmptyUtteranceRejected(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)
	_, err := engine.HandleInteraction(context.Background(), map[string]string{}, "", "   ")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestConversationIsLogged(t *testing.T) {
	convLog := &memoryConvLog{}
	engine, store := newTestEngine(t, nil, convLog)
	createAcme(t, store)

	_, err := engine.HandleInteraction(context.Background(),
		map[string]string{tenant.ClientIDKey: "acme"}, CapServiceInfo, "widgets")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return convLog.count() == 1 }, time.Second, 10*time.Millisecond)
	entry := convLog.entries[0]
	assert.Equal(t, "acme", entry.ClientID)
	assert.Equal(t, "widgets", entry.Message)
}
