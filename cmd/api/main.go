package main

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/astralisone/voice-agent-be/internal/config"
	"github.com/astralisone/voice-agent-be/internal/core/agent"
	"github.com/astralisone/voice-agent-be/internal/core/kb"
	"github.com/astralisone/voice-agent-be/internal/core/llm"
	"github.com/astralisone/voice-agent-be/internal/core/tenant"
	"github.com/astralisone/voice-agent-be/internal/handlers"
	"github.com/astralisone/voice-agent-be/internal/repositories"
	"github.com/astralisone/voice-agent-be/internal/shared/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.LogLevel)

	store, err := repositories.NewProfileStore(cfg.ClientsDir)
	if err != nil {
		log.Fatalf("❌ Failed to open profile store: %v", err)
	}

	convLog, err := repositories.NewConversationLog(cfg.ConversationsDir)
	if err != nil {
		log.Fatalf("❌ Failed to open conversation log: %v", err)
	}

	loader := kb.NewLoader(cfg.KnowledgeDir)
	resolver := tenant.NewResolver(store)
	binder := agent.NewBinder(loader)

	provider := buildProvider(cfg)
	engine := agent.NewEngine(store, resolver, binder, provider, convLog)

	clientHandler := handlers.NewClientHandler(store)
	kbHandler := handlers.NewKBHandler(store, loader)
	interactionHandler := handlers.NewInteractionHandler(engine)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "voice-agent-api",
			"clients": len(store.ListIDs()),
		})
	})

	app.Post("/clients", clientHandler.CreateClient)
	app.Get("/clients", clientHandler.ListClients)
	app.Get("/clients/:id", clientHandler.GetClient)
	app.Patch("/clients/:id", clientHandler.UpdateClient)
	app.Post("/clients/:id/validate-kb", kbHandler.ValidateKnowledgeBase)

	app.Post("/cache/clear", kbHandler.ClearCache)
	app.Get("/cache/keys", kbHandler.CacheKeys)

	app.Post("/interact", interactionHandler.Interact)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 API running at :%s", port)
	log.Fatal(app.Listen(":" + port))
}

// buildProvider returns nil when no LLM key is configured; the engine
// then answers from the knowledge base directly.
func buildProvider(cfg config.Config) llm.Provider {
	providerType := llm.ProviderType(cfg.LLMProvider)
	apiKey := cfg.GroqKey
	if providerType == llm.ProviderOpenAI {
		apiKey = cfg.OpenAIKey
	}
	if apiKey == "" {
		log.Println("⚠️  No LLM API key configured, answering from knowledge base only")
		return nil
	}

	provider, err := llm.NewProvider(providerType, apiKey, cfg.LLMModel)
	if err != nil {
		log.Printf("⚠️  %v, answering from knowledge base only", err)
		return nil
	}
	log.Printf("🤖 Using LLM provider: %s", provider.GetProviderName())
	return provider
}
