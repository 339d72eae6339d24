package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astralisone/voice-agent-be/internal/core/agent"
	"github.com/astralisone/voice-agent-be/internal/core/kb"
	"github.com/astralisone/voice-agent-be/internal/core/tenant"
	"github.com/astralisone/voice-agent-be/internal/repositories"
)

func newTestApp(t *testing.T) (*fiber.App, *kb.Loader) {
	t.Helper()

	store, err := repositories.NewProfileStore(t.TempDir())
	require.NoError(t, err)

	loader := kb.NewLoader(t.TempDir())
	resolver := tenant.NewResolver(store)
	binder := agent.NewBinder(loader)
	engine := agent.NewEngine(store, resolver, binder, nil, nil)

	clientHandler := NewClientHandler(store)
	kbHandler := NewKBHandler(store, loader)
	interactionHandler := NewInteractionHandler(engine)

	app := fiber.New()
	app.Post("/clients", clientHandler.CreateClient)
	app.Get("/clients", clientHandler.ListClients)
	app.Get("/clients/:id", clientHandler.GetClient)
	app.Patch("/clients/:id", clientHandler.UpdateClient)
	app.Post("/clients/:id/validate-kb", kbHandler.ValidateKnowledgeBase)
	app.Post("/cache/clear", kbHandler.ClearCache)
	app.Get("/cache/keys", kbHandler.CacheKeys)
	app.Post("/interact", interactionHandler.Interact)
	return app, loader
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func acmePayload() map[string]interface{} {
	return map[string]interface{}{
		"client_id":    "acme",
		"company_name": "Acme LLC",
		"brand_name":   "Acme Solutions",
		"services":     []string{"Widgets", "Gadgets"},
		"knowledge_base": map[string]string{
			"kind":   "text",
			"source": "Widgets ship worldwide within 3 days.",
		},
	}
}

func TestClientLifecycle(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/clients", acmePayload(), nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "acme", body["client_id"])

	resp, body = doJSON(t, app, fiber.MethodGet, "/clients", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{"acme"}, body["clients"])

	resp, body = doJSON(t, app, fiber.MethodGet, "/clients/acme", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Acme Solutions", body["brand_name"])

	resp, _ = doJSON(t, app, fiber.MethodPatch, "/clients/acme",
		map[string]interface{}{"brand_name": "Acme Pro"}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, fiber.MethodGet, "/clients/acme", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Acme Pro", body["brand_name"])
}

func TestCreateClientRejectsIncompleteProfile(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/clients",
		map[string]interface{}{"client_id": "acme"}, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "company_name")
}

func TestGetUnknownClient(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodGet, "/clients/ghost", nil, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "client not found", body["error"])
}

func TestUpdateUnknownClient(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPatch, "/clients/ghost",
		map[string]interface{}{"brand_name": "Ghost"}, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestValidateKnowledgeBase(t *testing.T) {
	app, _ := newTestApp(t)

	doJSON(t, app, fiber.MethodPost, "/clients", acmePayload(), nil)

	resp, body := doJSON(t, app, fiber.MethodPost, "/clients/acme/validate-kb", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])

	broken := acmePayload()
	broken["client_id"] = "broken"
	broken["knowledge_base"] = map[string]string{"kind": "file", "source": "missing.json"}
	doJSON(t, app, fiber.MethodPost, "/clients", broken, nil)

	resp, body = doJSON(t, app, fiber.MethodPost, "/clients/broken/validate-kb", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["reason"])
}

func TestCacheEndpoints(t *testing.T) {
	app, loader := newTestApp(t)

	doJSON(t, app, fiber.MethodPost, "/clients", acmePayload(), nil)
	doJSON(t, app, fiber.MethodPost, "/interact",
		map[string]string{"utterance": "widgets"},
		map[string]string{tenant.ClientIDKey: "acme"})

	resp, body := doJSON(t, app, fiber.MethodGet, "/cache/keys", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{"text:Widgets ship worldwide within 3 days."}, body["keys"])

	resp, _ = doJSON(t, app, fiber.MethodPost, "/cache/clear", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, loader.CachedKeys())
}

func TestInteractResolvesClientFromHeader(t *testing.T) {
	app, _ := newTestApp(t)

	doJSON(t, app, fiber.MethodPost, "/clients", acmePayload(), nil)

	resp, body := doJSON(t, app, fiber.MethodPost, "/interact",
		map[string]string{"utterance": "widgets", "capability": agent.CapServiceInfo},
		map[string]string{tenant.ClientIDKey: "acme"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "acme", body["client_id"])
	assert.Contains(t, body["text"], "Widgets")

	voice, ok := body["voice"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "playai-tts", voice["model"])
}

func TestInteractResolvesClientFromSubdomain(t *testing.T) {
	app, _ := newTestApp(t)

	doJSON(t, app, fiber.MethodPost, "/clients", acmePayload(), nil)

	req := httptest.NewRequest(fiber.MethodPost, "/interact",
		bytes.NewReader([]byte(`{"utterance":"widgets","capability":"get_service_info"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Host = "acme.example.com"

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "acme", body["client_id"])
}

func TestInteractFallsBackToDefaultAgent(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/interact",
		map[string]string{"utterance": "hello", "capability": agent.CapCompanyInfo}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "default", body["client_id"])
}

func TestInteractRejectsEmptyUtterance(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/interact",
		map[string]string{"utterance": ""}, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestInteractRejectsUnknownCapability(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/interact",
		map[string]string{"utterance": "hi", "capability": "launch_rockets"}, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
