package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/astralisone/voice-agent-be/internal/models"
	"github.com/astralisone/voice-agent-be/internal/shared/utils"
)

const (
	fetchTimeout  = 10 * time.Second
	userAgent     = "KnowledgeBase-Loader/1.0"
	minTextLength = 10
)

// Field lists probed when a source turns out to be structured JSON.
// Values are joined with blank lines in declaration order.
var (
	fileKnowledgeFields = []string{"content", "text", "description", "knowledge", "faq", "info"}
	urlKnowledgeFields  = []string{"content", "text", "description", "knowledge", "data"}
)

// Loader resolves knowledge source descriptors into normalized text and
// caches the result per (kind, source) for the life of the process.
// Knowledge content only changes via administrative redeploy, so cache
// entries never expire; ClearCache is the explicit reset.
type Loader struct {
	knowledgeDir string
	client       *http.Client

	mu    sync.RWMutex
	cache map[string]string
}

func NewLoader(knowledgeDir string) *Loader {
	return NewLoaderWithClient(knowledgeDir, &http.Client{Timeout: fetchTimeout})
}

// NewLoaderWithClient injects the HTTP client, mainly for tests.
func NewLoaderWithClient(knowledgeDir string, client *http.Client) *Loader {
	return &Loader{
		knowledgeDir: knowledgeDir,
		client:       client,
		cache:        make(map[string]string),
	}
}

// Load resolves a descriptor to text. An absent or incomplete
// descriptor means "no knowledge base" and yields an empty string, not
// an error. File and URL failures are surfaced to the caller; an
// unsupported kind is logged and degrades to empty content.
func (l *Loader) Load(ctx context.Context, src models.KnowledgeSource) (string, error) {
	if src.IsZero() {
		return "", nil
	}

	kind := strings.ToLower(src.Kind)
	key := cacheKey(kind, src.Source)

	l.mu.RLock()
	cached, hit := l.cache[key]
	l.mu.RUnlock()
	if hit {
		return cached, nil
	}

	var content string
	var err error
	switch kind {
	case "file":
		content, err = l.loadFromFile(src.Source)
	case "url":
		content, err = l.loadFromURL(ctx, src.Source)
	case "text":
		content = src.Source
	default:
		utils.LogWarn("unknown knowledge base kind", map[string]interface{}{
			"kind": src.Kind,
		})
		return "", nil
	}
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	l.cache[key] = content
	l.mu.Unlock()

	utils.LogInfo("knowledge base loaded", map[string]interface{}{
		"kind": kind, "chars": len(content),
	})
	return content, nil
}

func (l *Loader) loadFromFile(source string) (string, error) {
	path := source
	if !filepath.IsAbs(path) {
		if err := os.MkdirAll(l.knowledgeDir, 0o755); err != nil {
			return "", fmt.Errorf("create knowledge dir %s: %w", l.knowledgeDir, err)
		}
		path = filepath.Join(l.knowledgeDir, source)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("knowledge base file %s: %w", path, models.ErrSourceNotFound)
		}
		return "", fmt.Errorf("read knowledge base file %s: %w", path, err)
	}

	content := string(data)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		content = extractKnowledgeFields(content, fileKnowledgeFields, false)
	}
	return content, nil
}

func (l *Loader) loadFromURL(ctx context.Context, source string) (string, error) {
	parsed, err := url.Parse(source)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("url %q must be absolute with scheme and host: %w", source, models.ErrInvalidSource)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", source, models.ErrInvalidSource)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %v: %w", source, err, models.ErrSourceNotFound)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d: %w", source, resp.StatusCode, models.ErrSourceNotFound)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response from %s: %w", source, err)
	}

	content := string(body)
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "application/json") {
		content = extractKnowledgeFields(content, urlKnowledgeFields, true)
	}
	return content, nil
}

// extractKnowledgeFields pulls the known fields out of structured JSON,
// joined with blank lines. Anything unparseable falls back to the raw
// text; this path never fails.
func extractKnowledgeFields(raw string, fields []string, flattenLists bool) string {
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return raw
	}

	switch data := parsed.(type) {
	case map[string]interface{}:
		var extracted []string
		for _, field := range fields {
			value, ok := data[field]
			if !ok {
				continue
			}
			if items, isList := value.([]interface{}); isList && flattenLists {
				for _, item := range items {
					extracted = append(extracted, stringifyValue(item))
				}
				continue
			}
			extracted = append(extracted, stringifyValue(value))
		}
		if len(extracted) > 0 {
			return strings.Join(extracted, "\n\n")
		}
		return raw
	case []interface{}:
		extracted := make([]string, 0, len(data))
		for _, item := range data {
			extracted = append(extracted, stringifyValue(item))
		}
		return strings.Join(extracted, "\n\n")
	}
	return raw
}

func stringifyValue(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case float64, bool, nil:
		return fmt.Sprintf("%v", value)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(encoded)
	}
}

// ClearCache drops every cached entry. Idempotent.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	l.cache = make(map[string]string)
	l.mu.Unlock()
	utils.LogInfo("knowledge base cache cleared", nil)
}

// CachedKeys returns the currently cached (kind, source) keys, sorted
// for stable output.
func (l *Loader) CachedKeys() []string {
	l.mu.RLock()
	keys := make([]string, 0, len(l.cache))
	for key := range l.cache {
		keys = append(keys, key)
	}
	l.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func cacheKey(kind, source string) string {
	return kind + ":" + source
}

// ValidateSource is the optional pre-check used by the administrative
// surface. An empty descriptor is valid (no knowledge base). Loading
// does not require passing validation first.
func (l *Loader) ValidateSource(src models.KnowledgeSource) error {
	if src.Kind == "" && src.Source == "" {
		return nil
	}
	if src.Kind == "" || src.Source == "" {
		return fmt.Errorf("knowledge base requires both kind and source: %w", models.ErrValidation)
	}

	switch strings.ToLower(src.Kind) {
	case "file":
		path := src.Source
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.knowledgeDir, src.Source)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("knowledge base file %s not found: %w", path, models.ErrValidation)
		}
	case "url":
		parsed, err := url.Parse(src.Source)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("invalid knowledge base url %q: %w", src.Source, models.ErrValidation)
		}
	case "text":
		if len(src.Source) < minTextLength {
			return fmt.Errorf("text knowledge base too short (minimum %d characters): %w", minTextLength, models.ErrValidation)
		}
	default:
		return fmt.Errorf("invalid knowledge base kind %q (must be file, url or text): %w", src.Kind, models.ErrValidation)
	}
	return nil
}
