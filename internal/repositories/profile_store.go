package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/astralisone/voice-agent-be/internal/models"
	"github.com/astralisone/voice-agent-be/internal/shared/utils"
)

// ProfileStore owns the canonical copy of every client profile. Records
// live one JSON file per client under the store directory, with an
// in-memory index kept eagerly in sync. Reads return deep-copied
// snapshots.
type ProfileStore interface {
	LoadAll() error
	Get(clientID string) (models.ClientProfile, bool)
	Create(profile models.ClientProfile) error
	Update(clientID string, updates map[string]interface{}) error
	ListIDs() []string
}

// updatableFields are the profile attributes a partial update may touch.
// client_id is immutable; timestamps are store-managed. Unknown keys in
// an update payload are ignored so forward-compatible payloads don't
// fail.
var updatableFields = map[string]struct{}{
	"company_name":     {},
	"brand_name":       {},
	"voice_name":       {},
	"agent_persona":    {},
	"services":         {},
	"pricing_tiers":    {},
	"contact_info":     {},
	"custom_responses": {},
	"knowledge_base":   {},
	"max_tokens":       {},
}

type profileStore struct {
	dir      string
	mu       sync.RWMutex
	profiles map[string]models.ClientProfile
}

// NewProfileStore creates the store directory if needed and indexes
// every profile file found in it.
func NewProfileStore(dir string) (ProfileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create clients dir %s: %w", dir, err)
	}
	s := &profileStore{
		dir:      dir,
		profiles: make(map[string]models.ClientProfile),
	}
	if err := s.LoadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadAll re-reads every *.json file under the store directory.
// Malformed records are skipped with a warning; partial load is an
// accepted degraded state.
func (s *profileStore) LoadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read clients dir %s: %w", s.dir, err)
	}

	loaded := make(map[string]models.ClientProfile)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		profile, err := readProfileFile(path)
		if err != nil {
			utils.LogWarn("skipping client profile", map[string]interface{}{
				"file": path, "reason": err.Error(),
			})
			continue
		}
		loaded[profile.ClientID] = profile
	}

	s.mu.Lock()
	s.profiles = loaded
	s.mu.Unlock()

	utils.LogInfo("client profiles loaded", map[string]interface{}{
		"count": len(loaded), "dir": s.dir,
	})
	return nil
}

func readProfileFile(path string) (models.ClientProfile, error) {
	var profile models.ClientProfile
	data, err := os.ReadFile(path)
	if err != nil {
		return profile, err
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, err
	}
	if err := profile.Validate(); err != nil {
		return profile, err
	}
	profile.Normalize()
	return profile, nil
}

func (s *profileStore) Get(clientID string) (models.ClientProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[clientID]
	if !ok {
		return models.ClientProfile{}, false
	}
	return profile.Clone(), true
}

// Create writes the profile to disk and indexes it. An existing client
// with the same id is overwritten; the previous record is replaced
// atomically so concurrent readers never observe a torn profile.
func (s *profileStore) Create(profile models.ClientProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	profile.Normalize()

	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.profiles[profile.ClientID]; ok {
		profile.CreatedAt = existing.CreatedAt
		utils.LogWarn("overwriting existing client profile", map[string]interface{}{
			"client_id": profile.ClientID,
		})
	}

	if err := s.writeProfile(profile); err != nil {
		return err
	}
	s.profiles[profile.ClientID] = profile
	return nil
}

// Update applies only the known profile fields present in updates, then
// re-serializes the whole record with the same atomic-write discipline
// as Create. Unknown fields are ignored and still report success.
func (s *profileStore) Update(clientID string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.profiles[clientID]
	if !ok {
		return fmt.Errorf("client %q: %w", clientID, models.ErrNotFound)
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("serialize client %q: %w", clientID, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("serialize client %q: %w", clientID, err)
	}

	changed := false
	for field, value := range updates {
		if _, known := updatableFields[field]; !known {
			continue
		}
		doc[field] = value
		changed = true
	}
	if !changed {
		return nil
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("merge update for client %q: %w", clientID, err)
	}
	var next models.ClientProfile
	if err := json.Unmarshal(merged, &next); err != nil {
		return fmt.Errorf("invalid field value for client %q: %w", clientID, models.ErrValidation)
	}
	next.ClientID = clientID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	if err := next.Validate(); err != nil {
		return err
	}
	next.Normalize()

	if err := s.writeProfile(next); err != nil {
		return err
	}
	s.profiles[clientID] = next
	return nil
}

func (s *profileStore) ListIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	return ids
}

// writeProfile persists via temp file + rename so a crash mid-write
// cannot corrupt the previously durable record.
func (s *profileStore) writeProfile(profile models.ClientProfile) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize client %q: %w", profile.ClientID, err)
	}

	tmp, err := os.CreateTemp(s.dir, profile.ClientID+".*.tmp")
	if err != nil {
		return fmt.Errorf("write client %q: %w", profile.ClientID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write client %q: %w", profile.ClientID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write client %q: %w", profile.ClientID, err)
	}

	final := filepath.Join(s.dir, profile.ClientID+".json")
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write client %q: %w", profile.ClientID, err)
	}
	return nil
}
