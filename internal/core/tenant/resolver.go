package tenant

import (
	"strings"

	"github.com/astralisone/voice-agent-be/internal/models"
)

// Metadata keys checked during resolution.
const (
	ClientIDKey = "X-Client-ID"
	HostKey     = "Host"
)

// ProfileLookup is the slice of the profile store resolution needs.
type ProfileLookup interface {
	Get(clientID string) (models.ClientProfile, bool)
}

// Resolver maps inbound interaction metadata to a client id. An
// explicit client id field always wins; otherwise the first label of
// the host is accepted only when it names an existing profile. The
// resolver never creates profiles.
type Resolver struct {
	store ProfileLookup
}

func NewResolver(store ProfileLookup) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the client id for the interaction, or "" when neither
// the explicit field nor the subdomain yields one.
func (r *Resolver) Resolve(metadata map[string]string) string {
	if clientID := metadata[ClientIDKey]; clientID != "" {
		return clientID
	}

	host := metadata[HostKey]
	if strings.Contains(host, ".") {
		subdomain := strings.Split(host, ".")[0]
		if _, ok := r.store.Get(subdomain); ok {
			return subdomain
		}
	}
	return ""
}
