// Package httpapi implements spec.md §6's HTTP surface: router, handler
// and dto split, grounded on the teacher's internal/http/{router,handler,
// dto} layering. Handlers stay thin — they translate DTOs to/from the
// domain types in internal/state and internal/runner and never embed
// interview logic themselves.
package httpapi

import (
	"github.com/loopfield/interview-engine/internal/interview"
	"github.com/loopfield/interview-engine/internal/state"
)

// Service bundles everything a request handler needs: the loaded
// interview bundles, the state envelope's encryption key, and the admin
// bearer token. It is built once at startup and is read-only for the
// life of the process (spec.md §5 "no shared mutable engine state
// between requests").
type Service struct {
	// Interviews indexes every loaded bundle by id.
	Interviews map[string]*interview.Interview
	// Order preserves load order for the GET /interviews listing.
	Order []string

	EncryptionKey [state.KeySize]byte
	AdminAPIKey   string

	// UpdateURL is echoed back in every incomplete response so the
	// client knows where to POST its next set of responses.
	UpdateURL string
}

// NewService builds a Service from a set of loaded interviews. Webhook
// connection pooling (spec.md §5) is configured once on the *http.Client
// passed to the config loader building those interviews' Hook steps, not
// here — Service itself holds no transport state.
func NewService(interviews map[string]*interview.Interview, order []string, key [state.KeySize]byte, adminAPIKey, updateURL string) *Service {
	if updateURL == "" {
		updateURL = "/update"
	}
	return &Service{
		Interviews:    interviews,
		Order:         order,
		EncryptionKey: key,
		AdminAPIKey:   adminAPIKey,
		UpdateURL:     updateURL,
	}
}
