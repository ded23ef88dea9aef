package director

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// personaNamespace is the fixed namespace for deriving persona identifiers.
// IDs are a pure function of the handle so repeated startups never mint a
// second identity for the same configured persona.
var personaNamespace = uuid.MustParse("9f2c6bf4-52a1-4c83-9c3e-401b6aee5d21")

// PersonaID derives the stable identifier for a handle.
func PersonaID(handle string) uuid.UUID {
	return uuid.NewSHA1(personaNamespace, []byte(strings.ToLower(strings.TrimSpace(handle))))
}

// Persona is a configured synthetic actor. Identity fields are immutable;
// the trait fields may be replaced by re-registration.
type Persona struct {
	ID             uuid.UUID `json:"id"`
	Handle         string    `json:"handle"`
	DisplayName    string    `json:"display_name"`
	Tone           string    `json:"tone"`
	Interests      []string  `json:"interests"`
	CadenceMinutes int       `json:"cadence_minutes"`
	QualityHint    string    `json:"quality_hint,omitempty"`
}

// Registry holds the persona roster. Registration is idempotent by handle:
// registering an existing handle updates traits without creating a new
// identity or changing iteration order.
type Registry struct {
	mu       sync.RWMutex
	byHandle map[string]int
	personas []Persona
}

func NewRegistry() *Registry {
	return &Registry{byHandle: make(map[string]int)}
}

// Register adds or replaces a persona by handle and returns it with its
// derived identifier filled in.
func (r *Registry) Register(p Persona) Persona {
	p.ID = PersonaID(p.Handle)
	if p.DisplayName == "" {
		p.DisplayName = p.Handle
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(p.Handle)
	if idx, ok := r.byHandle[key]; ok {
		r.personas[idx] = p
		return p
	}
	r.byHandle[key] = len(r.personas)
	r.personas = append(r.personas, p)
	return p
}

// All returns a snapshot of the roster in registration order.
func (r *Registry) All() []Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Persona, len(r.personas))
	copy(out, r.personas)
	return out
}

// Get looks a persona up by identifier.
func (r *Registry) Get(id uuid.UUID) (Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

// Len reports the roster size.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.personas)
}
