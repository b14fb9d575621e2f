package paw

import (
	"fmt"
	"reflect"
	"sync"
)

// Phase is the direction of a motion: presenting extends the paw toward
// the front limit, retracting withdraws it toward the rear limit.
type Phase string

// Motion phases. These are the only valid registry keys.
const (
	Present Phase = "present"
	Retract Phase = "retract"
)

// Phases returns both phases in a fixed order.
func Phases() []Phase {
	return []Phase{Present, Retract}
}

// ParsePhase converts a descriptor string to a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}
	return p, nil
}

func (p Phase) valid() bool {
	return p == Present || p == Retract
}

// Registry holds the ordered breaker list of each phase. Insertion order is
// poll order. Breakers may be shared between phases.
type Registry struct {
	mu    sync.Mutex
	lists map[Phase][]Breaker
}

// NewRegistry creates a registry with empty lists for both phases.
func NewRegistry() *Registry {
	return &Registry{
		lists: map[Phase][]Breaker{
			Present: nil,
			Retract: nil,
		},
	}
}

// Register appends b to the list of phase. An unknown phase fails with
// ErrUnknownPhase and leaves the registry unchanged.
func (r *Registry) Register(phase Phase, b Breaker) error {
	if !phase.valid() {
		return fmt.Errorf("register %s: %w: %q", Describe(b), ErrUnknownPhase, string(phase))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists[phase] = append(r.lists[phase], b)
	return nil
}

// Unregister removes every occurrence of b, compared by identity, from all
// phases. It is a no-op if b is not registered. Breakers whose dynamic type
// is not comparable have no identity and are never matched.
func (r *Registry) Unregister(b Breaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for phase, list := range r.lists {
		kept := list[:0:0]
		for _, x := range list {
			if !sameBreaker(x, b) {
				kept = append(kept, x)
			}
		}
		r.lists[phase] = kept
	}
}

func sameBreaker(a, b Breaker) bool {
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) {
		return false
	}
	if t != nil && !t.Comparable() {
		return false
	}
	return a == b
}

// Breakers returns a copy of the list for phase. Changes made to the
// registry afterwards do not affect the returned slice.
func (r *Registry) Breakers(phase Phase) []Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.lists[phase]
	out := make([]Breaker, len(list))
	copy(out, list)
	return out
}
