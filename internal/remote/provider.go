package remote

import (
	"context"
	"sync"
)

// EndpointProvider returns the GraphQL endpoint URLs serving a subschema.
// Implementations may integrate with service discovery and must be safe for
// concurrent use.
type EndpointProvider interface {
	Endpoints(ctx context.Context, subschema string) ([]string, error)
}

// StaticEndpoints is a provider backed by an in-memory map keyed by
// subschema name.
type StaticEndpoints struct {
	mu   sync.RWMutex
	data map[string][]string
}

func NewStaticEndpoints(m map[string][]string) *StaticEndpoints {
	cp := make(map[string][]string, len(m))
	for k, v := range m {
		cp[k] = append([]string(nil), v...)
	}
	return &StaticEndpoints{data: cp}
}

func (s *StaticEndpoints) Endpoints(_ context.Context, subschema string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.data[subschema]
	if len(arr) == 0 {
		return nil, ErrNoEndpoints
	}
	return append([]string(nil), arr...), nil
}

// Set replaces the endpoints of a subschema.
func (s *StaticEndpoints) Set(subschema string, endpoints ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[subschema] = append([]string(nil), endpoints...)
}
