package generation

import (
	"strings"
	"sync"
)

// Pool is an ordered set of equivalent backend endpoints handed out in
// round-robin order. Next is safe for concurrent use; every caller gets the
// following endpoint in sequence, so load spreads evenly in request order.
type Pool struct {
	mu        sync.Mutex
	endpoints []string
	cursor    int
}

// NewPool creates a pool. Blank entries are dropped and trailing slashes
// trimmed; an empty result returns ErrNoEndpoints.
func NewPool(endpoints []string) (*Pool, error) {
	cleaned := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		e = strings.TrimRight(strings.TrimSpace(e), "/")
		if e != "" {
			cleaned = append(cleaned, e)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoEndpoints
	}
	return &Pool{endpoints: cleaned}, nil
}

// Next returns the endpoint under the cursor and advances it.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.endpoints[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.endpoints)
	return e
}

// Size returns the number of endpoints.
func (p *Pool) Size() int { return len(p.endpoints) }

// Endpoints returns a copy of the configured endpoints.
func (p *Pool) Endpoints() []string {
	out := make([]string, len(p.endpoints))
	copy(out, p.endpoints)
	return out
}
