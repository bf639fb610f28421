package agents

import (
	"fmt"
	"sync"

	"github.com/priorauth/autoauth/search"
)

// CapabilityPolicySearch is the capability name the Retriever resolves to
// execute hybrid policy search.
const CapabilityPolicySearch = "policy-search"

// Capabilities maps capability names to the external collaborators agents may
// invoke. A session's agents resolve capabilities by name at construction, so
// a definition referencing an unregistered capability fails fast instead of
// mid-conversation. Thread-safe for concurrent registration.
type Capabilities struct {
	mu        sync.RWMutex
	searchers map[string]search.Searcher
}

// NewCapabilities creates an empty capability set.
func NewCapabilities() *Capabilities {
	return &Capabilities{searchers: make(map[string]search.Searcher)}
}

// RegisterSearcher binds a search capability to a name, replacing any
// previous binding.
func (c *Capabilities) RegisterSearcher(name string, s search.Searcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchers[name] = s
}

// Searcher resolves a named search capability.
func (c *Capabilities) Searcher(name string) (search.Searcher, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.searchers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, name)
	}
	return s, nil
}
