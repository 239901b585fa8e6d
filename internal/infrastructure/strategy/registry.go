package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
)

// StrategyRegistry manages pricing strategy registrations keyed by strategy ID
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]pricing.PricingStrategy
	defaultID  string
}

// NewStrategyRegistry creates a new strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		strategies: make(map[string]pricing.PricingStrategy),
	}
}

// Register registers a pricing strategy
func (r *StrategyRegistry) Register(s pricing.PricingStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := s.ID()
	if _, exists := r.strategies[id]; exists {
		return fmt.Errorf("%w: pricing strategy '%s' already registered", shared.ErrAlreadyExists, id)
	}
	r.strategies[id] = s
	return nil
}

// Get returns a pricing strategy by ID, or the default if id is empty
func (r *StrategyRegistry) Get(id string) (pricing.PricingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == "" {
		id = r.defaultID
		if id == "" {
			return nil, fmt.Errorf("%w: no default pricing strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.strategies[id]
	if !exists {
		return nil, fmt.Errorf("%w: pricing strategy '%s' not found", shared.ErrNotFound, id)
	}
	return s, nil
}

// GetOrDefault returns a pricing strategy by ID, or the default if not found
func (r *StrategyRegistry) GetOrDefault(id string) pricing.PricingStrategy {
	s, err := r.Get(id)
	if err != nil {
		s, _ = r.Get("")
	}
	return s
}

// Has returns true if a strategy with the given ID is registered
func (r *StrategyRegistry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.strategies[id]
	return exists
}

// List returns all registered strategy IDs
func (r *StrategyRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.strategies))
	for id := range r.strategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Unregister removes a strategy
func (r *StrategyRegistry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[id]; !exists {
		return fmt.Errorf("%w: pricing strategy '%s' not found", shared.ErrNotFound, id)
	}
	delete(r.strategies, id)

	// Clear default if it was this strategy
	if r.defaultID == id {
		r.defaultID = ""
	}
	return nil
}

// SetDefault sets the default strategy
func (r *StrategyRegistry) SetDefault(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[id]; !exists {
		return fmt.Errorf("%w: pricing strategy '%s' not found", shared.ErrNotFound, id)
	}
	r.defaultID = id
	return nil
}

// GetDefault returns the default strategy ID
func (r *StrategyRegistry) GetDefault() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultID
}

// FindByID returns a strategy by ID
func (r *StrategyRegistry) FindByID(id string) (pricing.PricingStrategy, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: pricing strategy id is required", shared.ErrInvalidInput)
	}
	return r.Get(id)
}

// FindAll returns all strategies ordered by ID
func (r *StrategyRegistry) FindAll() []pricing.PricingStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pricing.PricingStrategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// FindByType returns the strategies of a type ordered by ID
func (r *StrategyRegistry) FindByType(strategyType pricing.StrategyType) []pricing.PricingStrategy {
	all := r.FindAll()
	out := make([]pricing.PricingStrategy, 0, len(all))
	for _, s := range all {
		if s.Type() == strategyType {
			out = append(out, s)
		}
	}
	return out
}

// Stats returns registration counts for each strategy type
func (r *StrategyRegistry) Stats() map[pricing.StrategyType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[pricing.StrategyType]int)
	for _, s := range r.strategies {
		stats[s.Type()]++
	}
	return stats
}

// Ensure StrategyRegistry implements the domain contracts
var (
	_ pricing.StrategyRegistry          = (*StrategyRegistry)(nil)
	_ pricing.PricingStrategyRepository = (*StrategyRegistry)(nil)
)
