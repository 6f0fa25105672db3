package indicator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rxtech-lab/bitbroker/internal/types"
)

// Factory builds a fresh, unconfigured indicator.
type Factory func() Indicator

// IndicatorRegistry maps indicator names to factories. Indicators carry their
// period as mutable state, so every lookup returns a new instance and runs
// never share one.
type IndicatorRegistry interface {
	RegisterIndicator(name types.IndicatorType, factory Factory) error
	NewIndicator(name types.IndicatorType, period int) (Indicator, error)
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	factories map[types.IndicatorType]Factory
	mu        sync.RWMutex
}

// NewIndicatorRegistry creates an empty indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		factories: make(map[types.IndicatorType]Factory),
		mu:        sync.RWMutex{},
	}
}

// NewDefaultIndicatorRegistry creates a registry holding the WMA and HMA indicators.
func NewDefaultIndicatorRegistry() IndicatorRegistry {
	registry := NewIndicatorRegistry()
	// names are distinct, registration cannot fail
	_ = registry.RegisterIndicator(types.IndicatorTypeWMA, NewWMA)
	_ = registry.RegisterIndicator(types.IndicatorTypeHMA, NewHMA)

	return registry
}

// RegisterIndicator adds an indicator factory to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(name types.IndicatorType, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("RegisterIndicator: indicator with name %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// NewIndicator builds the named indicator configured with period.
func (r *IndicatorRegistryV1) NewIndicator(name types.IndicatorType, period int) (Indicator, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("NewIndicator: indicator with name %s not found", name)
	}

	indicator := factory()
	if err := indicator.Config(period); err != nil {
		return nil, fmt.Errorf("NewIndicator: %s: %w", name, err)
	}

	return indicator, nil
}

// ListIndicators returns all registered indicator names in sorted order.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		return fmt.Errorf("RemoveIndicator: indicator with name %s not found", name)
	}

	delete(r.factories, name)

	return nil
}
