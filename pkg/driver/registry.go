package driver

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/logger"
)

// Registry manages driver registration and instantiation
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new driver registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register registers a driver factory under name
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" || factory == nil {
		return errors.New(errors.ErrorTypeConfig, "driver name and factory are required")
	}
	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "driver %s already registered", name)
	}

	r.factories[name] = factory
	return nil
}

// Open creates a driver instance for cfg.Driver.Name
func (r *Registry) Open(ctx context.Context, cfg *config.Config) (Driver, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "configuration cannot be nil")
	}

	r.mu.RLock()
	factory, exists := r.factories[cfg.Driver.Name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "driver %s not found", cfg.Driver.Name)
	}

	d, err := factory(ctx, cfg)
	if err != nil {
		if errors.IsConnection(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create driver "+cfg.Driver.Name)
	}

	logger.With(zap.String("component", "driver_registry")).
		Debug("driver opened", zap.String("driver", cfg.Driver.Name))
	return d, nil
}

// List returns the registered driver names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if a driver is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// Register registers a driver factory in the global registry.
// It panics on duplicate registration, which only happens through init order bugs.
func Register(name string, factory Factory) {
	if err := globalRegistry.Register(name, factory); err != nil {
		panic(err)
	}
}

// Open creates a driver from the global registry
func Open(ctx context.Context, cfg *config.Config) (Driver, error) {
	return globalRegistry.Open(ctx, cfg)
}

// List returns the drivers in the global registry
func List() []string {
	return globalRegistry.List()
}

// Has reports whether the global registry knows name
func Has(name string) bool {
	return globalRegistry.Has(name)
}
