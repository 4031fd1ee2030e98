package ai

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ronnysplore/studio/pkg/config"
)

// ProviderType represents a supported backend.
type ProviderType string

const (
	ProviderVertex ProviderType = "vertex"
	ProviderGemini ProviderType = "gemini"
)

// ProviderConfig holds configuration for creating a provider.
type ProviderConfig struct {
	Type   ProviderType
	Config config.Config
	APIKey string
}

// ProviderFactory is a function that creates a Provider from config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Type        ProviderType
	Name        string
	Description string
}

// Registry manages provider factories and instantiation.
type Registry struct {
	mu        sync.RWMutex
	factories map[ProviderType]ProviderFactory
	info      map[ProviderType]ProviderInfo
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ProviderType]ProviderFactory),
		info:      make(map[ProviderType]ProviderInfo),
	}
}

// Register adds a provider factory to the registry.
func (r *Registry) Register(info ProviderInfo, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[info.Type] = factory
	r.info[info.Type] = info
}

// GetProvider creates a provider instance by type.
func (r *Registry) GetProvider(cfg ProviderConfig) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	return factory(cfg)
}

// ListProviders returns information about all registered providers, sorted by type.
func (r *Registry) ListProviders() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]ProviderInfo, 0, len(r.info))
	for _, info := range r.info {
		providers = append(providers, info)
	}
	slices.SortFunc(providers, func(a, b ProviderInfo) int {
		return strings.Compare(string(a.Type), string(b.Type))
	})
	return providers
}

// GetProviderInfo returns information about a specific provider.
func (r *Registry) GetProviderInfo(providerType ProviderType) (ProviderInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.info[providerType]
	return info, ok
}

// IsRegistered checks if a provider type is registered.
func (r *Registry) IsRegistered(providerType ProviderType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[providerType]
	return ok
}

// DefaultRegistry is the global provider registry.
var DefaultRegistry = NewRegistry()

// RegisterProvider registers a provider with the default registry.
func RegisterProvider(info ProviderInfo, factory ProviderFactory) {
	DefaultRegistry.Register(info, factory)
}
