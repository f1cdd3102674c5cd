package model

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/harunnryd/pgpt/internal/config"
	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/client"
	"github.com/harunnryd/pgpt/internal/model/contract"
	anthropicProvider "github.com/harunnryd/pgpt/internal/model/providers/anthropic"
	openaiProvider "github.com/harunnryd/pgpt/internal/model/providers/openai"
	proxyProvider "github.com/harunnryd/pgpt/internal/model/providers/proxy"
)

var _ Provider = (*client.Client)(nil)

// Registry holds the providers built from the models section of the config.
type Registry struct {
	defaultName string
	providers   map[string]Provider
	kinds       map[string]string
	failures    map[string]error
	mu          sync.RWMutex
}

// Entry describes one registry slot for listings.
type Entry struct {
	Name     string
	Kind     string
	Dialect  string
	Endpoint string
	Model    string
	Default  bool
	Err      error
}

// NewRegistry builds every registry entry. Entries that fail to build are
// logged and remembered so Get can report why; it is an error only when no
// entry builds at all.
func NewRegistry(cfg config.ModelsConfig, opts ...client.Option) (*Registry, error) {
	r := &Registry{
		defaultName: cfg.Default,
		providers:   make(map[string]Provider),
		kinds:       make(map[string]string),
		failures:    make(map[string]error),
	}

	for _, entry := range cfg.Registry {
		provider, err := createProvider(entry, opts...)
		r.kinds[entry.Name] = entry.Provider
		if err != nil {
			slog.Warn("Failed to create provider", "provider", entry.Provider, "name", entry.Name, "error", err)
			r.failures[entry.Name] = err
			continue
		}

		r.providers[entry.Name] = provider
		slog.Debug("Provider initialized", "name", entry.Name, "type", entry.Provider, "dialect", provider.Dialect().String())
	}

	if len(r.providers) == 0 && len(cfg.Registry) > 0 {
		return nil, pgptErrors.Configuration(fmt.Sprintf("no providers initialized: %v", r.firstFailure()))
	}

	return r, nil
}

func createProvider(entry config.ModelRegistry, opts ...client.Option) (Provider, error) {
	switch entry.Provider {
	case config.ProviderOpenAI:
		return openaiProvider.New(entry, opts...)
	case config.ProviderProxy:
		return proxyProvider.New(entry, opts...)
	case config.ProviderAnthropic:
		return anthropicProvider.New(entry, opts...)
	default:
		return nil, pgptErrors.Configuration(fmt.Sprintf("%s: unknown provider %q", entry.Name, entry.Provider))
	}
}

// Register adds or replaces a provider under name. Its kind is taken from
// the provider's dialect.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[name] = p
	r.kinds[name] = kindOf(p.Dialect())
	delete(r.failures, name)
}

func kindOf(d contract.Dialect) string {
	switch {
	case d.Family == contract.FamilyAnthropic:
		return config.ProviderAnthropic
	case d.Proxy:
		return config.ProviderProxy
	default:
		return config.ProviderOpenAI
	}
}

// Get returns the provider called name, or the default provider when name is
// empty.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultName
	}

	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	if err, ok := r.failures[name]; ok {
		return nil, err
	}
	return nil, pgptErrors.NotFound(fmt.Sprintf("model %q not found", name))
}

// Default is the name Get resolves for an empty name.
func (r *Registry) Default() string {
	return r.defaultName
}

// Names returns the usable provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries lists every slot, including ones that failed to build.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.providers)+len(r.failures))
	for name, p := range r.providers {
		entries = append(entries, Entry{
			Name:     name,
			Kind:     r.kinds[name],
			Dialect:  p.Dialect().String(),
			Endpoint: p.Endpoint(),
			Model:    p.Model(),
			Default:  name == r.defaultName,
		})
	}
	for name, err := range r.failures {
		entries = append(entries, Entry{
			Name:    name,
			Kind:    r.kinds[name],
			Default: name == r.defaultName,
			Err:     err,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

func (r *Registry) firstFailure() error {
	names := make([]string, 0, len(r.failures))
	for name := range r.failures {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil
	}
	return r.failures[names[0]]
}
