package adapters

import (
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// DefaultUserAgent identifies the pipeline to RFMO web servers and to their
// robots.txt policies.
const DefaultUserAgent = "ocean-watch-rfmo-ingestion/1.0"

// DefaultTimeout bounds every outbound HTTP request.
const DefaultTimeout = 30 * time.Second

// ConfigError reports a registry misconfiguration, such as an unknown
// adapter name. It fails the run synchronously at startup.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("adapter config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Registry holds the available adapters keyed by name.
type Registry struct {
	adapters map[string]Adapter
}

// RegistryOptions configures the default adapter set.
type RegistryOptions struct {
	UserAgent string
	Timeout   time.Duration
	Logger    hclog.Logger

	// Counter, when set, receives discovery-time counter increments
	// (filtered-out candidates).
	Counter Counter
}

// NewRegistry builds the default registry: the three category-mapped RFMO
// adapters plus the generic single-listing sources.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	r := &Registry{adapters: make(map[string]Adapter)}
	r.Register(NewICCAT(opts))
	r.Register(NewWCPFC(opts))
	r.Register(NewIOTC(opts))
	for _, cfg := range GenericSources() {
		r.Register(NewGeneric(cfg, opts))
	}
	return r
}

// NewEmptyRegistry builds a registry with no adapters. Tests register stubs.
func NewEmptyRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter, replacing any existing one with the same name.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get returns the adapter with the given name.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, &ConfigError{Err: fmt.Errorf("unknown adapter: %s", name)}
	}
	return a, nil
}

// Names returns all registered adapter names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a selection of adapter names to adapters. An empty selection
// resolves to every registered adapter. Unknown names are aggregated into a
// single ConfigError.
func (r *Registry) Resolve(names []string) ([]Adapter, error) {
	if len(names) == 0 {
		all := make([]Adapter, 0, len(r.adapters))
		for _, name := range r.Names() {
			all = append(all, r.adapters[name])
		}
		return all, nil
	}

	var merr *multierror.Error
	resolved := make([]Adapter, 0, len(names))
	for _, name := range names {
		a, ok := r.adapters[name]
		if !ok {
			merr = multierror.Append(merr, fmt.Errorf("unknown adapter: %s", name))
			continue
		}
		resolved = append(resolved, a)
	}
	if merr != nil {
		return nil, &ConfigError{Err: merr.ErrorOrNil()}
	}
	return resolved, nil
}
