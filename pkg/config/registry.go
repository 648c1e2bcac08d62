package config

import "sync"

// Registry holds one Config per named configuration version. It replaces
// implicit process-wide singletons with an explicit structure owned by the
// caller; reloading a version stores a brand-new Config while readers
// holding the previous pointer keep operating under the old rules.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*Config
}

func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]*Config)}
}

// Get returns the Config registered for the version, if any. The empty
// version names the default configuration.
func (r *Registry) Get(version string) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[version]
	return cfg, ok
}

// Put registers (or atomically replaces) the Config for a version.
func (r *Registry) Put(version string, cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[version] = cfg
}

// Load reads and validates the document for a version and registers the
// result. On failure the registry is left untouched.
func (r *Registry) Load(version string) (*Config, error) {
	cfg, err := LoadVersion(version)
	if err != nil {
		return nil, err
	}
	r.Put(version, cfg)
	return cfg, nil
}

// Versions returns the registered version names in unspecified order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := make([]string, 0, len(r.configs))
	for v := range r.configs {
		versions = append(versions, v)
	}
	return versions
}
