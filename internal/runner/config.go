package runner

import (
	"sync"

	"github.com/mite-go/loadgen/internal/wire"
)

// Config is the runner-local mirror of the controller's config.Manager:
// a plain key/value map kept in sync via the config_delta field on every
// hello/request_work reply, plus the version the runner has last seen so
// its next request_work can ask for only what changed since.
type Config struct {
	mu      sync.RWMutex
	values  map[string]string
	version uint64
}

// NewConfig builds an empty Config.
func NewConfig() *Config {
	return &Config{values: make(map[string]string)}
}

// Update applies a batch of config entries, keeping the highest version
// seen across them.
func (c *Config) Update(kvs []wire.ConfigKV) {
	if len(kvs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, kv := range kvs {
		c.values[kv.Key] = kv.Value
		if kv.Version > c.version {
			c.version = kv.Version
		}
	}
}

// Get implements journeycontext.ConfigLookup.
func (c *Config) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Version returns the highest config version the runner has seen.
func (c *Config) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}
