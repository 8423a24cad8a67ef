package dialect

import (
	"sort"
	"strings"
	"sync"
)

// DefaultName is the datastore assumed when none or an unknown one is
// configured.
const DefaultName = "snowflake"

// Dialect registry
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
)

// Get returns a dialect by name.
func Get(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Register registers a dialect in the global registry.
// Called by dialect implementations in their init() functions.
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
}

// List returns all registered dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the named dialect, falling back to the default datastore
// for empty or unknown names. It returns nil only if no dialect packages
// are linked in.
func Resolve(name string) *Dialect {
	if d, ok := Get(name); ok {
		return d
	}
	return Default()
}

// Default returns the default datastore's dialect, or nil if it is not
// linked in.
func Default() *Dialect {
	d, _ := Get(DefaultName)
	return d
}
