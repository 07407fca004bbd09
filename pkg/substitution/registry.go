package substitution

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownTable is returned by Lookup for a name that was never registered.
var ErrUnknownTable = errors.New("substitution: unknown table")

var registry = struct {
	sync.RWMutex
	tables map[string]Table
}{tables: make(map[string]Table)}

func init() {
	if err := Register(DefaultTable, hmdbTable()); err != nil {
		panic(err)
	}
}

// Register adds or replaces a named table. The table is validated first.
func Register(name string, t Table) error {
	if name == "" {
		return fmt.Errorf("substitution: table name must not be empty")
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("table %s: %w", name, err)
	}

	registry.Lock()
	defer registry.Unlock()
	registry.tables[name] = t
	return nil
}

// Lookup returns the table registered under name. Callers must treat the
// result as read-only.
func Lookup(name string) (Table, error) {
	registry.RLock()
	defer registry.RUnlock()

	t, ok := registry.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// Registered returns the names of all registered tables, sorted.
func Registered() []string {
	registry.RLock()
	defer registry.RUnlock()

	names := make([]string, 0, len(registry.tables))
	for name := range registry.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
