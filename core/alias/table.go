// Package alias holds the shell's alias table and its file format.
package alias

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Table maps alias names to replacement command strings. It's safe for
// concurrent use.
type Table struct {
	rw      sync.RWMutex
	aliases map[string]string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// NewTableFromMap creates a table holding a copy of m.
func NewTableFromMap(m map[string]string) *Table {
	out := NewTable()
	for k, v := range m {
		out.Define(k, v)
	}
	return out
}

// Lookup returns the replacement for name.
func (t *Table) Lookup(name string) (string, bool) {
	t.rw.RLock()
	defer t.rw.RUnlock()

	v, ok := t.aliases[name]
	return v, ok
}

// Define sets the replacement for name. It returns true if an existing alias
// was overwritten.
func (t *Table) Define(name, value string) bool {
	t.rw.Lock()
	defer t.rw.Unlock()

	if t.aliases == nil {
		t.aliases = make(map[string]string)
	}
	_, existed := t.aliases[name]
	t.aliases[name] = value
	return existed
}

// Remove deletes an alias, it returns false if the alias didn't exist.
func (t *Table) Remove(name string) bool {
	t.rw.Lock()
	defer t.rw.Unlock()

	_, existed := t.aliases[name]
	delete(t.aliases, name)
	return existed
}

// Names returns the defined alias names in sorted order.
func (t *Table) Names() []string {
	t.rw.RLock()
	defer t.rw.RUnlock()

	out := make([]string, 0, len(t.aliases))
	for k := range t.aliases {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of aliases.
func (t *Table) Len() int {
	t.rw.RLock()
	defer t.rw.RUnlock()

	return len(t.aliases)
}

// Format writes each alias as a line of an alias file. Parse reads
// everything between the outer quotes literally, so values are never
// escaped.
func (t *Table) Format(w io.Writer) error {
	for _, name := range t.Names() {
		value, _ := t.Lookup(name)
		if _, err := fmt.Fprintf(w, "alias %s='%s'\n", name, value); err != nil {
			return err
		}
	}
	return nil
}
