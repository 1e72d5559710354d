// Package catalog holds the installed-application catalog and resolves
// human-typed application names against it.
package catalog

import (
	"strings"
)

// Entry is one launchable application.
type Entry struct {
	DisplayName   string `json:"name" yaml:"name"`
	LaunchCommand string `json:"exec" yaml:"exec"`
	SourceID      string `json:"source,omitempty" yaml:"-"`
}

func (e Entry) valid() bool {
	return strings.TrimSpace(e.DisplayName) != "" && strings.TrimSpace(e.LaunchCommand) != ""
}

// Catalog is an immutable, ordered list of entries. Order is discovery
// order; duplicate display names are allowed and the first one wins ties.
type Catalog struct {
	entries []Entry
}

// New builds a catalog, dropping entries without a name or launch command.
func New(entries []Entry) *Catalog {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.DisplayName = strings.TrimSpace(e.DisplayName)
		e.LaunchCommand = strings.TrimSpace(e.LaunchCommand)
		if !e.valid() {
			continue
		}
		kept = append(kept, e)
	}
	return &Catalog{entries: kept}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns a copy of the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.DisplayName
	}
	return names
}
