package catalog

import (
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidQuery = errors.New("application name cannot be empty")
	ErrNotFound     = errors.New("application not found")
)

const defaultResolverCacheSize = 256

// Tier says which matching rule produced a Match.
type Tier int

const (
	TierExact Tier = iota + 1
	// TierContains means the query is a substring of the display name.
	TierContains
	// TierContained means the display name is a substring of the query.
	TierContained
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierContains:
		return "contains"
	case TierContained:
		return "contained"
	default:
		return "none"
	}
}

type Match struct {
	Entry Entry
	Tier  Tier
}

// Resolver maps a free-form application name onto a catalog entry. Results
// are memoised per normalised query; the catalog never changes underneath.
type Resolver struct {
	catalog *Catalog
	folded  []string
	cache   *lru.Cache[string, Match]
}

func NewResolver(c *Catalog) (*Resolver, error) {
	if c == nil {
		c = New(nil)
	}
	cache, err := lru.New[string, Match](defaultResolverCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create resolver cache: %w", err)
	}

	folded := make([]string, len(c.entries))
	for i, e := range c.entries {
		folded[i] = normalize(e.DisplayName)
	}
	return &Resolver{catalog: c, folded: folded, cache: cache}, nil
}

func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Resolve applies exact, then contains, then contained matching, taking the
// first entry in catalog order within the first tier that hits.
func (r *Resolver) Resolve(query string) (Match, error) {
	q := normalize(query)
	if q == "" {
		return Match{}, ErrInvalidQuery
	}
	if m, ok := r.cache.Get(q); ok {
		return m, nil
	}

	m, ok := r.scan(q)
	if !ok {
		return Match{}, fmt.Errorf("%w: %q", ErrNotFound, strings.TrimSpace(query))
	}
	r.cache.Add(q, m)
	log.Debug().Str("query", q).Str("app", m.Entry.DisplayName).Stringer("tier", m.Tier).Msg("application resolved")
	return m, nil
}

func (r *Resolver) scan(q string) (Match, bool) {
	rules := []struct {
		tier  Tier
		match func(name string) bool
	}{
		{TierExact, func(name string) bool { return name == q }},
		{TierContains, func(name string) bool { return strings.Contains(name, q) }},
		{TierContained, func(name string) bool { return strings.Contains(q, name) }},
	}

	for _, rule := range rules {
		for i, name := range r.folded {
			if rule.match(name) {
				return Match{Entry: r.catalog.entries[i], Tier: rule.tier}, true
			}
		}
	}
	return Match{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
