package reference

import (
	"errors"
	"fmt"
	"iter"
)

var ErrSealed = errors.New("reference catalog is sealed")

// Catalog holds the deduplicated entities of every kind for one import run.
// It is written by deduplication only and becomes read-only once sealed.
type Catalog struct {
	results map[Kind]Result
	sealed  bool
}

func NewCatalog() *Catalog {
	return &Catalog{results: make(map[Kind]Result, len(Kinds))}
}

// BuildCatalog deduplicates every kind from one pass over sightings and seals the result.
func BuildCatalog(sightings iter.Seq[Sighting]) *Catalog {
	c := NewCatalog()
	for _, kind := range Kinds {
		// Put cannot fail on a fresh catalog.
		_ = c.Put(Deduplicate(kind, sightings))
	}
	c.Seal()
	return c
}

func (c *Catalog) Put(r Result) error {
	if c.sealed {
		return ErrSealed
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("put result: unknown kind %q", r.Kind)
	}
	c.results[r.Kind] = r
	return nil
}

func (c *Catalog) Seal()        { c.sealed = true }
func (c *Catalog) Sealed() bool { return c.sealed }

func (c *Catalog) Lookup(kind Kind, name, source string) (Entity, bool) {
	r, ok := c.results[kind]
	if !ok {
		return Entity{}, false
	}
	return r.Lookup(name, source)
}

// Canonical returns the unique entities of kind in first-seen order.
func (c *Catalog) Canonical(kind Kind) []Entity {
	return c.results[kind].Canonical
}

// Count returns the number of canonical entities across all kinds.
func (c *Catalog) Count() int {
	n := 0
	for _, r := range c.results {
		n += len(r.Canonical)
	}
	return n
}
