package reference

import (
	"iter"

	"github.com/google/uuid"
)

var newID = uuid.NewString

// Result is the outcome of deduplicating one kind.
type Result struct {
	Kind Kind
	// Canonical holds each unique entity once, in first-seen order.
	Canonical []Entity
	// Seen maps name|source to its canonical entity.
	Seen map[string]Entity
}

// Lookup returns the canonical entity registered under name and source.
func (r Result) Lookup(name, source string) (Entity, bool) {
	e, ok := r.Seen[Key(name, source)]
	return e, ok
}

// Deduplicate collapses the sightings of kind into canonical entities. Sightings of
// other kinds and sightings with a blank name are skipped. The first sighting of a
// key wins: it keeps its external id, or gets a synthetic one, and later sightings
// never change its code or name.
func Deduplicate(kind Kind, sightings iter.Seq[Sighting]) Result {
	res := Result{Kind: kind, Seen: make(map[string]Entity)}
	members := make(map[Identity]Entity)
	for s := range sightings {
		if s.Kind != kind || isBlank(s.Name) {
			continue
		}
		key := Key(s.Name, s.Source)
		if _, ok := res.Seen[key]; ok {
			continue
		}
		e := Entity{
			ExternalID: s.ExternalID,
			Code:       s.Code,
			Name:       s.Name,
			Source:     NormalizeSource(s.Source),
		}
		if isBlank(e.ExternalID) {
			e.ExternalID = newID()
		}
		if existing, ok := members[e.Identity()]; ok {
			res.Seen[key] = existing
			continue
		}
		members[e.Identity()] = e
		res.Canonical = append(res.Canonical, e)
		res.Seen[key] = e
	}
	return res
}
