package reference

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultSource stands in for a missing source when composing keys.
const DefaultSource = "default"

// Sighting is one occurrence of a reference entity while walking a document.
type Sighting struct {
	Kind       Kind
	ExternalID string
	Code       string
	Name       string
	Source     string
}

// Entity is the canonical instance for all sightings sharing a key.
type Entity struct {
	ExternalID string
	Code       string
	Name       string
	Source     string
}

// Identity is the equality key of an entity. Code does not participate; source
// does, so every source keeps its own master row.
type Identity struct {
	ExternalID string
	Name       string
	Source     string
}

func (e Entity) Identity() Identity {
	return Identity{ExternalID: e.ExternalID, Name: e.Name, Source: e.Source}
}

// Key composes the deduplication key name|source. Names are NFC-normalized so
// composed and decomposed spellings of the same text collide.
func Key(name, source string) string {
	return norm.NFC.String(strings.TrimSpace(name)) + "|" + NormalizeSource(source)
}

func NormalizeSource(source string) string {
	s := strings.TrimSpace(source)
	if s == "" {
		return DefaultSource
	}
	return s
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
