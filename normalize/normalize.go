// Package normalize converts raw directory entries into flat, serializable
// records. Binary identifier attributes (objectGUID, objectSid and friends)
// decode to canonical text; everything else decodes best-effort. The package
// is pure: no I/O, no session dependency, deterministic for a fixed
// provenance.
package normalize

import (
	"github.com/go-ldap/ldap/v3"
)

// Normalizer stamps the run's provenance onto every record it produces.
type Normalizer struct {
	prov Provenance
}

func New(prov Provenance) *Normalizer {
	return &Normalizer{prov: prov}
}

// NormalizeEntries produces exactly one Record per entry, in order. Decode
// faults degrade the affected value only; they never drop an entry or touch
// its sibling attributes.
func (n *Normalizer) NormalizeEntries(entries []*ldap.Entry) []*Record {
	records := make([]*Record, len(entries))
	for i, entry := range entries {
		records[i] = n.normalizeEntry(entry)
	}
	return records
}

func (n *Normalizer) normalizeEntry(entry *ldap.Entry) *Record {
	fields := make(map[string]any, len(entry.Attributes))
	for _, attr := range entry.Attributes {
		fields[attr.Name] = decoderFor(attr.Name)(attr.ByteValues)
	}
	return &Record{Provenance: n.prov, Fields: fields}
}
