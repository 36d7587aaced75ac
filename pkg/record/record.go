// Package record defines the canonical package metadata record.
//
// Every ecosystem adapter and the VCS fallback normalize their responses into
// a [Record]. The JSON encoding of a Record is also the persisted cache
// representation, so the shape is stable:
//
//	{
//	  "name": "react",
//	  "version": "17.0.2",
//	  "license": "MIT",
//	  "dependencies": {"loose-envify": "^1.1.0"},
//	  "timestamp": "2026-10-19T10:00:00Z"
//	}
//
// Records are immutable once stamped. A later resolution for the same package
// produces a brand-new Record rather than mutating the stored one.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// LicenseUnclassified is used when a registry publishes no license at all.
const LicenseUnclassified = "unclassified"

// Record is the canonical package metadata shape.
type Record struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	License      string       `json:"license"`
	Dependencies Dependencies `json:"dependencies"`
	Timestamp    time.Time    `json:"timestamp"`
}

// Stamp returns a copy of r with Timestamp set to t in UTC.
// The receiver is left untouched.
func (r Record) Stamp(t time.Time) *Record {
	r.Timestamp = t.UTC()
	r.Dependencies = r.Dependencies.Clone()
	return &r
}

// Fresh reports whether the record is younger than ttl at now.
// A zero ttl means records never go stale.
func (r *Record) Fresh(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	return now.Sub(r.Timestamp) < ttl
}

// Validate checks the record invariants that must hold before persistence:
// a name and a license are set, and dependencies are initialised.
// Version may be empty for VCS-resolved repositories without releases or tags.
func (r *Record) Validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("record is nil")
	case r.Name == "":
		return fmt.Errorf("record has no name")
	case r.License == "":
		return fmt.Errorf("record %s has no license", r.Name)
	case !r.Dependencies.initialised():
		return fmt.Errorf("record %s has no dependencies field", r.Name)
	}
	return nil
}

// Dependencies holds declared dependencies in one of two shapes: a mapping
// from dependency name to version constraint, or an ordered list of display
// names when a registry exposes no structured constraints.
//
// Use [Constraints] or [Names] to construct values; the zero value encodes as
// an empty mapping.
type Dependencies struct {
	constraints map[string]string
	names       []string
	list        bool
}

// Constraints builds a mapping-shaped Dependencies. A nil map is treated as empty.
func Constraints(m map[string]string) Dependencies {
	if m == nil {
		m = map[string]string{}
	}
	return Dependencies{constraints: m}
}

// Names builds a list-shaped Dependencies. Order is preserved.
func Names(names []string) Dependencies {
	if names == nil {
		names = []string{}
	}
	return Dependencies{names: names, list: true}
}

// IsList reports whether the dependencies are list-shaped.
func (d Dependencies) IsList() bool { return d.list }

// Len returns the number of declared dependencies.
func (d Dependencies) Len() int {
	if d.list {
		return len(d.names)
	}
	return len(d.constraints)
}

// Map returns a copy of the name → constraint mapping.
// List-shaped dependencies map each name to an empty constraint.
func (d Dependencies) Map() map[string]string {
	if d.list {
		m := make(map[string]string, len(d.names))
		for _, n := range d.names {
			m[n] = ""
		}
		return m
	}
	return maps.Clone(d.constraints)
}

// List returns dependency names. For mapping-shaped dependencies the names
// are sorted so output is deterministic.
func (d Dependencies) List() []string {
	if d.list {
		return slices.Clone(d.names)
	}
	return slices.Sorted(maps.Keys(d.constraints))
}

// Clone returns a deep copy.
func (d Dependencies) Clone() Dependencies {
	return Dependencies{
		constraints: maps.Clone(d.constraints),
		names:       slices.Clone(d.names),
		list:        d.list,
	}
}

func (d Dependencies) initialised() bool {
	if d.list {
		return d.names != nil
	}
	return d.constraints != nil
}

// MarshalJSON encodes list-shaped dependencies as an array and mapping-shaped
// dependencies as an object. Nil collections encode as empty ones.
func (d Dependencies) MarshalJSON() ([]byte, error) {
	if d.list {
		if d.names == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(d.names)
	}
	if d.constraints == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.constraints)
}

// UnmarshalJSON accepts either an object or an array.
func (d *Dependencies) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*d = Constraints(nil)
		return nil
	case len(data) > 0 && data[0] == '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return fmt.Errorf("decode dependency list: %w", err)
		}
		*d = Names(names)
		return nil
	default:
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("decode dependency map: %w", err)
		}
		*d = Constraints(m)
		return nil
	}
}
