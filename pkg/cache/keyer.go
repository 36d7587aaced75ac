package cache

import "strings"

// Keyer builds store keys for resolved records.
type Keyer interface {
	// RecordKey is the key for a package in an ecosystem. A pinned version
	// is passed as "pkg@version" and gets its own entry.
	RecordKey(ecosystem, pkg string) string

	// Prefix is shared by every key this keyer builds.
	Prefix() string
}

// DefaultKeyer produces keys of the form "record:<ecosystem>:<package>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the unscoped keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RecordKey implements [Keyer].
func (DefaultKeyer) RecordKey(ecosystem, pkg string) string {
	return "record:" + strings.ToLower(ecosystem) + ":" + pkg
}

// Prefix implements [Keyer].
func (DefaultKeyer) Prefix() string { return "record:" }
