package cache

// ScopedKeyer prefixes another keyer's keys so several deployments can
// share one store without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
//	keyer.RecordKey("npm", "react") // "staging:record:npm:react"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer]; an empty prefix returns inner unchanged.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	if prefix == "" {
		return inner
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RecordKey implements [Keyer].
func (k *ScopedKeyer) RecordKey(ecosystem, pkg string) string {
	return k.prefix + k.inner.RecordKey(ecosystem, pkg)
}

// Prefix implements [Keyer].
func (k *ScopedKeyer) Prefix() string { return k.prefix + k.inner.Prefix() }
