package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when several charts or users share one cache backend
// (e.g. a single Redis instance behind multiple server processes).
//
// Example usage:
//
//	// Chart-specific keys
//	chartKeyer := NewScopedKeyer(NewDefaultKeyer(), "chart:acme:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// AnalysisKey generates a prefixed key for an analysis response.
func (k *ScopedKeyer) AnalysisKey(snapshotHash, model, instruction string) string {
	return k.prefix + k.inner.AnalysisKey(snapshotHash, model, instruction)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(chartHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(chartHash, opts)
}
