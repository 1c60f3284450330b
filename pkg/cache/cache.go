// Package cache provides pluggable byte caching for expensive derived
// artifacts: rendered chart images and analysis-service responses.
//
// The forest itself is never cached or persisted here - cache entries
// are always recomputable from a chart document, keyed by its content
// hash, so a cold or wiped cache only costs time.
//
// Backends:
//   - FileCache: directory of hashed entry files, for CLI usage
//   - RedisCache: shared cache for server deployments
//   - NullCache: caching disabled
package cache

import (
	"context"
	"time"
)

// Time-to-live per entry type. Artifacts are cheap to recompute and
// invalidated by content hash anyway, so TTLs only bound cache growth.
const (
	TTLArtifact = 7 * 24 * time.Hour
	TTLAnalysis = 24 * time.Hour
)

// Cache is the backend interface. Implementations must treat a missing
// key as (nil, false, nil), not an error.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found
	// and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A ttl of 0 means no
	// expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts are the options that distinguish rendered artifacts of
// the same chart.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// Keyer generates cache keys for the different entry types. Key layout
// is centralized here so all call sites stay collision-free.
type Keyer interface {
	// AnalysisKey keys a text-generation response by the snapshot it
	// described, the model, and the instruction given.
	AnalysisKey(snapshotHash, model, instruction string) string

	// ArtifactKey keys a rendered artifact by chart content hash and
	// render options.
	ArtifactKey(chartHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme: prefix:sha256(parts).
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// AnalysisKey generates a key for an analysis response.
func (*DefaultKeyer) AnalysisKey(snapshotHash, model, instruction string) string {
	return hashKey("analysis", snapshotHash, model, instruction)
}

// ArtifactKey generates a key for a rendered artifact.
func (*DefaultKeyer) ArtifactKey(chartHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", chartHash, opts)
}
