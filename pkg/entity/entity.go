// Package entity defines the contract concord's merge core uses to obtain
// semantic entities from a source file, plus the Entity record itself.
//
// This is the parser adapter interface (the core's only view of language
// structure): a Plugin is total and deterministic for a fixed input, has no
// side effects the core observes, and returns entities already sorted by
// start line with non-overlapping ranges and unique identities.
package entity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Entity is an opaque structural unit of a source file — a function, class,
// method, or other top-level declaration the parser recognizes.
//
// Invariants (enforced by every Plugin implementation, consumed on faith by
// the rest of the core): for a given file, StartLine <= EndLine; the entity
// list returned by a single ExtractEntities call is sorted by StartLine;
// line ranges are non-overlapping; Identity is unique within the file.
type Entity struct {
	// Identity survives cosmetic edits elsewhere in the file; it is the join
	// key across revisions.
	Identity string
	// Name is a human-readable label, e.g. the function or class name.
	Name string
	// Type is free-form: "function", "class", "method", ...
	Type string
	// ContentHash fingerprints the normalized entity text; used only to
	// decide changed-vs-unchanged, never for display.
	ContentHash string
	StartLine   int
	EndLine     int
	// Content is the parser's own extraction. It is not authoritative — the
	// region extractor (pkg/region) re-slices the file by line range instead,
	// because parsers may strip surrounding modifiers that must survive a
	// merge.
	Content string
}

// HashContent computes a stable fingerprint for text, the same way every
// Plugin should derive Entity.ContentHash.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// List is an ordered sequence of entities extracted from one file version.
type List struct {
	Language string
	Path     string
	Source   []byte
	Entities []Entity
}

// Plugin extracts entities from one file's source text. Implementations must
// be safe for concurrent use across files (the registry may be shared by
// multiple merges running in parallel) and must not mutate the input.
type Plugin interface {
	// ExtractEntities returns the ordered entity list for text. An error
	// indicates the parse itself failed (malformed input the grammar can't
	// recover from); returning zero entities for non-empty, parseable text is
	// not an error.
	ExtractEntities(text, path string) ([]Entity, error)
}

// Registry selects a Plugin by file path.
type Registry interface {
	// PluginFor returns the plugin registered for path's extension, or false
	// if no parser is registered.
	PluginFor(path string) (Plugin, bool)
}
