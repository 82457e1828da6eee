// Package merge is concord's top-level driver: it sequences the region
// extractor, entity resolver, interstitial merger, and file reconstructor
// into the single entry point library callers use, with the fast-path and
// fallback gating the spec calls for.
package merge

import (
	"github.com/concord-merge/concord/pkg/conflict"
	"github.com/concord-merge/concord/pkg/entity"
	"github.com/concord-merge/concord/pkg/fallback"
	"github.com/concord-merge/concord/pkg/interstitial"
	"github.com/concord-merge/concord/pkg/reconstruct"
	"github.com/concord-merge/concord/pkg/region"
	"github.com/concord-merge/concord/pkg/resolve"
)

// DefaultMaxInputBytes is the per-input size gate above which concord
// degrades to the line-level fallback deterministically, keeping worst-case
// memory and latency bounded. A caller with a `.concord.toml` override
// threads its own limit through EntityMergeWithLimit instead.
const DefaultMaxInputBytes = 1_000_000

// Result is the outcome of a whole-file three-way merge.
type Result struct {
	Content   string
	Conflicts []conflict.EntityConflict
	Stats     conflict.Stats
}

// Clean reports whether the merge produced no unresolved conflicts.
func (r Result) Clean() bool {
	return len(r.Conflicts) == 0
}

// EntityMerge merges base/ours/theirs using the default tree-sitter-backed
// registry.
func EntityMerge(base, ours, theirs, filePath string) Result {
	return EntityMergeWithRegistry(base, ours, theirs, filePath, entity.DefaultRegistry())
}

// EntityMergeWithRegistry merges base/ours/theirs using the given parser
// registry, so callers can supply custom or restricted language support.
func EntityMergeWithRegistry(base, ours, theirs, filePath string, registry entity.Registry) Result {
	return EntityMergeWithLimit(base, ours, theirs, filePath, registry, DefaultMaxInputBytes)
}

// EntityMergeWithLimit merges base/ours/theirs using the given parser
// registry and an explicit size gate (bytes per input, above which concord
// degrades to the line-level fallback), so a caller configured with a
// `.concord.toml` override can honor it.
func EntityMergeWithLimit(base, ours, theirs, filePath string, registry entity.Registry, maxBytes int64) Result {
	if ours == theirs {
		return Result{Content: ours}
	}
	if base == ours {
		return Result{Content: theirs, Stats: conflict.Stats{EntitiesTheirsOnly: 1}}
	}
	if base == theirs {
		return Result{Content: ours, Stats: conflict.Stats{EntitiesOursOnly: 1}}
	}

	if int64(len(base)) > maxBytes || int64(len(ours)) > maxBytes || int64(len(theirs)) > maxBytes {
		return runFallback(base, ours, theirs)
	}

	plugin, ok := registry.PluginFor(filePath)
	if !ok {
		return runFallback(base, ours, theirs)
	}

	baseEntities, baseErr := plugin.ExtractEntities(base, filePath)
	oursEntities, oursErr := plugin.ExtractEntities(ours, filePath)
	theirsEntities, theirsErr := plugin.ExtractEntities(theirs, filePath)

	if (baseErr != nil || len(baseEntities) == 0) && !isBlank(base) {
		return runFallback(base, ours, theirs)
	}
	oursEmpty := (oursErr != nil || len(oursEntities) == 0) && !isBlank(ours)
	theirsEmpty := (theirsErr != nil || len(theirsEntities) == 0) && !isBlank(theirs)
	if oursEmpty && theirsEmpty {
		return runFallback(base, ours, theirs)
	}

	return runMainPath(base, ours, theirs, baseEntities, oursEntities, theirsEntities)
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func runFallback(base, ours, theirs string) Result {
	fb := fallback.Merge(base, ours, theirs)
	stats := conflict.Stats{UsedFallback: true}
	var conflicts []conflict.EntityConflict
	if fb.Conflict != nil {
		stats.EntitiesConflicted = 1
		conflicts = []conflict.EntityConflict{*fb.Conflict}
	}
	return Result{Content: fb.Content, Conflicts: conflicts, Stats: stats}
}

func runMainPath(base, ours, theirs string, baseEntities, oursEntities, theirsEntities []entity.Entity) Result {
	baseRegions := region.Extract(base, baseEntities)
	oursRegions := region.Extract(ours, oursEntities)
	theirsRegions := region.Extract(theirs, theirsEntities)

	baseEntityMap := indexEntities(baseEntities)
	oursEntityMap := indexEntities(oursEntities)
	theirsEntityMap := indexEntities(theirsEntities)

	baseRegionText := indexEntityRegionText(baseRegions)
	oursRegionText := indexEntityRegionText(oursRegions)
	theirsRegionText := indexEntityRegionText(theirsRegions)

	identities := orderedIdentities(oursEntities, theirsEntities, baseEntities)

	var stats conflict.Stats
	var conflicts []conflict.EntityConflict
	resolved := make(map[string]resolve.Outcome, len(identities))

	for _, id := range identities {
		baseSide := sideFor(id, baseEntityMap, baseRegionText)
		oursSide := sideFor(id, oursEntityMap, oursRegionText)
		theirsSide := sideFor(id, theirsEntityMap, theirsRegionText)

		outcome := resolve.Resolve(baseSide, oursSide, theirsSide, &stats)
		resolved[id] = outcome
		if outcome.Kind == resolve.Conflicted {
			conflicts = append(conflicts, outcome.Conflict)
		}
	}

	mergedInterstitials := interstitial.Merge(
		interstitialMap(baseRegions),
		interstitialMap(oursRegions),
		interstitialMap(theirsRegions),
	)

	content := reconstruct.Build(oursRegions, theirsEntities, resolved, mergedInterstitials)

	return Result{Content: content, Conflicts: conflicts, Stats: stats}
}

func indexEntities(entities []entity.Entity) map[string]*entity.Entity {
	m := make(map[string]*entity.Entity, len(entities))
	for i := range entities {
		m[entities[i].Identity] = &entities[i]
	}
	return m
}

func indexEntityRegionText(regions []region.Region) map[string]string {
	m := make(map[string]string)
	for _, r := range regions {
		if r.IsEntity {
			m[r.Entity.EntityID] = r.Entity.Content
		}
	}
	return m
}

func interstitialMap(regions []region.Region) map[string]string {
	m := make(map[string]string)
	for _, r := range regions {
		if !r.IsEntity {
			m[r.Interstitial.PositionKey] = r.Interstitial.Content
		}
	}
	return m
}

// orderedIdentities enumerates entity identities in the order the spec
// requires: every identity in ours, then any additional ones only in theirs,
// then any additional ones only in base — so the ours skeleton dictates
// primary ordering, and deterministic conflict/output ordering follows.
func orderedIdentities(ours, theirs, base []entity.Entity) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range ours {
		if !seen[e.Identity] {
			seen[e.Identity] = true
			ids = append(ids, e.Identity)
		}
	}
	for _, e := range theirs {
		if !seen[e.Identity] {
			seen[e.Identity] = true
			ids = append(ids, e.Identity)
		}
	}
	for _, e := range base {
		if !seen[e.Identity] {
			seen[e.Identity] = true
			ids = append(ids, e.Identity)
		}
	}
	return ids
}

func sideFor(id string, entities map[string]*entity.Entity, texts map[string]string) *resolve.Side {
	e, ok := entities[id]
	if !ok {
		return nil
	}
	text, ok := texts[id]
	if !ok {
		text = e.Content
	}
	return &resolve.Side{Entity: e, Text: text}
}
