// Package resolve implements the per-entity three-way decision table: given
// an entity identity's presence and content across base, ours, and theirs,
// it decides whether the entity resolves cleanly, is deleted, or conflicts.
package resolve

import (
	"github.com/concord-merge/concord/pkg/conflict"
	"github.com/concord-merge/concord/pkg/diff3"
	"github.com/concord-merge/concord/pkg/entity"
)

// Side bundles one revision's view of an entity: the parsed Entity (for
// identity, hash, and metadata) and the region text the reconstructor should
// actually splice in. A nil Side means the entity is absent from that
// revision.
type Side struct {
	Entity *entity.Entity
	Text   string
}

// OutcomeKind discriminates the three terminal tags an entity resolution can
// produce.
type OutcomeKind int

const (
	Clean OutcomeKind = iota
	Conflicted
	Deleted
)

// Outcome is the resolved disposition of one entity identity.
type Outcome struct {
	Kind OutcomeKind

	// Populated when Kind == Clean.
	Text      string
	Name      string
	Type      string
	StartLine int
	EndLine   int

	// Populated when Kind == Conflicted.
	Conflict conflict.EntityConflict
}

// Resolve classifies one entity identity's three-way state and updates stats
// in place, matching the 12-case table: (presence in base, ours, theirs) ×
// hash equality.
func Resolve(base, ours, theirs *Side, stats *conflict.Stats) Outcome {
	switch {
	case base != nil && ours != nil && theirs != nil:
		return resolveAllThree(base, ours, theirs, stats)
	case base != nil && ours != nil && theirs == nil:
		return resolveDeletedBy(base, ours, true, stats)
	case base != nil && ours == nil && theirs != nil:
		return resolveDeletedBy(base, theirs, false, stats)
	case base != nil && ours == nil && theirs == nil:
		stats.EntitiesDeleted++
		return Outcome{Kind: Deleted}
	case base == nil && ours != nil && theirs == nil:
		stats.EntitiesAddedOurs++
		return cleanFrom(ours)
	case base == nil && ours == nil && theirs != nil:
		stats.EntitiesAddedTheirs++
		return cleanFrom(theirs)
	default: // base == nil && ours != nil && theirs != nil
		return resolveBothAdded(ours, theirs, stats)
	}
}

func resolveAllThree(base, ours, theirs *Side, stats *conflict.Stats) Outcome {
	oursChanged := ours.Entity.ContentHash != base.Entity.ContentHash
	theirsChanged := theirs.Entity.ContentHash != base.Entity.ContentHash

	switch {
	case !oursChanged && !theirsChanged:
		stats.EntitiesUnchanged++
		return cleanFrom(ours)
	case oursChanged && !theirsChanged:
		stats.EntitiesOursOnly++
		return cleanFrom(ours)
	case !oursChanged && theirsChanged:
		stats.EntitiesTheirsOnly++
		return cleanFrom(theirs)
	case ours.Entity.ContentHash == theirs.Entity.ContentHash:
		stats.EntitiesBothChangedMerged++
		return cleanFrom(ours)
	default:
		merged, ok := diff3.Merge3(base.Text, ours.Text, theirs.Text)
		if ok {
			stats.EntitiesBothChangedMerged++
			stats.ResolvedViaInnerMerge++
			return Outcome{
				Kind:      Clean,
				Text:      merged,
				Name:      ours.Entity.Name,
				Type:      ours.Entity.Type,
				StartLine: ours.Entity.StartLine,
				EndLine:   ours.Entity.EndLine,
			}
		}
		stats.EntitiesConflicted++
		return Outcome{
			Kind: Conflicted,
			Conflict: conflict.EntityConflict{
				EntityName:    ours.Entity.Name,
				EntityType:    ours.Entity.Type,
				Kind:          conflict.BothModified,
				Complexity:    conflict.Classify(base.Text, true, ours.Text, true, theirs.Text, true),
				BaseContent:   base.Text,
				BaseOK:        true,
				OursContent:   ours.Text,
				OursOK:        true,
				TheirsContent: theirs.Text,
				TheirsOK:      true,
			},
		}
	}
}

// resolveDeletedBy handles the two-sides-remain cases: base+ours present,
// theirs absent (modifiedInOurs=true), or base+theirs present, ours absent
// (modifiedInOurs=false).
func resolveDeletedBy(base, present *Side, modifiedInOurs bool, stats *conflict.Stats) Outcome {
	if present.Entity.ContentHash == base.Entity.ContentHash {
		stats.EntitiesDeleted++
		return Outcome{Kind: Deleted}
	}

	stats.EntitiesConflicted++
	kind := conflict.ModifyDeleteTheirs
	ours := Side{}
	theirs := Side{}
	if modifiedInOurs {
		kind = conflict.ModifyDeleteOurs
		ours = *present
	} else {
		theirs = *present
	}

	return Outcome{
		Kind: Conflicted,
		Conflict: conflict.EntityConflict{
			EntityName:    present.Entity.Name,
			EntityType:    present.Entity.Type,
			Kind:          kind,
			Complexity:    conflict.Classify(base.Text, true, ours.Text, modifiedInOurs, theirs.Text, !modifiedInOurs),
			BaseContent:   base.Text,
			BaseOK:        true,
			OursContent:   ours.Text,
			OursOK:        modifiedInOurs,
			TheirsContent: theirs.Text,
			TheirsOK:      !modifiedInOurs,
		},
	}
}

func resolveBothAdded(ours, theirs *Side, stats *conflict.Stats) Outcome {
	if ours.Entity.ContentHash == theirs.Entity.ContentHash {
		stats.EntitiesAddedOurs++
		return cleanFrom(ours)
	}

	stats.EntitiesConflicted++
	return Outcome{
		Kind: Conflicted,
		Conflict: conflict.EntityConflict{
			EntityName:    ours.Entity.Name,
			EntityType:    ours.Entity.Type,
			Kind:          conflict.BothAdded,
			Complexity:    conflict.Classify("", false, ours.Text, true, theirs.Text, true),
			OursContent:   ours.Text,
			OursOK:        true,
			TheirsContent: theirs.Text,
			TheirsOK:      true,
		},
	}
}

func cleanFrom(side *Side) Outcome {
	return Outcome{
		Kind:      Clean,
		Text:      side.Text,
		Name:      side.Entity.Name,
		Type:      side.Entity.Type,
		StartLine: side.Entity.StartLine,
		EndLine:   side.Entity.EndLine,
	}
}
