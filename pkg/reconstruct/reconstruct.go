// Package reconstruct assembles the final merged file from ours's region
// skeleton, the per-entity resolutions from pkg/resolve, the merged
// interstitials from pkg/interstitial, and theirs-only entities that never
// existed in ours.
package reconstruct

import (
	"container/list"
	"strings"

	"github.com/concord-merge/concord/pkg/entity"
	"github.com/concord-merge/concord/pkg/region"
	"github.com/concord-merge/concord/pkg/resolve"
)

type skeletonItem struct {
	isEntity bool
	position string // interstitial position key
	entityID string
}

// Build assembles the merged file content.
//
// oursRegions is the skeleton: its interstitial keys and entity order
// dictate the output order. theirsEntities (in theirs's own order) supplies
// entities that never made it into ours — each is spliced in immediately
// after the nearest entity that precedes it in theirs and is also present in
// the ours skeleton, or at the front of the file if no such entity exists.
// resolved holds one Outcome per entity identity seen across all three
// revisions; interstitials holds one merged string per position key.
func Build(oursRegions []region.Region, theirsEntities []entity.Entity, resolved map[string]resolve.Outcome, interstitials map[string]string) string {
	skeleton := list.New()
	elemByEntityID := make(map[string]*list.Element)

	for _, r := range oursRegions {
		if r.IsEntity {
			item := &skeletonItem{isEntity: true, entityID: r.Entity.EntityID}
			elemByEntityID[r.Entity.EntityID] = skeleton.PushBack(item)
		} else {
			skeleton.PushBack(&skeletonItem{position: r.Interstitial.PositionKey})
		}
	}

	var anchor *list.Element
	for _, te := range theirsEntities {
		if e, ok := elemByEntityID[te.Identity]; ok {
			anchor = e
			continue
		}
		item := &skeletonItem{isEntity: true, entityID: te.Identity}
		var inserted *list.Element
		if anchor == nil {
			inserted = skeleton.PushFront(item)
		} else {
			inserted = skeleton.InsertAfter(item, anchor)
		}
		elemByEntityID[te.Identity] = inserted
		anchor = inserted
	}

	oursInterstitialContent := make(map[string]string)
	for _, r := range oursRegions {
		if !r.IsEntity {
			oursInterstitialContent[r.Interstitial.PositionKey] = r.Interstitial.Content
		}
	}

	var b strings.Builder
	for e := skeleton.Front(); e != nil; e = e.Next() {
		item := e.Value.(*skeletonItem)
		if !item.isEntity {
			if text, ok := interstitials[item.position]; ok {
				b.WriteString(text)
			} else {
				b.WriteString(oursInterstitialContent[item.position])
			}
			continue
		}

		outcome, ok := resolved[item.entityID]
		if !ok {
			continue
		}
		switch outcome.Kind {
		case resolve.Clean:
			b.WriteString(outcome.Text)
		case resolve.Conflicted:
			b.WriteString(outcome.Conflict.ToMarkers())
		case resolve.Deleted:
			// contributes nothing
		}
	}

	return b.String()
}
