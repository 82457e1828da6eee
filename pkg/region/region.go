// Package region splits a file's text into an ordered sequence of entity and
// interstitial regions, keyed by position so the same key identifies
// corresponding regions across base/ours/theirs.
package region

import (
	"sort"
	"strings"

	"github.com/concord-merge/concord/pkg/entity"
)

// EntityRegion is the text span owned by one parsed entity.
type EntityRegion struct {
	EntityID   string
	EntityName string
	EntityType string
	Content    string
	StartLine  int
	EndLine    int
}

// InterstitialRegion is everything between, before, or after entities: import
// blocks, package clauses, blank lines, comments not attached to a
// declaration. Its PositionKey is one of "file_header", "file_footer",
// "file_only", or "between:<prev-id>:<next-id>".
type InterstitialRegion struct {
	PositionKey string
	Content     string
}

// Region is either an EntityRegion or an InterstitialRegion, distinguished by
// IsEntity. Exactly one of the two payload fields is populated.
type Region struct {
	IsEntity     bool
	Entity       EntityRegion
	Interstitial InterstitialRegion
}

// Key returns the entity ID for an entity region or the position key for an
// interstitial one — the join key used when matching regions across
// revisions.
func (r Region) Key() string {
	if r.IsEntity {
		return r.Entity.EntityID
	}
	return r.Interstitial.PositionKey
}

// Content returns the region's text.
func (r Region) Content() string {
	if r.IsEntity {
		return r.Entity.Content
	}
	return r.Interstitial.Content
}

const (
	keyFileHeader = "file_header"
	keyFileFooter = "file_footer"
	keyFileOnly   = "file_only"
)

// Extract splits content into ordered regions using entities, which must all
// belong to content. entities is sorted by StartLine before walking it, so
// callers may pass it in any order. The concatenation of every returned
// region's Content reproduces content exactly, except that a final line
// without a terminating newline gains one.
func Extract(content string, entities []entity.Entity) []Region {
	if len(entities) == 0 {
		return []Region{{
			IsEntity: false,
			Interstitial: InterstitialRegion{
				PositionKey: keyFileOnly,
				Content:     content,
			},
		}}
	}

	entities = append([]entity.Entity(nil), entities...)
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].StartLine < entities[j].StartLine
	})

	lines := splitKeepEmpty(content)
	totalLines := len(lines)

	regions := make([]Region, 0, len(entities)*2+1)
	currentLine := 0 // 0-indexed into lines

	for i, e := range entities {
		entityStart := e.StartLine - 1
		if entityStart < 0 {
			entityStart = 0
		}
		entityEnd := e.EndLine // exclusive in 0-based terms since EndLine is inclusive 1-based

		if currentLine < entityStart {
			var key string
			if i == 0 {
				key = keyFileHeader
			} else {
				key = "between:" + entities[i-1].Identity + ":" + e.Identity
			}
			regions = append(regions, Region{
				IsEntity: false,
				Interstitial: InterstitialRegion{
					PositionKey: key,
					Content:     joinLines(lines[currentLine:entityStart]),
				},
			})
		}

		entityEndClamped := entityEnd
		if entityEndClamped > totalLines {
			entityEndClamped = totalLines
		}
		var entityContent string
		if entityStart < entityEndClamped {
			entityContent = joinLines(lines[entityStart:entityEndClamped])
		} else {
			entityContent = e.Content
		}

		regions = append(regions, Region{
			IsEntity: true,
			Entity: EntityRegion{
				EntityID:   e.Identity,
				EntityName: e.Name,
				EntityType: e.Type,
				Content:    entityContent,
				StartLine:  e.StartLine,
				EndLine:    e.EndLine,
			},
		})

		currentLine = entityEndClamped
	}

	if currentLine < totalLines {
		regions = append(regions, Region{
			IsEntity: false,
			Interstitial: InterstitialRegion{
				PositionKey: keyFileFooter,
				Content:     joinLines(lines[currentLine:totalLines]),
			},
		})
	}

	// A trailing newline in content can be swallowed by splitKeepEmpty's line
	// join; re-attach it to the last region so concatenation round-trips.
	if strings.HasSuffix(content, "\n") && len(regions) > 0 {
		last := &regions[len(regions)-1]
		if last.IsEntity {
			if !strings.HasSuffix(last.Entity.Content, "\n") {
				last.Entity.Content += "\n"
			}
		} else if !strings.HasSuffix(last.Interstitial.Content, "\n") {
			last.Interstitial.Content += "\n"
		}
	}

	return regions
}

// splitKeepEmpty splits content on "\n" the way strings.Split would, but
// drops a single trailing empty element produced by a final newline — the
// caller re-attaches that newline explicitly, matching how line ranges from
// the entity parser are 1-based and inclusive of a file's last line.
func splitKeepEmpty(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
