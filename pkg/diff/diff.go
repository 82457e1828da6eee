// Package diff computes entity-level diffs between two revisions of a file,
// for the `concord-merge diff --entity` command.
package diff

import "github.com/concord-merge/concord/pkg/entity"

// ChangeType classifies what happened to an entity between two revisions.
type ChangeType int

const (
	Added    ChangeType = iota // entity exists only in the after revision
	Removed                    // entity exists only in the before revision
	Modified                   // entity exists in both but its content changed
)

// EntityChange records a single entity-level change between two revisions.
type EntityChange struct {
	Type   ChangeType
	Key    string // entity.Entity.Identity
	Before *entity.Entity
	After  *entity.Entity
}

// FileDiff holds the entity-level diff for one file.
type FileDiff struct {
	Path    string
	Changes []EntityChange
}

// Files computes an entity-level diff between before and after revisions of
// the file at path, using registry to select the parser. It extracts
// entities from both revisions, matches them by identity, and reports
// additions, removals, and modifications in before-then-after order.
func Files(path string, before, after []byte, registry entity.Registry) (*FileDiff, error) {
	plugin, ok := registry.PluginFor(path)
	if !ok {
		return &FileDiff{Path: path}, nil
	}

	beforeEntities, err := plugin.ExtractEntities(string(before), path)
	if err != nil {
		return nil, err
	}
	afterEntities, err := plugin.ExtractEntities(string(after), path)
	if err != nil {
		return nil, err
	}

	beforeMap := indexByIdentity(beforeEntities)
	afterMap := indexByIdentity(afterEntities)

	fd := &FileDiff{Path: path}

	for i := range beforeEntities {
		b := &beforeEntities[i]
		a, inAfter := afterMap[b.Identity]
		switch {
		case !inAfter:
			fd.Changes = append(fd.Changes, EntityChange{Type: Removed, Key: b.Identity, Before: b})
		case b.ContentHash != a.ContentHash:
			fd.Changes = append(fd.Changes, EntityChange{Type: Modified, Key: b.Identity, Before: b, After: a})
		}
	}

	for i := range afterEntities {
		a := &afterEntities[i]
		if _, inBefore := beforeMap[a.Identity]; !inBefore {
			fd.Changes = append(fd.Changes, EntityChange{Type: Added, Key: a.Identity, After: a})
		}
	}

	return fd, nil
}

func indexByIdentity(entities []entity.Entity) map[string]*entity.Entity {
	m := make(map[string]*entity.Entity, len(entities))
	for i := range entities {
		m[entities[i].Identity] = &entities[i]
	}
	return m
}
