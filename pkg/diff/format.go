package diff

import (
	"fmt"
	"strings"

	"github.com/concord-merge/concord/pkg/diff3"
	"github.com/concord-merge/concord/pkg/entity"
)

// FormatEntityDiff produces a human-readable entity-level summary of changes.
//
// Output format:
//
//	path:
//	  + function Name     (added)
//	  ~ function Name     (modified)
//	  - function Name     (removed)
func FormatEntityDiff(d *FileDiff) string {
	if len(d.Changes) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", d.Path)

	for _, c := range d.Changes {
		var marker string
		var label string
		switch c.Type {
		case Added:
			marker = "+"
			label = "added"
		case Removed:
			marker = "-"
			label = "removed"
		case Modified:
			marker = "~"
			label = "modified"
		}

		fmt.Fprintf(&b, "  %s %s     (%s)\n", marker, entityDisplayName(c), label)
	}

	return b.String()
}

// FormatLineDiff produces a unified-diff-style output showing line-level
// changes within modified entities. Added/Removed entities are shown in
// full; unchanged entities produce no output.
//
// Output format for Modified entities:
//
//	--- a/path::function Name
//	+++ b/path::function Name
//	-    old line
//	+    new line
func FormatLineDiff(d *FileDiff) string {
	if len(d.Changes) == 0 {
		return ""
	}

	var b strings.Builder

	for _, c := range d.Changes {
		name := entityDisplayName(c)
		switch c.Type {
		case Modified:
			fmt.Fprintf(&b, "--- a/%s::%s\n", d.Path, name)
			fmt.Fprintf(&b, "+++ b/%s::%s\n", d.Path, name)

			for _, dl := range diff3.LineDiff([]byte(c.Before.Content), []byte(c.After.Content)) {
				switch dl.Type {
				case diff3.Delete:
					fmt.Fprintf(&b, "-%s\n", dl.Content)
				case diff3.Insert:
					fmt.Fprintf(&b, "+%s\n", dl.Content)
				case diff3.Equal:
					fmt.Fprintf(&b, " %s\n", dl.Content)
				}
			}

		case Added:
			fmt.Fprintf(&b, "+++ b/%s::%s\n", d.Path, name)
			for _, l := range strings.Split(strings.TrimRight(c.After.Content, "\n"), "\n") {
				fmt.Fprintf(&b, "+%s\n", l)
			}

		case Removed:
			fmt.Fprintf(&b, "--- a/%s::%s\n", d.Path, name)
			for _, l := range strings.Split(strings.TrimRight(c.Before.Content, "\n"), "\n") {
				fmt.Fprintf(&b, "-%s\n", l)
			}
		}
	}

	return b.String()
}

// entityDisplayName returns a human-readable label for the changed entity:
// its declaration kind and name, e.g. "function Hello" or "type Config".
func entityDisplayName(c EntityChange) string {
	var e *entity.Entity
	if c.After != nil {
		e = c.After
	} else {
		e = c.Before
	}
	if e == nil {
		return c.Key
	}
	return fmt.Sprintf("%s %s", e.Type, e.Name)
}
