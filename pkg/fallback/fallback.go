// Package fallback implements the line-level merge strategies concord
// reaches for when entity-level merging isn't possible: oversized inputs, an
// unregistered file type, or a parser that returned no usable structure.
package fallback

import (
	"strings"

	"github.com/concord-merge/concord/pkg/conflict"
	"github.com/concord-merge/concord/pkg/diff3"
)

// Result is the outcome of a fallback merge: the merged (or marker-bearing)
// text, and — only on total failure — a single synthetic file-level conflict.
type Result struct {
	Content  string
	Conflict *conflict.EntityConflict
}

// Merge attempts a separator-expanded line merge first, falling back to a
// plain line merge for cleaner markers if that still conflicts.
func Merge(base, ours, theirs string) Result {
	baseExpanded := expandSeparators(base)
	oursExpanded := expandSeparators(ours)
	theirsExpanded := expandSeparators(theirs)

	if merged, ok := diff3.Merge3(baseExpanded, oursExpanded, theirsExpanded); ok {
		return Result{Content: collapseSeparators(merged)}
	}

	if merged, ok := diff3.Merge3(base, ours, theirs); ok {
		return Result{Content: merged}
	}

	conflicted := diff3.Merge([]byte(base), []byte(ours), []byte(theirs))
	return Result{
		Content: string(conflicted.Merged),
		Conflict: &conflict.EntityConflict{
			EntityName:    "(file)",
			EntityType:    "file",
			Kind:          conflict.BothModified,
			Complexity:    conflict.Classify(base, true, ours, true, theirs, true),
			BaseContent:   base,
			BaseOK:        true,
			OursContent:   ours,
			OursOK:        true,
			TheirsContent: theirs,
			TheirsOK:      true,
		},
	}
}

// expandSeparators inserts newlines around unquoted '{', '}', ';' so a
// line-level merge can align independently-edited blocks that would
// otherwise collide on a shared line.
func expandSeparators(content string) string {
	var b strings.Builder
	b.Grow(len(content) * 2)

	inString := false
	escapeNext := false
	var stringChar byte

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if escapeNext {
			b.WriteByte(ch)
			escapeNext = false
			continue
		}
		if ch == '\\' && inString {
			b.WriteByte(ch)
			escapeNext = true
			continue
		}
		if !inString && (ch == '"' || ch == '\'' || ch == '`') {
			inString = true
			stringChar = ch
			b.WriteByte(ch)
			continue
		}
		if inString && ch == stringChar {
			inString = false
			b.WriteByte(ch)
			continue
		}

		if !inString && (ch == '{' || ch == '}' || ch == ';') {
			current := b.String()
			if current != "" && !strings.HasSuffix(current, "\n") {
				b.WriteByte('\n')
			}
			b.WriteByte(ch)
			b.WriteByte('\n')
		} else {
			b.WriteByte(ch)
		}
	}

	return b.String()
}

// collapseSeparators glues separator-only lines back toward conventional
// formatting: a lone "{" joins the previous line with a preceding space; "}"
// and ";" keep their own line. Trailing blank lines are trimmed.
func collapseSeparators(merged string) string {
	lines := splitLines(merged)

	var b strings.Builder
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "{" {
			current := b.String()
			if current != "" {
				prev := strings.TrimRight(strings.TrimSuffix(current, "\n"), " \t")
				b.Reset()
				b.WriteString(prev)
				b.WriteString(" {\n")
				continue
			}
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	result := b.String()
	for strings.HasSuffix(result, "\n\n") {
		result = result[:len(result)-1]
	}
	return result
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
