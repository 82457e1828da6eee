// Package interstitial merges the non-entity text between declarations:
// package clauses, import blocks, blank lines, free-floating comments. It
// merges each position key independently, using a commutative set merge for
// import-heavy regions and the inner text merge otherwise.
package interstitial

import (
	"strings"

	"github.com/concord-merge/concord/pkg/diff3"
)

// Merge produces a position-key -> merged-text mapping covering the union of
// keys present across base, ours, and theirs.
func Merge(base, ours, theirs map[string]string) map[string]string {
	keys := map[string]bool{}
	for k := range base {
		keys[k] = true
	}
	for k := range ours {
		keys[k] = true
	}
	for k := range theirs {
		keys[k] = true
	}

	merged := make(map[string]string, len(keys))
	for key := range keys {
		b := base[key]
		o := ours[key]
		t := theirs[key]

		switch {
		case o == t:
			merged[key] = o
		case b == o:
			merged[key] = t
		case b == t:
			merged[key] = o
		case isImportRegion(b) || isImportRegion(o) || isImportRegion(t):
			merged[key] = mergeImportsCommutatively(b, o, t)
		default:
			if result, ok := diff3.Merge3(b, o, t); ok {
				merged[key] = result
			} else {
				// Inner merge conflicted; store the marker text as-is so the
				// reconstructed file carries ordinary conflict markers here.
				merged[key] = string(diff3.Merge([]byte(b), []byte(o), []byte(t)).Merged)
			}
		}
	}

	return merged
}

// isImportRegion reports whether more than half of content's non-blank lines
// are import lines.
func isImportRegion(content string) bool {
	lines := nonBlankLines(content)
	if len(lines) == 0 {
		return false
	}
	importCount := 0
	for _, l := range lines {
		if isImportLine(l) {
			importCount++
		}
	}
	return importCount*2 > len(lines)
}

func isImportLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "import "),
		strings.HasPrefix(trimmed, "from "),
		strings.HasPrefix(trimmed, "use "),
		strings.HasPrefix(trimmed, "require("),
		strings.HasPrefix(trimmed, "package "),
		strings.HasPrefix(trimmed, "#include "),
		strings.HasPrefix(trimmed, "using "):
		return true
	case strings.HasPrefix(trimmed, "const ") && strings.Contains(trimmed, "require("):
		return true
	default:
		return false
	}
}

func nonBlankLines(content string) []string {
	var out []string
	for _, l := range splitLines(content) {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
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

// mergeImportsCommutatively treats each version's import lines as an ordered
// set and merges by deletion-wins-over-retention, using ours as the layout
// skeleton for surrounding non-import lines.
func mergeImportsCommutatively(base, ours, theirs string) string {
	baseLines := splitLines(base)
	oursLines := splitLines(ours)
	theirsLines := splitLines(theirs)

	baseImports := filterImportLines(baseLines)
	oursImports := filterImportLines(oursLines)
	theirsImports := filterImportLines(theirsLines)

	baseSet := toSet(baseImports)
	oursSet := toSet(oursImports)
	theirsSet := toSet(theirsImports)

	oursDeleted := setDifference(baseSet, oursSet)
	theirsDeleted := setDifference(baseSet, theirsSet)

	oursAdded := filterNotIn(oursImports, baseSet)
	theirsAdded := filterNotInEither(theirsImports, baseSet, oursSet)

	mergedImports := make([]string, 0, len(baseImports)+len(oursAdded)+len(theirsAdded))
	for _, line := range baseImports {
		if oursDeleted[line] || theirsDeleted[line] {
			continue
		}
		mergedImports = append(mergedImports, line)
	}
	mergedImports = append(mergedImports, oursAdded...)
	mergedImports = append(mergedImports, theirsAdded...)

	firstImportIdx := -1
	for i, l := range oursLines {
		if isImportLine(l) {
			firstImportIdx = i
			break
		}
	}

	var resultLines []string
	if firstImportIdx >= 0 {
		resultLines = append(resultLines, oursLines[:firstImportIdx]...)
		resultLines = append(resultLines, mergedImports...)
		for i := firstImportIdx + 1; i < len(oursLines); i++ {
			if !isImportLine(oursLines[i]) {
				resultLines = append(resultLines, oursLines[i])
			}
		}
	} else {
		resultLines = append(resultLines, mergedImports...)
		for _, l := range oursLines {
			if !isImportLine(l) {
				resultLines = append(resultLines, l)
			}
		}
	}

	result := strings.Join(resultLines, "\n")
	if strings.HasSuffix(ours, "\n") || strings.HasSuffix(theirs, "\n") {
		if !strings.HasSuffix(result, "\n") {
			result += "\n"
		}
	}
	return result
}

func filterImportLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if isImportLine(l) {
			out = append(out, l)
		}
	}
	return out
}

func toSet(lines []string) map[string]bool {
	set := make(map[string]bool, len(lines))
	for _, l := range lines {
		set[l] = true
	}
	return set
}

func setDifference(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for k := range a {
		if !b[k] {
			out[k] = true
		}
	}
	return out
}

func filterNotIn(lines []string, exclude map[string]bool) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if !exclude[l] {
			out = append(out, l)
		}
	}
	return out
}

func filterNotInEither(lines []string, a, b map[string]bool) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if !a[l] && !b[l] {
			out = append(out, l)
		}
	}
	return out
}
