package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/concord-merge/concord/pkg/diff"
	"github.com/concord-merge/concord/pkg/diff3"
	"github.com/concord-merge/concord/pkg/entity"
)

const lineDiffContextLines = 3

// newDiffCmd compares two revisions of a file directly from the filesystem,
// useful outside of a merge: `concord-merge diff base.go after.go`.
func newDiffCmd() *cobra.Command {
	var entityMode bool

	cmd := &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Show entity-level or line-level changes between two file revisions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			beforePath, afterPath := args[0], args[1]

			before, err := readOrEmpty(beforePath)
			if err != nil {
				return fmt.Errorf("diff: read %s: %w", beforePath, err)
			}
			after, err := readOrEmpty(afterPath)
			if err != nil {
				return fmt.Errorf("diff: read %s: %w", afterPath, err)
			}

			out := cmd.OutOrStdout()
			if entityMode {
				return printEntityDiff(out, afterPath, before, after)
			}
			return printLineDiff(out, afterPath, before, after)
		},
	}

	cmd.Flags().BoolVar(&entityMode, "entity", false, "show entity-level structural diff instead of a line diff")
	return cmd
}

func readOrEmpty(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []byte{}, nil
		}
		return nil, err
	}
	return data, nil
}

func printEntityDiff(out io.Writer, path string, before, after []byte) error {
	fd, err := diff.Files(path, before, after, entity.DefaultRegistry())
	if err != nil {
		return printLineDiff(out, path, before, after)
	}
	if s := diff.FormatEntityDiff(fd); s != "" {
		fmt.Fprint(out, s)
	}
	return nil
}

func printLineDiff(out io.Writer, path string, before, after []byte) error {
	if bytes.Equal(before, after) {
		return nil
	}

	fmt.Fprintf(out, "diff --concord a/%s b/%s\n", path, path)
	fmt.Fprintf(out, "--- a/%s\n", path)
	fmt.Fprintf(out, "+++ b/%s\n", path)

	lines := diff3.LineDiff(before, after)
	for _, h := range buildLineDiffHunks(lines, lineDiffContextLines) {
		oldStart, oldCount, newStart, newCount := h.lineRange(lines)
		fmt.Fprintf(out, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)

		for _, dl := range lines[h.start:h.end] {
			switch dl.Type {
			case diff3.Equal:
				fmt.Fprintf(out, " %s\n", dl.Content)
			case diff3.Insert:
				fmt.Fprintf(out, "+%s\n", dl.Content)
			case diff3.Delete:
				fmt.Fprintf(out, "-%s\n", dl.Content)
			}
		}
	}

	return nil
}

type lineDiffHunk struct {
	start int
	end   int
}

func buildLineDiffHunks(lines []diff3.DiffLine, contextLines int) []lineDiffHunk {
	if contextLines < 0 {
		contextLines = 0
	}

	var hunks []lineDiffHunk
	for i, dl := range lines {
		if dl.Type == diff3.Equal {
			continue
		}

		start := i - contextLines
		if start < 0 {
			start = 0
		}
		end := i + contextLines + 1
		if end > len(lines) {
			end = len(lines)
		}

		if len(hunks) == 0 || start > hunks[len(hunks)-1].end {
			hunks = append(hunks, lineDiffHunk{start: start, end: end})
			continue
		}
		if end > hunks[len(hunks)-1].end {
			hunks[len(hunks)-1].end = end
		}
	}

	return hunks
}

func (h lineDiffHunk) lineRange(lines []diff3.DiffLine) (oldStart, oldCount, newStart, newCount int) {
	oldLine, newLine := 1, 1
	for i := 0; i < h.start; i++ {
		switch lines[i].Type {
		case diff3.Equal:
			oldLine++
			newLine++
		case diff3.Delete:
			oldLine++
		case diff3.Insert:
			newLine++
		}
	}

	oldStart, newStart = oldLine, newLine

	for i := h.start; i < h.end; i++ {
		switch lines[i].Type {
		case diff3.Equal:
			oldCount++
			newCount++
			oldLine++
			newLine++
		case diff3.Delete:
			oldCount++
			oldLine++
		case diff3.Insert:
			newCount++
			newLine++
		}
	}

	if oldCount == 0 {
		oldStart--
	}
	if newCount == 0 {
		newStart--
	}

	return oldStart, oldCount, newStart, newCount
}
