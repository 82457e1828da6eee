package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/concord-merge/concord/pkg/auditlog"
	"github.com/concord-merge/concord/pkg/conflict"
	"github.com/concord-merge/concord/pkg/config"
	"github.com/concord-merge/concord/pkg/entity"
	"github.com/concord-merge/concord/pkg/fallback"
	"github.com/concord-merge/concord/pkg/merge"
)

const defaultAuditLogPath = ".concord-audit.log"

// newMergeDriverCmd wires concord into git's merge-driver protocol
// (`%O %A %B %L %P`) and jj's merge-tool protocol (`$base $left $right -o
// $output -l $marker_length -p $path`): both invoke one process per
// conflicted file and read its exit code.
func newMergeDriverCmd() *cobra.Command {
	var output string
	var markerLength int
	var pathOverride string

	cmd := &cobra.Command{
		Use:   "merge-driver <base> <ours> <theirs> [marker-size] [path]",
		Short: "Run the entity merge as a git/jj merge driver",
		Long: `Invoked by git as a merge driver, or by jj as a merge tool.

%O (ancestor/base), %A (current/ours), and %B (other/theirs) are read from
the three positional paths. The merge result is written back to %A (git's
convention) unless -o/--output names a different path. Exit code 0 means a
clean merge; 1 means conflicts were written to the output; 2 means the
driver could not run the merge at all (bad arguments, unreadable input,
binary content) and the caller should fall back to its own merge tool.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			basePath, oursPath, theirsPath := args[0], args[1], args[2]
			filePath := pathOverride
			if filePath == "" && len(args) > 4 {
				filePath = args[4]
			}
			if filePath == "" && len(args) > 3 {
				filePath = args[3]
			}
			if filePath == "" {
				filePath = oursPath
			}

			return runMergeDriver(cmd, basePath, oursPath, theirsPath, output, filePath)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write merge result here instead of the ours path")
	cmd.Flags().IntVarP(&markerLength, "marker-length", "l", 0, "accepted for jj compatibility; concord uses its own marker format")
	cmd.Flags().StringVarP(&pathOverride, "path", "p", "", "file path used for language detection and reporting")

	return cmd
}

func runMergeDriver(cmd *cobra.Command, basePath, oursPath, theirsPath, output, filePath string) error {
	stderr := cmd.ErrOrStderr()

	base, err := os.ReadFile(basePath)
	if err != nil {
		fmt.Fprintf(stderr, "concord: failed to read base file %q: %v\n", basePath, err)
		os.Exit(2)
	}
	ours, err := os.ReadFile(oursPath)
	if err != nil {
		fmt.Fprintf(stderr, "concord: failed to read ours file %q: %v\n", oursPath, err)
		os.Exit(2)
	}
	theirs, err := os.ReadFile(theirsPath)
	if err != nil {
		fmt.Fprintf(stderr, "concord: failed to read theirs file %q: %v\n", theirsPath, err)
		os.Exit(2)
	}

	if isBinary(base) || isBinary(ours) || isBinary(theirs) {
		fmt.Fprintf(stderr, "concord: binary file detected, skipping entity merge for %q\n", filePath)
		os.Exit(2)
	}

	cfg, err := config.LoadFromDir(filepath.Dir(filePath))
	if err != nil {
		fmt.Fprintf(stderr, "concord: failed to load .concord.toml: %v\n", err)
		os.Exit(2)
	}

	result := runMerge(cfg, string(base), string(ours), string(theirs), filePath)

	writePath := output
	if writePath == "" {
		writePath = oursPath
	}
	if err := os.WriteFile(writePath, []byte(result.Content), 0o644); err != nil {
		fmt.Fprintf(stderr, "concord: failed to write result to %q: %v\n", writePath, err)
		os.Exit(2)
	}

	fmt.Fprintf(stderr, "concord [%s]: %s\n", filePath, result.Stats.String())

	if cfg.AuditLog {
		if err := recordAudit(cfg, filePath, result); err != nil {
			fmt.Fprintf(stderr, "concord: audit log: %v\n", err)
		}
	}

	if result.Clean() {
		os.Exit(0)
	}
	fmt.Fprintf(stderr, "concord: %d conflict(s) in %q\n", len(result.Conflicts), filePath)
	for _, c := range result.Conflicts {
		fmt.Fprintf(stderr, "  - %s `%s`: %s\n", c.EntityType, c.EntityName, c.Kind)
	}
	os.Exit(1)
	return nil
}

// runMerge dispatches to the entity merge core, honoring a per-extension
// forced-fallback override and a configured size gate from .concord.toml.
func runMerge(cfg *config.Config, base, ours, theirs, filePath string) merge.Result {
	if cfg.ForcesFallback(filepath.Ext(filePath)) {
		r := fallback.Merge(base, ours, theirs)
		if r.Conflict != nil {
			return merge.Result{
				Content:   r.Content,
				Conflicts: []conflict.EntityConflict{*r.Conflict},
				Stats:     conflict.Stats{EntitiesConflicted: 1, UsedFallback: true},
			}
		}
		return merge.Result{Content: r.Content, Stats: conflict.Stats{UsedFallback: true}}
	}
	maxBytes := cfg.SizeGate(merge.DefaultMaxInputBytes)
	return merge.EntityMergeWithLimit(base, ours, theirs, filePath, entity.DefaultRegistry(), maxBytes)
}

func recordAudit(cfg *config.Config, filePath string, result merge.Result) error {
	path := cfg.AuditLogPath
	if path == "" {
		path = defaultAuditLogPath
	}
	w, err := auditlog.Open(path)
	if err != nil {
		return err
	}
	defer w.Close()

	return w.Append(auditlog.Entry{
		Timestamp:  time.Now(),
		FilePath:   filePath,
		Confidence: result.Stats.Confidence(),
		Conflicts:  result.Conflicts,
		Stats:      result.Stats,
	})
}

func isBinary(content []byte) bool {
	limit := len(content)
	if limit > 8192 {
		limit = 8192
	}
	return bytes.IndexByte(content[:limit], 0) >= 0
}
