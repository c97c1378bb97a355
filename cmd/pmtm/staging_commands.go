package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pmtm/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage thumbnail and annotation work directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staging work directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}
			var total int64
			for _, dir := range dirs {
				total += dir.Size
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"staging_dir":      cfg.Paths.StagingDir,
					"directories":      nonNil(dirs),
					"total_size_bytes": total,
				})
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging directories found")
				return nil
			}
			rows := make([][]string, len(dirs))
			for i, dir := range dirs {
				rows[i] = []string{dir.Name, dir.Kind, formatDuration(time.Since(dir.ModTime)), formatBytes(dir.Size)}
			}
			fmt.Fprintf(out, "Staging directory: %s\n\n", cfg.Paths.StagingDir)
			fmt.Fprint(out, renderTable(
				[]column{{title: "Directory"}, {title: "Kind"}, {title: "Age", numeric: true}, {title: "Size", numeric: true}},
				rows,
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), formatBytes(total))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove old thumbnail and annotation work directories",
		Long: `Remove staging work directories older than --older-than.

Only directories created by pmtm (thumbs-* and annotate-*) are touched.
Use --older-than 0 to remove all of them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "staging.clean")
			if err != nil {
				return err
			}
			result := staging.CleanStale(env.ctx, env.cfg.Paths.StagingDir, olderThan, env.logger)

			failures := make([]string, len(result.Errors))
			for i, e := range result.Errors {
				failures[i] = fmt.Sprintf("%s: %v", e.Path, e.Error)
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"removed":     nonNil(result.Removed),
					"freed_bytes": result.Freed,
					"errors":      failures,
				})
			}

			out := cmd.OutOrStdout()
			if len(result.Removed) == 0 && len(failures) == 0 {
				fmt.Fprintln(out, "No staging directories to clean")
				return nil
			}
			fmt.Fprintf(out, "Removed %d staging directories (%s)", len(result.Removed), formatBytes(result.Freed))
			if len(failures) > 0 {
				fmt.Fprintf(out, ", %d errors", len(failures))
			}
			fmt.Fprintln(out)
			for _, f := range failures {
				fmt.Fprintf(out, "  Error: %s\n", f)
			}
			if len(failures) > 0 {
				return fmt.Errorf("%d staging directories could not be removed", len(failures))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Minimum age of directories to remove")
	return cmd
}

func formatDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	return fmt.Sprintf("%dd", days)
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
