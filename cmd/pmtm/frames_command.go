package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pmtm/internal/config"
	"pmtm/internal/mayaframe"
	"pmtm/internal/services"
)

func newFramesCommand(ctx *commandContext) *cobra.Command {
	framesCmd := &cobra.Command{
		Use:   "frames",
		Short: "Inspect Maya scene frame ranges",
	}
	framesCmd.AddCommand(newFramesScanCommand(ctx))
	return framesCmd
}

func newFramesScanCommand(ctx *commandContext) *cobra.Command {
	var recurse bool
	var csvPath string

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "List playback and animation ranges of .ma scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "frames.scan")
			if err != nil {
				return err
			}
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("recurse") {
				recurse = env.cfg.Scan.Recurse
			}

			result, err := mayaframe.Scan(root, mayaframe.Options{
				Recurse:   recurse,
				Encodings: env.cfg.Scan.Encodings,
				Exclude:   env.cfg.Scan.Exclude,
			}, env.logger, nil)
			if err != nil {
				if errors.Is(err, mayaframe.ErrPathNotFound) {
					return services.Wrap(services.ErrNotFound, "frames", "scan", "scan root missing", err)
				}
				return err
			}

			if csvPath != "" {
				if err := writeCSVTarget(cmd, csvPath, ctx.JSONMode(), func(w io.Writer) error {
					return mayaframe.ExportCSV(w, result.Rows)
				}); err != nil {
					return err
				}
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if len(result.Rows) == 0 {
				fmt.Fprintln(out, "No scenes found")
				return nil
			}
			rows := make([][]string, 0, len(result.Rows))
			for _, row := range result.Rows {
				rows = append(rows, []string{
					row.File,
					mayaframe.Cell(row.Start),
					mayaframe.Cell(row.End),
					mayaframe.Cell(row.Min),
					mayaframe.Cell(row.Max),
					row.Path,
				})
			}
			fmt.Fprint(out, renderTable(
				[]column{{title: "File"}, {title: "Start", numeric: true}, {title: "End", numeric: true},
					{title: "Min", numeric: true}, {title: "Max", numeric: true}, {title: "Path", path: true}},
				rows,
			))
			fmt.Fprintf(out, "\n%d scenes", len(result.Rows))
			if result.Errors > 0 {
				fmt.Fprintf(out, ", %d unreadable", result.Errors)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Include subdirectories (default from [scan] recurse)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also export the table as CSV (- for stdout)")
	return cmd
}
