package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pmtm/internal/shots"
)

func newShotsCommand(ctx *commandContext) *cobra.Command {
	shotsCmd := &cobra.Command{
		Use:         "shots",
		Short:       "Shot numbering helpers",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	shotsCmd.AddCommand(newShotsNamesCommand(ctx))
	return shotsCmd
}

func newShotsNamesCommand(ctx *commandContext) *cobra.Command {
	var start string
	var step, count int
	var prefix, sep string

	cmd := &cobra.Command{
		Use:   "names",
		Short: "Generate zero-padded shot numbers",
		Long: `Generate shot numbers for renaming clips on an editorial timeline.

Numbers keep the width of --start: --start 0010 --step 10 yields 0010, 0020,
0030 and so on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers, err := shots.Names(start, step, count)
			if err != nil {
				return err
			}
			names := shots.Prefixed(prefix, sep, numbers)
			if ctx.JSONMode() {
				return writeJSON(cmd, names)
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "0010", "First shot number; its width sets the padding")
	cmd.Flags().IntVar(&step, "step", 10, "Increment between shots")
	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of shots")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix such as a sequence code")
	cmd.Flags().StringVar(&sep, "sep", "_", "Separator between prefix and number")
	return cmd
}
