package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pmtm/internal/config"
	"pmtm/internal/convert"
	"pmtm/internal/toolexec"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		modeFlag       string
		format         string
		outputFormat   string
		outDir         string
		keyword        string
		excludeKeyword bool
		recurse        bool
		startNumber    int
		fps            int
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:   "convert <source-dir>",
		Short: "Convert between image sequences and movies with ffmpeg",
		Long: `Convert every matching source under source-dir.

Modes:
  seq-to-video    numbered frames (name.1001.png) to one movie per sequence
  video-to-seq    each movie to a numbered frame sequence in its own folder
  seq-to-seq      re-encode sequences into another image format
  video-to-video  re-encode movies into another container

Source formats: ` + strings.Join(convert.FrameFormats, ", ") + `, ` + strings.Join(convert.VideoFormats, ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "convert")
			if err != nil {
				return err
			}
			mode, err := convert.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(outDir)
			if err != nil {
				return err
			}

			sources, err := convert.Discover(root, convert.Filter{
				Recurse:        recurse,
				Exclude:        env.cfg.Scan.Exclude,
				Format:         format,
				Keyword:        keyword,
				ExcludeKeyword: excludeKeyword,
			})
			if err != nil {
				return err
			}
			jobs, err := convert.Plan(mode, sources, convert.PlanOptions{
				OutputDir:    target,
				OutputFormat: outputFormat,
				OutputStart:  startNumber,
				FPS:          fps,
			})
			if err != nil {
				return err
			}

			if dryRun {
				return printConvertPlan(cmd, ctx, env, jobs)
			}

			if err := env.requireTools("FFmpeg"); err != nil {
				return err
			}
			runner := convert.NewRunner(env.cfg.FFmpegBinary(), env.jobExecutor(), env.logger)
			bar := ctx.newProgress(cmd, len(jobs), "Converting")
			done, runErr := runner.Run(env.ctx, jobs, func(p convert.Progress) { bar.step(p.Job.Input) })
			bar.finish()

			if ctx.JSONMode() {
				payload := map[string]any{"jobs": jobs, "completed": done}
				if runErr != nil {
					payload["error"] = runErr.Error()
				}
				if err := writeJSON(cmd, payload); err != nil {
					return err
				}
				return runErr
			}
			out := cmd.OutOrStdout()
			for _, job := range jobs[:done] {
				fmt.Fprintln(out, job.Output)
			}
			fmt.Fprintf(out, "Converted %d of %d sources\n", done, len(jobs))
			return runErr
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(convert.SequenceToVideo), "Conversion mode")
	cmd.Flags().StringVar(&format, "from", "png", "Source file format")
	cmd.Flags().StringVar(&outputFormat, "to", "mp4", "Output file format")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Output directory")
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Only convert sources whose name contains this keyword")
	cmd.Flags().BoolVar(&excludeKeyword, "exclude-keyword", false, "Skip sources containing --keyword instead")
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Include subdirectories")
	cmd.Flags().IntVar(&startNumber, "start-number", 1001, "First frame number of sequence outputs")
	cmd.Flags().IntVar(&fps, "fps", convert.DefaultFPS, "Frame rate of movies built from sequences")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the ffmpeg commands without running them")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func printConvertPlan(cmd *cobra.Command, ctx *commandContext, env *commandEnv, jobs []convert.Job) error {
	commands := make([]string, 0, len(jobs))
	for _, job := range jobs {
		args, err := convert.Args(job)
		if err != nil {
			return err
		}
		commands = append(commands, toolexec.CommandLine(env.cfg.FFmpegBinary(), args))
	}
	if ctx.JSONMode() {
		return writeJSON(cmd, map[string]any{"jobs": jobs, "commands": commands})
	}
	out := cmd.OutOrStdout()
	if len(commands) == 0 {
		fmt.Fprintln(out, "No sources matched")
		return nil
	}
	for _, line := range commands {
		fmt.Fprintln(out, line)
	}
	return nil
}
