package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"pmtm/internal/config"
	"pmtm/internal/movies"
	"pmtm/internal/services"
)

func newMoviesCommand(ctx *commandContext) *cobra.Command {
	moviesCmd := &cobra.Command{
		Use:   "movies",
		Short: "Probe movies and export their audio",
	}
	moviesCmd.AddCommand(newMoviesScanCommand(ctx))
	moviesCmd.AddCommand(newMoviesAudioCommand(ctx))
	return moviesCmd
}

func discoverMovies(env *commandEnv, cmd *cobra.Command, arg string, recurse bool) ([]string, error) {
	root, err := config.ExpandPath(arg)
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("recurse") {
		recurse = env.cfg.Scan.Recurse
	}
	paths, err := movies.Discover(root, recurse, env.cfg.Scan.Exclude)
	if err != nil {
		if errors.Is(err, movies.ErrPathNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "movies", "discover", "scan root missing", err)
		}
		return nil, err
	}
	return paths, nil
}

func newMoviesScanCommand(ctx *commandContext) *cobra.Command {
	var recurse bool
	var thumbnails bool
	var csvPath string

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "Report frame count, rate, resolution, codec, and colorspace of movies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "movies.scan")
			if err != nil {
				return err
			}
			if err := env.requireTools("FFprobe"); err != nil {
				return err
			}
			paths, err := discoverMovies(env, cmd, args[0], recurse)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("thumbnails") {
				thumbnails = env.cfg.Probe.Thumbnails
			}

			scanner := movies.NewScanner(movies.Options{
				FFprobe:     env.cfg.FFprobeBinary(),
				FFmpeg:      env.cfg.FFmpegBinary(),
				Concurrency: env.cfg.Probe.Concurrency,
				Thumbnails:  thumbnails,
				StagingDir:  env.cfg.Paths.StagingDir,
			}, env.probeExecutor(), env.logger)

			bar := ctx.newProgress(cmd, len(paths), "Probing")
			result, err := scanner.Scan(env.ctx, paths, func(m movies.Movie) { bar.step(m.Name) })
			bar.finish()
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := writeCSVTarget(cmd, csvPath, ctx.JSONMode(), func(w io.Writer) error {
					return movies.ExportCSV(w, result.Movies)
				}); err != nil {
					return err
				}
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if len(result.Movies) == 0 {
				fmt.Fprintln(out, "No movies found")
				return nil
			}
			rows := make([][]string, 0, len(result.Movies))
			for _, m := range result.Movies {
				frames := strconv.Itoa(m.Frames)
				if m.Error != "" {
					frames = "error"
				}
				rows = append(rows, []string{m.Name, frames, m.FPS, m.Resolution, m.Codec, m.Colorspace, m.Path})
			}
			fmt.Fprint(out, renderTable(
				[]column{{title: "Name"}, {title: "Frames", numeric: true}, {title: "FPS", numeric: true},
					{title: "Resolution"}, {title: "Codec"}, {title: "Colorspace"}, {title: "Path", path: true}},
				rows,
			))
			fmt.Fprintf(out, "\nVideos: %d  Total frames: %d\n", result.Videos, result.TotalFrames)
			if result.Thumbnails != "" {
				fmt.Fprintf(out, "Thumbnails: %s\n", result.Thumbnails)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Include subdirectories (default from [scan] recurse)")
	cmd.Flags().BoolVar(&thumbnails, "thumbnails", false, "Extract a first-frame thumbnail per movie (default from [probe] thumbnails)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also export the table as CSV (- for stdout)")
	return cmd
}

func newMoviesAudioCommand(ctx *commandContext) *cobra.Command {
	var recurse bool
	var outDir string

	cmd := &cobra.Command{
		Use:   "audio <root>",
		Short: "Export the audio track of each movie as WAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "movies.audio")
			if err != nil {
				return err
			}
			if err := env.requireTools("FFmpeg"); err != nil {
				return err
			}
			paths, err := discoverMovies(env, cmd, args[0], recurse)
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(outDir)
			if err != nil {
				return err
			}

			list := make([]movies.Movie, 0, len(paths))
			for _, path := range paths {
				list = append(list, movies.NewMovie(path))
			}
			scanner := movies.NewScanner(movies.Options{FFmpeg: env.cfg.FFmpegBinary()}, env.jobExecutor(), env.logger)

			bar := ctx.newProgress(cmd, len(list), "Exporting")
			written, err := scanner.ExtractAudio(env.ctx, list, target, func(p movies.AudioProgress) { bar.step(p.Name) })
			bar.finish()

			if ctx.JSONMode() {
				payload := map[string]any{"written": nonNil(written)}
				if err != nil {
					payload["error"] = err.Error()
				}
				if jerr := writeJSON(cmd, payload); jerr != nil {
					return jerr
				}
				return err
			}
			out := cmd.OutOrStdout()
			for _, file := range written {
				fmt.Fprintln(out, file)
			}
			fmt.Fprintf(out, "Exported %d of %d movies\n", len(written), len(list))
			return err
		},
	}

	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Include subdirectories (default from [scan] recurse)")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Directory for the WAV files")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
