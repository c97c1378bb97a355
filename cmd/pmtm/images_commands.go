package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pmtm/internal/config"
	"pmtm/internal/magick"
	"pmtm/internal/walk"
)

func newImagesCommand(ctx *commandContext) *cobra.Command {
	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "Build collages and annotate images with ImageMagick",
	}
	imagesCmd.AddCommand(newImagesCollageCommand(ctx))
	imagesCmd.AddCommand(newImagesAnnotateCommand(ctx))
	imagesCmd.AddCommand(newImagesInfoCommand(ctx))
	imagesCmd.AddCommand(newImagesThumbsCommand(ctx))
	return imagesCmd
}

// collectImages expands directory arguments into their supported images and
// passes file arguments through.
func collectImages(args []string, recurse bool, exclude []string) ([]string, error) {
	var images []string
	for _, arg := range args {
		path, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		if walk.CheckRoot(path) != nil {
			images = append(images, path)
			continue
		}
		files, err := walk.Files(path, walk.Options{
			Recurse: recurse,
			Exclude: exclude,
			Match:   magick.Supported,
		})
		if err != nil {
			return nil, err
		}
		images = append(images, files.Files...)
	}
	if len(images) == 0 {
		return nil, magick.ErrNoImages
	}
	return images, nil
}

func newImagesCollageCommand(ctx *commandContext) *cobra.Command {
	var output string
	var cols, rows int
	var recurse bool

	cmd := &cobra.Command{
		Use:   "collage <image|dir>...",
		Short: "Tile images into one contact sheet",
		Long: `Tile images into one contact sheet with ImageMagick montage.

Without --cols and --rows the grid is the smallest square that fits every
image. Supported formats: ` + strings.Join(magick.SupportedExtensions, ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "images.collage")
			if err != nil {
				return err
			}
			images, err := collectImages(args, recurse, env.cfg.Scan.Exclude)
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(output)
			if err != nil {
				return err
			}
			if err := env.requireTools("ImageMagick"); err != nil {
				return err
			}
			client := magick.New(env.cfg.MagickBinary(), env.jobExecutor(), env.logger)
			used, err := client.Collage(env.ctx, images, target, cols, rows)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"output": target, "images": used})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s from %d images\n", target, len(used))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Collage file to write")
	cmd.Flags().IntVar(&cols, "cols", 0, "Tiles per row (0 = auto)")
	cmd.Flags().IntVar(&rows, "rows", 0, "Tiles per column (0 = auto)")
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Include subdirectories of directory arguments")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newImagesAnnotateCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir  string
		collage string
		text    string
		useName bool
		color   string
		size    int
		font    string
		ext     string
		recurse bool
	)

	cmd := &cobra.Command{
		Use:   "annotate <image|dir>...",
		Short: "Stamp a caption at the bottom of each image",
		Long: `Stamp a caption centred at the bottom of each image.

The caption is --text, or each image's file name with --name. Annotated
images are written to --output, or with --collage straight into one contact
sheet (intermediate files live in the staging directory and are removed).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "images.annotate")
			if err != nil {
				return err
			}
			if outDir == "" && collage == "" {
				return fmt.Errorf("one of --output or --collage is required")
			}
			if !useName && strings.TrimSpace(text) == "" {
				return fmt.Errorf("one of --text or --name is required")
			}
			images, err := collectImages(args, recurse, env.cfg.Scan.Exclude)
			if err != nil {
				return err
			}

			items := make([]magick.Item, 0, len(images))
			for _, image := range images {
				caption := text
				if useName {
					caption = strings.TrimSuffix(filepath.Base(image), filepath.Ext(image))
				}
				items = append(items, magick.Item{
					Path: image,
					Annotation: magick.Annotation{
						Text:      caption,
						Color:     color,
						PointSize: size * 10,
						Font:      font,
					},
				})
			}

			opts := magick.BatchOptions{Ext: ext, StagingDir: env.cfg.Paths.StagingDir}
			if outDir != "" {
				if opts.OutputDir, err = config.ExpandPath(outDir); err != nil {
					return err
				}
			}
			if collage != "" {
				if opts.Collage, err = config.ExpandPath(collage); err != nil {
					return err
				}
			}

			if err := env.requireTools("ImageMagick"); err != nil {
				return err
			}
			client := magick.New(env.cfg.MagickBinary(), env.jobExecutor(), env.logger)
			bar := ctx.newProgress(cmd, len(items), "Annotating")
			written, err := client.AnnotateBatch(env.ctx, items, opts, func(p magick.Progress) { bar.step(p.Output) })
			bar.finish()
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"written": written})
			}
			out := cmd.OutOrStdout()
			for _, file := range written {
				fmt.Fprintln(out, file)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Directory for annotated images")
	cmd.Flags().StringVar(&collage, "collage", "", "Write one collage of the annotated images instead")
	cmd.Flags().StringVarP(&text, "text", "t", "", "Caption text")
	cmd.Flags().BoolVar(&useName, "name", false, "Use each image's file name as its caption")
	cmd.Flags().StringVar(&color, "color", "", "Caption colour (default #aa0000)")
	cmd.Flags().IntVar(&size, "size", 10, "Caption size; the point size is ten times this value")
	cmd.Flags().StringVar(&font, "font", "", "Font name or file")
	cmd.Flags().StringVar(&ext, "ext", ".png", "Extension of annotated images")
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Include subdirectories of directory arguments")
	return cmd
}

type imageInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Error  string `json:"error,omitempty"`
}

func newImagesInfoCommand(ctx *commandContext) *cobra.Command {
	var recurse bool

	cmd := &cobra.Command{
		Use:   "info <image|dir>...",
		Short: "List the pixel size of images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "images.info")
			if err != nil {
				return err
			}
			images, err := collectImages(args, recurse, env.cfg.Scan.Exclude)
			if err != nil {
				return err
			}
			if err := env.requireTools("ImageMagick"); err != nil {
				return err
			}
			client := magick.New(env.cfg.MagickBinary(), env.probeExecutor(), env.logger)

			infos := make([]imageInfo, len(images))
			for i, image := range images {
				infos[i] = imageInfo{Name: filepath.Base(image), Path: image}
				w, h, err := client.Identify(env.ctx, image)
				if err != nil {
					infos[i].Error = err.Error()
					continue
				}
				infos[i].Width, infos[i].Height = w, h
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, infos)
			}
			rows := make([][]string, len(infos))
			for i, info := range infos {
				size := info.Error
				if size == "" {
					size = strconv.Itoa(info.Width) + "x" + strconv.Itoa(info.Height)
				}
				rows[i] = []string{info.Name, size, info.Path}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{{title: "Image"}, {title: "Size"}, {title: "Path", path: true}},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Include subdirectories of directory arguments")
	return cmd
}

func newImagesThumbsCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var recurse bool

	cmd := &cobra.Command{
		Use:   "thumbs <image|dir>...",
		Short: "Write " + magick.ThumbnailGeometry + " JPEG thumbnails of images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "images.thumbs")
			if err != nil {
				return err
			}
			images, err := collectImages(args, recurse, env.cfg.Scan.Exclude)
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(outDir)
			if err != nil {
				return err
			}
			if err := env.requireTools("ImageMagick"); err != nil {
				return err
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create thumbnail dir: %w", err)
			}

			client := magick.New(env.cfg.MagickBinary(), env.jobExecutor(), env.logger)
			bar := ctx.newProgress(cmd, len(images), "Thumbnails")
			written := make([]string, 0, len(images))
			for _, image := range images {
				base := filepath.Base(image)
				output := filepath.Join(target, strings.TrimSuffix(base, filepath.Ext(base))+".jpg")
				if err := client.Thumbnail(env.ctx, image, output); err != nil {
					bar.finish()
					return err
				}
				written = append(written, output)
				bar.step(output)
			}
			bar.finish()

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"written": written})
			}
			out := cmd.OutOrStdout()
			for _, file := range written {
				fmt.Fprintln(out, file)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Directory for thumbnails")
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Include subdirectories of directory arguments")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
