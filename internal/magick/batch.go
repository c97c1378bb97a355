package magick

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pmtm/internal/logging"
	"pmtm/internal/staging"
)

// Item is one image of an annotate batch.
type Item struct {
	Path string
	Annotation
}

// BatchOptions configures AnnotateBatch.
type BatchOptions struct {
	// OutputDir receives annotated images when Collage is empty.
	OutputDir string
	// Ext is the output extension including the dot, e.g. ".png".
	Ext string
	// Collage, when set, is the contact sheet built from the annotated images.
	// The annotated images are then written to a staging work directory and
	// removed afterwards.
	Collage    string
	StagingDir string
}

// Progress reports one finished image of a batch.
type Progress struct {
	Current int
	Total   int
	Output  string
}

// AnnotateBatch annotates every item and optionally tiles the results into a
// collage. It returns the files written, which is the collage alone when one
// was requested.
func (c *Client) AnnotateBatch(ctx context.Context, items []Item, opts BatchOptions, progress func(Progress)) ([]string, error) {
	if len(items) == 0 {
		return nil, ErrNoImages
	}
	ext := opts.Ext
	if ext == "" {
		ext = ".png"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	outDir := opts.OutputDir
	var work *staging.WorkDir
	if opts.Collage != "" {
		var err error
		work, err = staging.NewWorkDir(opts.StagingDir, staging.KindAnnotate)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := work.Remove(); err != nil {
				c.logger.Warn("failed to remove annotate work dir",
					logging.String("path", work.Path),
					logging.Error(err),
				)
			}
		}()
		outDir = work.Path
	}
	if strings.TrimSpace(outDir) == "" {
		return nil, fmt.Errorf("annotate batch: output directory not set")
	}

	outputs := make([]string, 0, len(items))
	for i, item := range items {
		name := strings.TrimSuffix(filepath.Base(item.Path), filepath.Ext(item.Path))
		output := filepath.Join(outDir, name+ext)
		if err := c.Annotate(ctx, item.Path, output, item.Annotation); err != nil {
			return outputs, err
		}
		outputs = append(outputs, output)
		if progress != nil {
			progress(Progress{Current: i + 1, Total: len(items), Output: output})
		}
	}

	if opts.Collage == "" {
		return outputs, nil
	}
	if err := c.Montage(ctx, outputs, opts.Collage, 0, 0); err != nil {
		return nil, err
	}
	return []string{opts.Collage}, nil
}

// Collage tiles images into output after filtering unsupported files. It
// returns the images used.
func (c *Client) Collage(ctx context.Context, images []string, output string, cols, rows int) ([]string, error) {
	used := make([]string, 0, len(images))
	for _, image := range images {
		if Supported(image) {
			used = append(used, image)
			continue
		}
		logging.WarnWithContext(c.logger, "unsupported image skipped", "collage_image_skipped",
			logging.String("path", image),
			logging.String(logging.FieldErrorHint, "supported: "+strings.Join(SupportedExtensions, " ")),
			logging.String(logging.FieldImpact, "image left out of the collage"),
		)
	}
	if err := c.Montage(ctx, used, output, cols, rows); err != nil {
		return nil, err
	}
	return used, nil
}
