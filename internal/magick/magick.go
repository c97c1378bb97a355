package magick

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"pmtm/internal/logging"
	"pmtm/internal/services"
	"pmtm/internal/toolexec"
)

// ThumbnailGeometry bounds generated thumbnails.
const ThumbnailGeometry = "192x108"

// SupportedExtensions lists the image types the image tools accept, lower case.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".tiff", ".exr"}

// Supported reports whether path has a supported image extension in either case.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range SupportedExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Grid returns the smallest square tile layout holding n images.
func Grid(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	side := int(math.Sqrt(float64(n)))
	if side*side < n {
		side++
	}
	return side, side
}

// Client runs ImageMagick commands.
type Client struct {
	binary string
	exec   toolexec.Executor
	logger *slog.Logger
}

// New returns a client for binary. A nil exec runs real commands.
func New(binary string, exec toolexec.Executor, logger *slog.Logger) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "magick"
	}
	if exec == nil {
		exec = toolexec.CommandExecutor{}
	}
	return &Client{binary: binary, exec: exec, logger: logging.NewComponentLogger(logger, "magick")}
}

func (c *Client) run(ctx context.Context, operation string, args []string) ([]byte, error) {
	c.logger.Debug("running imagemagick",
		logging.String(logging.FieldOperation, operation),
		logging.String("command", toolexec.CommandLine(c.binary, args)),
	)
	out, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		return out, fmt.Errorf("magick %s: %w", operation, err)
	}
	return out, nil
}

// Identify returns the pixel size of the first frame of image.
func (c *Client) Identify(ctx context.Context, image string) (width, height int, err error) {
	out, err := c.run(ctx, "identify", []string{"identify", "-format", "%wx%h", image + "[0]"})
	if err != nil {
		return 0, 0, err
	}
	w, h, ok := strings.Cut(strings.TrimSpace(string(out)), "x")
	if ok {
		width, errW := strconv.Atoi(w)
		height, errH := strconv.Atoi(h)
		if errW == nil && errH == nil {
			return width, height, nil
		}
	}
	return 0, 0, services.Wrap(services.ErrExternalTool, "magick", "identify", fmt.Sprintf("unexpected size %q", strings.TrimSpace(string(out))), nil)
}

// Thumbnail writes a thumbnail of image no larger than ThumbnailGeometry.
func (c *Client) Thumbnail(ctx context.Context, image, output string) error {
	_, err := c.run(ctx, "thumbnail", []string{image, "-thumbnail", ThumbnailGeometry, output})
	return err
}

// Annotation is text drawn centred along the bottom edge of an image.
type Annotation struct {
	Text      string
	Color     string
	PointSize int
	// Font is an optional font name or file.
	Font string
}

// Annotate writes image with a.Text drawn on it to output.
func (c *Client) Annotate(ctx context.Context, image, output string, a Annotation) error {
	args := AnnotateArgs(image, output, a)
	_, err := c.run(ctx, "annotate", args)
	return err
}

// AnnotateArgs builds the argument vector used by Annotate.
func AnnotateArgs(image, output string, a Annotation) []string {
	color := strings.TrimSpace(a.Color)
	if color == "" {
		color = DefaultColor
	}
	size := a.PointSize
	if size <= 0 {
		size = DefaultPointSize
	}
	args := []string{image}
	if font := strings.TrimSpace(a.Font); font != "" {
		args = append(args, "-font", font)
	}
	return append(args,
		"-gravity", "South",
		"-pointsize", strconv.Itoa(size),
		"-fill", color,
		"-annotate", "+0+10", a.Text,
		output,
	)
}

// Defaults applied by AnnotateArgs.
const (
	DefaultColor     = "#aa0000"
	DefaultPointSize = 100
)

// ErrNoImages is returned when a collage has no inputs.
var ErrNoImages = errors.New("no images to collage")

// Montage tiles images into a cols x rows contact sheet with no spacing on a
// black background. Zero cols or rows selects Grid(len(images)).
func (c *Client) Montage(ctx context.Context, images []string, output string, cols, rows int) error {
	args, err := MontageArgs(images, output, cols, rows)
	if err != nil {
		return err
	}
	_, err = c.run(ctx, "montage", args)
	return err
}

// MontageArgs builds the argument vector used by Montage.
func MontageArgs(images []string, output string, cols, rows int) ([]string, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if cols <= 0 || rows <= 0 {
		cols, rows = Grid(len(images))
	}
	args := make([]string, 0, len(images)+8)
	args = append(args, "montage")
	args = append(args, images...)
	return append(args,
		"-tile", fmt.Sprintf("%dx%d", cols, rows),
		"-geometry", "+0+0",
		"-background", "black",
		output,
	), nil
}
