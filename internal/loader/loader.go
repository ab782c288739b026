// Package loader decodes raw image bytes into a normalized raster together
// with the container-level side data the metadata extractor needs.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	// standard decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds width*height before a full decode is attempted.
const DefaultMaxPixels int64 = 50_000_000

// ErrEmptyInput is wrapped by InvalidImageError when no bytes were supplied.
var ErrEmptyInput = errors.New("empty input")

// InvalidImageError reports bytes that could not be turned into an image.
type InvalidImageError struct {
	Err error
}

func (e *InvalidImageError) Error() string {
	return e.Err.Error()
}

func (e *InvalidImageError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...interface{}) *InvalidImageError {
	return &InvalidImageError{Err: fmt.Errorf(format, args...)}
}

// NormalizedImage is a decoded, orientation-corrected raster plus the
// descriptive data captured while decoding it.
type NormalizedImage struct {
	Image image.Image
	// Format is the upper-case container name, e.g. "PNG" or "JPEG".
	Format string
	// Mode is the color model tag of the decoded raster, e.g. "RGB" or "L".
	Mode string
	// Width and Height are measured after orientation correction.
	Width     int
	Height    int
	Container Container
	// Orientation is the EXIF orientation that was applied, 1 when none.
	Orientation int
	// Raw is the original input, kept for secondary metadata searches.
	Raw []byte
}

// Loader turns byte buffers into NormalizedImages. It is safe for concurrent use.
type Loader struct {
	maxPixels int64
}

// New creates a loader that rejects images above maxPixels. A non-positive
// value selects DefaultMaxPixels.
func New(maxPixels int64) *Loader {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Loader{maxPixels: maxPixels}
}

// Load decodes data, identifying the format from its content. Any failure is
// returned as an *InvalidImageError.
func (l *Loader) Load(data []byte) (img *NormalizedImage, err error) {
	if len(data) == 0 {
		return nil, &InvalidImageError{Err: ErrEmptyInput}
	}

	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = invalid("decoder panic: %v", r)
		}
	}()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("cannot identify image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, invalid("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > l.maxPixels {
		return nil, invalid("image size %dx%d exceeds limit of %d pixels", cfg.Width, cfg.Height, l.maxPixels)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("cannot decode %s image: %w", format, err)
	}

	format = strings.ToUpper(format)
	container := scanContainer(format, data)
	mode := colorMode(decoded)
	if container.Mode != "" {
		mode = container.Mode
	}

	orientation := readOrientation(container.EXIF, data)
	oriented := applyOrientation(decoded, orientation)
	bounds := oriented.Bounds()

	return &NormalizedImage{
		Image:       oriented,
		Format:      format,
		Mode:        mode,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Container:   container,
		Orientation: orientation,
		Raw:         data,
	}, nil
}

// IsGray reports whether the raster carries a single luminance channel.
func (n *NormalizedImage) IsGray() bool {
	return n.Mode == "L" || n.Mode == "LA"
}

type opaquer interface {
	Opaque() bool
}

func colorMode(img image.Image) string {
	switch m := img.(type) {
	case *image.Gray:
		return "L"
	case *image.Gray16:
		return "I;16"
	case *image.YCbCr:
		return "RGB"
	case *image.CMYK:
		return "CMYK"
	case *image.Paletted:
		return "P"
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		if o, ok := m.(opaquer); ok && o.Opaque() {
			return "RGB"
		}
		return "RGBA"
	}
	return "RGB"
}
