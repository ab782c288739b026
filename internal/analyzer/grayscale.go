package analyzer

import (
	"image"
	"image/color"
	"math"

	"github.com/anime-shed/ai-image-inspector-go/internal/loader"
	"github.com/anime-shed/ai-image-inspector-go/internal/logger"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
)

// GrayGrid is a row-major grid of intensities in [0,1].
type GrayGrid struct {
	Width  int
	Height int
	Pix    []float64
}

// At returns the intensity at column x, row y.
func (g *GrayGrid) At(x, y int) float64 {
	return g.Pix[y*g.Width+x]
}

// NewGrayGrid downsamples img so its longer side is at most maxSide and
// converts it to intensities. L and LA images keep their gray channel; color images
// use Rec. 601 luma on straight RGB.
func NewGrayGrid(img *loader.NormalizedImage, maxSide int) *GrayGrid {
	src := resizeForMetrics(img.Image, maxSide)
	b := src.Bounds()
	grid := &GrayGrid{Width: b.Dx(), Height: b.Dy(), Pix: make([]float64, b.Dx()*b.Dy())}

	gray, isGray := src.(*image.Gray)
	useGray := isGray && img.IsGray()

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			switch {
			case useGray:
				grid.Pix[i] = float64(gray.GrayAt(x, y).Y) / 255.0
			case img.IsGray():
				// LA decodes to NRGBA with R == G == B
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				grid.Pix[i] = float64(c.R) / 255.0
			default:
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				grid.Pix[i] = 0.299*(float64(c.R)/255.0) + 0.587*(float64(c.G)/255.0) + 0.114*(float64(c.B)/255.0)
			}
			i++
		}
	}
	return grid
}

// resizeForMetrics scales src down with Catmull-Rom so the longer side is
// maxSide. New dimensions round half to even. Images already small enough are
// returned untouched.
func resizeForMetrics(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if maxSide <= 0 || longest <= maxSide {
		return src
	}

	scale := float64(maxSide) / float64(longest)
	nw := max(1, int(math.RoundToEven(float64(w)*scale)))
	nh := max(1, int(math.RoundToEven(float64(h)*scale)))

	logger.WithFields(logrus.Fields{
		"from_width":  w,
		"from_height": h,
		"to_width":    nw,
		"to_height":   nh,
	}).Debug("Downsampling for metrics")

	var dst xdraw.Image
	if _, ok := src.(*image.Gray); ok {
		dst = image.NewGray(image.Rect(0, 0, nw, nh))
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, nw, nh))
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
