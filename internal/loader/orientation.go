package loader

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	"github.com/rwcarlsen/goexif/exif"
)

// readOrientation returns the EXIF orientation (1-8), or 1 when it is absent
// or unreadable. The container's EXIF block is preferred; the whole file is
// tried next, which covers TIFF input and JPEG files.
func readOrientation(block, data []byte) (orientation int) {
	defer func() {
		if recover() != nil {
			orientation = 1
		}
	}()

	block = bytes.TrimPrefix(block, exifHeader)
	for _, src := range [][]byte{block, data} {
		if len(src) == 0 {
			continue
		}
		x, err := exif.Decode(bytes.NewReader(src))
		if x == nil || (err != nil && exif.IsCriticalError(err)) {
			continue
		}
		tag, err := x.Get(exif.Orientation)
		if err != nil {
			continue
		}
		v, err := tag.Int(0)
		if err != nil || v < 1 || v > 8 {
			continue
		}
		return v
	}
	return 1
}

// applyOrientation returns src transformed so it displays upright. Gray
// rasters stay gray; everything else becomes NRGBA.
func applyOrientation(src image.Image, orientation int) image.Image {
	if orientation < 2 || orientation > 8 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}

	var dst draw.Image
	gray, isGray := src.(*image.Gray)
	if isGray {
		dst = image.NewGray(image.Rect(0, 0, dw, dh))
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, dw, dh))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := orientPoint(orientation, x, y, w, h)
			if isGray {
				dst.Set(dx, dy, gray.GrayAt(b.Min.X+x, b.Min.Y+y))
				continue
			}
			dst.Set(dx, dy, color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return dst
}

// orientPoint maps source pixel (x, y) of a w*h image to its destination.
func orientPoint(orientation, x, y, w, h int) (int, int) {
	switch orientation {
	case 2: // mirror horizontal
		return w - 1 - x, y
	case 3: // rotate 180
		return w - 1 - x, h - 1 - y
	case 4: // mirror vertical
		return x, h - 1 - y
	case 5: // transpose
		return y, x
	case 6: // rotate 90 clockwise
		return h - 1 - y, x
	case 7: // transverse
		return h - 1 - y, w - 1 - x
	case 8: // rotate 90 counter-clockwise
		return y, w - 1 - x
	}
	return x, y
}
