// Package fixtures builds small in-memory images for tests: encoded PNG and
// JPEG files, PNG text chunks and hand-assembled EXIF blocks.
package fixtures

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"sort"
)

// EXIF tag types used by EXIFEntry.
const (
	TypeASCII uint16 = 2
	TypeShort uint16 = 3
)

// Common IFD0 tags.
const (
	TagMake        uint16 = 0x010F
	TagModel       uint16 = 0x0110
	TagOrientation uint16 = 0x0112
	TagSoftware    uint16 = 0x0131
)

// EXIFEntry is one IFD0 field. Value is a string for TypeASCII and a uint16
// for TypeShort.
type EXIFEntry struct {
	Tag   uint16
	Type  uint16
	Value interface{}
}

// Solid returns a w*h RGBA image filled with c.
func Solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// Noise returns a w*h image of seeded random RGB values.
func Noise(w, h int, seed int64) *image.NRGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(r.Intn(256)),
				G: uint8(r.Intn(256)),
				B: uint8(r.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

// Quadrants returns a w*h image whose top-left quadrant is red and the rest
// blue, so orientation changes are observable.
func Quadrants(w, h int) *image.NRGBA {
	img := Solid(w, h, color.NRGBA{B: 255, A: 255})
	for y := 0; y < h/2; y++ {
		for x := 0; x < w/2; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	return img
}

// PNG encodes img as PNG.
func PNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// GrayAlphaPNG assembles an 8-bit gray+alpha PNG (colour type 4) where every
// pixel has the given gray and alpha samples. image/png never writes this
// layout, so the chunks are built by hand.
func GrayAlphaPNG(w, h int, gray, alpha uint8) []byte {
	ihdr := binary.BigEndian.AppendUint32(nil, uint32(w))
	ihdr = binary.BigEndian.AppendUint32(ihdr, uint32(h))
	ihdr = append(ihdr, 8, 4, 0, 0, 0)

	raw := make([]byte, 0, h*(1+2*w))
	for y := 0; y < h; y++ {
		raw = append(raw, 0)
		for x := 0; x < w; x++ {
			raw = append(raw, gray, alpha)
		}
	}
	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	if _, err := zw.Write(raw); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}

	out := []byte("\x89PNG\r\n\x1a\n")
	out = appendPNGChunk(out, "IHDR", ihdr)
	out = appendPNGChunk(out, "IDAT", idat.Bytes())
	return appendPNGChunk(out, "IEND", nil)
}

func appendPNGChunk(dst []byte, chunkType string, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	dst = append(dst, chunkType...)
	dst = append(dst, payload...)
	crc := crc32.ChecksumIEEE(append([]byte(chunkType), payload...))
	return binary.BigEndian.AppendUint32(dst, crc)
}

// JPEG encodes img as baseline JPEG at the given quality.
func JPEG(img image.Image, quality int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WithPNGChunk inserts an ancillary chunk right before IEND.
func WithPNGChunk(pngData []byte, chunkType string, payload []byte) []byte {
	iend := len(pngData) - 12
	out := make([]byte, 0, len(pngData)+len(payload)+12)
	out = append(out, pngData[:iend]...)
	out = appendPNGChunk(out, chunkType, payload)
	return append(out, pngData[iend:]...)
}

// WithPNGText adds a tEXt chunk holding key and value.
func WithPNGText(pngData []byte, key, value string) []byte {
	payload := append([]byte(key), 0)
	return WithPNGChunk(pngData, "tEXt", append(payload, value...))
}

// WithJPEGSegment inserts an APPn/COM segment right after SOI.
func WithJPEGSegment(jpegData []byte, marker byte, payload []byte) []byte {
	seg := []byte{0xFF, marker}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	seg = append(seg, payload...)

	out := make([]byte, 0, len(jpegData)+len(seg))
	out = append(out, jpegData[:2]...)
	out = append(out, seg...)
	return append(out, jpegData[2:]...)
}

// WithJPEGEXIF inserts tiff as an APP1 Exif segment.
func WithJPEGEXIF(jpegData, tiff []byte) []byte {
	return WithJPEGSegment(jpegData, 0xE1, append([]byte("Exif\x00\x00"), tiff...))
}

// EXIF assembles a little-endian TIFF structure with a single IFD0.
func EXIF(entries ...EXIFEntry) []byte {
	sorted := append([]EXIFEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tag < sorted[j].Tag })

	const ifdOffset = 8
	dataOffset := ifdOffset + 2 + 12*len(sorted) + 4

	var ifd, data []byte
	ifd = binary.LittleEndian.AppendUint16(ifd, uint16(len(sorted)))
	for _, e := range sorted {
		ifd = binary.LittleEndian.AppendUint16(ifd, e.Tag)
		ifd = binary.LittleEndian.AppendUint16(ifd, e.Type)
		switch e.Type {
		case TypeASCII:
			s := append([]byte(e.Value.(string)), 0)
			ifd = binary.LittleEndian.AppendUint32(ifd, uint32(len(s)))
			if len(s) <= 4 {
				field := make([]byte, 4)
				copy(field, s)
				ifd = append(ifd, field...)
				continue
			}
			ifd = binary.LittleEndian.AppendUint32(ifd, uint32(dataOffset+len(data)))
			data = append(data, s...)
			if len(data)%2 == 1 {
				data = append(data, 0)
			}
		case TypeShort:
			ifd = binary.LittleEndian.AppendUint32(ifd, 1)
			ifd = binary.LittleEndian.AppendUint16(ifd, e.Value.(uint16))
			ifd = append(ifd, 0, 0)
		}
	}
	ifd = binary.LittleEndian.AppendUint32(ifd, 0)

	out := []byte{'I', 'I', 0x2A, 0x00}
	out = binary.LittleEndian.AppendUint32(out, ifdOffset)
	out = append(out, ifd...)
	return append(out, data...)
}
