package loader

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"sort"

	"github.com/anime-shed/ai-image-inspector-go/pkg/meta"
	"golang.org/x/text/encoding/charmap"
)

// maxInflatedChunk caps decompressed zTXt/iTXt/iCCP payloads.
const maxInflatedChunk = 8 << 20

var (
	pngSignature  = []byte("\x89PNG\r\n\x1a\n")
	exifHeader    = []byte("Exif\x00\x00")
	jfifHeader    = []byte("JFIF\x00")
	xmpHeader     = []byte("http://ns.adobe.com/xap/1.0/\x00")
	iccHeader     = []byte("ICC_PROFILE\x00")
	adobeHeader   = []byte("Adobe")
	netscapeBlock = []byte("NETSCAPE2.0")
)

// Container holds the format-level side data found next to the pixel stream.
type Container struct {
	// Info carries decoder-specific entries such as text chunks, dpi and comments.
	Info *meta.Map
	// ICCProfile is the embedded color profile, reassembled when split.
	ICCProfile []byte
	// EXIF is the first EXIF block found, including any "Exif\0\0" prefix.
	EXIF []byte
	// Mode overrides the mode derived from the decoded raster when the header
	// declares a layout the decoder widens, e.g. PNG gray+alpha.
	Mode string
}

// scanContainer walks the container structure of data. Malformed structure
// ends the scan early and keeps whatever was collected up to that point.
func scanContainer(format string, data []byte) Container {
	c := Container{Info: meta.NewMap()}
	switch format {
	case "PNG":
		scanPNG(data, &c)
	case "JPEG":
		scanJPEG(data, &c)
	case "GIF":
		scanGIF(data, &c)
	case "WEBP":
		scanWebP(data, &c)
	case "BMP":
		scanBMP(data, &c)
	}
	return c
}

func scanPNG(data []byte, c *Container) {
	if !bytes.HasPrefix(data, pngSignature) {
		return
	}
	off := len(pngSignature)
	for off+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[off:]))
		typ := string(data[off+4 : off+8])
		start := off + 8
		if n < 0 || n > len(data)-start-4 {
			return
		}
		chunk := data[start : start+n]

		switch typ {
		case "IHDR":
			// colour type 4 decodes to NRGBA but holds gray+alpha samples
			if len(chunk) >= 10 && chunk[9] == 4 {
				c.Mode = "LA"
			}
		case "tEXt":
			if key, text, ok := cutNull(chunk); ok {
				c.Info.Set(latin1(key), meta.String(latin1(text)))
			}
		case "zTXt":
			key, rest, ok := cutNull(chunk)
			if !ok || len(rest) < 1 {
				break
			}
			if text, err := inflate(rest[1:]); err == nil {
				c.Info.Set(latin1(key), meta.String(latin1(text)))
			}
		case "iTXt":
			key, text, ok := parseITXt(chunk)
			if ok {
				c.Info.Set(latin1(key), meta.String(text))
			}
		case "gAMA":
			if len(chunk) >= 4 {
				c.Info.Set("gamma", meta.Number(float64(binary.BigEndian.Uint32(chunk))/100000.0))
			}
		case "sRGB":
			if len(chunk) >= 1 {
				c.Info.Set("srgb", meta.Number(chunk[0]))
			}
		case "pHYs":
			if len(chunk) >= 9 {
				px := float64(binary.BigEndian.Uint32(chunk[0:4]))
				py := float64(binary.BigEndian.Uint32(chunk[4:8]))
				if chunk[8] == 1 {
					c.Info.Set("dpi", meta.List{meta.Number(px * 0.0254), meta.Number(py * 0.0254)})
				} else {
					c.Info.Set("aspect", meta.List{meta.Number(px), meta.Number(py)})
				}
			}
		case "tRNS":
			c.Info.Set("transparency", meta.Bytes(len(chunk)))
		case "iCCP":
			_, rest, ok := cutNull(chunk)
			if !ok || len(rest) < 1 {
				break
			}
			if profile, err := inflate(rest[1:]); err == nil {
				c.ICCProfile = profile
				c.Info.Set("icc_profile", meta.Bytes(len(profile)))
			}
		case "eXIf":
			if c.EXIF == nil {
				c.EXIF = chunk
			}
			c.Info.Set("exif", meta.Bytes(len(chunk)))
		case "IEND":
			return
		}
		off = start + n + 4
	}
}

func parseITXt(chunk []byte) (key []byte, text string, ok bool) {
	key, rest, ok := cutNull(chunk)
	if !ok || len(rest) < 2 {
		return nil, "", false
	}
	compressed := rest[0] == 1
	rest = rest[2:]
	// language tag, then translated keyword
	if _, rest, ok = cutNull(rest); !ok {
		return nil, "", false
	}
	if _, rest, ok = cutNull(rest); !ok {
		return nil, "", false
	}
	if compressed {
		inflated, err := inflate(rest)
		if err != nil {
			return nil, "", false
		}
		rest = inflated
	}
	return key, string(bytes.ToValidUTF8(rest, []byte("�"))), true
}

func scanJPEG(data []byte, c *Container) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return
	}
	type iccChunk struct {
		seq  int
		data []byte
	}
	var icc []iccChunk

	off := 2
	for off+4 <= len(data) {
		if data[off] != 0xFF {
			break
		}
		marker := data[off+1]
		switch {
		case marker == 0xFF:
			off++
			continue
		case marker == 0x01 || marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7):
			off += 2
			continue
		case marker == 0xD9 || marker == 0xDA:
			// metadata segments precede the first scan
			off = len(data)
			continue
		}

		segLen := int(binary.BigEndian.Uint16(data[off+2:]))
		if segLen < 2 || off+2+segLen > len(data) {
			break
		}
		seg := data[off+4 : off+2+segLen]

		switch marker {
		case 0xE0:
			if bytes.HasPrefix(seg, jfifHeader) && len(seg) >= 12 {
				major, minor := int(seg[5]), int(seg[6])
				unit := int(seg[7])
				xd := float64(binary.BigEndian.Uint16(seg[8:10]))
				yd := float64(binary.BigEndian.Uint16(seg[10:12]))
				c.Info.Set("jfif", meta.Number(major<<8|minor))
				c.Info.Set("jfif_version", meta.List{meta.Number(major), meta.Number(minor)})
				c.Info.Set("jfif_unit", meta.Number(unit))
				c.Info.Set("jfif_density", meta.List{meta.Number(xd), meta.Number(yd)})
				if unit == 1 {
					c.Info.Set("dpi", meta.List{meta.Number(xd), meta.Number(yd)})
				}
			}
		case 0xE1:
			switch {
			case bytes.HasPrefix(seg, exifHeader):
				if c.EXIF == nil {
					c.EXIF = seg
				}
				c.Info.Set("exif", meta.Bytes(len(seg)))
			case bytes.HasPrefix(seg, xmpHeader):
				c.Info.Set("xmp", meta.Bytes(len(seg)-len(xmpHeader)))
			}
		case 0xE2:
			if bytes.HasPrefix(seg, iccHeader) && len(seg) > len(iccHeader)+2 {
				icc = append(icc, iccChunk{seq: int(seg[len(iccHeader)]), data: seg[len(iccHeader)+2:]})
			}
		case 0xEE:
			if bytes.HasPrefix(seg, adobeHeader) && len(seg) >= 12 {
				c.Info.Set("adobe", meta.Number(binary.BigEndian.Uint16(seg[5:7])))
				c.Info.Set("adobe_transform", meta.Number(seg[11]))
			}
		case 0xFE:
			c.Info.Set("comment", meta.Bytes(len(seg)))
		case 0xC2:
			c.Info.Set("progressive", meta.Number(1))
			c.Info.Set("progression", meta.Number(1))
		}
		off += 2 + segLen
	}

	if len(icc) > 0 {
		sort.SliceStable(icc, func(i, j int) bool { return icc[i].seq < icc[j].seq })
		var profile []byte
		for _, chunk := range icc {
			profile = append(profile, chunk.data...)
		}
		c.ICCProfile = profile
		c.Info.Set("icc_profile", meta.Bytes(len(profile)))
	}
}

func scanGIF(data []byte, c *Container) {
	if len(data) < 13 {
		return
	}
	c.Info.Set("version", meta.String(string(data[0:6])))
	flags := data[10]
	c.Info.Set("background", meta.Number(data[11]))

	off := 13
	if flags&0x80 != 0 {
		off += 3 * (1 << (int(flags&0x07) + 1))
	}

	durationSeen := false
	for off < len(data) {
		switch data[off] {
		case 0x21:
			if off+2 > len(data) {
				return
			}
			label := data[off+1]
			body, next, ok := readSubBlocks(data, off+2)
			if !ok {
				return
			}
			switch label {
			case 0xF9:
				if len(body) >= 3 && !durationSeen {
					delay := int(binary.LittleEndian.Uint16(body[1:3]))
					c.Info.Set("duration", meta.Number(delay*10))
					durationSeen = true
				}
			case 0xFE:
				c.Info.Set("comment", meta.Bytes(len(body)))
			case 0xFF:
				if bytes.HasPrefix(body, netscapeBlock) && len(body) >= len(netscapeBlock)+3 {
					loop := binary.LittleEndian.Uint16(body[len(netscapeBlock)+1:])
					c.Info.Set("loop", meta.Number(loop))
				}
			}
			off = next
		default:
			// image descriptor or trailer; only the first frame's extensions count
			return
		}
	}
}

// readSubBlocks concatenates the GIF data sub-blocks starting at off and
// returns the offset just past the block terminator.
func readSubBlocks(data []byte, off int) ([]byte, int, bool) {
	var body []byte
	for off < len(data) {
		n := int(data[off])
		off++
		if n == 0 {
			return body, off, true
		}
		if off+n > len(data) {
			return nil, 0, false
		}
		body = append(body, data[off:off+n]...)
		off += n
	}
	return nil, 0, false
}

func scanWebP(data []byte, c *Container) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return
	}
	off := 12
	for off+8 <= len(data) {
		fourCC := string(data[off : off+4])
		n := int(binary.LittleEndian.Uint32(data[off+4:]))
		start := off + 8
		if n < 0 || n > len(data)-start {
			return
		}
		chunk := data[start : start+n]
		switch fourCC {
		case "ICCP":
			c.ICCProfile = chunk
			c.Info.Set("icc_profile", meta.Bytes(len(chunk)))
		case "EXIF":
			if c.EXIF == nil {
				c.EXIF = chunk
			}
			c.Info.Set("exif", meta.Bytes(len(chunk)))
		case "XMP ":
			c.Info.Set("xmp", meta.Bytes(len(chunk)))
		}
		off = start + n + n&1
	}
}

func scanBMP(data []byte, c *Container) {
	// BITMAPINFOHEADER or later
	if len(data) < 46 || data[0] != 'B' || data[1] != 'M' {
		return
	}
	if binary.LittleEndian.Uint32(data[14:18]) < 40 {
		return
	}
	c.Info.Set("compression", meta.Number(binary.LittleEndian.Uint32(data[30:34])))
	xppm := float64(int32(binary.LittleEndian.Uint32(data[38:42])))
	yppm := float64(int32(binary.LittleEndian.Uint32(data[42:46])))
	if xppm > 0 && yppm > 0 {
		c.Info.Set("dpi", meta.List{meta.Number(xppm * 0.0254), meta.Number(yppm * 0.0254)})
	}
}

func cutNull(b []byte) (before, after []byte, ok bool) {
	return bytes.Cut(b, []byte{0})
}

func latin1(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, []byte("�")))
	}
	return string(out)
}

func inflate(b []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(io.LimitReader(r, maxInflatedChunk))
}
