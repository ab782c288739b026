package metadata

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/anime-shed/ai-image-inspector-go/internal/logger"
	"github.com/anime-shed/ai-image-inspector-go/pkg/meta"
	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"github.com/sirupsen/logrus"
)

var exifPrefix = []byte("Exif\x00\x00")

// groupOrder is the order EXIF groups appear in the output.
var groupOrder = []string{"0th", "Exif", "GPS", "Interop", "1st"}

// ReadEXIF decodes the EXIF tags of an image into groups of named tags.
// block is the EXIF payload the container carried; when it is missing or
// yields nothing, raw is searched for an embedded TIFF structure instead.
// Failures are swallowed and reported as ok == false.
func ReadEXIF(block, raw []byte) (groups *meta.Map, ok bool) {
	if len(block) > 0 {
		if groups, ok = decodeEXIF(bytes.TrimPrefix(block, exifPrefix), "container"); ok {
			return groups, true
		}
	}
	found, err := searchEXIF(raw)
	if err != nil {
		return nil, false
	}
	return decodeEXIF(found, "search")
}

func searchEXIF(raw []byte) (found []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("exif search panic: %v", r)
		}
	}()
	if len(raw) == 0 {
		return nil, exif.ErrNoExif
	}
	return exif.SearchAndExtractExif(raw)
}

func decodeEXIF(tiff []byte, source string) (groups *meta.Map, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{"source": source, "panic": r}).Debug("EXIF decoder panicked")
			groups, ok = nil, false
		}
	}()

	tags, _, err := exif.GetFlatExifData(tiff, nil)
	if err != nil {
		logger.WithFields(logrus.Fields{"source": source, "error": err.Error()}).Debug("EXIF block unreadable")
		return nil, false
	}

	byGroup := make(map[string]*meta.Map)
	var extra []string
	for _, tag := range tags {
		group := groupName(tag.IfdPath)
		value, ok := tagValue(tag)
		if !ok {
			continue
		}
		m, exists := byGroup[group]
		if !exists {
			m = meta.NewMap()
			byGroup[group] = m
			if !isKnownGroup(group) {
				extra = append(extra, group)
			}
		}
		m.Set(tagName(tag), value)
	}

	groups = meta.NewMap()
	for _, name := range append(append([]string(nil), groupOrder...), extra...) {
		if m, exists := byGroup[name]; exists && m.Len() > 0 {
			groups.Set(name, m)
		}
	}
	if groups.Len() == 0 {
		return nil, false
	}
	return groups, true
}

// groupName maps an IFD path such as "IFD/Exif/Iop" to its group name.
func groupName(ifdPath string) string {
	last := ifdPath
	if i := strings.LastIndex(ifdPath, "/"); i >= 0 {
		last = ifdPath[i+1:]
	}
	switch last {
	case "IFD", "IFD0":
		return "0th"
	case "IFD1":
		return "1st"
	case "Exif":
		return "Exif"
	case "GPSInfo":
		return "GPS"
	case "Iop":
		return "Interop"
	}
	return ifdPath
}

func isKnownGroup(name string) bool {
	for _, g := range groupOrder {
		if g == name {
			return true
		}
	}
	return false
}

func tagName(tag exif.ExifTag) string {
	if tag.TagName != "" {
		return tag.TagName
	}
	return strconv.Itoa(int(tag.TagId))
}

// tagValue converts a decoded tag into a tree value. Single-count numeric
// values become scalars; rationals become [numerator, denominator] pairs.
func tagValue(tag exif.ExifTag) (meta.Value, bool) {
	if tag.TagTypeId == exifcommon.TypeUndefined {
		if raw, ok := tag.Value.([]byte); ok {
			return decodeText(raw), true
		}
		if tag.ValueBytes != nil {
			return decodeText(tag.ValueBytes), true
		}
		return nil, false
	}

	switch v := tag.Value.(type) {
	case string:
		return meta.String(strings.TrimRight(v, "\x00")), true
	case []byte:
		return decodeText(v), true
	case []uint16:
		return numbers(v), true
	case []uint32:
		return numbers(v), true
	case []int32:
		return numbers(v), true
	case []float32:
		return numbers(v), true
	case []float64:
		return numbers(v), true
	case []exifcommon.Rational:
		pairs := make(meta.List, len(v))
		for i, r := range v {
			pairs[i] = meta.List{meta.Number(r.Numerator), meta.Number(r.Denominator)}
		}
		return single(pairs), true
	case []exifcommon.SignedRational:
		pairs := make(meta.List, len(v))
		for i, r := range v {
			pairs[i] = meta.List{meta.Number(r.Numerator), meta.Number(r.Denominator)}
		}
		return single(pairs), true
	}

	if tag.ValueBytes != nil {
		return decodeText(tag.ValueBytes), true
	}
	return nil, false
}

func numbers[T uint16 | uint32 | int32 | float32 | float64](vs []T) meta.Value {
	list := make(meta.List, len(vs))
	for i, v := range vs {
		list[i] = meta.Number(v)
	}
	return single(list)
}

func single(list meta.List) meta.Value {
	if len(list) == 1 {
		return list[0]
	}
	return list
}

// decodeText returns raw as text when it is valid UTF-8, otherwise a
// "<bytes:N>" placeholder.
func decodeText(raw []byte) meta.Value {
	if utf8.Valid(raw) {
		return meta.String(strings.TrimRight(string(raw), "\x00"))
	}
	return meta.String(fmt.Sprintf("<bytes:%d>", len(raw)))
}
