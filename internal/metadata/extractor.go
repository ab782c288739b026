// Package metadata assembles the descriptive record of a decoded image:
// format, color mode, size, container side data, ICC presence and EXIF tags.
package metadata

import (
	"github.com/anime-shed/ai-image-inspector-go/internal/loader"
	"github.com/anime-shed/ai-image-inspector-go/pkg/meta"
)

// Top-level keys of the metadata record.
const (
	KeyFormat           = "format"
	KeyMode             = "mode"
	KeySize             = "size"
	KeyInfo             = "info"
	KeyICCProfileLength = "icc_profile_length"
	KeyEXIF             = "exif"
)

// Extract builds the metadata record for img. It never fails: unreadable
// EXIF is simply left out.
func Extract(img *loader.NormalizedImage) *meta.Map {
	record := meta.NewMap()
	record.Set(KeyFormat, meta.String(img.Format))
	record.Set(KeyMode, meta.String(img.Mode))

	size := meta.NewMap()
	size.Set("width", meta.Number(img.Width))
	size.Set("height", meta.Number(img.Height))
	record.Set(KeySize, size)

	if img.Container.Info.Len() > 0 {
		record.Set(KeyInfo, img.Container.Info)
	}
	if n := len(img.Container.ICCProfile); n > 0 {
		record.Set(KeyICCProfileLength, meta.Number(n))
	}
	if groups, ok := ReadEXIF(img.Container.EXIF, img.Raw); ok {
		record.Set(KeyEXIF, groups)
	}
	return record
}

// HasEXIF reports whether record carries a non-empty EXIF section.
func HasEXIF(record *meta.Map) bool {
	groups, ok := record.GetMap(KeyEXIF)
	return ok && groups.Len() > 0
}
