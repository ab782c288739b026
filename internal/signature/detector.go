// Package signature looks for known AI-generator names anywhere in an image's
// metadata record.
package signature

import (
	"strconv"
	"strings"

	"github.com/anime-shed/ai-image-inspector-go/pkg/meta"
)

// ReasonPrefix starts every reason emitted by the detector.
const ReasonPrefix = "Generator tag detected: "

var defaultSignatures = []string{
	"stable diffusion",
	"stability.ai",
	"automatic1111",
	"invokeai",
	"comfyui",
	"midjourney",
	"dall-e",
	"dall·e",
	"openai",
	"novelai",
	"runway",
	"firefly",
	"leonardo",
	"sdxl",
	"genai",
	"ai generated",
	"clipdrop",
	"ideogram",
	"flux.1",
}

// DefaultSignatures returns a copy of the built-in signature list, in
// reporting order.
func DefaultSignatures() []string {
	return append([]string(nil), defaultSignatures...)
}

// Detector matches signatures against the flattened text of a metadata tree.
type Detector struct {
	signatures []string
}

// NewDetector creates a detector for the given signatures. Matching is
// case-insensitive; an empty list selects DefaultSignatures.
func NewDetector(signatures []string) *Detector {
	if len(signatures) == 0 {
		signatures = defaultSignatures
	}
	lowered := make([]string, 0, len(signatures))
	for _, s := range signatures {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lowered = append(lowered, s)
		}
	}
	return &Detector{signatures: lowered}
}

// Detect returns one reason per signature found in record, in signature
// order. A signature must occur within a single token and is reported at
// most once.
func (d *Detector) Detect(record meta.Value) []string {
	tokens := Tokens(record)
	reasons := make([]string, 0)
	for _, sig := range d.signatures {
		for _, tok := range tokens {
			if strings.Contains(tok, sig) {
				reasons = append(reasons, ReasonPrefix+sig)
				break
			}
		}
	}
	return reasons
}

// Tokens flattens a metadata tree into lowercase strings. Map keys are
// included alongside values; a binary placeholder contributes its record
// fields.
func Tokens(v meta.Value) []string {
	var out []string
	collect(v, &out)
	return out
}

func collect(v meta.Value, out *[]string) {
	switch t := v.(type) {
	case nil:
	case meta.String:
		*out = append(*out, strings.ToLower(string(t)))
	case meta.Number:
		*out = append(*out, meta.FormatNumber(t))
	case meta.Bytes:
		*out = append(*out, "type", "bytes", "length", strconv.Itoa(int(t)))
	case meta.List:
		for _, item := range t {
			collect(item, out)
		}
	case *meta.Map:
		t.Each(func(key string, child meta.Value) {
			*out = append(*out, strings.ToLower(key))
			collect(child, out)
		})
	}
}
