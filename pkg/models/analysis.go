package models

import "github.com/anime-shed/ai-image-inspector-go/pkg/meta"

// Verdict labels, from most to least confident that an image is generated.
const (
	LabelLikelyAI    = "Likely AI-generated"
	LabelPossiblyAI  = "Possibly AI-generated"
	LabelLikelyHuman = "Likely human-captured"
)

// AnalysisResult is the complete verdict for one image.
type AnalysisResult struct {
	Score    float64   `json:"score"`
	Label    string    `json:"label"`
	Reasons  []string  `json:"reasons"`
	Metadata *meta.Map `json:"metadata"`
	Metrics  MetricSet `json:"metrics"`
}

// MetricSet holds the perceptual measurements, each in [0,1].
type MetricSet struct {
	Blockiness    float64 `json:"blockiness"`
	NoiseEstimate float64 `json:"noise_estimate"`
	HistEntropy   float64 `json:"hist_entropy"`
}

// AIGenerated reports whether the verdict leans towards generated content.
func (r *AnalysisResult) AIGenerated() bool {
	return r.Label == LabelLikelyAI || r.Label == LabelPossiblyAI
}
