package analyzer

import (
	"github.com/anime-shed/ai-image-inspector-go/pkg/meta"
	"github.com/anime-shed/ai-image-inspector-go/pkg/models"
)

// ImageAnalyzer defines the main interface for image analysis
type ImageAnalyzer interface {
	// Analyze decodes data and scores it. The only error returned is
	// *loader.InvalidImageError.
	Analyze(data []byte) (*models.AnalysisResult, error)
}

// MetricsCalculator handles image metrics computation
type MetricsCalculator interface {
	CalculateMetrics(grid *GrayGrid) models.MetricSet
	Blockiness(grid *GrayGrid) float64
	NoiseEstimate(grid *GrayGrid) float64
	HistogramEntropy(grid *GrayGrid) float64
}

// SignatureDetector finds generator names in a metadata record
type SignatureDetector interface {
	Detect(record meta.Value) []string
}
