package analyzer

import (
	"github.com/anime-shed/ai-image-inspector-go/internal/loader"
	"github.com/anime-shed/ai-image-inspector-go/internal/metadata"
	"github.com/anime-shed/ai-image-inspector-go/internal/signature"
	"github.com/anime-shed/ai-image-inspector-go/pkg/models"
)

// coreAnalyzer implements ImageAnalyzer interface and orchestrates all components
type coreAnalyzer struct {
	loader            *loader.Loader
	detector          SignatureDetector
	metricsCalculator MetricsCalculator
	scorer            *Scorer
	maxMetricSide     int
}

// NewImageAnalyzer creates a new image analyzer with all components
func NewImageAnalyzer(options AnalysisOptions) ImageAnalyzer {
	return &coreAnalyzer{
		loader:            loader.New(options.MaxImagePixels),
		detector:          signature.NewDetector(options.Signatures),
		metricsCalculator: NewMetricsCalculator(options.Thresholds),
		scorer:            NewScorer(options.Thresholds),
		maxMetricSide:     options.Thresholds.MaxMetricSide,
	}
}

// Analyze runs the full pipeline: decode, extract metadata, look for
// generator signatures, measure the pixels and aggregate a verdict.
func (ca *coreAnalyzer) Analyze(data []byte) (*models.AnalysisResult, error) {
	img, err := ca.loader.Load(data)
	if err != nil {
		return nil, err
	}

	record := metadata.Extract(img)
	metrics := ca.metricsCalculator.CalculateMetrics(NewGrayGrid(img, ca.maxMetricSide))

	verdict := ca.scorer.Score(ScoreInput{
		GeneratorReasons: ca.detector.Detect(record),
		HasEXIF:          metadata.HasEXIF(record),
		Format:           img.Format,
		Metrics:          metrics,
	})

	return &models.AnalysisResult{
		Score:    verdict.Score,
		Label:    verdict.Label,
		Reasons:  verdict.Reasons,
		Metadata: record,
		Metrics:  metrics,
	}, nil
}
