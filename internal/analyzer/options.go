package analyzer

import "github.com/anime-shed/ai-image-inspector-go/internal/loader"

// AnalysisOptions configures an ImageAnalyzer.
type AnalysisOptions struct {
	// MaxImagePixels rejects images whose width*height exceeds it before decoding.
	MaxImagePixels int64

	// Signatures are the generator names searched for in metadata.
	// Empty selects the built-in table.
	Signatures []string

	// Thresholds hold the scoring constants.
	Thresholds Thresholds
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		MaxImagePixels: loader.DefaultMaxPixels,
		Thresholds:     DefaultThresholds(),
	}
}

// WithMaxImagePixels returns options with a custom decode size limit
func (opts AnalysisOptions) WithMaxImagePixels(n int64) AnalysisOptions {
	opts.MaxImagePixels = n
	return opts
}

// WithSignatures returns options that search for the given generator names
func (opts AnalysisOptions) WithSignatures(signatures []string) AnalysisOptions {
	opts.Signatures = append([]string(nil), signatures...)
	return opts
}

// WithMaxMetricSide changes the working resolution of the metrics engine
func (opts AnalysisOptions) WithMaxMetricSide(side int) AnalysisOptions {
	opts.Thresholds.MaxMetricSide = side
	return opts
}
