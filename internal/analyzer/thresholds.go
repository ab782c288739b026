package analyzer

// Thresholds is the constant table behind metric computation and scoring.
type Thresholds struct {
	// MaxMetricSide bounds the longer side of the grid the metrics run on.
	MaxMetricSide int

	// BlockSize is the JPEG block period used for blockiness.
	BlockSize int
	// MinBlockinessSide is the smallest width and height blockiness is defined for.
	MinBlockinessSide int
	// NoiseGain multiplies the Laplacian standard deviation.
	NoiseGain float64
	// EntropyBits normalizes Shannon entropy of 8-bit data to [0,1].
	EntropyBits float64

	GeneratorWeight   float64
	MissingEXIFWeight float64

	EntropyCutoff    float64
	EntropyWeight    float64
	NoiseCutoff      float64
	NoiseWeight      float64
	BlockinessCutoff float64
	BlockinessWeight float64

	LikelyAIScore   float64
	PossiblyAIScore float64
}

// DefaultThresholds returns the production scoring table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxMetricSide:     1024,
		BlockSize:         8,
		MinBlockinessSide: 16,
		NoiseGain:         2.0,
		EntropyBits:       8.0,

		GeneratorWeight:   0.60,
		MissingEXIFWeight: 0.15,

		EntropyCutoff:    0.35,
		EntropyWeight:    0.10,
		NoiseCutoff:      0.20,
		NoiseWeight:      0.10,
		BlockinessCutoff: 0.05,
		BlockinessWeight: 0.05,

		LikelyAIScore:   0.75,
		PossiblyAIScore: 0.45,
	}
}
