package analyzer

import "github.com/anime-shed/ai-image-inspector-go/pkg/models"

// Fixed reason strings emitted by the scorer.
const (
	ReasonNoEXIF        = "No EXIF metadata present"
	ReasonLowEntropy    = "Low histogram entropy"
	ReasonLowNoise      = "Low high-frequency noise"
	ReasonLowBlockiness = "Very low JPEG blockiness"
)

// ScoreInput is everything the scorer looks at.
type ScoreInput struct {
	GeneratorReasons []string
	HasEXIF          bool
	Format           string
	Metrics          models.MetricSet
}

// Verdict is the scorer's output.
type Verdict struct {
	Score   float64
	Label   string
	Reasons []string
}

// Scorer combines evidence into a score, a label and ordered reasons.
type Scorer struct {
	t Thresholds
}

// NewScorer creates a scorer over the given constant table.
func NewScorer(t Thresholds) *Scorer {
	return &Scorer{t: t}
}

// Score aggregates the evidence. Reasons come in a fixed order: generator
// tags, missing EXIF, low entropy, low noise, low blockiness. PNG images are
// never given the blockiness reason, though the blockiness term still counts
// towards their score.
func (s *Scorer) Score(in ScoreInput) Verdict {
	t := s.t
	m := in.Metrics

	reasons := make([]string, 0, len(in.GeneratorReasons)+4)
	reasons = append(reasons, in.GeneratorReasons...)
	if !in.HasEXIF {
		reasons = append(reasons, ReasonNoEXIF)
	}
	if m.HistEntropy < t.EntropyCutoff {
		reasons = append(reasons, ReasonLowEntropy)
	}
	if m.NoiseEstimate < t.NoiseCutoff {
		reasons = append(reasons, ReasonLowNoise)
	}
	if m.Blockiness < t.BlockinessCutoff && in.Format != "PNG" {
		reasons = append(reasons, ReasonLowBlockiness)
	}

	score := 0.0
	if len(in.GeneratorReasons) > 0 {
		score += t.GeneratorWeight
	}
	if !in.HasEXIF {
		score += t.MissingEXIFWeight
	}
	score += shortfall(m.HistEntropy, t.EntropyCutoff) * t.EntropyWeight
	score += shortfall(m.NoiseEstimate, t.NoiseCutoff) * t.NoiseWeight
	score += shortfall(m.Blockiness, t.BlockinessCutoff) * t.BlockinessWeight
	score = clamp01(score)

	return Verdict{Score: score, Label: s.Label(score), Reasons: reasons}
}

// Label maps a score to its verdict label.
func (s *Scorer) Label(score float64) string {
	switch {
	case score >= s.t.LikelyAIScore:
		return models.LabelLikelyAI
	case score >= s.t.PossiblyAIScore:
		return models.LabelPossiblyAI
	default:
		return models.LabelLikelyHuman
	}
}

// shortfall is how far v sits below cutoff, as a fraction of cutoff.
func shortfall(v, cutoff float64) float64 {
	if cutoff <= 0 {
		return 0
	}
	return (cutoff - min(v, cutoff)) / cutoff
}
