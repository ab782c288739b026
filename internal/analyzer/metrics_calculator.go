package analyzer

import (
	"math"
	"sort"
	"sync"

	"github.com/anime-shed/ai-image-inspector-go/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// metricsCalculator implements MetricsCalculator with Gonum statistics and
// pooled scratch buffers.
type metricsCalculator struct {
	thresholds Thresholds
	slicePool  sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator(thresholds Thresholds) MetricsCalculator {
	return &metricsCalculator{
		thresholds: thresholds,
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

func (mc *metricsCalculator) buffer(n int) []float64 {
	buf := mc.slicePool.Get().([]float64)
	if cap(buf) < n {
		buf = make([]float64, 0, n)
	}
	return buf[:0]
}

func (mc *metricsCalculator) release(buf []float64) {
	mc.slicePool.Put(buf[:0])
}

// CalculateMetrics computes all three perceptual metrics.
func (mc *metricsCalculator) CalculateMetrics(grid *GrayGrid) models.MetricSet {
	return models.MetricSet{
		Blockiness:    mc.Blockiness(grid),
		NoiseEstimate: mc.NoiseEstimate(grid),
		HistEntropy:   mc.HistogramEntropy(grid),
	}
}

// Blockiness measures discontinuities on the 8-pixel block lattice. Each
// vertical boundary contributes the mean absolute difference between column
// c and c-1, each horizontal boundary the same for rows; the result is the
// mean over all boundaries.
func (mc *metricsCalculator) Blockiness(grid *GrayGrid) float64 {
	w, h := grid.Width, grid.Height
	minSide := mc.thresholds.MinBlockinessSide
	step := mc.thresholds.BlockSize
	if w < minSide || h < minSide || step <= 0 {
		return 0
	}

	edges := mc.buffer(w/step + h/step)
	defer func() { mc.release(edges) }()

	diffs := mc.buffer(max(w, h))
	defer func() { mc.release(diffs) }()

	for c := step; c < w; c += step {
		diffs = diffs[:0]
		for y := 0; y < h; y++ {
			diffs = append(diffs, math.Abs(grid.At(c, y)-grid.At(c-1, y)))
		}
		edges = append(edges, stat.Mean(diffs, nil))
	}
	for r := step; r < h; r += step {
		diffs = diffs[:0]
		for x := 0; x < w; x++ {
			diffs = append(diffs, math.Abs(grid.At(x, r)-grid.At(x, r-1)))
		}
		edges = append(edges, stat.Mean(diffs, nil))
	}

	if len(edges) == 0 {
		return 0
	}
	return clamp01(stat.Mean(edges, nil))
}

// NoiseEstimate is the population standard deviation of the 4-neighbour
// Laplacian response, with borders handled by repeating the edge pixel.
func (mc *metricsCalculator) NoiseEstimate(grid *GrayGrid) float64 {
	w, h := grid.Width, grid.Height
	if w == 0 || h == 0 {
		return 0
	}

	data := mc.buffer(w * h)
	defer func() { mc.release(data) }()

	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := 0; y < h; y++ {
		up, down := max(y-1, 0), min(y+1, h-1)
		for x := 0; x < w; x++ {
			left, right := max(x-1, 0), min(x+1, w-1)
			laplacian := grid.At(x, up) + grid.At(x, down) + grid.At(left, y) + grid.At(right, y) - 4*grid.At(x, y)
			data = append(data, laplacian)
		}
	}

	return clamp01(math.Sqrt(stat.PopVariance(data, nil)) * mc.thresholds.NoiseGain)
}

// HistogramEntropy is the base-2 Shannon entropy of the distinct intensity
// values, normalized by EntropyBits.
func (mc *metricsCalculator) HistogramEntropy(grid *GrayGrid) float64 {
	n := len(grid.Pix)
	if n == 0 || mc.thresholds.EntropyBits <= 0 {
		return 0
	}

	sorted := mc.buffer(n)
	sorted = append(sorted, grid.Pix...)
	defer func() { mc.release(sorted) }()
	sort.Float64s(sorted)

	probs := mc.buffer(256)
	defer func() { mc.release(probs) }()

	run := 1
	for i := 1; i <= n; i++ {
		if i < n && sorted[i] == sorted[i-1] {
			run++
			continue
		}
		probs = append(probs, float64(run)/float64(n))
		run = 1
	}

	// stat.Entropy uses the natural logarithm
	bits := stat.Entropy(probs) / math.Ln2
	return clamp01(bits / mc.thresholds.EntropyBits)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
