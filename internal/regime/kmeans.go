package regime

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ducminhle1904/regime-backtest/internal/indicators"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// KMeansConfig holds the clustering detector parameters. Seed fixes the
// centroid initialisation so runs are reproducible; it defaults to 42.
type KMeansConfig struct {
	Clusters int   `json:"clusters"`
	Window   int   `json:"window"` // rolling window for the volatility/volume features
	Seed     int64 `json:"seed"`
}

// DefaultKMeansConfig returns the clustering defaults.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		Clusters: 3,
		Window:   20,
		Seed:     42,
	}
}

const (
	kmeansMaxIterations = 100
	kmeansRestarts      = 10
)

// KMeansDetector partitions bars into regimes by clustering a feature
// vector per bar: 1-bar return, rolling volatility, RSI (0-1) and volume
// relative to its rolling mean. The fit runs over the full available
// history, so unlike the statistical detector its labels are not a
// pure function of the trailing window.
type KMeansDetector struct {
	config KMeansConfig
}

// NewKMeansDetector creates a clustering regime detector.
func NewKMeansDetector(config KMeansConfig) *KMeansDetector {
	return &KMeansDetector{config: config}
}

// MinLookback returns the bars needed before the first labelled bar.
func (d *KMeansDetector) MinLookback() int {
	return d.config.Window
}

// Classify fits k clusters over the post-warm-up bars and assigns each
// bar to its nearest centroid. The warm-up prefix is labelled unknown.
// Too-short input yields all-unknown labels, not an error. Degenerate
// feature variance (constant price) is tolerated; the standardised
// feature collapses to zero and all bars land in one cluster.
func (d *KMeansDetector) Classify(data []types.OHLCV) (*Detection, error) {
	labels := make([]Label, len(data))
	for i := range labels {
		labels[i] = LabelUnknown
	}

	start := d.config.Window
	if len(data) < start+d.config.Clusters {
		return &Detection{Labels: labels}, nil
	}

	features := d.buildFeatures(data)[start:]
	standardized, means, stds := standardize(features)

	rng := rand.New(rand.NewSource(d.config.Seed))
	assignments, centroids := fitKMeans(standardized, d.config.Clusters, rng)

	for i, cluster := range assignments {
		labels[start+i] = ClusterLabel(cluster)
	}

	rawCentroids := make(map[Label][]float64, d.config.Clusters)
	for cluster, centroid := range centroids {
		raw := make([]float64, len(centroid))
		for j, v := range centroid {
			raw[j] = v*stds[j] + means[j]
		}
		rawCentroids[ClusterLabel(cluster)] = raw
	}

	return &Detection{Labels: labels, Centroids: rawCentroids}, nil
}

// buildFeatures derives the per-bar feature vectors over the whole series.
func (d *KMeansDetector) buildFeatures(data []types.OHLCV) [][]float64 {
	window := d.config.Window
	returns := types.Returns(data)
	volatility := indicators.RollingStd(returns, window)

	rsi := indicators.NewRSI(window).Series(data)

	volumes := make([]float64, len(data))
	for i, c := range data {
		volumes[i] = c.Volume
	}
	avgVolume := indicators.RollingMean(volumes, window)

	features := make([][]float64, len(data))
	for i := range data {
		vol := volatility[i]
		if math.IsNaN(vol) {
			vol = 0
		}
		rsiNorm := 0.5
		if !math.IsNaN(rsi[i]) {
			rsiNorm = rsi[i] / 100
		}
		volumeRatio := 1.0
		if !math.IsNaN(avgVolume[i]) && avgVolume[i] > 0 {
			volumeRatio = volumes[i] / avgVolume[i]
		}
		features[i] = []float64{returns[i], vol, rsiNorm, volumeRatio}
	}
	return features
}

// standardize rescales each feature column to zero mean and unit
// deviation. Zero-variance columns collapse to zero instead of dividing
// by zero.
func standardize(features [][]float64) (scaled [][]float64, means, stds []float64) {
	n := len(features)
	dims := len(features[0])
	means = make([]float64, dims)
	stds = make([]float64, dims)

	for j := 0; j < dims; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += features[i][j]
		}
		means[j] = sum / float64(n)

		variance := 0.0
		for i := 0; i < n; i++ {
			d := features[i][j] - means[j]
			variance += d * d
		}
		stds[j] = math.Sqrt(variance / float64(n))
	}

	scaled = make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, dims)
		for j := 0; j < dims; j++ {
			if stds[j] > 0 {
				row[j] = (features[i][j] - means[j]) / stds[j]
			}
		}
		scaled[i] = row
	}
	return scaled, means, stds
}

// fitKMeans runs Lloyd's algorithm with several seeded restarts and
// keeps the partition with the lowest within-cluster sum of squares.
func fitKMeans(points [][]float64, k int, rng *rand.Rand) ([]int, [][]float64) {
	bestInertia := math.Inf(1)
	var bestAssignments []int
	var bestCentroids [][]float64

	for restart := 0; restart < kmeansRestarts; restart++ {
		assignments, centroids := lloyd(points, k, rng)
		inertia := 0.0
		for i, p := range points {
			inertia += squaredDistance(p, centroids[assignments[i]])
		}
		if inertia < bestInertia {
			bestInertia = inertia
			bestAssignments = assignments
			bestCentroids = centroids
		}
	}
	return bestAssignments, bestCentroids
}

func lloyd(points [][]float64, k int, rng *rand.Rand) ([]int, [][]float64) {
	dims := len(points[0])
	centroids := initCentroids(points, k, rng)
	assignments := make([]int, len(points))

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, p := range points {
			nearest := nearestCentroid(p, centroids)
			if nearest != assignments[i] || iter == 0 {
				assignments[i] = nearest
				changed = true
			}
		}
		if !changed {
			break
		}

		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i, p := range points {
			c := assignments[i]
			counts[c]++
			for j, v := range p {
				next[c][j] += v
			}
		}
		for c := range next {
			if counts[c] == 0 {
				// empty cluster: re-seed it from a random point
				copy(next[c], points[rng.Intn(len(points))])
				continue
			}
			for j := range next[c] {
				next[c][j] /= float64(counts[c])
			}
		}
		centroids = next
	}
	return assignments, centroids
}

// initCentroids picks k distinct points, spread k-means++ style: each
// subsequent centroid is sampled proportionally to its squared distance
// from the nearest one already chosen.
func initCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	for len(centroids) < k {
		weights := make([]float64, len(points))
		total := 0.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if dist := squaredDistance(p, c); dist < d {
					d = dist
				}
			}
			weights[i] = d
			total += d
		}

		if total == 0 {
			// all points coincide with existing centroids
			centroids = append(centroids, append([]float64(nil), points[rng.Intn(len(points))]...))
			continue
		}

		target := rng.Float64() * total
		cumulative := 0.0
		chosen := len(points) - 1
		for i, w := range weights {
			cumulative += w
			if cumulative >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), points[chosen]...))
	}
	return centroids
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(p, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Validate checks the clustering parameters.
func (c KMeansConfig) Validate() error {
	if c.Clusters < 2 {
		return fmt.Errorf("clusters must be at least 2, got: %d", c.Clusters)
	}
	if c.Window <= 1 {
		return fmt.Errorf("window must be greater than 1, got: %d", c.Window)
	}
	return nil
}
