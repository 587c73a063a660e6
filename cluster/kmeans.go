// Package cluster implements the unsupervised side of the analysis:
// full-batch k-means over the standardized feature matrix, with the
// outcome label held back until the cluster/outcome cross-tabulation.
package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/core/model"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// KMeans is full-batch Lloyd's algorithm with random-point initialization,
// restarted several times from different seeds. The fitted state is the
// best restart by inertia, so a generous restart count smooths over bad
// initializations.
type KMeans struct {
	model.BaseEstimator

	nClusters int
	maxIter   int
	restarts  int
	tol       float64
	seed      int64

	centers_ *mat.Dense
	labels_  []int
	inertia_ float64
	nIter_   int
}

// KMeansOption configures a KMeans.
type KMeansOption func(*KMeans)

// WithKMeansClusters sets the number of clusters (default 2, the
// died/survived structure the analysis probes for).
func WithKMeansClusters(k int) KMeansOption {
	return func(km *KMeans) { km.nClusters = k }
}

// WithKMeansMaxIter sets the per-restart iteration cap (default 300).
func WithKMeansMaxIter(n int) KMeansOption {
	return func(km *KMeans) { km.maxIter = n }
}

// WithKMeansRestarts sets how many random initializations to try.
// Values below 25 are raised to 25.
func WithKMeansRestarts(n int) KMeansOption {
	return func(km *KMeans) { km.restarts = n }
}

// WithKMeansSeed sets the base random seed; restart r uses seed+r.
func WithKMeansSeed(seed int64) KMeansOption {
	return func(km *KMeans) { km.seed = seed }
}

// NewKMeans creates a KMeans clusterer.
func NewKMeans(options ...KMeansOption) *KMeans {
	km := &KMeans{
		nClusters: 2,
		maxIter:   300,
		restarts:  25,
		tol:       1e-6,
		seed:      1,
	}
	for _, opt := range options {
		opt(km)
	}
	if km.restarts < 25 {
		km.restarts = 25
	}
	return km
}

// Fit clusters X, keeping the restart with the lowest inertia.
func (km *KMeans) Fit(X mat.Matrix) error {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError("KMeans.Fit", "empty data", errors.ErrEmptyData)
	}
	if km.nClusters < 1 || km.nClusters > n {
		return errors.NewValueError("KMeans.Fit", "nClusters must be in [1, nSamples]")
	}

	dense := mat.DenseCopyOf(X)

	bestInertia := math.Inf(1)
	for r := 0; r < km.restarts; r++ {
		rng := rand.New(rand.NewSource(km.seed + int64(r)))
		centers, labels, inertia, iters := km.lloyd(dense, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			km.centers_ = centers
			km.labels_ = labels
			km.inertia_ = inertia
			km.nIter_ = iters
		}
	}

	km.SetFitted()
	return nil
}

// lloyd runs one restart to convergence or the iteration cap.
func (km *KMeans) lloyd(X *mat.Dense, rng *rand.Rand) (*mat.Dense, []int, float64, int) {
	n, p := X.Dims()

	// Initialize centers on distinct random rows.
	perm := rng.Perm(n)
	centers := mat.NewDense(km.nClusters, p, nil)
	for c := 0; c < km.nClusters; c++ {
		centers.SetRow(c, mat.Row(nil, perm[c], X))
	}

	labels := make([]int, n)
	inertia := math.Inf(1)
	iters := 0

	for iter := 0; iter < km.maxIter; iter++ {
		iters = iter + 1

		// Assignment step.
		total := 0.0
		for i := 0; i < n; i++ {
			row := X.RawRowView(i)
			best, bestDist := 0, math.Inf(1)
			for c := 0; c < km.nClusters; c++ {
				d := sqDistance(row, centers.RawRowView(c))
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			labels[i] = best
			total += bestDist
		}

		// Update step. An emptied cluster is reseeded on the point
		// farthest from its assigned center.
		counts := make([]int, km.nClusters)
		next := mat.NewDense(km.nClusters, p, nil)
		for i := 0; i < n; i++ {
			counts[labels[i]]++
			row := next.RawRowView(labels[i])
			floats.Add(row, X.RawRowView(i))
		}
		for c := 0; c < km.nClusters; c++ {
			if counts[c] == 0 {
				next.SetRow(c, mat.Row(nil, farthestPoint(X, centers, labels), X))
				continue
			}
			floats.Scale(1/float64(counts[c]), next.RawRowView(c))
		}
		centers = next

		if inertia-total < km.tol*inertia {
			inertia = total
			break
		}
		inertia = total
	}

	return centers, labels, inertia, iters
}

// farthestPoint finds the row with the largest distance to its own center.
func farthestPoint(X *mat.Dense, centers *mat.Dense, labels []int) int {
	n, _ := X.Dims()
	worst, worstDist := 0, -1.0
	for i := 0; i < n; i++ {
		d := sqDistance(X.RawRowView(i), centers.RawRowView(labels[i]))
		if d > worstDist {
			worst, worstDist = i, d
		}
	}
	return worst
}

func sqDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// Predict assigns each row of X to its nearest fitted center.
func (km *KMeans) Predict(X mat.Matrix) ([]int, error) {
	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Predict")
	}
	n, p := X.Dims()
	_, fitP := km.centers_.Dims()
	if p != fitP {
		return nil, errors.NewDimensionError("KMeans.Predict", fitP, p, 1)
	}

	labels := make([]int, n)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		best, bestDist := 0, math.Inf(1)
		for c := 0; c < km.nClusters; c++ {
			d := sqDistance(row, km.centers_.RawRowView(c))
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
	}
	return labels, nil
}

// Labels returns the training assignments of the best restart.
func (km *KMeans) Labels() []int {
	return append([]int(nil), km.labels_...)
}

// Centers returns the fitted cluster centers.
func (km *KMeans) Centers() *mat.Dense {
	if !km.IsFitted() {
		return nil
	}
	return mat.DenseCopyOf(km.centers_)
}

// Inertia returns the within-cluster sum of squares of the best restart.
func (km *KMeans) Inertia() float64 { return km.inertia_ }

// NIter returns the iteration count of the best restart.
func (km *KMeans) NIter() int { return km.nIter_ }
