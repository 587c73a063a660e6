package decomposition

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// elongated draws points stretched along one axis so the first component
// has to dominate.
func elongated(n int, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, rng.NormFloat64()*5)
		X.Set(i, 1, rng.NormFloat64())
		X.Set(i, 2, rng.NormFloat64()*0.2)
	}
	return X
}

func TestPCA_VarianceOrdering(t *testing.T) {
	pca := NewPCA()
	if err := pca.Fit(elongated(200, 1)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	vars := pca.ExplainedVariance()
	if len(vars) != 3 {
		t.Fatalf("got %d variances, want 3", len(vars))
	}
	for i := 1; i < len(vars); i++ {
		if vars[i] > vars[i-1] {
			t.Errorf("variances not descending: %v", vars)
		}
	}

	ratios := pca.ExplainedVarianceRatio()
	sum := 0.0
	for _, r := range ratios {
		sum += r
	}
	if math.Abs(sum-1) > 1e-10 {
		t.Errorf("ratios sum to %v, want 1", sum)
	}
	if ratios[0] < 0.8 {
		t.Errorf("dominant axis explains %v, want > 0.8", ratios[0])
	}
}

func TestPCA_ScoresShape(t *testing.T) {
	X := elongated(50, 2)

	pca := NewPCA()
	scores, err := pca.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	r, c := scores.Dims()
	if r != 50 || c != 3 {
		t.Errorf("scores dims = (%d,%d), want (50,3)", r, c)
	}

	loadings := pca.Loadings()
	lr, lc := loadings.Dims()
	if lr != 3 || lc != 3 {
		t.Errorf("loadings dims = (%d,%d), want (3,3)", lr, lc)
	}

	// Components are unit vectors.
	for j := 0; j < lc; j++ {
		norm := 0.0
		for i := 0; i < lr; i++ {
			norm += loadings.At(i, j) * loadings.At(i, j)
		}
		if math.Abs(norm-1) > 1e-10 {
			t.Errorf("component %d norm^2 = %v, want 1", j, norm)
		}
	}
}

func TestPCA_Errors(t *testing.T) {
	pca := NewPCA()
	if _, err := pca.Transform(elongated(5, 3)); err == nil {
		t.Error("expected a not-fitted error")
	}

	if err := pca.Fit(elongated(50, 3)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	wrong := mat.NewDense(5, 2, nil)
	if _, err := pca.Transform(wrong); err == nil {
		t.Error("expected a dimension error")
	}

	if err := NewPCA().Fit(mat.NewDense(1, 3, []float64{1, 2, 3})); err == nil {
		t.Error("expected an error for a single row")
	}
}
