package classifier

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// noisyInformativeFeature builds data where only feature 0 carries
// signal; features 1 and 2 are pure noise.
func noisyInformativeFeature(n int, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 3, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			X.Set(i, 0, rng.Float64())
			y[i] = 0
		} else {
			X.Set(i, 0, 2+rng.Float64())
			y[i] = 1
		}
		X.Set(i, 1, rng.NormFloat64())
		X.Set(i, 2, rng.NormFloat64())
	}
	return X, y
}

func TestDecisionTree_ImportancesFavorSignal(t *testing.T) {
	X, y := noisyInformativeFeature(200, 11)

	tree := NewDecisionTree(WithTreeMinSplit(10))
	if err := tree.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	imp := tree.Importances()
	if len(imp) != 3 {
		t.Fatalf("importances length = %d, want 3", len(imp))
	}
	if imp[0] <= imp[1] || imp[0] <= imp[2] {
		t.Errorf("signal feature importance %v not dominant over noise (%v, %v)",
			imp[0], imp[1], imp[2])
	}
}

func TestDecisionTree_HighCPPrunesToStump(t *testing.T) {
	X, y := noisyInformativeFeature(200, 11)

	// cp above 1 demands a gain larger than the root impurity itself,
	// so no split can qualify and every prediction is the base rate.
	tree := NewDecisionTree(WithTreeCP(1.5), WithTreeMinSplit(10))
	if err := tree.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	proba, err := tree.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	for i, p := range proba {
		if p != 0.5 {
			t.Fatalf("proba[%d] = %v, want base rate 0.5 from an unsplit root", i, p)
		}
	}
}

func TestRandomForest_Reproducible(t *testing.T) {
	X, y := noisyInformativeFeature(100, 4)

	fit := func() []float64 {
		f := NewRandomForest(WithForestTrees(30), WithForestMtry(2), WithForestSeed(9))
		if err := f.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		proba, err := f.PredictProba(X)
		if err != nil {
			t.Fatalf("PredictProba failed: %v", err)
		}
		return proba
	}

	a, b := fit(), fit()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("proba[%d] differs across identically seeded fits: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRandomForest_ImportancesFavorSignal(t *testing.T) {
	X, y := noisyInformativeFeature(200, 11)

	f := NewRandomForest(WithForestTrees(50), WithForestMtry(2), WithForestSeed(2))
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	imp := f.Importances()
	if imp[0] <= imp[1] || imp[0] <= imp[2] {
		t.Errorf("signal feature importance %v not dominant over noise (%v, %v)",
			imp[0], imp[1], imp[2])
	}
}
