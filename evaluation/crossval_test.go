package evaluation

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/classifier"
)

func cvBlobs(n int, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(2*n, 2, nil)
	y := make([]int, 2*n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, rng.NormFloat64()*0.5)
		X.Set(i, 1, rng.NormFloat64()*0.5)
	}
	for i := n; i < 2*n; i++ {
		X.Set(i, 0, 4+rng.NormFloat64()*0.5)
		X.Set(i, 1, 4+rng.NormFloat64()*0.5)
		y[i] = 1
	}
	return X, y
}

func TestStratifiedKFold_PartitionsAllRows(t *testing.T) {
	y := make([]int, 50)
	for i := 30; i < 50; i++ {
		y[i] = 1
	}

	skf := NewStratifiedKFold(5, 1, 7)
	folds := skf.Split(y)
	if len(folds) != 5 {
		t.Fatalf("got %d folds, want 5", len(folds))
	}

	seen := make(map[int]int)
	for f, fold := range folds {
		if len(fold.TrainIndices)+len(fold.TestIndices) != 50 {
			t.Errorf("fold %d covers %d rows, want 50",
				f, len(fold.TrainIndices)+len(fold.TestIndices))
		}
		for _, idx := range fold.TestIndices {
			seen[idx]++
		}
	}
	// Every row is held out exactly once across the folds.
	for i := 0; i < 50; i++ {
		if seen[i] != 1 {
			t.Errorf("row %d held out %d times, want 1", i, seen[i])
		}
	}
}

func TestStratifiedKFold_PreservesClassShares(t *testing.T) {
	y := make([]int, 100)
	for i := 70; i < 100; i++ {
		y[i] = 1
	}

	folds := NewStratifiedKFold(10, 1, 3).Split(y)
	for f, fold := range folds {
		pos := 0
		for _, idx := range fold.TestIndices {
			pos += y[idx]
		}
		if pos != 3 {
			t.Errorf("fold %d test side has %d positives, want 3", f, pos)
		}
	}
}

func TestStratifiedKFold_Repeats(t *testing.T) {
	y := make([]int, 40)
	for i := 25; i < 40; i++ {
		y[i] = 1
	}

	folds := NewStratifiedKFold(5, 3, 1).Split(y)
	if len(folds) != 15 {
		t.Fatalf("got %d folds, want 5*3", len(folds))
	}

	// Repeats must differ from each other.
	same := true
	for f := 0; f < 5 && same; f++ {
		a, b := folds[f].TestIndices, folds[f+5].TestIndices
		if len(a) != len(b) {
			same = false
			break
		}
		for i := range a {
			if a[i] != b[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("first two repeats produced identical folds")
	}
}

func TestCrossValidate_ScoresEveryFold(t *testing.T) {
	X, y := cvBlobs(30, 2)

	folds := NewStratifiedKFold(5, 1, 2).Split(y)
	cv, err := CrossValidate(classifier.NewKNN(classifier.WithKNNNeighbors(3)), X, y, folds, ROCAUC)
	if err != nil {
		t.Fatalf("CrossValidate failed: %v", err)
	}

	if len(cv.FoldScores) != 5 {
		t.Fatalf("got %d fold scores, want 5", len(cv.FoldScores))
	}
	for f, score := range cv.FoldScores {
		if score < 0.9 {
			t.Errorf("fold %d score = %v, want >= 0.9 on separable blobs", f, score)
		}
	}
	if cv.MeanScore() < 0.9 {
		t.Errorf("mean score = %v, want >= 0.9", cv.MeanScore())
	}
	if cv.StdScore() < 0 {
		t.Errorf("std score = %v, want >= 0", cv.StdScore())
	}
}

func TestCVResult_MeanStd(t *testing.T) {
	cv := &CVResult{FoldScores: []float64{0.8, 0.9, 1.0}}
	if math.Abs(cv.MeanScore()-0.9) > 1e-12 {
		t.Errorf("mean = %v, want 0.9", cv.MeanScore())
	}
	// Sample standard deviation with n-1.
	if math.Abs(cv.StdScore()-0.1) > 1e-12 {
		t.Errorf("std = %v, want 0.1", cv.StdScore())
	}
}

func TestCrossValidate_DegenerateFold(t *testing.T) {
	// A custom fold whose training side is all one class must fail
	// loudly, naming the fold.
	X, y := cvBlobs(5, 1)

	folds := []CVFold{
		{TrainIndices: []int{0, 1, 2, 3, 4}, TestIndices: []int{5, 6, 7, 8, 9}},
	}
	_, err := CrossValidate(classifier.NewKNN(), X, y, folds, ROCAUC)
	if err == nil {
		t.Fatal("expected an error for a single-class training side")
	}
}
