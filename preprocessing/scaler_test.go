package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler_FitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	scaler := NewStandardScaler()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		sum, sumSq := 0.0, 0.0
		for i := 0; i < r; i++ {
			sum += scaled.At(i, j)
		}
		mean := sum / float64(r)
		if math.Abs(mean) > 1e-10 {
			t.Errorf("column %d mean = %v, want 0", j, mean)
		}
		for i := 0; i < r; i++ {
			d := scaled.At(i, j) - mean
			sumSq += d * d
		}
		// Sample standard deviation, n-1 in the denominator.
		std := math.Sqrt(sumSq / float64(r-1))
		if math.Abs(std-1) > 1e-10 {
			t.Errorf("column %d std = %v, want 1", j, std)
		}
	}
}

func TestStandardScaler_SelectedColumnsOnly(t *testing.T) {
	// Column 1 plays the role of a binary indicator and must pass
	// through untouched.
	X := mat.NewDense(4, 2, []float64{
		1, 0,
		2, 1,
		3, 0,
		4, 1,
	})

	scaler := NewStandardScaler(WithColumns([]int{0}))
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		if scaled.At(i, 1) != X.At(i, 1) {
			t.Errorf("row %d: indicator column changed from %v to %v",
				i, X.At(i, 1), scaled.At(i, 1))
		}
	}
	if scaled.At(0, 0) == X.At(0, 0) {
		t.Error("selected column was not scaled")
	}
}

func TestStandardScaler_TransformUsesFitStatistics(t *testing.T) {
	train := mat.NewDense(3, 1, []float64{1, 2, 3})
	test := mat.NewDense(2, 1, []float64{100, 200})

	scaler := NewStandardScaler()
	if _, err := scaler.FitTransform(train); err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	scaled, err := scaler.Transform(test)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	// (100 - 2) / 1 = 98 under the training statistics. If the test
	// rows were standardized against themselves the values would be
	// around ±0.7.
	if got := scaled.At(0, 0); math.Abs(got-98) > 1e-10 {
		t.Errorf("scaled value = %v, want 98", got)
	}
}

func TestStandardScaler_InverseRoundTrip(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1.5, -2,
		3.25, 0,
		-1, 7,
	})

	scaler := NewStandardScaler()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	back, err := scaler.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(back.At(i, j)-X.At(i, j)) > 1e-9 {
				t.Errorf("(%d,%d): got %v, want %v", i, j, back.At(i, j), X.At(i, j))
			}
		}
	}
}

func TestStandardScaler_ConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{5, 5, 5})

	scaler := NewStandardScaler()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	// Zero variance clamps the divisor to 1, leaving centered zeros.
	for i := 0; i < 3; i++ {
		if scaled.At(i, 0) != 0 {
			t.Errorf("row %d = %v, want 0", i, scaled.At(i, 0))
		}
	}
}

func TestStandardScaler_NotFitted(t *testing.T) {
	scaler := NewStandardScaler()
	if _, err := scaler.Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("expected not-fitted error")
	}
}
