package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/core/model"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
	"github.com/iman-ch/heart-failure-risk-prediction/preprocessing"
)

// SVM is a support-vector machine with a radial (RBF) kernel, trained with
// a simplified SMO optimizer. Unlike the other families it re-centers and
// re-scales every input column internally, so the caller may pass features
// on their raw scale.
//
// Hard labels come from the sign of the decision function; probabilities
// from a Platt sigmoid fitted on the training decision values.
type SVM struct {
	model.BaseEstimator

	// Hyperparameters
	c         float64 // cost
	sigma     float64 // kernel bandwidth: K(x,z) = exp(-||x-z||² / (2σ²))
	tol       float64
	maxPasses int
	seed      int64

	// Fitted state
	scaler     *preprocessing.StandardScaler
	x_         *mat.Dense // scaled training rows
	y_         []float64  // labels in {-1, +1}
	alpha_     []float64
	b_         float64
	plattA_    float64
	plattB_    float64
	nFeatures_ int
}

// SVMOption is a functional option for SVM.
type SVMOption func(*SVM)

// WithSVMCost sets the cost parameter C.
func WithSVMCost(c float64) SVMOption {
	return func(m *SVM) { m.c = c }
}

// WithSVMSigma sets the RBF bandwidth σ.
func WithSVMSigma(sigma float64) SVMOption {
	return func(m *SVM) { m.sigma = sigma }
}

// WithSVMTol sets the KKT violation tolerance.
func WithSVMTol(tol float64) SVMOption {
	return func(m *SVM) { m.tol = tol }
}

// WithSVMMaxPasses sets the number of passes without an alpha update that
// ends optimization.
func WithSVMMaxPasses(maxPasses int) SVMOption {
	return func(m *SVM) { m.maxPasses = maxPasses }
}

// WithSVMSeed seeds the SMO working-pair selection.
func WithSVMSeed(seed int64) SVMOption {
	return func(m *SVM) { m.seed = seed }
}

// NewSVM creates an RBF-kernel SVM with C=1, σ=1.
func NewSVM(opts ...SVMOption) *SVM {
	m := &SVM{
		c:         1.0,
		sigma:     1.0,
		tol:       1e-3,
		maxPasses: 5,
		seed:      1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SVM) kernel(a, b []float64) float64 {
	d := 0.0
	for j := range a {
		diff := a[j] - b[j]
		d += diff * diff
	}
	return math.Exp(-d / (2 * m.sigma * m.sigma))
}

// Fit scales the data, runs SMO, and fits the Platt sigmoid.
func (m *SVM) Fit(X mat.Matrix, y []int) error {
	n, p, err := validateFit("SVM.Fit", X, y)
	if err != nil {
		return err
	}
	if m.c <= 0 || m.sigma <= 0 {
		return errors.NewValueError("SVM.Fit", "C and sigma must be positive")
	}

	m.nFeatures_ = p
	m.scaler = preprocessing.NewStandardScaler()
	scaled, err := m.scaler.FitTransform(X)
	if err != nil {
		return errors.NewModelError("SVM.Fit", "internal scaling", err)
	}
	m.x_ = scaled

	m.y_ = make([]float64, n)
	for i, label := range y {
		if label == 1 {
			m.y_[i] = 1
		} else {
			m.y_[i] = -1
		}
	}

	// Precompute the kernel matrix; the dataset is small enough.
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = scaled.RawRowView(i)
	}
	K := make([][]float64, n)
	for i := 0; i < n; i++ {
		K[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			k := m.kernel(rows[i], rows[j])
			K[i][j] = k
			K[j][i] = k
		}
	}

	m.smo(K, n)
	m.fitPlatt(K, n)

	m.SetFitted()
	return nil
}

// smo runs the simplified sequential-minimal-optimization loop.
func (m *SVM) smo(K [][]float64, n int) {
	m.alpha_ = make([]float64, n)
	m.b_ = 0
	rng := rand.New(rand.NewSource(m.seed))

	f := func(i int) float64 {
		s := m.b_
		for t := 0; t < n; t++ {
			if m.alpha_[t] != 0 {
				s += m.alpha_[t] * m.y_[t] * K[t][i]
			}
		}
		return s
	}

	passes := 0
	iter := 0
	maxIter := 200 * n
	for passes < m.maxPasses && iter < maxIter {
		iter++
		changed := 0
		for i := 0; i < n; i++ {
			Ei := f(i) - m.y_[i]
			if (m.y_[i]*Ei < -m.tol && m.alpha_[i] < m.c) ||
				(m.y_[i]*Ei > m.tol && m.alpha_[i] > 0) {

				j := rng.Intn(n - 1)
				if j >= i {
					j++
				}
				Ej := f(j) - m.y_[j]

				ai, aj := m.alpha_[i], m.alpha_[j]
				var lo, hi float64
				if m.y_[i] != m.y_[j] {
					lo = math.Max(0, aj-ai)
					hi = math.Min(m.c, m.c+aj-ai)
				} else {
					lo = math.Max(0, ai+aj-m.c)
					hi = math.Min(m.c, ai+aj)
				}
				if lo == hi {
					continue
				}

				eta := 2*K[i][j] - K[i][i] - K[j][j]
				if eta >= 0 {
					continue
				}

				ajNew := aj - m.y_[j]*(Ei-Ej)/eta
				ajNew = math.Min(hi, math.Max(lo, ajNew))
				if math.Abs(ajNew-aj) < 1e-5 {
					continue
				}
				aiNew := ai + m.y_[i]*m.y_[j]*(aj-ajNew)

				b1 := m.b_ - Ei - m.y_[i]*(aiNew-ai)*K[i][i] - m.y_[j]*(ajNew-aj)*K[i][j]
				b2 := m.b_ - Ej - m.y_[i]*(aiNew-ai)*K[i][j] - m.y_[j]*(ajNew-aj)*K[j][j]
				switch {
				case aiNew > 0 && aiNew < m.c:
					m.b_ = b1
				case ajNew > 0 && ajNew < m.c:
					m.b_ = b2
				default:
					m.b_ = (b1 + b2) / 2
				}

				m.alpha_[i] = aiNew
				m.alpha_[j] = ajNew
				changed++
			}
		}
		if changed == 0 {
			passes++
		} else {
			passes = 0
		}
	}

	if iter >= maxIter {
		errors.Warn(errors.NewConvergenceWarning("SVM.SMO", iter, "alpha pairs still changing"))
	}
}

// fitPlatt fits the sigmoid P(y=1|f) = 1/(1+exp(A·f+B)) on the training
// decision values, with Platt's soft target correction.
func (m *SVM) fitPlatt(K [][]float64, n int) {
	decision := make([]float64, n)
	for i := 0; i < n; i++ {
		s := m.b_
		for t := 0; t < n; t++ {
			if m.alpha_[t] != 0 {
				s += m.alpha_[t] * m.y_[t] * K[t][i]
			}
		}
		decision[i] = s
	}

	nPos, nNeg := 0, 0
	for _, label := range m.y_ {
		if label > 0 {
			nPos++
		} else {
			nNeg++
		}
	}
	tPos := (float64(nPos) + 1) / (float64(nPos) + 2)
	tNeg := 1 / (float64(nNeg) + 2)

	A, B := 0.0, math.Log((float64(nNeg)+1)/(float64(nPos)+1))
	lr := 1e-2
	for iter := 0; iter < 500; iter++ {
		gradA, gradB := 0.0, 0.0
		for i := 0; i < n; i++ {
			target := tNeg
			if m.y_[i] > 0 {
				target = tPos
			}
			p := 1 / (1 + math.Exp(A*decision[i]+B))
			gradA += (p - target) * -decision[i]
			gradB += (p - target) * -1
		}
		A -= lr * gradA / float64(n)
		B -= lr * gradB / float64(n)
	}
	m.plattA_ = A
	m.plattB_ = B
}

func (m *SVM) decisionValues(X mat.Matrix) ([]float64, error) {
	rows, err := validatePredict("SVM.decision", X, m.nFeatures_)
	if err != nil {
		return nil, err
	}
	scaled, err := m.scaler.Transform(X)
	if err != nil {
		return nil, err
	}

	nTrain, _ := m.x_.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		xi := scaled.RawRowView(i)
		s := m.b_
		for t := 0; t < nTrain; t++ {
			if m.alpha_[t] != 0 {
				s += m.alpha_[t] * m.y_[t] * m.kernel(m.x_.RawRowView(t), xi)
			}
		}
		out[i] = s
	}
	return out, nil
}

// PredictProba returns Platt-scaled positive-class probabilities.
func (m *SVM) PredictProba(X mat.Matrix) ([]float64, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("SVM", "PredictProba")
	}
	decision, err := m.decisionValues(X)
	if err != nil {
		return nil, err
	}
	proba := make([]float64, len(decision))
	for i, d := range decision {
		proba[i] = 1 / (1 + math.Exp(m.plattA_*d+m.plattB_))
	}
	return proba, nil
}

// Predict returns hard labels from the sign of the decision function.
func (m *SVM) Predict(X mat.Matrix) ([]int, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("SVM", "Predict")
	}
	decision, err := m.decisionValues(X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(decision))
	for i, d := range decision {
		if d >= 0 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (m *SVM) Clone() Classifier {
	return NewSVM(
		WithSVMCost(m.c),
		WithSVMSigma(m.sigma),
		WithSVMTol(m.tol),
		WithSVMMaxPasses(m.maxPasses),
		WithSVMSeed(m.seed),
	)
}

// Name identifies the family and its grid point.
func (m *SVM) Name() string { return fmt.Sprintf("svmRadial(C=%g,sigma=%g)", m.c, m.sigma) }

// Params exposes the hyperparameters.
func (m *SVM) Params() map[string]interface{} {
	return map[string]interface{}{"C": m.c, "sigma": m.sigma}
}

var _ Classifier = (*SVM)(nil)
