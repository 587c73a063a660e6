package classifier

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/core/model"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// treeNode is one node of a fitted CART tree.
type treeNode struct {
	leaf      bool
	proba     float64 // positive-class share of training rows at this node
	feature   int
	threshold float64 // go left when x[feature] <= threshold
	left      *treeNode
	right     *treeNode
	samples   int
}

// DecisionTree is a CART classifier with gini impurity and an rpart-style
// complexity parameter: a split is kept only when its impurity gain,
// weighted by node size and normalized by the root impurity, reaches cp.
//
// Mtry, when positive, samples that many candidate features per split;
// the random forest uses it, a standalone tree leaves it at 0 (all
// features).
type DecisionTree struct {
	model.BaseEstimator

	cp       float64
	maxDepth int
	minSplit int
	mtry     int
	seed     int64

	root         *treeNode
	nFeatures_   int
	importances_ []float64 // summed size-weighted gini gain per feature
}

// TreeOption is a functional option for DecisionTree.
type TreeOption func(*DecisionTree)

// WithTreeCP sets the complexity parameter.
func WithTreeCP(cp float64) TreeOption {
	return func(t *DecisionTree) { t.cp = cp }
}

// WithTreeMaxDepth caps the tree depth.
func WithTreeMaxDepth(depth int) TreeOption {
	return func(t *DecisionTree) { t.maxDepth = depth }
}

// WithTreeMinSplit sets the minimum node size eligible for splitting.
func WithTreeMinSplit(minSplit int) TreeOption {
	return func(t *DecisionTree) { t.minSplit = minSplit }
}

// WithTreeMtry samples mtry candidate features per split (0 = all).
func WithTreeMtry(mtry int) TreeOption {
	return func(t *DecisionTree) { t.mtry = mtry }
}

// WithTreeSeed seeds the per-split feature sampling.
func WithTreeSeed(seed int64) TreeOption {
	return func(t *DecisionTree) { t.seed = seed }
}

// NewDecisionTree creates a CART classifier with cp=0.01 (the rpart
// default), depth cap 30, minimum split size 20.
func NewDecisionTree(opts ...TreeOption) *DecisionTree {
	t := &DecisionTree{
		cp:       0.01,
		maxDepth: 30,
		minSplit: 20,
		seed:     1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit grows the tree on X, y.
func (t *DecisionTree) Fit(X mat.Matrix, y []int) error {
	n, p, err := validateFit("DecisionTree.Fit", X, y)
	if err != nil {
		return err
	}
	if t.cp < 0 {
		return errors.NewValueError("DecisionTree.Fit", "cp must be >= 0")
	}
	t.nFeatures_ = p

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	t.importances_ = make([]float64, p)
	g := &grower{
		tree:     t,
		x:        X,
		y:        y,
		nTotal:   n,
		rootGini: gini(y, idx),
		rng:      rand.New(rand.NewSource(t.seed)),
	}
	t.root = g.grow(idx, 0)

	t.SetFitted()
	return nil
}

// grower carries the shared state of one Fit call.
type grower struct {
	tree     *DecisionTree
	x        mat.Matrix
	y        []int
	nTotal   int
	rootGini float64
	rng      *rand.Rand
}

func (g *grower) grow(idx []int, depth int) *treeNode {
	node := &treeNode{
		samples: len(idx),
		proba:   positiveShare(g.y, idx),
	}
	nodeGini := gini(g.y, idx)

	if depth >= g.tree.maxDepth || len(idx) < g.tree.minSplit || nodeGini == 0 {
		node.leaf = true
		return node
	}

	feature, threshold, gain := g.bestSplit(idx, nodeGini)
	// rpart keeps a split only when it improves the overall fit by cp
	// relative to the root impurity.
	minGain := g.tree.cp * g.rootGini
	if g.rootGini == 0 || gain < minGain || feature < 0 {
		node.leaf = true
		return node
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if g.x.At(i, feature) <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		node.leaf = true
		return node
	}

	node.feature = feature
	node.threshold = threshold
	g.tree.importances_[feature] += gain
	node.left = g.grow(leftIdx, depth+1)
	node.right = g.grow(rightIdx, depth+1)
	return node
}

// bestSplit scans candidate features for the threshold with the highest
// size-weighted gini gain. The gain is weighted by node share of the whole
// training set so cp comparisons are consistent across depths.
func (g *grower) bestSplit(idx []int, nodeGini float64) (feature int, threshold, gain float64) {
	feature = -1

	candidates := g.candidateFeatures()
	nodeWeight := float64(len(idx)) / float64(g.nTotal)

	values := make([]float64, len(idx))
	for _, f := range candidates {
		for k, i := range idx {
			values[k] = g.x.At(i, f)
		}
		sort.Float64s(values)

		for k := 0; k+1 < len(values); k++ {
			if values[k] == values[k+1] {
				continue
			}
			thr := (values[k] + values[k+1]) / 2

			var leftIdx, rightIdx []int
			for _, i := range idx {
				if g.x.At(i, f) <= thr {
					leftIdx = append(leftIdx, i)
				} else {
					rightIdx = append(rightIdx, i)
				}
			}
			if len(leftIdx) == 0 || len(rightIdx) == 0 {
				continue
			}

			wL := float64(len(leftIdx)) / float64(len(idx))
			wR := float64(len(rightIdx)) / float64(len(idx))
			split := nodeGini - wL*gini(g.y, leftIdx) - wR*gini(g.y, rightIdx)
			weighted := nodeWeight * split
			if weighted > gain {
				gain = weighted
				feature = f
				threshold = thr
			}
		}
	}
	return feature, threshold, gain
}

func (g *grower) candidateFeatures() []int {
	_, p := g.x.Dims()
	all := make([]int, p)
	for j := range all {
		all[j] = j
	}
	if g.tree.mtry <= 0 || g.tree.mtry >= p {
		return all
	}
	g.rng.Shuffle(p, func(i, j int) { all[i], all[j] = all[j], all[i] })
	picked := all[:g.tree.mtry]
	sort.Ints(picked)
	return picked
}

func gini(y []int, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	p := float64(pos) / float64(len(idx))
	return 2 * p * (1 - p)
}

func positiveShare(y []int, idx []int) float64 {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	return float64(pos) / float64(len(idx))
}

// PredictProba returns leaf positive-class shares.
func (t *DecisionTree) PredictProba(X mat.Matrix) ([]float64, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTree", "PredictProba")
	}
	rows, err := validatePredict("DecisionTree.PredictProba", X, t.nFeatures_)
	if err != nil {
		return nil, err
	}

	proba := make([]float64, rows)
	for i := 0; i < rows; i++ {
		node := t.root
		for !node.leaf {
			if X.At(i, node.feature) <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		proba[i] = node.proba
	}
	return proba, nil
}

// Predict returns hard labels at the 0.5 leaf-share threshold.
func (t *DecisionTree) Predict(X mat.Matrix) ([]int, error) {
	proba, err := t.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba), nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (t *DecisionTree) Clone() Classifier {
	return NewDecisionTree(
		WithTreeCP(t.cp),
		WithTreeMaxDepth(t.maxDepth),
		WithTreeMinSplit(t.minSplit),
		WithTreeMtry(t.mtry),
		WithTreeSeed(t.seed),
	)
}

// Name identifies the family and its cp.
func (t *DecisionTree) Name() string { return fmt.Sprintf("rpart(cp=%g)", t.cp) }

// Params exposes the hyperparameters.
func (t *DecisionTree) Params() map[string]interface{} {
	return map[string]interface{}{
		"cp":        t.cp,
		"max_depth": t.maxDepth,
		"min_split": t.minSplit,
	}
}

// Importances returns the summed size-weighted gini gain per feature
// (mean decrease in impurity, unnormalized).
func (t *DecisionTree) Importances() []float64 {
	return append([]float64(nil), t.importances_...)
}

var _ Classifier = (*DecisionTree)(nil)
