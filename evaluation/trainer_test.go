package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iman-ch/heart-failure-risk-prediction/classifier"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

func TestFamilyGrids_CoversAllFamilies(t *testing.T) {
	grids := FamilyGrids(NewStratifiedKFold(10, 1, 42), 42)
	require.Len(t, grids, 7)

	wantSizes := map[string]int{
		"lda":       1,
		"qda":       1,
		"logistic":  1,
		"knn":       10, // odd k from 3 to 21
		"svmRadial": 25, // 5 sigma x 5 cost
		"rf":        5,  // mtry 2..6
		"rpart":     20, // cp 0.001 + 0.005i
	}
	for _, gs := range grids {
		want, ok := wantSizes[gs.Family]
		require.True(t, ok, "unexpected family %s", gs.Family)
		assert.Len(t, gs.Candidates, want, "family %s", gs.Family)
		assert.NotNil(t, gs.Scorer, "family %s has no scorer", gs.Family)
	}
}

func TestFamilyGrids_CandidateOrdering(t *testing.T) {
	grids := FamilyGrids(NewStratifiedKFold(10, 1, 1), 1)

	for _, gs := range grids {
		if gs.Family != "knn" {
			continue
		}
		assert.Equal(t, "knn(k=3)", gs.Candidates[0].Name())
		assert.Equal(t, "knn(k=21)", gs.Candidates[len(gs.Candidates)-1].Name())
	}
}

// TestTrainEvaluate_EndToEnd exercises the full train-then-evaluate path
// on synthetic data with a clear signal, using the cheaper families.
func TestTrainEvaluate_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("end-to-end training is slow")
	}

	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	trainX, trainY := cvBlobs(40, 6)
	testX, testY := cvBlobs(15, 7)

	kfold := NewStratifiedKFold(5, 1, 6)
	grids := []*GridSearch{
		NewGridSearch("lda", []classifier.Classifier{classifier.NewLinearDiscriminant()}, kfold),
		NewGridSearch("knn", []classifier.Classifier{
			classifier.NewKNN(classifier.WithKNNNeighbors(3)),
			classifier.NewKNN(classifier.WithKNNNeighbors(5)),
		}, kfold),
		NewGridSearch("rpart", []classifier.Classifier{
			classifier.NewDecisionTree(classifier.WithTreeMinSplit(5)),
		}, kfold),
		NewGridSearch("rf", []classifier.Classifier{
			classifier.NewRandomForest(classifier.WithForestTrees(30),
				classifier.WithForestMtry(1), classifier.WithForestSeed(6)),
			classifier.NewRandomForest(classifier.WithForestTrees(30),
				classifier.WithForestMtry(2), classifier.WithForestSeed(6)),
		}, kfold),
	}

	models, err := TrainAll(grids, trainX, trainY)
	require.NoError(t, err)
	require.Len(t, models, 4)

	run := NewEvaluationRun()
	for _, tm := range models {
		rep, err := Evaluate(tm, testX, testY)
		require.NoError(t, err, "family %s", tm.Family)

		assert.GreaterOrEqual(t, rep.Accuracy, 0.9, "family %s", tm.Family)
		assert.GreaterOrEqual(t, rep.ROCAUC, 0.9, "family %s", tm.Family)
		assert.Len(t, rep.PredictedLabels, 30)
		assert.Len(t, rep.PredictedProba, 30)
		run.Add(tm, rep)
	}

	best := run.BestByROCAUC()
	require.NotNil(t, best)
	assert.GreaterOrEqual(t, best.ROCAUC, 0.9)

	// Evaluation is deterministic: a second pass reproduces the report.
	again, err := Evaluate(models[0], testX, testY)
	require.NoError(t, err)
	assert.Equal(t, run.Reports()[0].Confusion, again.Confusion)
	assert.True(t, run.Reports()[0].ROCAUC == again.ROCAUC ||
		(math.IsNaN(run.Reports()[0].ROCAUC) && math.IsNaN(again.ROCAUC)))
}
