package evaluation

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/classifier"
	mllog "github.com/iman-ch/heart-failure-risk-prediction/pkg/log"
)

// FamilyGrids enumerates the seven classifier families of the analysis
// with their hyperparameter grids, every grid ascending so ties resolve to
// the lowest value. Families without hyperparameters are single-candidate
// grids and still go through the same cross-validation discipline.
func FamilyGrids(kfold *StratifiedKFold, seed int64) []*GridSearch {
	var knn []classifier.Classifier
	for k := 3; k <= 21; k += 2 {
		knn = append(knn, classifier.NewKNN(classifier.WithKNNNeighbors(k)))
	}

	costGrid := []float64{0.25, 0.5, 1, 2, 4}
	var svm []classifier.Classifier
	for _, sigma := range costGrid {
		for _, c := range costGrid {
			svm = append(svm, classifier.NewSVM(
				classifier.WithSVMSigma(sigma),
				classifier.WithSVMCost(c),
				classifier.WithSVMSeed(seed),
			))
		}
	}

	var forest []classifier.Classifier
	for mtry := 2; mtry <= 6; mtry++ {
		forest = append(forest, classifier.NewRandomForest(
			classifier.WithForestMtry(mtry),
			classifier.WithForestSeed(seed),
		))
	}

	var tree []classifier.Classifier
	for i := 0; i < 20; i++ {
		cp := 0.001 + 0.005*float64(i)
		tree = append(tree, classifier.NewDecisionTree(classifier.WithTreeCP(cp)))
	}

	return []*GridSearch{
		NewGridSearch("lda", []classifier.Classifier{classifier.NewLinearDiscriminant()}, kfold),
		NewGridSearch("qda", []classifier.Classifier{classifier.NewQuadraticDiscriminant()}, kfold),
		NewGridSearch("logistic", []classifier.Classifier{classifier.NewLogisticRegression()}, kfold),
		NewGridSearch("knn", knn, kfold),
		NewGridSearch("svmRadial", svm, kfold),
		NewGridSearch("rf", forest, kfold),
		NewGridSearch("rpart", tree, kfold),
	}
}

// TrainAll runs every family's grid search on the training partition.
// Families train sequentially; the parallelism lives inside the fold loop.
func TrainAll(grids []*GridSearch, X mat.Matrix, y []int) ([]*TrainedModel, error) {
	models := make([]*TrainedModel, 0, len(grids))
	for _, gs := range grids {
		start := time.Now()
		tm, err := gs.Run(X, y)
		if err != nil {
			return nil, err
		}
		slog.Info("family trained",
			mllog.StageKey, "train",
			mllog.FamilyKey, tm.Family,
			mllog.OperationKey, "grid_search",
			"selected", tm.GridPoint,
			"grid_points", tm.GridPoints,
			mllog.AUCKey, tm.CVMeanAUC,
			mllog.DurationMsKey, time.Since(start).Milliseconds(),
		)
		models = append(models, tm)
	}
	return models, nil
}
