package evaluation

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/classifier"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
	mllog "github.com/iman-ch/heart-failure-risk-prediction/pkg/log"
)

// GridSearch selects the best hyperparameter combination for one
// classifier family by repeated stratified cross-validation on the
// training partition, then refits the winner on all of it.
//
// Candidates are enumerated lowest-hyperparameter-first; the arg-max
// comparison is strict, so ties go to the first-enumerated candidate and
// selection is deterministic.
type GridSearch struct {
	Family     string
	Candidates []classifier.Classifier
	KFold      *StratifiedKFold
	Scorer     Scorer
}

// NewGridSearch creates a grid search scored by mean cross-validated
// ROC-AUC, the selection metric of the analysis.
func NewGridSearch(family string, candidates []classifier.Classifier, kfold *StratifiedKFold) *GridSearch {
	return &GridSearch{
		Family:     family,
		Candidates: candidates,
		KFold:      kfold,
		Scorer:     ROCAUC,
	}
}

// Run cross-validates every candidate, reports degenerate-fold failures
// through the warning channel (skipping that candidate), picks the highest
// mean score, and refits the winner on the full training partition.
func (gs *GridSearch) Run(X mat.Matrix, y []int) (*TrainedModel, error) {
	if len(gs.Candidates) == 0 {
		return nil, errors.NewValueError("GridSearch.Run", "no candidates")
	}

	folds := gs.KFold.Split(y)

	bestIdx := -1
	bestScore := 0.0
	var bestCV *CVResult

	for c, candidate := range gs.Candidates {
		cv, err := CrossValidate(candidate, X, y, folds, gs.Scorer)
		if err != nil {
			// A degenerate fold disqualifies the combination, loudly.
			errors.Warn(errors.NewDegenerateFoldWarning(gs.Family, c, err.Error()))
			continue
		}

		mean := cv.MeanScore()
		slog.Debug("grid candidate scored",
			mllog.FamilyKey, gs.Family,
			mllog.OperationKey, "grid_search",
			"candidate", candidate.Name(),
			mllog.AUCKey, mean,
		)
		if bestIdx == -1 || mean > bestScore {
			bestIdx = c
			bestScore = mean
			bestCV = cv
		}
	}

	if bestIdx == -1 {
		return nil, errors.NewModelError("GridSearch.Run",
			gs.Family+": every hyperparameter combination failed cross-validation", nil)
	}

	final := gs.Candidates[bestIdx].Clone()
	if err := final.Fit(X, y); err != nil {
		return nil, errors.Wrapf(err, "GridSearch.Run: %s final refit", gs.Family)
	}

	return &TrainedModel{
		Family:     gs.Family,
		Model:      final,
		Params:     final.Params(),
		CV:         bestCV,
		CVMeanAUC:  bestScore,
		GridPoint:  final.Name(),
		GridPoints: len(gs.Candidates),
	}, nil
}
