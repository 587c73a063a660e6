package evaluation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/classifier"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// TrainedModel is the trainer's output for one family: the final model
// refitted on the full training partition, the winning hyperparameters,
// and the cross-validation record behind the selection. Consumers treat it
// as read-only.
type TrainedModel struct {
	Family     string
	Model      classifier.Classifier
	Params     map[string]interface{}
	CV         *CVResult
	CVMeanAUC  float64
	GridPoint  string // Name() of the selected candidate
	GridPoints int    // size of the searched grid
}

// MetricReport is the evaluator's immutable per-model output on the test
// partition. All reports in a run share the same partition and the same
// positive-label convention, so they are directly comparable.
type MetricReport struct {
	Family    string
	Confusion ConfusionMatrix
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64 // NaN when undefined
	ROCAUC    float64
	PRAUC     float64
	ROC       []ROCPoint
	PR        []PRPoint

	// Raw prediction vectors for external collaborators (plots, tables).
	PredictedLabels []int
	PredictedProba  []float64
}

// Evaluate predicts on the test partition and derives the full metric set.
// It is deterministic: the same model and partition always produce the
// same report.
func Evaluate(tm *TrainedModel, XTest mat.Matrix, yTest []int) (*MetricReport, error) {
	n, _ := XTest.Dims()
	if n != len(yTest) {
		return nil, errors.NewDimensionError("Evaluate", n, len(yTest), 0)
	}

	labels, err := tm.Model.Predict(XTest)
	if err != nil {
		return nil, errors.Wrapf(err, "Evaluate: %s predict", tm.Family)
	}
	proba, err := tm.Model.PredictProba(XTest)
	if err != nil {
		return nil, errors.Wrapf(err, "Evaluate: %s predict_proba", tm.Family)
	}

	cm, err := NewConfusionMatrix(yTest, labels)
	if err != nil {
		return nil, err
	}
	roc, err := ROCCurve(yTest, proba)
	if err != nil {
		return nil, err
	}
	rocAUC, err := ROCAUC(yTest, proba)
	if err != nil {
		return nil, err
	}
	pr, err := PRCurve(yTest, proba)
	if err != nil {
		return nil, err
	}
	prAUC, err := PRAUC(yTest, proba)
	if err != nil {
		return nil, err
	}

	return &MetricReport{
		Family:          tm.Family,
		Confusion:       cm,
		Accuracy:        cm.Accuracy(),
		Precision:       cm.Precision(),
		Recall:          cm.Recall(),
		F1:              cm.F1(),
		ROCAUC:          rocAUC,
		PRAUC:           prAUC,
		ROC:             roc,
		PR:              pr,
		PredictedLabels: labels,
		PredictedProba:  proba,
	}, nil
}

// EvaluationRun is the explicit aggregate threaded through the pipeline
// stages: every family's trained model and test-partition report, in
// training order. Nothing in the pipeline accumulates state anywhere else.
type EvaluationRun struct {
	models  []*TrainedModel
	reports []*MetricReport
}

// NewEvaluationRun creates an empty run.
func NewEvaluationRun() *EvaluationRun {
	return &EvaluationRun{}
}

// Add records one family's trained model and its report.
func (r *EvaluationRun) Add(tm *TrainedModel, report *MetricReport) {
	r.models = append(r.models, tm)
	r.reports = append(r.reports, report)
}

// Models returns the trained models in training order.
func (r *EvaluationRun) Models() []*TrainedModel { return r.models }

// Reports returns the metric reports in training order.
func (r *EvaluationRun) Reports() []*MetricReport { return r.reports }

// Report returns the report for a family, or nil when absent.
func (r *EvaluationRun) Report(family string) *MetricReport {
	for _, rep := range r.reports {
		if rep.Family == family {
			return rep
		}
	}
	return nil
}

// BestByROCAUC returns the family whose test ROC-AUC is highest, ties to
// the earlier-trained family.
func (r *EvaluationRun) BestByROCAUC() *MetricReport {
	var best *MetricReport
	for _, rep := range r.reports {
		if best == nil || rep.ROCAUC > best.ROCAUC {
			best = rep
		}
	}
	return best
}
