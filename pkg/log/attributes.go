package log

// Standard attribute keys used by the pipeline stages. Keeping these in one
// place makes stage logs filterable.
const (
	// StageKey names the pipeline stage emitting the record.
	// Values: "load", "preprocess", "train", "evaluate", "unsupervised", "report".
	StageKey = "pipeline.stage"

	// FamilyKey names the classifier family being trained or evaluated.
	FamilyKey = "model.family"

	// OperationKey names the operation: "fit", "predict", "cv", "grid_search".
	OperationKey = "ml.operation"

	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// FoldKey is the cross-validation fold index.
	FoldKey = "cv.fold"

	// AUCKey is a ROC-AUC value.
	AUCKey = "metrics.roc_auc"

	// AccuracyKey is a classification accuracy value.
	AccuracyKey = "metrics.accuracy"

	// DurationMsKey is the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// SeedKey is the random seed driving a stochastic operation.
	SeedKey = "run.seed"
)
