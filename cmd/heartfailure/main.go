// Command heartfailure runs the full heart-failure survival analysis:
// load and validate the clinical records, train seven classifier families
// under repeated stratified cross-validation, evaluate them on a held-out
// partition, and probe the unsupervised structure with PCA and k-means.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/cluster"
	"github.com/iman-ch/heart-failure-risk-prediction/dataset"
	"github.com/iman-ch/heart-failure-risk-prediction/decomposition"
	"github.com/iman-ch/heart-failure-risk-prediction/evaluation"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
	mllog "github.com/iman-ch/heart-failure-risk-prediction/pkg/log"
	"github.com/iman-ch/heart-failure-risk-prediction/preprocessing"
	"github.com/iman-ch/heart-failure-risk-prediction/report"
)

type config struct {
	dataPath string
	outDir   string
	seed     int64
	logLevel string
	folds    int
	repeats  int
	restarts int
}

func main() {
	cfg := parseFlags()
	mllog.SetupLogger(cfg.logLevel)

	if err := run(cfg); err != nil {
		slog.Error("analysis failed", mllog.ErrAttr(err))
		os.Exit(1)
	}
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.dataPath, "data", "heart_failure_clinical_records_dataset.csv", "path to the clinical records CSV")
	flag.StringVar(&cfg.outDir, "out", "out", "directory for plots and tables")
	flag.Int64Var(&cfg.seed, "seed", 42, "base random seed for every stochastic stage")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.IntVar(&cfg.folds, "folds", 10, "cross-validation folds")
	flag.IntVar(&cfg.repeats, "repeats", 1, "cross-validation repeats")
	flag.IntVar(&cfg.restarts, "restarts", 25, "k-means restarts")
	flag.Parse()
	return cfg
}

func run(cfg config) error {
	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	// Stage 1: load.
	ds, err := dataset.Load(cfg.dataPath)
	if err != nil {
		return errors.Wrap(err, "load stage")
	}
	slog.Info("dataset loaded",
		mllog.StageKey, "load",
		mllog.SamplesKey, ds.Len(),
		mllog.FeaturesKey, ds.NumFeatures(),
		"class_balance", ds.ClassBalance(),
	)

	X, y := ds.Matrix(), ds.Labels()

	// Stage 2: split, then scale. The scaler sees only the training
	// partition, so no test statistic leaks into training.
	splitter := preprocessing.NewStratifiedSplitter(0.7, cfg.seed)
	train, test, err := splitter.Split(X, y)
	if err != nil {
		return errors.Wrap(err, "split stage")
	}

	scaler := preprocessing.NewStandardScaler(
		preprocessing.WithColumns(dataset.ContinuousColumnIndices()),
	)
	trainX, err := scaler.FitTransform(train.X)
	if err != nil {
		return errors.Wrap(err, "scaling stage: train")
	}
	testX, err := scaler.Transform(test.X)
	if err != nil {
		return errors.Wrap(err, "scaling stage: test")
	}
	slog.Info("partitions prepared",
		mllog.StageKey, "preprocess",
		"train_samples", train.Len(),
		"test_samples", test.Len(),
		mllog.SeedKey, cfg.seed,
	)

	// Stage 3: train all families.
	kfold := evaluation.NewStratifiedKFold(cfg.folds, cfg.repeats, cfg.seed)
	grids := evaluation.FamilyGrids(kfold, cfg.seed)
	models, err := evaluation.TrainAll(grids, trainX, train.Y)
	if err != nil {
		return errors.Wrap(err, "training stage")
	}

	// Stage 4: evaluate on the held-out partition.
	evalRun := evaluation.NewEvaluationRun()
	for _, tm := range models {
		rep, err := evaluation.Evaluate(tm, testX, test.Y)
		if err != nil {
			return errors.Wrapf(err, "evaluation stage: %s", tm.Family)
		}
		slog.Info("family evaluated",
			mllog.StageKey, "evaluate",
			mllog.FamilyKey, rep.Family,
			mllog.AccuracyKey, rep.Accuracy,
			mllog.AUCKey, rep.ROCAUC,
		)
		evalRun.Add(tm, rep)
	}

	// Stage 5: unsupervised structure. PCA and k-means never see the
	// label, so they run on the full standardized matrix.
	fullScaler := preprocessing.NewStandardScaler(
		preprocessing.WithColumns(dataset.ContinuousColumnIndices()),
	)
	fullX, err := fullScaler.FitTransform(X)
	if err != nil {
		return errors.Wrap(err, "unsupervised stage: scaling")
	}

	pca := decomposition.NewPCA()
	scores, err := pca.FitTransform(fullX)
	if err != nil {
		return errors.Wrap(err, "unsupervised stage: pca")
	}
	ratios := pca.ExplainedVarianceRatio()
	slog.Info("pca fitted",
		mllog.StageKey, "unsupervised",
		mllog.OperationKey, "pca",
		"pc1_ratio", ratios[0],
		"pc2_ratio", ratios[1],
	)

	start := time.Now()
	km := cluster.NewKMeans(
		cluster.WithKMeansClusters(2),
		cluster.WithKMeansRestarts(cfg.restarts),
		cluster.WithKMeansSeed(cfg.seed),
	)
	if err := km.Fit(fullX); err != nil {
		return errors.Wrap(err, "unsupervised stage: kmeans")
	}
	crossTab, err := cluster.NewCrossTab(km.Labels(), y)
	if err != nil {
		return errors.Wrap(err, "unsupervised stage: crosstab")
	}
	slog.Info("kmeans fitted",
		mllog.StageKey, "unsupervised",
		mllog.OperationKey, "kmeans",
		"inertia", km.Inertia(),
		"purity", crossTab.Purity(),
		mllog.DurationMsKey, time.Since(start).Milliseconds(),
	)

	// Stage 6: render everything.
	if err := writeReports(cfg.outDir, evalRun, ratios, scores, km, crossTab); err != nil {
		return errors.Wrap(err, "report stage")
	}

	best := evalRun.BestByROCAUC()
	slog.Info("analysis complete",
		mllog.StageKey, "report",
		"best_family", best.Family,
		mllog.AUCKey, best.ROCAUC,
		"output_dir", cfg.outDir,
	)
	return nil
}

func writeReports(outDir string, run *evaluation.EvaluationRun, ratios []float64,
	scores *mat.Dense, km *cluster.KMeans, crossTab *cluster.CrossTab,
) error {
	reports := run.Reports()
	models := run.Models()

	if err := report.ROCOverlay(reports, filepath.Join(outDir, "roc_curves.png")); err != nil {
		return err
	}
	if err := report.PROverlay(reports, filepath.Join(outDir, "pr_curves.png")); err != nil {
		return err
	}
	if err := report.ScreePlot(ratios, filepath.Join(outDir, "pca_scree.png")); err != nil {
		return err
	}
	if err := report.ClusterScatter(scores, km.Labels(), filepath.Join(outDir, "kmeans_pc12.png")); err != nil {
		return err
	}

	return report.SaveText(filepath.Join(outDir, "summary.txt"), func(w io.Writer) error {
		if err := report.WriteComparisonTable(w, models, reports); err != nil {
			return err
		}
		fmt.Fprintln(w)
		report.WriteConfusionMatrices(w, reports)
		if rf := findForestImportances(models); rf != nil {
			if err := report.WriteImportances(w, dataset.FeatureColumns, rf); err != nil {
				return err
			}
			fmt.Fprintln(w)
		}
		report.WriteVarianceTable(w, ratios)
		fmt.Fprintln(w)
		report.WriteCrossTab(w, crossTab)
		return nil
	})
}

func findForestImportances(models []*evaluation.TrainedModel) []float64 {
	for _, tm := range models {
		if imp, ok := tm.Model.(interface{ Importances() []float64 }); ok && tm.Family == "rf" {
			return imp.Importances()
		}
	}
	return nil
}
