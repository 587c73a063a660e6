// Package dataset loads and validates the heart-failure clinical records
// CSV. The file carries 12 numeric/binary clinical features plus the
// DEATH_EVENT label; the loader rejects schema deviations and missing
// values outright rather than imputing.
package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// LabelColumn is the name of the outcome column.
const LabelColumn = "DEATH_EVENT"

// FeatureColumns is the exact feature schema of the dataset source, in
// canonical order. Load accepts any column order in the file but always
// stores features in this order.
var FeatureColumns = []string{
	"age",
	"anaemia",
	"creatinine_phosphokinase",
	"diabetes",
	"ejection_fraction",
	"high_blood_pressure",
	"platelets",
	"serum_creatinine",
	"serum_sodium",
	"sex",
	"smoking",
	"time",
}

// binaryColumns is the fixed allow-list of 0/1 indicator features. Every
// other feature column is treated as continuous.
var binaryColumns = map[string]bool{
	"anaemia":             true,
	"diabetes":            true,
	"high_blood_pressure": true,
	"sex":                 true,
	"smoking":             true,
}

// Record is a single patient: feature values in FeatureColumns order plus
// the binary outcome. Records are immutable once loaded.
type Record struct {
	Features   []float64
	DeathEvent int
}

// Dataset is an ordered, fully validated collection of records.
type Dataset struct {
	records []Record
}

// Load reads and validates the CSV at path. It fails on a missing file, a
// column set that differs from the fixed schema, an unparsable cell, or a
// missing value; no stage runs on partially valid data.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: cannot open %s", path)
	}
	defer func() { _ = f.Close() }()

	return Read(f)
}

// Read parses and validates CSV content from r.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: cannot read header")
	}
	colIndex, err := validateHeader(header)
	if err != nil {
		return nil, err
	}
	labelIdx := colIndex[LabelColumn]

	var records []Record
	row := 0
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: row %d", row+1)
		}
		row++

		rec := Record{Features: make([]float64, len(FeatureColumns))}
		for j, name := range FeatureColumns {
			v, err := parseCell(fields[colIndex[name]], name, row)
			if err != nil {
				return nil, err
			}
			if binaryColumns[name] && v != 0 && v != 1 {
				return nil, errors.NewValidationError(name,
					"indicator must be 0 or 1 at row "+strconv.Itoa(row), v)
			}
			rec.Features[j] = v
		}

		label, err := parseCell(fields[labelIdx], LabelColumn, row)
		if err != nil {
			return nil, err
		}
		if label != 0 && label != 1 {
			return nil, errors.NewValidationError(LabelColumn,
				"label must be 0 or 1", label)
		}
		rec.DeathEvent = int(label)
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset: no data rows")
	}
	return &Dataset{records: records}, nil
}

func validateHeader(header []string) (map[string]int, error) {
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := colIndex[name]; dup {
			return nil, errors.NewValidationError(name, "duplicate column", name)
		}
		colIndex[name] = i
	}

	want := append(append([]string{}, FeatureColumns...), LabelColumn)
	for _, name := range want {
		if _, ok := colIndex[name]; !ok {
			return nil, errors.NewValidationError(name, "required column missing", nil)
		}
	}
	if len(colIndex) != len(want) {
		return nil, errors.NewValidationError("header",
			"unexpected extra columns", len(colIndex)-len(want))
	}
	return colIndex, nil
}

func parseCell(raw, column string, row int) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.NewValidationError(column,
			"missing value at row "+strconv.Itoa(row), raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.NewValidationError(column,
			"unparsable value at row "+strconv.Itoa(row), raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewValidationError(column,
			"non-finite value at row "+strconv.Itoa(row), raw)
	}
	return v, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int { return len(FeatureColumns) }

// Record returns the record at index i.
func (d *Dataset) Record(i int) Record { return d.records[i] }

// Matrix returns the feature matrix (rows × FeatureColumns order).
func (d *Dataset) Matrix() *mat.Dense {
	n := len(d.records)
	p := len(FeatureColumns)
	m := mat.NewDense(n, p, nil)
	for i, rec := range d.records {
		m.SetRow(i, rec.Features)
	}
	return m
}

// Labels returns the DEATH_EVENT vector.
func (d *Dataset) Labels() []int {
	y := make([]int, len(d.records))
	for i, rec := range d.records {
		y[i] = rec.DeathEvent
	}
	return y
}

// BinaryColumnIndices returns the indices (into FeatureColumns) of the
// binary indicator features.
func BinaryColumnIndices() []int {
	var idx []int
	for j, name := range FeatureColumns {
		if binaryColumns[name] {
			idx = append(idx, j)
		}
	}
	return idx
}

// ContinuousColumnIndices returns the indices of the continuous features:
// every non-label column not on the binary allow-list.
func ContinuousColumnIndices() []int {
	var idx []int
	for j, name := range FeatureColumns {
		if !binaryColumns[name] {
			idx = append(idx, j)
		}
	}
	return idx
}

// IsBinaryColumn reports whether the named feature is on the binary
// allow-list.
func IsBinaryColumn(name string) bool { return binaryColumns[name] }

// ClassBalance returns the proportion of each label value, keyed by label.
func (d *Dataset) ClassBalance() map[int]float64 {
	counts := map[int]int{}
	for _, rec := range d.records {
		counts[rec.DeathEvent]++
	}
	out := make(map[int]float64, len(counts))
	for label, c := range counts {
		out[label] = float64(c) / float64(len(d.records))
	}
	return out
}
