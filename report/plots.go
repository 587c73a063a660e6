// Package report renders the analysis outputs: ROC and PR overlays across
// the classifier families, the PCA scree plot, the PC1/PC2 cluster
// scatter, and a plain-text comparison table.
package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/iman-ch/heart-failure-risk-prediction/evaluation"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// palette cycles per family so overlays stay readable.
var palette = []color.RGBA{
	{R: 0xd6, G: 0x2b, B: 0x28, A: 0xff},
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
}

// ROCOverlay draws every family's test-partition ROC curve plus the
// chance diagonal into a single PNG.
func ROCOverlay(reports []*evaluation.MetricReport, path string) error {
	p := plot.New()
	p.Title.Text = "ROC curves (test partition)"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	diag := plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}
	chance, err := plotter.NewLine(diag)
	if err != nil {
		return errors.Wrap(err, "ROCOverlay: chance line")
	}
	chance.LineStyle.Color = color.Gray{Y: 0xa0}
	chance.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(chance)

	for i, rep := range reports {
		pts := make(plotter.XYs, len(rep.ROC))
		for j, pt := range rep.ROC {
			pts[j] = plotter.XY{X: pt.FPR, Y: pt.TPR}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "ROCOverlay: %s", rep.Family)
		}
		line.LineStyle.Color = palette[i%len(palette)]
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s (AUC %.3f)", rep.Family, rep.ROCAUC), line)
	}
	p.Legend.Top = false
	p.Legend.Left = false

	return savePlot(p, path)
}

// PROverlay draws every family's precision-recall curve into one PNG.
func PROverlay(reports []*evaluation.MetricReport, path string) error {
	p := plot.New()
	p.Title.Text = "Precision-recall curves (test partition)"
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	for i, rep := range reports {
		pts := make(plotter.XYs, len(rep.PR))
		for j, pt := range rep.PR {
			pts[j] = plotter.XY{X: pt.Recall, Y: pt.Precision}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "PROverlay: %s", rep.Family)
		}
		line.LineStyle.Color = palette[i%len(palette)]
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s (AUC %.3f)", rep.Family, rep.PRAUC), line)
	}
	p.Legend.Top = false
	p.Legend.Left = true

	return savePlot(p, path)
}

// ScreePlot draws the explained-variance ratio of each principal
// component as a bar chart.
func ScreePlot(ratios []float64, path string) error {
	p := plot.New()
	p.Title.Text = "PCA scree plot"
	p.X.Label.Text = "Component"
	p.Y.Label.Text = "Explained variance ratio"

	values := make(plotter.Values, len(ratios))
	labels := make([]string, len(ratios))
	for i, r := range ratios {
		values[i] = r
		labels[i] = fmt.Sprintf("PC%d", i+1)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "ScreePlot")
	}
	bars.Color = palette[1]
	p.Add(bars)
	p.NominalX(labels...)

	return savePlot(p, path)
}

// ClusterScatter projects each patient onto the first two principal
// components, colored by k-means cluster, with crosses where the cluster
// means land in the same projection.
func ClusterScatter(scores *mat.Dense, clusterLabels []int, path string) error {
	n, c := scores.Dims()
	if c < 2 {
		return errors.NewValueError("ClusterScatter", "need at least two components")
	}
	if n != len(clusterLabels) {
		return errors.NewDimensionError("ClusterScatter", n, len(clusterLabels), 0)
	}

	p := plot.New()
	p.Title.Text = "K-means clusters in PC1/PC2"
	p.X.Label.Text = "PC1"
	p.Y.Label.Text = "PC2"

	byCluster := make(map[int]plotter.XYs)
	for i := 0; i < n; i++ {
		cl := clusterLabels[i]
		byCluster[cl] = append(byCluster[cl], plotter.XY{X: scores.At(i, 0), Y: scores.At(i, 1)})
	}

	for cl := 0; cl < len(byCluster); cl++ {
		pts, ok := byCluster[cl]
		if !ok {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrapf(err, "ClusterScatter: cluster %d", cl)
		}
		s.GlyphStyle.Color = palette[cl%len(palette)]
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("cluster %d", cl), s)

		var mx, my float64
		for _, pt := range pts {
			mx += pt.X
			my += pt.Y
		}
		center := plotter.XYs{{X: mx / float64(len(pts)), Y: my / float64(len(pts))}}
		cross, err := plotter.NewScatter(center)
		if err != nil {
			return errors.Wrapf(err, "ClusterScatter: center %d", cl)
		}
		cross.GlyphStyle.Shape = draw.CrossGlyph{}
		cross.GlyphStyle.Color = color.Black
		cross.GlyphStyle.Radius = vg.Points(5)
		p.Add(cross)
	}

	return savePlot(p, path)
}

func savePlot(p *plot.Plot, path string) error {
	if err := p.Save(6*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving %s", filepath.Base(path))
	}
	return nil
}
