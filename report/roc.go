package report

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/evaluation"
	"github.com/YuminosukeSato/bikerental/metrics"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// ROCSeries は1モデル分の ROC 曲線
type ROCSeries struct {
	Name string
	FPR  []float64
	TPR  []float64
}

// ROC は p を test で採点し ROC 曲線を求める
func ROC(name string, p evaluation.Predictor, test *dataset.Dataset) (ROCSeries, error) {
	yTrue, yProb, err := evaluation.Scores(p, test)
	if err != nil {
		return ROCSeries{}, err
	}
	fpr, tpr, err := metrics.ROCCurve(yTrue, yProb)
	if err != nil {
		return ROCSeries{}, err
	}
	return ROCSeries{Name: name, FPR: fpr, TPR: tpr}, nil
}

var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

// SaveROC は曲線を画像として path に保存する。形式は拡張子で決まる（.png、.svg、.pdf など）
func SaveROC(path string, series ...ROCSeries) error {
	if len(series) == 0 {
		return bkerrors.NewValidationError("series", "at least one ROC curve is required", 0)
	}
	p := plot.New()
	p.Title.Text = "ROC curve"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return bkerrors.Wrap(err, "failed to build chance line")
	}
	chance.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	chance.Color = color.Gray{Y: 0x99}
	p.Add(chance)

	for i, s := range series {
		if len(s.FPR) != len(s.TPR) {
			return bkerrors.NewDimensionError("SaveROC", len(s.FPR), len(s.TPR), 0)
		}
		pts := make(plotter.XYs, len(s.FPR))
		for j := range s.FPR {
			pts[j].X = s.FPR[j]
			pts[j].Y = s.TPR[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return bkerrors.Wrapf(err, "failed to build ROC line for %s", s.Name)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}
	p.Legend.Top = false
	p.Legend.Left = false

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return bkerrors.NewIOError("save", path, err)
	}
	return nil
}
