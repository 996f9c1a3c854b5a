// Package report は学習結果や推論結果を人間向けに整形する。
//
// 評価や選択のロジックは持たず、渡された値を書き出すだけ。
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/evaluation"
	"github.com/YuminosukeSato/bikerental/pipeline"
)

// Printer は色付きのテキストレポートを w に書く
type Printer struct {
	w      io.Writer
	green  func(a ...interface{}) string
	red    func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
}

// NewPrinter は w に書く Printer を作成する。noColor なら ANSI エスケープを出さない
func NewPrinter(w io.Writer, noColor bool) *Printer {
	mk := func(attr color.Attribute) func(a ...interface{}) string {
		c := color.New(attr)
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		return c.SprintFunc()
	}
	return &Printer{
		w:      w,
		green:  mk(color.FgGreen),
		red:    mk(color.FgRed),
		yellow: mk(color.FgYellow),
		cyan:   mk(color.FgCyan),
	}
}

// Percent は v を小数第2位で四捨五入したパーセント表記にする（0.87654 → "87.65%"）
func Percent(v float64) string {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// Fixed は v を places 桁に四捨五入した文字列にする
func Fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func (p *Printer) header(title string) {
	fmt.Fprintf(p.w, "\n%s\n%s\n", p.cyan(title), strings.Repeat("=", len(title)))
}

// Metrics は1モデルの評価指標を書く
func (p *Printer) Metrics(name string, m evaluation.Metrics) {
	p.header("Metrics: " + name)
	rows := []struct {
		label string
		value string
	}{
		{"Accuracy", Percent(m.Accuracy)},
		{"AUC", Fixed(m.AUC, 4)},
		{"F1 score", Fixed(m.F1, 4)},
		{"Log-loss", Fixed(m.LogLoss, 4)},
		{"Log-loss reduction", Fixed(m.LogLossReduction, 4)},
		{"AUPRC", Fixed(m.AUPRC, 4)},
		{"Brier score", Fixed(m.Brier, 4)},
		{"Positive precision", Percent(m.Precision)},
		{"Positive recall", Percent(m.Recall)},
		{"Negative precision", Percent(m.NegativePrecision)},
		{"Negative recall", Percent(m.NegativeRecall)},
	}
	for _, r := range rows {
		fmt.Fprintf(p.w, "  %-20s %s\n", r.label, r.value)
	}
	c := m.Confusion
	fmt.Fprintf(p.w, "  %-20s TP=%d FP=%d TN=%d FN=%d (n=%d)\n", "Confusion matrix", c.TP, c.FP, c.TN, c.FN, m.Samples)
}

// Selection は候補の順位、失敗した候補、選ばれたモデルを書く
func (p *Printer) Selection(sel pipeline.Selection) {
	p.header("Model comparison")
	fmt.Fprintf(p.w, "  %-4s %-32s %9s %8s %8s %9s\n", "#", "Trainer", "Accuracy", "AUC", "F1", "Log-loss")
	for i, r := range sel.Ranking {
		name := r.Name
		if name == sel.Name {
			name = p.green(fmt.Sprintf("%-32s", name))
		} else {
			name = fmt.Sprintf("%-32s", name)
		}
		fmt.Fprintf(p.w, "  %-4d %s %9s %8s %8s %9s\n", i+1, name,
			Percent(r.Metrics.Accuracy), Fixed(r.Metrics.AUC, 4), Fixed(r.Metrics.F1, 4), Fixed(r.Metrics.LogLoss, 4))
	}
	for _, f := range sel.Failures {
		fmt.Fprintf(p.w, "  %s %s: %v\n", p.red("✗"), f.Name, f.Err)
	}
	if sel.Model != nil {
		fmt.Fprintf(p.w, "%s Selected %s (AUC %s)\n", p.green("✓"), sel.Name, Fixed(sel.Metrics.AUC, 4))
	}
}

// Params はハイパーパラメータをキー順に書く
func (p *Printer) Params(params map[string]interface{}) {
	if len(params) == 0 {
		return
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	p.header("Hyperparameters")
	for _, k := range keys {
		fmt.Fprintf(p.w, "  %-24s %v\n", k, params[k])
	}
}

// Prediction は1件の入力と推論結果を書く
func (p *Printer) Prediction(r dataset.RawRecord, res pipeline.PredictionResult) {
	label := p.yellow("short-term")
	if res.PredictedLabel {
		label = p.green("long-term")
	}
	fmt.Fprintf(p.w, "  season=%d month=%d hour=%d weekday=%d weather=%d temp=%s → %s (p=%s)\n",
		r.Season, r.Month, r.Hour, r.Weekday, r.WeatherCondition, Fixed(r.Temperature, 1),
		label, Percent(res.Probability))
}

// Saved は保存先を書く
func (p *Printer) Saved(path string) {
	fmt.Fprintf(p.w, "%s Model saved to %s\n", p.green("✓"), path)
}

// Error は失敗を1行で書く
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.w, "%s Error: %v\n", p.red("✗"), err)
}
