package analysis

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// HistogramPNG renders the distribution of a numeric column. Missing
// values are excluded.
func HistogramPNG(df dataframe.DataFrame, column string, bins int, path string) error {
	if bins < 1 {
		return errors.NewValidationError("bins", "must be at least 1", bins)
	}
	values, _, err := numericColumn(df, column)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = column
	p.X.Label.Text = column
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return errors.Wrap(err, "failed to build histogram")
	}
	p.Add(h)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "failed to save histogram PNG")
	}
	return nil
}

// BarPNG renders category counts as a bar chart, categories sorted by name
// for a stable layout.
func BarPNG(counts map[string]int, title, path string) error {
	if len(counts) == 0 {
		return errors.NewModelError("analysis.BarPNG", "no categories", errors.ErrEmptyData)
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	values := make(plotter.Values, len(labels))
	for i, label := range labels {
		values[i] = float64(counts[label])
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "count"

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return errors.Wrap(err, "failed to build bar chart")
	}
	p.Add(bars)
	p.NominalX(labels...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "failed to save bar chart PNG")
	}
	return nil
}

// corrGrid adapts a Correlation to the plotter.GridXYZ interface.
type corrGrid struct {
	corr *Correlation
}

func (g corrGrid) Dims() (c, r int) { return g.corr.Dim(), g.corr.Dim() }
func (g corrGrid) X(c int) float64  { return float64(c) }
func (g corrGrid) Y(r int) float64  { return float64(r) }

func (g corrGrid) Z(c, r int) float64 {
	v := g.corr.At(r, c)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// CorrelationHeatmapPNG renders the correlation matrix as a heatmap. NaN
// entries (zero-variance columns) are drawn as 0.
func CorrelationHeatmapPNG(corr *Correlation, path string) error {
	if corr == nil || corr.Dim() == 0 {
		return errors.NewModelError("analysis.CorrelationHeatmapPNG",
			"empty correlation matrix", errors.ErrEmptyData)
	}

	p := plot.New()
	p.Title.Text = "Correlation"

	hm := plotter.NewHeatMap(corrGrid{corr: corr}, palette.Heat(12, 1))
	p.Add(hm)
	p.NominalX(corr.Columns...)
	p.NominalY(corr.Columns...)

	if err := p.Save(7*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrap(err, "failed to save heatmap PNG")
	}
	return nil
}
