package output

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ImportanceChart renders a bar chart of feature importances to an image
// file, with feature names along the x axis in selection order.
func ImportanceChart(names []string, importance []float64, path string) error {
	if len(names) != len(importance) {
		return errors.Errorf("have %d names for %d importances", len(names), len(importance))
	}
	p, err := plot.New()
	if err != nil {
		return errors.Wrap(err, "could not create chart")
	}
	p.Title.Text = "Feature importance"
	p.Y.Label.Text = "|coefficient|"

	bars, err := plotter.NewBarChart(plotter.Values(importance), vg.Points(8))
	if err != nil {
		return errors.Wrap(err, "could not build bar chart")
	}
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = -1
	p.X.Tick.Label.YAlign = -0.5

	width := vg.Points(float64(len(names)) * 12)
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "could not save chart to %s", path)
	}
	return nil
}
