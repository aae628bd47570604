package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Series is one labelled line of per-episode values.
type Series struct {
	Label  string
	Values []float64
}

// Returns plots episode returns for one or more runs. The image format is
// taken from the extension of path (.png, .svg, .pdf).
func Returns(path string, series []Series) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to plot")
	}

	p := plot.New()
	p.Title.Text = "Episode returns"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Return"
	p.Add(plotter.NewGrid())

	drawn := 0
	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		line, err := plotter.NewLine(points(s.Values))
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Label, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Label, line)
		drawn++
	}
	if drawn == 0 {
		return fmt.Errorf("all series are empty")
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// MovingAverage smooths values over a trailing window.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 {
		return append([]float64(nil), values...)
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

func points(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}
	return pts
}
