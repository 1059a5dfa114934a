package analysis

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	stateColor   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	privateColor = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
)

const pngFormat = "png"

func render(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, pngFormat)
	if err != nil {
		return nil, fmt.Errorf("create png canvas: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// barStyle controls addBars.
type barStyle struct {
	horizontal bool
	color      func(i int, c Count) color.Color
}

// addBars draws one bar per count so each can carry its own colour, labels the
// category axis and annotates each bar with its value.
func addBars(p *plot.Plot, counts []Count, style barStyle) error {
	names := make([]string, len(counts))
	annotations := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(counts)),
		Labels: make([]string, len(counts)),
	}

	for i, c := range counts {
		bar, err := plotter.NewBarChart(plotter.Values{float64(c.N)}, vg.Points(24))
		if err != nil {
			return fmt.Errorf("bar %q: %w", c.Name, err)
		}
		bar.XMin = float64(i)
		bar.Horizontal = style.horizontal
		bar.Color = style.color(i, c)
		bar.LineStyle.Width = 0
		p.Add(bar)

		names[i] = c.Name
		annotations.Labels[i] = fmt.Sprintf("%d", c.N)
		if style.horizontal {
			annotations.XYs[i] = plotter.XY{X: float64(c.N), Y: float64(i)}
		} else {
			annotations.XYs[i] = plotter.XY{X: float64(i), Y: float64(c.N)}
		}
	}

	labels, err := plotter.NewLabels(annotations)
	if err != nil {
		return fmt.Errorf("bar labels: %w", err)
	}
	if style.horizontal {
		labels.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(-4)}
		p.NominalY(names...)
		p.X.Min = 0
	} else {
		labels.Offset = vg.Point{X: vg.Points(-4), Y: vg.Points(3)}
		p.NominalX(names...)
		p.Y.Min = 0
	}
	p.Add(labels)
	return nil
}
