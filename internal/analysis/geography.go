package analysis

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"

	"github.com/target/launchlens/internal/domain/model"
)

const heatLevels = 16

// Geography renders launch counts per country as heat-coloured rows, busiest country on top.
func Geography(records []model.Record) ([]byte, error) {
	counts, err := CountryCounts(records)
	if err != nil {
		return nil, err
	}

	// Nominal axes count upwards, so reverse to put the busiest country first.
	rows := make([]Count, len(counts))
	for i, c := range counts {
		rows[len(counts)-1-i] = c
	}

	heat := palette.Heat(heatLevels, 1).Colors()
	maxN := counts[0].N

	p := plot.New()
	p.Title.Text = "Launches by Country (Heatmap)"
	p.X.Label.Text = "Launch Count"
	p.Y.Label.Text = "Country"

	err = addBars(p, rows, barStyle{horizontal: true, color: func(_ int, c Count) color.Color {
		return heat[heatIndex(c.N, maxN, len(heat))]
	}})
	if err != nil {
		return nil, err
	}

	height := vg.Length(len(rows))*0.35*vg.Inch + 2*vg.Inch
	if height < 6*vg.Inch {
		height = 6 * vg.Inch
	}
	return render(p, 10*vg.Inch, height)
}

// heatIndex maps n in [0, maxN] onto a palette of size levels.
func heatIndex(n, maxN, levels int) int {
	if maxN <= 0 || levels <= 1 {
		return 0
	}
	idx := n * (levels - 1) / maxN
	if idx < 0 {
		return 0
	}
	if idx >= levels {
		return levels - 1
	}
	return idx
}
