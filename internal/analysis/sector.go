package analysis

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/target/launchlens/internal/domain/model"
)

// Sector renders a bar chart comparing private and state launch counts.
func Sector(records []model.Record) ([]byte, error) {
	counts, err := SectorCounts(records)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = "Launches by Sector"
	p.X.Label.Text = "Sector"
	p.Y.Label.Text = "Number of Launches"

	err = addBars(p, counts, barStyle{color: func(_ int, c Count) color.Color {
		if c.Name == SectorPrivate {
			return privateColor
		}
		return stateColor
	}})
	if err != nil {
		return nil, err
	}
	return render(p, 6*vg.Inch, 4*vg.Inch)
}
