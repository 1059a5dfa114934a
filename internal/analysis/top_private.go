package analysis

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/target/launchlens/internal/domain/model"
)

// TopPrivateLimit is how many companies the top-private chart shows.
const TopPrivateLimit = 10

// TopPrivate renders the most active private launch companies as horizontal bars.
func TopPrivate(records []model.Record) ([]byte, error) {
	counts, err := TopPrivateCompanies(records, TopPrivateLimit)
	if err != nil {
		return nil, err
	}

	rows := make([]Count, len(counts))
	for i, c := range counts {
		rows[len(counts)-1-i] = c
	}

	p := plot.New()
	p.Title.Text = "Top Private Launch Companies"
	p.X.Label.Text = "Number of Launches"

	err = addBars(p, rows, barStyle{horizontal: true, color: func(int, Count) color.Color {
		return privateColor
	}})
	if err != nil {
		return nil, err
	}
	return render(p, 8*vg.Inch, 5*vg.Inch)
}
