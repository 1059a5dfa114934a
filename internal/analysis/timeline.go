package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/target/launchlens/internal/domain/model"
)

// TimelineSeries holds per-year launch counts for both sectors.
type TimelineSeries struct {
	Years   []int
	State   []int
	Private []int
}

// BuildTimeline counts launches per year and sector. Records whose sector is
// not recognised are ignored; a non-integer year fails the whole analysis.
func BuildTimeline(records []model.Record) (TimelineSeries, error) {
	type bucket struct{ state, private int }
	byYear := make(map[int]*bucket)

	for i, rec := range records {
		sector, present, ok := sectorOf(rec)
		if !present {
			return TimelineSeries{}, fmt.Errorf("%w: record %d has no %q or %q", ErrMissingField, i, FieldSector, FieldSectorRaw)
		}
		year, err := rec.Int(FieldYear)
		if err != nil {
			return TimelineSeries{}, fmt.Errorf("%w: record %d: %v", ErrInvalidField, i, err)
		}
		if !ok {
			continue
		}
		b := byYear[year]
		if b == nil {
			b = &bucket{}
			byYear[year] = b
		}
		if sector == SectorPrivate {
			b.private++
		} else {
			b.state++
		}
	}
	if len(byYear) == 0 {
		return TimelineSeries{}, fmt.Errorf("%w: no record has a recognised sector", ErrNoValues)
	}

	var s TimelineSeries
	for year := range byYear {
		s.Years = append(s.Years, year)
	}
	sort.Ints(s.Years)
	for _, year := range s.Years {
		s.State = append(s.State, byYear[year].state)
		s.Private = append(s.Private, byYear[year].private)
	}
	return s, nil
}

// Crossover returns the first year in which private launches exceed state launches.
func (s TimelineSeries) Crossover() (year int, ok bool) {
	for i, y := range s.Years {
		if s.Private[i] > s.State[i] {
			return y, true
		}
	}
	return 0, false
}

// Timeline plots state and private launches per year and marks the first crossover year.
func Timeline(records []model.Record) ([]byte, error) {
	series, err := BuildTimeline(records)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = "State vs Private Launches Over Time"
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Number of Launches"
	p.X.Tick.Marker = plot.TickerFunc(yearTicks)
	p.Y.Min = 0

	stateXY := make(plotter.XYs, len(series.Years))
	privateXY := make(plotter.XYs, len(series.Years))
	for i, y := range series.Years {
		stateXY[i] = plotter.XY{X: float64(y), Y: float64(series.State[i])}
		privateXY[i] = plotter.XY{X: float64(y), Y: float64(series.Private[i])}
	}

	stateLine, err := plotter.NewLine(stateXY)
	if err != nil {
		return nil, fmt.Errorf("state line: %w", err)
	}
	stateLine.Color = stateColor
	stateLine.Width = vg.Points(1.5)

	privateLine, err := plotter.NewLine(privateXY)
	if err != nil {
		return nil, fmt.Errorf("private line: %w", err)
	}
	privateLine.Color = privateColor
	privateLine.Width = vg.Points(1.5)

	p.Add(plotter.NewGrid(), stateLine, privateLine)
	p.Legend.Add(SectorState, stateLine)
	p.Legend.Add(SectorPrivate, privateLine)
	p.Legend.Top = true

	if year, ok := series.Crossover(); ok {
		idx := sort.SearchInts(series.Years, year)
		labels, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{{X: float64(year), Y: float64(series.Private[idx])}},
			Labels: []string{fmt.Sprintf("Crossover: %d", year)},
		})
		if err != nil {
			return nil, fmt.Errorf("crossover label: %w", err)
		}
		labels.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(6)}
		p.Add(labels)
	}

	return render(p, 8*vg.Inch, 5*vg.Inch)
}

// yearTicks keeps only whole-number tick labels so years never print as decimals.
func yearTicks(lo, hi float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(lo, hi)
	for i := range ticks {
		v := ticks[i].Value
		if ticks[i].Label == "" || v != math.Trunc(v) {
			ticks[i].Label = ""
			continue
		}
		ticks[i].Label = strconv.Itoa(int(v))
	}
	return ticks
}
