// Package analysis turns a snapshot of launch records into PNG charts.
//
// Every analysis is a pure function of its input: it never mutates the
// records and produces identical bytes for identical data.
package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/target/launchlens/internal/domain/model"
)

// Field names read from launch records.
const (
	FieldYear      = "Year"
	FieldSector    = "Sector"
	FieldSectorRaw = "Private or State Run"
	FieldCountry   = "Country of Launch"
	FieldCompany   = "Company Name"
)

// Normalised sector names.
const (
	SectorPrivate = "Private"
	SectorState   = "State"
)

var (
	// ErrUnsupportedJobType is returned for a job type with no bound analysis.
	ErrUnsupportedJobType = errors.New("unsupported job type")
	// ErrMissingField is returned when records lack a field the analysis needs.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidField is returned when a field cannot be interpreted.
	ErrInvalidField = errors.New("invalid field")
	// ErrNoValues is returned when no record contributes to the chart.
	ErrNoValues = errors.New("no values to plot")
	// ErrPanic wraps a panic raised while rendering.
	ErrPanic = errors.New("analysis panicked")
)

// Func renders one chart from a record snapshot.
type Func func(records []model.Record) ([]byte, error)

// Registry binds the closed set of job types to their analyses.
type Registry struct {
	funcs map[model.JobType]Func
}

// NewRegistry returns the registry of built-in analyses.
func NewRegistry() *Registry {
	return &Registry{funcs: map[model.JobType]Func{
		model.JobTypeTimeline:   Timeline,
		model.JobTypeSector:     Sector,
		model.JobTypeGeography:  Geography,
		model.JobTypeTopPrivate: TopPrivate,
	}}
}

// NewRegistryFrom builds a registry with custom bindings.
func NewRegistryFrom(funcs map[model.JobType]Func) *Registry {
	cp := make(map[model.JobType]Func, len(funcs))
	for k, v := range funcs {
		cp[k] = v
	}
	return &Registry{funcs: cp}
}

// Supports reports whether t has a bound analysis.
func (r *Registry) Supports(t model.JobType) bool {
	_, ok := r.funcs[t]
	return ok
}

// Types lists the bound job types in sorted order.
func (r *Registry) Types() []model.JobType {
	out := make([]model.JobType, 0, len(r.funcs))
	for t := range r.funcs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Run dispatches to the analysis bound to t. A panic inside the analysis is
// returned as an error wrapping ErrPanic.
func (r *Registry) Run(t model.JobType, records []model.Record) (out []byte, err error) {
	fn, ok := r.funcs[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedJobType, t)
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()
	return fn(records)
}

// Count is one labelled tally.
type Count struct {
	Name string `json:"name"`
	N    int    `json:"count"`
}

// rank orders tallies by count descending, then name ascending.
func rank(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// normalizeSector maps P/Private and S/State (any case) to the canonical names.
func normalizeSector(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "p", "private":
		return SectorPrivate, true
	case "s", "state":
		return SectorState, true
	}
	return "", false
}

// sectorOf reads the record's sector from Sector, falling back to the raw
// "Private or State Run" column. present is false when neither field exists.
func sectorOf(rec model.Record) (sector string, present, ok bool) {
	for _, field := range []string{FieldSector, FieldSectorRaw} {
		if v, has := rec.String(field); has {
			s, ok := normalizeSector(v)
			return s, true, ok
		}
	}
	return "", false, false
}

// SectorCounts tallies launches per normalised sector.
func SectorCounts(records []model.Record) ([]Count, error) {
	counts := make(map[string]int)
	for i, rec := range records {
		sector, present, ok := sectorOf(rec)
		if !present {
			return nil, fmt.Errorf("%w: record %d has no %q or %q", ErrMissingField, i, FieldSector, FieldSectorRaw)
		}
		if ok {
			counts[sector]++
		}
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no record has a recognised sector", ErrNoValues)
	}
	return rank(counts), nil
}

// CountryCounts tallies launches per launch country. Records without a country are skipped.
func CountryCounts(records []model.Record) ([]Count, error) {
	counts := make(map[string]int)
	for _, rec := range records {
		if country, ok := rec.String(FieldCountry); ok {
			counts[country]++
		}
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no record has %q", ErrNoValues, FieldCountry)
	}
	return rank(counts), nil
}

// TopPrivateCompanies returns the n private companies with the most launches.
func TopPrivateCompanies(records []model.Record, n int) ([]Count, error) {
	counts := make(map[string]int)
	for _, rec := range records {
		sector, _, ok := sectorOf(rec)
		if !ok || sector != SectorPrivate {
			continue
		}
		if company, ok := rec.String(FieldCompany); ok {
			counts[company]++
		}
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no private launches with %q", ErrNoValues, FieldCompany)
	}
	ranked := rank(counts)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}
