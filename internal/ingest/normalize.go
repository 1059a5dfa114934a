package ingest

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
)

// RocketColumn returns the first header containing "rocket", ignoring case.
func RocketColumn(headers []string) (string, error) {
	for _, h := range headers {
		if strings.Contains(strings.ToLower(h), "rocket") {
			return h, nil
		}
	}
	return "", apperrors.Validationf("no column containing %q found; got %v", "rocket", headers)
}

// ImputeRocketColumn coerces column to integers in place. Values that are not
// numeric are replaced with the truncated median of the valid ones, or 0 when
// there are none. It returns the median used.
func ImputeRocketColumn(records []model.Record, column string) int {
	valid := make([]float64, 0, len(records))
	parsed := make([]*float64, len(records))
	for i, rec := range records {
		if f, ok := numericValue(rec[column]); ok {
			valid = append(valid, f)
			parsed[i] = &f
		}
	}

	median := 0
	if len(valid) > 0 {
		median = int(medianOf(valid))
	}

	for i, rec := range records {
		if parsed[i] != nil {
			rec[column] = float64(int(*parsed[i]))
			continue
		}
		rec[column] = float64(median)
	}
	return median
}

// Headers returns the union of field names across records, sorted, with the
// first record's fields first.
func Headers(records []model.Record) []string {
	seen := make(map[string]bool)
	var out []string
	if len(records) > 0 {
		first := make([]string, 0, len(records[0]))
		for k := range records[0] {
			first = append(first, k)
		}
		sort.Strings(first)
		for _, k := range first {
			seen[k] = true
			out = append(out, k)
		}
	}
	var rest []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// NormalizeLaunches locates the rocket column of ds and imputes it in place.
func NormalizeLaunches(ds *Dataset) (string, error) {
	column, err := RocketColumn(ds.Headers)
	if err != nil {
		return "", err
	}
	ImputeRocketColumn(ds.Records, column)
	return column, nil
}

func numericValue(v any) (float64, bool) {
	var f float64
	switch tv := v.(type) {
	case float64:
		f = tv
	case int:
		f = float64(tv)
	case int64:
		f = float64(tv)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(tv), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
