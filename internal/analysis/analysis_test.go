package analysis

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/launchlens/internal/domain/model"
	"github.com/target/launchlens/internal/testutil"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func requirePNG(t *testing.T, out []byte) {
	t.Helper()
	require.NotEmpty(t, out)
	require.True(t, bytes.HasPrefix(out, pngMagic), "output is not a PNG")
}

func TestRegistry_RunsEveryBuiltInAnalysis(t *testing.T) {
	reg := NewRegistry()
	records := testutil.CrossoverRecords()

	for _, jt := range model.JobTypes() {
		t.Run(string(jt), func(t *testing.T) {
			require.True(t, reg.Supports(jt))
			out, err := reg.Run(jt, records)
			require.NoError(t, err)
			requirePNG(t, out)
		})
	}
}

func TestRegistry_Types(t *testing.T) {
	assert.ElementsMatch(t, model.JobTypes(), NewRegistry().Types())
}

func TestRegistry_UnsupportedType(t *testing.T) {
	_, err := NewRegistry().Run(model.JobType("orbit"), testutil.CrossoverRecords())
	require.ErrorIs(t, err, ErrUnsupportedJobType)
}

func TestRegistry_RecoversPanic(t *testing.T) {
	reg := NewRegistryFrom(map[model.JobType]Func{
		model.JobTypeSector: func([]model.Record) ([]byte, error) { panic("boom") },
	})

	out, err := reg.Run(model.JobTypeSector, testutil.CrossoverRecords())
	require.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "boom")
	assert.Nil(t, out)
}

func TestAnalyses_Deterministic(t *testing.T) {
	reg := NewRegistry()
	records := testutil.CrossoverRecords()

	for _, jt := range model.JobTypes() {
		first, err := reg.Run(jt, records)
		require.NoError(t, err)
		second, err := reg.Run(jt, records)
		require.NoError(t, err)
		assert.Equal(t, first, second, "%s output differs between runs", jt)
	}
}

func TestAnalyses_DoNotMutateInput(t *testing.T) {
	records := testutil.CrossoverRecords()
	before := make([]model.Record, len(records))
	for i, r := range records {
		before[i] = r.Clone()
	}

	for _, jt := range model.JobTypes() {
		_, err := NewRegistry().Run(jt, records)
		require.NoError(t, err)
	}
	assert.Equal(t, before, records)
}

func TestAnalyses_EmptyInputFails(t *testing.T) {
	for _, jt := range model.JobTypes() {
		_, err := NewRegistry().Run(jt, nil)
		require.Error(t, err, jt)
	}
}

func TestBuildTimeline(t *testing.T) {
	series, err := BuildTimeline(testutil.CrossoverRecords())
	require.NoError(t, err)

	assert.Equal(t, []int{2000, 2001}, series.Years)
	assert.Equal(t, []int{2, 1}, series.State)
	assert.Equal(t, []int{1, 3}, series.Private)

	year, ok := series.Crossover()
	require.True(t, ok)
	assert.Equal(t, 2001, year)
}

func TestBuildTimeline_NoCrossover(t *testing.T) {
	tests := []struct {
		name    string
		records []model.Record
	}{
		{name: "state led", records: testutil.StateLedRecords()},
		{
			name: "abbreviated sectors tie",
			records: []model.Record{
				{"Year": float64(2019), "Sector": "S"},
				{"Year": float64(2020), "Sector": "P"},
				{"Year": float64(2020), "Sector": "S"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := BuildTimeline(tt.records)
			require.NoError(t, err)
			_, ok := series.Crossover()
			assert.False(t, ok)

			out, err := Timeline(tt.records)
			require.NoError(t, err)
			requirePNG(t, out)
		})
	}
}

func TestBuildTimeline_ReadsRawSectorColumn(t *testing.T) {
	series, err := BuildTimeline([]model.Record{
		{"Year": "2021", "Private or State Run": "P"},
		{"Year": "2021", "Private or State Run": "P"},
		{"Year": "2021", "Private or State Run": "S"},
	})
	require.NoError(t, err)

	year, ok := series.Crossover()
	require.True(t, ok)
	assert.Equal(t, 2021, year)
}

func TestBuildTimeline_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records []model.Record
		want    error
	}{
		{name: "no records", want: ErrNoValues},
		{name: "non-numeric year", records: []model.Record{{"Year": "soon", "Sector": "P"}}, want: ErrInvalidField},
		{name: "missing year", records: []model.Record{{"Sector": "P"}}, want: ErrInvalidField},
		{name: "missing sector", records: []model.Record{{"Year": float64(2000)}}, want: ErrMissingField},
		{name: "unrecognised sectors only", records: []model.Record{{"Year": float64(2000), "Sector": "Mixed"}}, want: ErrNoValues},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTimeline(tt.records)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSectorCounts(t *testing.T) {
	counts, err := SectorCounts(testutil.CrossoverRecords())
	require.NoError(t, err)
	assert.Equal(t, []Count{{Name: SectorPrivate, N: 4}, {Name: SectorState, N: 3}}, counts)

	_, err = SectorCounts(nil)
	require.ErrorIs(t, err, ErrNoValues)
}

func TestCountryCounts_OrdersByCountThenName(t *testing.T) {
	counts, err := CountryCounts(testutil.CrossoverRecords())
	require.NoError(t, err)
	assert.Equal(t, []Count{
		{Name: "USA", N: 4},
		{Name: "China", N: 1},
		{Name: "New Zealand", N: 1},
		{Name: "Russia", N: 1},
	}, counts)
}

func TestGeography_SingleCountry(t *testing.T) {
	out, err := Geography([]model.Record{testutil.LaunchRecord(2000, "State", "USA", "NASA")})
	require.NoError(t, err)
	requirePNG(t, out)
}

func TestTopPrivateCompanies(t *testing.T) {
	records := testutil.CrossoverRecords()
	for i := 0; i < 12; i++ {
		records = append(records, testutil.LaunchRecord(2002, "P", "USA", string(rune('A'+i))+" Launch Co"))
	}

	top, err := TopPrivateCompanies(records, TopPrivateLimit)
	require.NoError(t, err)
	require.Len(t, top, TopPrivateLimit)
	assert.Equal(t, Count{Name: "Rocket Lab", N: 2}, top[0])
	assert.Equal(t, Count{Name: "SpaceX", N: 2}, top[1])
	assert.Equal(t, "A Launch Co", top[2].Name)

	_, err = TopPrivateCompanies(testutil.StateLedRecords()[:2], TopPrivateLimit)
	require.ErrorIs(t, err, ErrNoValues)
}

func TestHeatIndex(t *testing.T) {
	assert.Equal(t, 0, heatIndex(0, 10, 16))
	assert.Equal(t, 15, heatIndex(10, 10, 16))
	assert.Equal(t, 7, heatIndex(5, 10, 16))
	assert.Equal(t, 0, heatIndex(3, 0, 16))
}
