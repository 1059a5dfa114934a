package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Int(t *testing.T) {
	rec := Record{
		"float":   float64(1998),
		"number":  json.Number("2004"),
		"string":  " 2010 ",
		"decimal": "2012.0",
		"frac":    1999.5,
		"text":    "soon",
	}

	for field, want := range map[string]int{"float": 1998, "number": 2004, "string": 2010, "decimal": 2012} {
		got, err := rec.Int(field)
		require.NoError(t, err, field)
		assert.Equal(t, want, got, field)
	}

	for _, field := range []string{"frac", "text", "missing"} {
		_, err := rec.Int(field)
		assert.Error(t, err, field)
	}
}

func TestRecord_String(t *testing.T) {
	rec := Record{"name": " SpaceX ", "blank": "  ", "num": float64(3), "nil": nil}

	s, ok := rec.String("name")
	assert.True(t, ok)
	assert.Equal(t, "SpaceX", s)

	s, ok = rec.String("num")
	assert.True(t, ok)
	assert.Equal(t, "3", s)

	for _, field := range []string{"blank", "nil", "missing"} {
		_, ok := rec.String(field)
		assert.False(t, ok, field)
	}
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	rec := Record{RecordIDField: "a"}
	clone := rec.Clone()
	clone[RecordIDField] = "b"
	assert.Equal(t, "a", rec.ID())
	assert.Equal(t, "b", clone.ID())
}
