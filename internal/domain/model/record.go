package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RecordIDField is the field holding a record's system-assigned id.
const RecordIDField = "id"

// Record is one ingested launch row: named fields plus an "id".
type Record map[string]any

// ID returns the record id, or "" when unset.
func (r Record) ID() string {
	id, _ := r[RecordIDField].(string)
	return id
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the trimmed textual form of field. ok is false when the field
// is absent, null or blank.
func (r Record) String(field string) (string, bool) {
	v, present := r[field]
	if !present || v == nil {
		return "", false
	}
	var s string
	switch tv := v.(type) {
	case string:
		s = tv
	case float64:
		s = strconv.FormatFloat(tv, 'f', -1, 64)
	case json.Number:
		s = tv.String()
	default:
		s = fmt.Sprint(tv)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Int reads field as an integer. Whole floats and numeric strings are accepted.
func (r Record) Int(field string) (int, error) {
	v, present := r[field]
	if !present || v == nil {
		return 0, fmt.Errorf("field %q is missing", field)
	}
	switch tv := v.(type) {
	case int:
		return tv, nil
	case int64:
		return int(tv), nil
	case float64:
		if math.IsNaN(tv) || tv != math.Trunc(tv) {
			return 0, fmt.Errorf("field %q is not an integer: %v", field, tv)
		}
		return int(tv), nil
	case json.Number:
		return parseIntString(field, tv.String())
	case string:
		return parseIntString(field, tv)
	default:
		return 0, fmt.Errorf("field %q has unsupported type %T", field, v)
	}
}

func parseIntString(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("field %q is not an integer: %q", field, s)
	}
	return int(f), nil
}
