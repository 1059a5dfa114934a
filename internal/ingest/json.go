package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
)

// ParseJSON decodes a JSON object or array of objects. When selector is set it
// is evaluated as a JMESPath expression against the document first.
func ParseJSON(data []byte, selector string) (*Dataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.Validation("json document is empty")
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "decode json")
	}

	if selector = strings.TrimSpace(selector); selector != "" {
		selected, err := jmespath.Search(selector, doc)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "evaluate selector %q", selector)
		}
		doc = selected
	}

	records, err := recordsFrom(doc)
	if err != nil {
		return nil, err
	}
	return &Dataset{Headers: Headers(records), Records: records}, nil
}

// ValidateSelector reports whether expr compiles as JMESPath.
func ValidateSelector(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeValidation, "invalid selector %q", expr)
	}
	return nil
}

func recordsFrom(doc any) ([]model.Record, error) {
	switch v := doc.(type) {
	case map[string]any:
		return []model.Record{model.Record(v)}, nil
	case []any:
		out := make([]model.Record, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, apperrors.ValidationField(fmt.Sprintf("[%d]", i), fmt.Sprintf("expected object, got %s", kindOf(item)))
			}
			out = append(out, model.Record(obj))
		}
		return out, nil
	default:
		return nil, apperrors.Validationf("expected a json object or array of objects, got %s", kindOf(doc))
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
