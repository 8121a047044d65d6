// Package transform converts generic record values into the representations
// the destination platform expects. Transformation is pure: same input, same
// output; the only side effect is diagnostic logging. A failed conversion
// nulls the field or passes the raw value through, it never invents data.
package transform

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/splitleasesharath/splitlease-sub017/internal/mapping"
	"github.com/splitleasesharath/splitlease-sub017/pkg/logger"
)

// Transformer applies the static field classification tables.
type Transformer struct {
	mapper *mapping.Mapper
	logger logger.Interface
}

// New -.
func New(mapper *mapping.Mapper, l logger.Interface) *Transformer {
	return &Transformer{
		mapper: mapper,
		logger: l,
	}
}

// TransformRecord transforms every field of payload for delivery. Field
// names are renamed through fieldMapping (per-table config overrides) or the
// static name mapper; fields listed in excludeFields are skipped for this
// call; security-excluded fields are dropped entirely.
func (t *Transformer) TransformRecord(payload map[string]any, fieldMapping map[string]string, excludeFields []string) map[string]any {
	out := make(map[string]any, len(payload))

	excluded := make(map[string]struct{}, len(excludeFields))
	for _, f := range excludeFields {
		excluded[f] = struct{}{}
	}

	for field, value := range payload {
		if _, skip := excluded[field]; skip {
			continue
		}

		transformed, keep := t.TransformField(field, value)
		if !keep {
			continue
		}

		name, ok := fieldMapping[field]
		if !ok {
			name = t.mapper.DestinationField(field)
		}

		out[name] = transformed
	}

	return out
}

// TransformField converts one value according to the field's classification.
// keep=false means the field must be omitted from the output entirely.
func (t *Transformer) TransformField(field string, value any) (converted any, keep bool) {
	if _, excluded := excludedFields[field]; excluded {
		return nil, false
	}

	// null source values pass through as null, they are not dropped
	if value == nil {
		return nil, true
	}

	switch {
	case member(integerFields, field):
		return t.toInteger(field, value), true
	case member(decimalFields, field):
		return t.toDecimal(field, value), true
	case member(booleanFields, field):
		return toBool(value), true
	case member(structuredFields, field):
		return t.toStructured(field, value), true
	case member(timestampFields, field):
		return toTimestamp(value), true
	case member(dayLabelFields, field):
		return t.toDayLabel(field, value), true
	default:
		return value, true
	}
}

func (t *Transformer) toInteger(field string, value any) any {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return v
	case float64:
		return int64(math.Round(v))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return int64(math.Round(f))
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return int64(math.Round(f))
		}
	}

	t.logger.Warn("transform - field %s: cannot convert %T to integer, using null", field, value)

	return nil
}

func (t *Transformer) toDecimal(field string, value any) any {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}

	t.logger.Warn("transform - field %s: cannot convert %T to decimal, using null", field, value)

	return nil
}

func toBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		return v != ""
	default:
		return true
	}
}

func (t *Transformer) toStructured(field string, value any) any {
	s, isString := value.(string)
	if !isString {
		return value
	}

	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		// unparsable structured data passes through unchanged
		t.logger.Debug("transform - field %s: not valid JSON, passing raw string through", field)

		return s
	}

	return parsed
}

func toTimestamp(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(time.RFC3339)
	default:
		return value
	}
}

func (t *Transformer) toDayLabel(field string, value any) any {
	var idx int

	switch v := value.(type) {
	case string:
		return v
	case int:
		idx = v
	case int64:
		idx = int(v)
	case float64:
		if v != math.Trunc(v) {
			t.logger.Warn("transform - field %s: %v is not a weekday index, leaving as is", field, v)
			return value
		}
		idx = int(v)
	default:
		t.logger.Warn("transform - field %s: cannot convert %T to weekday label, leaving as is", field, value)
		return value
	}

	if idx < 0 || idx >= len(weekdayNames) {
		t.logger.Warn("transform - field %s: weekday index %d out of range, leaving as is", field, idx)
		return value
	}

	return weekdayNames[idx]
}

func member(s map[string]struct{}, field string) bool {
	_, ok := s[field]

	return ok
}
