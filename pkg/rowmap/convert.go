package rowmap

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Converter turns a non-null engine value into a field value.
type Converter[V any] func(v any) (V, error)

// isNull reports whether an engine value is SQL NULL. Drivers report NULL
// as nil; valuers such as sql.NullString report it through Value.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	if valuer, ok := v.(driver.Valuer); ok {
		inner, err := valuer.Value()
		return err == nil && inner == nil
	}
	return false
}

// unwrap resolves driver.Valuer and byte slices to plain values.
func unwrap(v any) any {
	if valuer, ok := v.(driver.Valuer); ok {
		if inner, err := valuer.Value(); err == nil {
			v = inner
		}
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Int converts integer columns. Oracle NUMBER values may arrive as int64,
// float64, string or a driver-specific numeric type with a String method;
// non-integral values are rejected.
func Int(v any) (int64, error) {
	switch n := unwrap(v).(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case string:
		return parseInt(n)
	case fmt.Stringer:
		return parseInt(n.String())
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", v)
	}
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("value %v is out of integer range", f)
	}
	return int64(f), nil
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as integer", s)
	}
	return floatToInt(f)
}

// Float converts quantity and amount columns.
func Float(v any) (float64, error) {
	switch n := unwrap(v).(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case string:
		return parseFloat(n)
	case fmt.Stringer:
		return parseFloat(n.String())
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as float", s)
	}
	return f, nil
}

// Text converts character columns. Numbers are formatted in their
// shortest form, since several ERP code columns are numeric in some
// views and text in others.
func Text(v any) (string, error) {
	switch s := unwrap(v).(type) {
	case string:
		return s, nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case int:
		return strconv.Itoa(s), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case time.Time:
		return s.Format(time.RFC3339), nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return "", fmt.Errorf("cannot convert %T to text", v)
	}
}

// Timestamp layouts accepted from text columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time converts DATE and TIMESTAMP columns.
func Time(v any) (time.Time, error) {
	switch t := unwrap(v).(type) {
	case time.Time:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as timestamp", s)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to timestamp", v)
	}
}
