package reports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Result is a finished report as seen by callers that do not know its
// record type.
type Result interface {
	json.Marshaler
	Count() int
	Echo() map[string]any
}

// Envelope is the response of one report: the records, their count and
// the echoed filters.
type Envelope[T any] struct {
	Data   []T
	Total  int
	Params map[string]any
}

// Count implements Result.
func (e Envelope[T]) Count() int { return e.Total }

// Echo implements Result.
func (e Envelope[T]) Echo() map[string]any { return e.Params }

// MarshalJSON renders {"data": [...], "total": n, <params>...} with the
// params flattened into the top level in name order.
func (e Envelope[T]) MarshalJSON() ([]byte, error) {
	data := e.Data
	if data == nil {
		data = []T{}
	}

	var buf bytes.Buffer
	buf.WriteString(`{"data":`)
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	buf.Write(raw)
	fmt.Fprintf(&buf, `,"total":%d`, e.Total)

	names := make([]string, 0, len(e.Params))
	for name := range e.Params {
		if name == "data" || name == "total" {
			return nil, fmt.Errorf("reports: param %q collides with an envelope key", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		key, _ := json.Marshal(name)
		val, err := json.Marshal(e.Params[name])
		if err != nil {
			return nil, fmt.Errorf("reports: param %s: %w", name, err)
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
