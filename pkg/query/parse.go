package query

import (
	"strconv"

	"github.com/atdtech/dcdash"
)

// Parse converts textual filter values, as they arrive on a URL or a
// command line, to the kinds t declares. Empty values are dropped. Names t
// does not declare are kept as text so Build reports them.
func Parse(t Template, values map[string]string) (FilterSet, error) {
	fs := make(FilterSet, len(values))
	for name, raw := range values {
		if raw == "" {
			continue
		}
		f, ok := t.Filter(name)
		if !ok || f.Kind != KindInt {
			fs[name] = raw
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, dcdash.NewFilterError(name, "must be an integer, got %q", raw)
		}
		fs[name] = n
	}
	return fs, nil
}
