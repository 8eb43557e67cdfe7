package query

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/atdtech/dcdash"
)

// QuerySpec is final SQL text paired with its named bind values.
// The placeholder set of SQL equals the key set of Binds.
type QuerySpec struct {
	Template string
	SQL      string
	Binds    map[string]any

	// Params holds the validated caller-facing filter values, defaults
	// included. Report envelopes echo from here.
	Params map[string]any
}

// BindNames returns the bind names in sorted order.
func (q QuerySpec) BindNames() []string {
	names := make([]string, 0, len(q.Binds))
	for name := range q.Binds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Args returns the binds as sql.Named arguments sorted by name.
func (q QuerySpec) Args() []any {
	names := q.BindNames()
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = sql.Named(name, q.Binds[name])
	}
	return args
}

// Validate checks that every placeholder in SQL has exactly one bind
// value and that every bind value is referenced.
func (q QuerySpec) Validate() error {
	placeholders := Placeholders(q.SQL)
	seen := make(map[string]struct{}, len(placeholders))
	for _, name := range placeholders {
		seen[name] = struct{}{}
		if _, ok := q.lookup(name); !ok {
			return fmt.Errorf("%w: template %s: placeholder :%s has no bind value", dcdash.ErrQuerySpec, q.Template, name)
		}
	}

	var unused []string
	for name := range q.Binds {
		if _, ok := seen[strings.ToLower(name)]; !ok {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		return fmt.Errorf("%w: template %s: bind %s has no placeholder", dcdash.ErrQuerySpec, q.Template, strings.Join(unused, ", "))
	}
	return nil
}

// lookup matches bind names case-insensitively, as the engine does.
func (q QuerySpec) lookup(name string) (any, bool) {
	if v, ok := q.Binds[name]; ok {
		return v, true
	}
	for k, v := range q.Binds {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}
