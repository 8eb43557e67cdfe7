// Package query turns a named query template and a set of caller filters
// into SQL text plus the named bind values that go with it.
//
// A Template declares its filters as a table: each Filter carries its kind,
// bounds, default and, for optional filters, the predicate fragment applied
// when the filter is present. Build validates the FilterSet against that
// table before any SQL is rendered, renders the template through a Builder,
// and checks that the placeholders in the rendered text match the bind set
// exactly.
//
// Templates with UNION branches call Builder.Filtered in every branch, so
// an optional filter always reaches all branches the same way.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atdtech/dcdash"
	"github.com/atdtech/dcdash/internal/sqlgen/sqldsl"
)

// Kind is the value type a filter accepts.
type Kind int

const (
	// KindInt accepts Go integer values; they are bound as int64.
	KindInt Kind = iota
	// KindText accepts strings; surrounding whitespace is trimmed and an
	// empty string counts as absent.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Match controls how a text filter value is prepared for binding.
type Match int

const (
	// MatchExact binds the value unchanged.
	MatchExact Match = iota
	// MatchContains upper-cases the value and wraps it in % wildcards,
	// for use against UPPER(column) LIKE :name.
	MatchContains
)

// Filter declares one named filter of a template.
type Filter struct {
	Name     string
	Kind     Kind
	Required bool

	// Min and Max bound integer values inclusively. Zero Max means no
	// upper bound; a zero Min with a zero Max means no bounds at all.
	Min int64
	Max int64

	// MaxLen caps text length in runes when positive.
	MaxLen int

	// Default is applied when an optional filter is absent. A filter with a
	// default is always present in the built spec.
	Default any

	Match Match

	// Predicate renders the fragment added by Builder.Filtered when the
	// filter is present. Required filters are usually bound directly by
	// the template skeleton and leave this nil.
	Predicate func(b *Builder) sqldsl.Expr
}

func (f Filter) bounded() bool {
	return f.Min != 0 || f.Max != 0
}

// FilterSet maps filter names to caller-supplied values. A missing key or
// a nil value means the filter is absent.
type FilterSet map[string]any

// Template is one hand-authored query structure.
type Template struct {
	ID      string
	Filters []Filter
	Render  func(b *Builder) sqldsl.SQLer
}

// Filter returns the declaration for name.
func (t Template) Filter(name string) (Filter, bool) {
	for _, f := range t.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

// resolved holds the validated filter values of one build.
type resolved struct {
	params map[string]any // caller-facing values, defaults applied
	binds  map[string]any // bind-ready values
}

// resolve validates fs against the filter table. It never touches SQL.
func (t Template) resolve(fs FilterSet) (resolved, error) {
	out := resolved{
		params: make(map[string]any, len(t.Filters)),
		binds:  make(map[string]any, len(t.Filters)),
	}

	// Unknown names are reported in sorted order so the error is stable.
	var unknown []string
	for name := range fs {
		if _, ok := t.Filter(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return resolved{}, dcdash.NewFilterError(unknown[0], "is not accepted by %s", t.ID)
	}

	for _, f := range t.Filters {
		raw, present := fs[f.Name]
		if present && raw == nil {
			present = false
		}

		var (
			param any
			bind  any
			err   error
		)
		if present {
			param, bind, err = f.normalize(raw)
			if err != nil {
				return resolved{}, err
			}
			present = param != nil
		}
		if !present && f.Default != nil {
			param, bind, err = f.normalize(f.Default)
			if err != nil {
				return resolved{}, fmt.Errorf("%w: template %s: default for %s: %w", dcdash.ErrQuerySpec, t.ID, f.Name, err)
			}
			present = param != nil
		}
		if !present {
			if f.Required {
				return resolved{}, dcdash.NewFilterError(f.Name, "is required")
			}
			continue
		}
		out.params[f.Name] = param
		out.binds[f.Name] = bind
	}
	return out, nil
}

// normalize checks one value against the declaration. It returns a nil
// param for a text value that is empty after trimming.
func (f Filter) normalize(raw any) (param, bind any, err error) {
	switch f.Kind {
	case KindInt:
		n, ok := toInt64(raw)
		if !ok {
			return nil, nil, dcdash.NewFilterError(f.Name, "must be an integer, got %T", raw)
		}
		if f.bounded() {
			if n < f.Min {
				if f.Max != 0 {
					return nil, nil, dcdash.NewFilterError(f.Name, "must be between %d and %d", f.Min, f.Max)
				}
				return nil, nil, dcdash.NewFilterError(f.Name, "must be at least %d", f.Min)
			}
			if f.Max != 0 && n > f.Max {
				return nil, nil, dcdash.NewFilterError(f.Name, "must be between %d and %d", f.Min, f.Max)
			}
		}
		return n, n, nil

	case KindText:
		s, ok := raw.(string)
		if !ok {
			return nil, nil, dcdash.NewFilterError(f.Name, "must be text, got %T", raw)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil, nil
		}
		if f.MaxLen > 0 && len([]rune(s)) > f.MaxLen {
			return nil, nil, dcdash.NewFilterError(f.Name, "must be at most %d characters", f.MaxLen)
		}
		if f.Match == MatchContains {
			return s, "%" + strings.ToUpper(s) + "%", nil
		}
		return s, s, nil

	default:
		return nil, nil, dcdash.NewFilterError(f.Name, "has unsupported kind %s", f.Kind)
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

// Build validates fs, renders the template and checks the result.
//
// A rejected filter returns a *dcdash.FilterError before the template is
// rendered. A rendered spec whose placeholders and binds disagree, or that
// leaves a supplied filter unreferenced, returns an error wrapping
// dcdash.ErrQuerySpec.
func Build(t Template, fs FilterSet) (QuerySpec, error) {
	if t.Render == nil {
		return QuerySpec{}, fmt.Errorf("%w: template %s has no renderer", dcdash.ErrQuerySpec, t.ID)
	}

	r, err := t.resolve(fs)
	if err != nil {
		return QuerySpec{}, err
	}

	b := newBuilder(t, r)
	text := t.Render(b).SQL()

	spec := QuerySpec{
		Template: t.ID,
		SQL:      text,
		Binds:    make(map[string]any, len(b.used)),
		Params:   r.params,
	}
	for name := range b.used {
		v, ok := r.binds[name]
		if !ok {
			return QuerySpec{}, fmt.Errorf("%w: template %s: :%s is bound but %s is absent", dcdash.ErrQuerySpec, t.ID, name, name)
		}
		spec.Binds[name] = v
	}
	for name := range r.binds {
		if _, ok := b.used[name]; !ok {
			return QuerySpec{}, fmt.Errorf("%w: template %s: filter %s is supplied but never bound", dcdash.ErrQuerySpec, t.ID, name)
		}
	}

	if err := spec.Validate(); err != nil {
		return QuerySpec{}, err
	}
	return spec, nil
}
