package query

import "github.com/atdtech/dcdash/internal/sqlgen/sqldsl"

// Builder is handed to a Template's Render function. It exposes the
// validated filter values and records every bind the template emits.
// A Builder serves one Build call and is not safe for concurrent use.
type Builder struct {
	tmpl Template
	vals resolved
	used map[string]struct{}
}

func newBuilder(t Template, r resolved) *Builder {
	return &Builder{tmpl: t, vals: r, used: make(map[string]struct{})}
}

// Bind returns the :name placeholder and records it for the bind set.
func (b *Builder) Bind(name string) sqldsl.Bind {
	b.used[name] = struct{}{}
	return sqldsl.Bind(name)
}

// Has reports whether the filter is present after defaults.
func (b *Builder) Has(name string) bool {
	_, ok := b.vals.params[name]
	return ok
}

// Value returns the caller-facing value of a present filter, or nil.
func (b *Builder) Value(name string) any {
	return b.vals.params[name]
}

// Filtered ANDs the base predicates with the fragment of every present
// filter that declares a Predicate. Each UNION branch of a template passes
// its own base predicates here, so all branches receive the same optional
// fragments in the same order.
func (b *Builder) Filtered(base ...sqldsl.Expr) sqldsl.AndExpr {
	exprs := append([]sqldsl.Expr(nil), base...)
	for _, f := range b.tmpl.Filters {
		if f.Predicate == nil || !b.Has(f.Name) {
			continue
		}
		exprs = append(exprs, f.Predicate(b))
	}
	return sqldsl.And(exprs...)
}

// Fragments returns only the optional fragments Filtered would add.
func (b *Builder) Fragments() []sqldsl.Expr {
	return b.Filtered().Exprs
}
