package query

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atdtech/dcdash"
	"github.com/atdtech/dcdash/internal/sqlgen/sqldsl"
)

// linesTemplate is a two-branch UNION template in the shape of the open
// order lines report.
func linesTemplate() Template {
	return Template{
		ID: "test_lines",
		Filters: []Filter{
			{Name: "dc", Kind: KindInt, Required: true, Min: 1},
			{Name: "days_back", Kind: KindInt, Min: 1, Max: 365, Default: 60},
			{
				Name: "order_number", Kind: KindInt, Min: 1,
				Predicate: func(b *Builder) sqldsl.Expr {
					return sqldsl.Eq{Left: sqldsl.Col{Table: "ooh", Column: "order_number"}, Right: b.Bind("order_number")}
				},
			},
			{
				Name: "ordered_item", Kind: KindText, Match: MatchContains, MaxLen: 40,
				Predicate: func(b *Builder) sqldsl.Expr {
					return sqldsl.Like{Expr: sqldsl.Upper(sqldsl.Col{Table: "ool", Column: "ordered_item"}), Pattern: b.Bind("ordered_item")}
				},
			},
		},
		Render: func(b *Builder) sqldsl.SQLer {
			branch := func(src string) sqldsl.SelectStmt {
				return sqldsl.SelectStmt{
					ColumnExprs: []sqldsl.Expr{sqldsl.Col{Table: "ool", Column: "line_id"}},
					From:        []sqldsl.TableExpr{sqldsl.TableAs(src, "ool"), sqldsl.TableAs("oe_order_headers_all", "ooh")},
					Where: b.Filtered(
						sqldsl.Eq{Left: sqldsl.Col{Table: "ool", Column: "ship_from_org_id"}, Right: b.Bind("dc")},
						sqldsl.Gte{Left: sqldsl.Col{Table: "ool", Column: "creation_date"}, Right: sqldsl.Sub{Left: sqldsl.TruncSysdate, Right: b.Bind("days_back")}},
					),
				}
			}
			return sqldsl.Union{All: true, Blocks: []sqldsl.QueryBlock{
				{Query: branch("oe_order_lines_all")},
				{Query: branch("oe_order_lines_hist")},
			}}
		},
	}
}

func TestBuild_RequiredOnly(t *testing.T) {
	spec, err := Build(linesTemplate(), FilterSet{"dc": 84})
	require.NoError(t, err)

	assert.Equal(t, []string{"days_back", "dc"}, spec.BindNames())
	assert.Equal(t, int64(84), spec.Binds["dc"])
	assert.Equal(t, int64(60), spec.Binds["days_back"], "default applies when absent")
	assert.Equal(t, int64(60), spec.Params["days_back"])
	assert.NotContains(t, spec.SQL, "order_number")
	assert.NotContains(t, spec.SQL, "UPPER(ool.ordered_item)")
	assert.ElementsMatch(t, spec.BindNames(), Placeholders(spec.SQL))
}

func TestBuild_OptionalFiltersReachEveryBranch(t *testing.T) {
	spec, err := Build(linesTemplate(), FilterSet{
		"dc":           84,
		"days_back":    30,
		"order_number": int64(5123456),
		"ordered_item": "  ab-12 ",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"days_back", "dc", "order_number", "ordered_item"}, spec.BindNames())
	assert.Equal(t, "%AB-12%", spec.Binds["ordered_item"])
	assert.Equal(t, "ab-12", spec.Params["ordered_item"], "params keep the caller-facing value")

	for _, frag := range []string{"ooh.order_number = :order_number", "UPPER(ool.ordered_item) LIKE :ordered_item"} {
		assert.Equal(t, 2, strings.Count(spec.SQL, frag), "fragment %q must appear once per branch", frag)
	}
	require.NoError(t, spec.Validate())
}

func TestBuild_RejectsBeforeRendering(t *testing.T) {
	rendered := false
	tmpl := linesTemplate()
	inner := tmpl.Render
	tmpl.Render = func(b *Builder) sqldsl.SQLer {
		rendered = true
		return inner(b)
	}

	tests := []struct {
		name   string
		fs     FilterSet
		filter string
	}{
		{"missing required", FilterSet{}, "dc"},
		{"nil required", FilterSet{"dc": nil}, "dc"},
		{"below min", FilterSet{"dc": 0}, "dc"},
		{"above max", FilterSet{"dc": 84, "days_back": 366}, "days_back"},
		{"below range", FilterSet{"dc": 84, "days_back": 0}, "days_back"},
		{"wrong kind", FilterSet{"dc": "84"}, "dc"},
		{"text wrong kind", FilterSet{"dc": 84, "ordered_item": 7}, "ordered_item"},
		{"too long", FilterSet{"dc": 84, "ordered_item": "x234567890123456789012345678901234567890x"}, "ordered_item"},
		{"unknown", FilterSet{"dc": 84, "org": 1}, "org"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tmpl, tt.fs)
			require.Error(t, err)
			assert.True(t, dcdash.IsInvalidFilterErr(err), "got %v", err)

			var fe *dcdash.FilterError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.filter, fe.Filter)
		})
	}
	assert.False(t, rendered, "template must not render for rejected filters")
}

func TestBuild_RangeMessage(t *testing.T) {
	_, err := Build(linesTemplate(), FilterSet{"dc": 84, "days_back": 400})
	require.Error(t, err)
	assert.Equal(t, "dcdash: invalid filter: days_back must be between 1 and 365", err.Error())
}

func TestBuild_EmptyTextIsAbsent(t *testing.T) {
	spec, err := Build(linesTemplate(), FilterSet{"dc": 84, "ordered_item": "   "})
	require.NoError(t, err)
	assert.NotContains(t, spec.Binds, "ordered_item")
	assert.NotContains(t, spec.SQL, ":ordered_item")
}

func TestBuild_DetectsTemplateBugs(t *testing.T) {
	t.Run("supplied filter never bound", func(t *testing.T) {
		tmpl := Template{
			ID:      "unbound",
			Filters: []Filter{{Name: "dcid", Kind: KindInt, Required: true}},
			Render: func(*Builder) sqldsl.SQLer {
				return sqldsl.Raw("SELECT 1 FROM dual")
			},
		}
		_, err := Build(tmpl, FilterSet{"dcid": 1})
		require.ErrorIs(t, err, dcdash.ErrQuerySpec)
	})

	t.Run("placeholder typed into raw SQL", func(t *testing.T) {
		tmpl := Template{
			ID:      "stray",
			Filters: []Filter{{Name: "dcid", Kind: KindInt, Required: true}},
			Render: func(b *Builder) sqldsl.SQLer {
				return sqldsl.Raw("SELECT 1 FROM dual WHERE " + b.Bind("dcid").SQL() + " = :other")
			},
		}
		_, err := Build(tmpl, FilterSet{"dcid": 1})
		require.ErrorIs(t, err, dcdash.ErrQuerySpec)
		assert.Contains(t, err.Error(), ":other")
	})

	t.Run("bind for absent filter", func(t *testing.T) {
		tmpl := Template{
			ID:      "absent",
			Filters: []Filter{{Name: "line_id", Kind: KindInt}},
			Render: func(b *Builder) sqldsl.SQLer {
				return sqldsl.Raw("SELECT 1 FROM dual WHERE 1 = " + b.Bind("line_id").SQL())
			},
		}
		_, err := Build(tmpl, FilterSet{})
		require.ErrorIs(t, err, dcdash.ErrQuerySpec)
	})

	t.Run("no renderer", func(t *testing.T) {
		_, err := Build(Template{ID: "empty"}, FilterSet{})
		require.ErrorIs(t, err, dcdash.ErrQuerySpec)
	})
}

func TestBuilder_Fragments(t *testing.T) {
	tmpl := linesTemplate()
	r, err := tmpl.resolve(FilterSet{"dc": 84, "order_number": 7})
	require.NoError(t, err)

	b := newBuilder(tmpl, r)
	frags := b.Fragments()
	require.Len(t, frags, 1)
	assert.Equal(t, "ooh.order_number = :order_number", frags[0].SQL())
	assert.True(t, b.Has("days_back"))
	assert.False(t, b.Has("ordered_item"))
	assert.Equal(t, int64(7), b.Value("order_number"))
}

func TestQuerySpec_ValidateAndArgs(t *testing.T) {
	spec := QuerySpec{
		Template: "t",
		SQL:      "SELECT 1 FROM dual WHERE a = :B AND c = :a",
		Binds:    map[string]any{"b": 2, "a": 1},
	}
	require.NoError(t, spec.Validate())

	args := spec.Args()
	require.Len(t, args, 2)
	assert.Equal(t, sql.Named("a", 1), args[0])
	assert.Equal(t, sql.Named("b", 2), args[1])

	spec.Binds["extra"] = 3
	err := spec.Validate()
	require.ErrorIs(t, err, dcdash.ErrQuerySpec)
	assert.Contains(t, err.Error(), "extra")
}
