package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"none", "SELECT 1 FROM dual", nil},
		{"simple", "WHERE a = :dcid AND b = :days_back", []string{"dcid", "days_back"}},
		{"dedup and lower", "WHERE a = :DC OR b = :dc", []string{"dc"}},
		{"numeric", "WHERE a = :1", []string{"1"}},
		{"string literal", "WHERE TO_CHAR(d, 'HH24:MI:SS') = :t", []string{"t"}},
		{"escaped quote", "WHERE n = 'it''s :not' AND m = :yes", []string{"yes"}},
		{"quoted identifier", `SELECT "odd:name" FROM t WHERE x = :x`, []string{"x"}},
		{"line comment", "SELECT 1 -- uses :ghost\nFROM t WHERE y = :y", []string{"y"}},
		{"block comment", "SELECT /* :ghost */ 1 FROM t WHERE z = :z", []string{"z"}},
		{"plsql assignment", "BEGIN v := :in_val; END;", []string{"in_val"}},
		{"identifier chars", "WHERE a = :org_id$1#", []string{"org_id$1#"}},
		{"bare colon", "WHERE a = ':' || : ", nil},
		{"unterminated comment", "SELECT :a /* :b", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Placeholders(tt.sql))
		})
	}
}
