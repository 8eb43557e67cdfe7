package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/reports"
)

func TestParseFilterArgs(t *testing.T) {
	entry, ok := reports.Lookup("order-lines")
	require.True(t, ok)

	fs, err := parseFilterArgs(entry.Template, []string{"dc=84", "ordered_item=abc", "days_back="})
	require.NoError(t, err)
	assert.Equal(t, query.FilterSet{"dc": int64(84), "ordered_item": "abc"}, fs)

	_, err = parseFilterArgs(entry.Template, []string{"dc"})
	assert.ErrorContains(t, err, "expected name=value")

	_, err = parseFilterArgs(entry.Template, []string{"dc=x"})
	assert.ErrorContains(t, err, "must be an integer")
}

func TestListReports(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listReports(&buf))

	out := buf.String()
	for _, name := range reports.Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "dc:integer (required)")
	assert.Contains(t, out, "days_back:integer (default 60)")
}
