package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atdtech/dcdash"
)

func TestParse(t *testing.T) {
	fs, err := Parse(linesTemplate(), map[string]string{
		"dc":           "84",
		"days_back":    "",
		"ordered_item": "abc",
		"carrier":      "UPS",
	})
	require.NoError(t, err)
	assert.Equal(t, FilterSet{"dc": int64(84), "ordered_item": "abc", "carrier": "UPS"}, fs)

	_, err = Build(linesTemplate(), fs)
	assert.True(t, dcdash.IsInvalidFilterErr(err), "undeclared names reach Build")
}

func TestParse_NotAnInteger(t *testing.T) {
	_, err := Parse(linesTemplate(), map[string]string{"dc": "eighty-four"})
	require.Error(t, err)
	assert.True(t, dcdash.IsInvalidFilterErr(err))
	assert.Contains(t, err.Error(), "must be an integer")
}
