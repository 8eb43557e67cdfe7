package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()
	assert.True(t, strings.HasPrefix(info, "dcdash dev "))
	assert.Contains(t, info, "commit: none")
	assert.Contains(t, info, runtime.Version())
	assert.Equal(t, "dev", Short())
}
