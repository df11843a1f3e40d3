package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesDefaults(t *testing.T) {
	const doc = `
[engine]
data_dir = "/var/smfdb"
buffer_pool_pages = 2048
log_flush_millis = 250
lock_wait_millis = 1000

[session]
enable_nestloop = false
enable_sortmerge = true
enable_output_file = true
`
	cfg, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "/var/smfdb", cfg.DataDir)
	assert.Equal(t, 2048, cfg.BufferPoolPages)
	assert.Equal(t, 250*time.Millisecond, cfg.LogFlushInterval)
	assert.Equal(t, time.Second, cfg.LockWaitTimeout)
	assert.False(t, cfg.EnableNestloop)
	assert.True(t, cfg.EnableSortmerge)
	assert.True(t, cfg.EnableOutputFile)
}

func TestParseEmptyDocumentKeepsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
