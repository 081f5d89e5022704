package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 12345), 0644))

	info, err := Probe(path)
	require.NoError(t, err)

	assert.Equal(t, KindFile, info.Kind)
	assert.Equal(t, "file", info.MediaKind)
	assert.Equal(t, uint64(12345), info.SizeBytes)
	assert.Equal(t, path, info.Path)
}

func TestProbeMissingPath(t *testing.T) {
	_, err := Probe(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestClassifyByPath(t *testing.T) {
	assert.Equal(t, "nvme", classifyByPath("/dev/nvme0n1"))
	assert.Equal(t, "usb", classifyByPath("/dev/mmcblk0"))
	assert.Equal(t, "unknown", classifyByPath("/dev/sda"))
}
