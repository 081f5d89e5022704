package wipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerotrace/internal/device"
	"zerotrace/internal/logging"
)

func testLogger(t *testing.T) *logging.EnterpriseLogger {
	t.Helper()
	logger, err := logging.NewEnterpriseLogger(logging.Options{Level: "FATAL"})
	require.NoError(t, err)
	return logger
}

func fileTarget(path string, size uint64) Target {
	return Target{Identity: path, Kind: device.KindFile, SizeBytes: size}
}

func TestOverwriteZeroPattern(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 8192)
	path := writeTempFile(t, data)

	e := NewExecutor(testLogger(t))
	e.ChunkSize = 1024

	result, err := e.Overwrite(context.Background(), fileTarget(path, 8192), patternZero, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(8192), result.BytesWritten)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8192), got)
}

func TestOverwriteFixedPattern(t *testing.T) {
	path := writeTempFile(t, make([]byte, 3000))

	e := NewExecutor(testLogger(t))
	e.ChunkSize = 1024

	_, err := e.Overwrite(context.Background(), fileTarget(path, 3000), patternOnes, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 3000), got)
}

func TestOverwriteRandomPattern(t *testing.T) {
	path := writeTempFile(t, make([]byte, 4096))

	e := NewExecutor(testLogger(t))
	e.ChunkSize = 1024

	_, err := e.Overwrite(context.Background(), fileTarget(path, 4096), patternRandom, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, make([]byte, 4096), got, "случайный проход не оставляет нулей")
}

func TestOverwriteReportsProgress(t *testing.T) {
	path := writeTempFile(t, make([]byte, 4096))

	e := NewExecutor(testLogger(t))
	e.ChunkSize = 1024

	var calls int
	var last uint64
	_, err := e.Overwrite(context.Background(), fileTarget(path, 4096), patternZero, func(written, total uint64) {
		calls++
		assert.GreaterOrEqual(t, written, last, "прогресс монотонен")
		assert.Equal(t, uint64(4096), total)
		last = written
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls, 4)
	assert.Equal(t, uint64(4096), last)
}

func TestOverwriteCancellation(t *testing.T) {
	path := writeTempFile(t, make([]byte, 8192))

	e := NewExecutor(testLogger(t))
	e.ChunkSize = 1024

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.Overwrite(ctx, fileTarget(path, 8192), patternZero, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), result.BytesWritten, "отмена до первого буфера ничего не пишет")
}

func TestOverwriteMissingTarget(t *testing.T) {
	e := NewExecutor(testLogger(t))

	_, err := e.Overwrite(context.Background(), fileTarget("/nonexistent/zerotrace-target", 100), patternZero, nil)
	assert.Error(t, err)
}

func TestIsEndOfExtent(t *testing.T) {
	assert.True(t, isEndOfExtent(io.EOF))
	assert.True(t, isEndOfExtent(io.ErrShortWrite))
	assert.True(t, isEndOfExtent(syscall.ENOSPC))
	assert.True(t, isEndOfExtent(fmt.Errorf("write: %w", syscall.ENOSPC)))
	assert.False(t, isEndOfExtent(os.ErrPermission))
}
