package reporting

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerotrace/internal/device"
	"zerotrace/internal/logging"
	"zerotrace/internal/wipe"
)

func testLogger(t *testing.T) *logging.EnterpriseLogger {
	t.Helper()
	logger, err := logging.NewEnterpriseLogger(logging.Options{Level: "FATAL"})
	require.NoError(t, err)
	return logger
}

func testSession() *wipe.Session {
	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	completed := started.Add(5 * time.Second)
	return &wipe.Session{
		ID:           "aaaabbbb-cccc-dddd-eeee-ffff00001111",
		Target:       wipe.Target{Identity: "/tmp/target.bin", Kind: device.KindFile, SizeBytes: 1024},
		Method:       wipe.MethodSinglePass,
		MethodUsed:   wipe.MethodSinglePass,
		Passes:       1,
		Status:       wipe.StatusCompleted,
		StartedAt:    started,
		CompletedAt:  &completed,
		SHABefore:    "aa",
		BytesWritten: 1024,
	}
}

func TestRecordProgressAppendsJSONL(t *testing.T) {
	dir := t.TempDir()
	r := NewFileRecorder(dir, true, testLogger(t))

	session := testSession()
	for i := 0; i < 3; i++ {
		r.RecordProgress(session.ID, wipe.ProgressEvent{
			SessionID: session.ID,
			Percent:   float64(i) * 50,
			Stage:     "pass_1",
			Message:   "Pass 1/1: writing zero...",
			Timestamp: time.Now(),
		})
	}
	r.Finalize(session.ID, session)

	path := filepath.Join(dir, "zerotrace_progress_aaaabbbb.jsonl")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var lines int
	for scanner.Scan() {
		var event wipe.ProgressEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event), "каждая строка журнала - валидный JSON")
		assert.Equal(t, session.ID, event.SessionID)
		lines++
	}
	assert.Equal(t, 3, lines)
}

func TestFinalizeWritesReport(t *testing.T) {
	dir := t.TempDir()
	r := NewFileRecorder(dir, true, testLogger(t))

	session := testSession()
	r.Finalize(session.ID, session)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var reportPath string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "zerotrace_report_") {
			reportPath = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, reportPath, "итоговый отчёт должен быть записан")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	var report SessionReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, session.ID, report.SessionID)
	assert.Equal(t, "COMPLETED", report.Status)
	assert.Equal(t, uint64(1024), report.BytesWritten)
	assert.InDelta(t, 1024.0/(1024*1024)/5, report.SpeedMBps, 1e-9)
}

func TestRecorderDisabled(t *testing.T) {
	dir := t.TempDir()
	r := NewFileRecorder(dir, false, testLogger(t))

	session := testSession()
	r.RecordProgress(session.ID, wipe.ProgressEvent{SessionID: session.ID})
	r.Finalize(session.ID, session)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "выключенный рекордер ничего не пишет")
}

func TestConsoleProgressDedupes(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsoleProgress(&buf)

	p.Update(10.2, "pass_1", "writing")
	before := buf.Len()
	p.Update(10.7, "pass_1", "writing")
	assert.Equal(t, before, buf.Len(), "тот же целый процент не перерисовывается")

	p.Update(11.0, "pass_1", "writing")
	assert.Greater(t, buf.Len(), before)

	p.Update(100, "done", "completed")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
