package wipe

import (
	"context"
	"io"
	"os"
	"sync"

	"golang.org/x/time/rate"
)

// ThrottledWriter ограничивает скорость записи token-bucket лимитером
// (thread-safe)
type ThrottledWriter struct {
	file    *os.File
	limiter *rate.Limiter
	mu      sync.Mutex
	closed  bool
}

// NewThrottledWriter создает writer с ограничением скорости.
// maxSpeedMBps <= 0 отключает ограничение.
func NewThrottledWriter(file *os.File, maxSpeedMBps float64, burst int) *ThrottledWriter {
	tw := &ThrottledWriter{file: file}

	if maxSpeedMBps > 0 {
		bytesPerSec := maxSpeedMBps * 1024 * 1024
		if burst < int(bytesPerSec) {
			burst = int(bytesPerSec)
		}
		tw.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), burst)
	}

	return tw
}

// Write записывает данные с ограничением скорости
func (tw *ThrottledWriter) Write(ctx context.Context, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return 0, io.ErrClosedPipe
	}

	if tw.limiter != nil {
		if err := tw.limiter.WaitN(ctx, len(data)); err != nil {
			return 0, err
		}
	}

	return tw.file.Write(data)
}

// Sync синхронизирует данные на диск
func (tw *ThrottledWriter) Sync() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return io.ErrClosedPipe
	}

	return tw.file.Sync()
}

// Close закрывает файл
func (tw *ThrottledWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return nil
	}

	tw.closed = true
	return tw.file.Close()
}
