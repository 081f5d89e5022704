package wipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"zerotrace/internal/logging"
)

// DefaultChunkSize размер буфера перезаписи по умолчанию
const DefaultChunkSize = 16 * 1024 * 1024 // 16MB

// Executor выполняет потоковую перезапись цели одним паттерном.
// Гарантия стойкости: каждый буфер синхронизируется на носитель (fsync)
// до записи следующего, поэтому уже перезаписанные байты невосстановимы
// даже при немедленном сбое питания.
type Executor struct {
	ChunkSize    int
	MaxSpeedMBps float64
	Logger       *logging.EnterpriseLogger
}

// NewExecutor создает executor с параметрами по умолчанию
func NewExecutor(logger *logging.EnterpriseLogger) *Executor {
	return &Executor{
		ChunkSize: DefaultChunkSize,
		Logger:    logger,
	}
}

// Overwrite записывает паттерн последовательно с начала цели до объявленного
// размера либо до конца носителя. Короткая запись и ENOSPC - нормальное
// завершение (реальный размер устройства может быть неизвестен заранее);
// любая другая ошибка I/O фатальна и прерывает проход.
//
// onProgress вызывается с гранулярностью буфера; отмена проверяется только
// между буферами - запись+fsync одного буфера атомарны для вызывающего.
func (e *Executor) Overwrite(ctx context.Context, target Target, pattern Pattern, onProgress func(written, total uint64)) (*WriteResult, error) {
	chunkSize := e.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	file, err := os.OpenFile(target.Identity, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия цели %s: %w", target.Identity, err)
	}

	tw := NewThrottledWriter(file, e.MaxSpeedMBps, chunkSize)
	defer func() {
		if closeErr := tw.Close(); closeErr != nil && e.Logger != nil {
			e.Logger.Log("WARN", "Ошибка закрытия цели", "target", target.Identity, "error", closeErr.Error())
		}
	}()

	buf := GetBuffer(chunkSize)
	defer PutBuffer(buf)

	if !pattern.Random {
		fillBuffer(buf, pattern.Bytes)
	}

	result := &WriteResult{}
	total := target.SizeBytes

	for {
		// Проверка отмены между буферами
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		toWrite := uint64(chunkSize)
		if total > 0 {
			remaining := total - result.BytesWritten
			if remaining == 0 {
				break
			}
			if remaining < toWrite {
				toWrite = remaining
			}
		}

		b := buf[:toWrite]
		if pattern.Random {
			if err := FillRandom(b); err != nil {
				return result, fmt.Errorf("ошибка генерации случайных данных: %w", err)
			}
		}

		n, err := tw.Write(ctx, b)
		if n > 0 {
			result.BytesWritten += uint64(n)
		}
		if err != nil {
			if isEndOfExtent(err) {
				// Достигнут конец носителя - нормальное завершение
				result.EndOfExtent = true
				break
			}
			return result, fmt.Errorf("ошибка записи на %s: %w", target.Identity, err)
		}

		// Fsync до следующего буфера - гарантия стойкости
		if err := tw.Sync(); err != nil {
			if isEndOfExtent(err) {
				result.EndOfExtent = true
				break
			}
			return result, fmt.Errorf("ошибка синхронизации %s: %w", target.Identity, err)
		}

		if onProgress != nil {
			onProgress(result.BytesWritten, total)
		}

		if total == 0 && n < len(b) {
			result.EndOfExtent = true
			break
		}
	}

	// Финальный sync на случай выхода по размеру
	if err := tw.Sync(); err != nil && !isEndOfExtent(err) {
		return result, fmt.Errorf("ошибка финальной синхронизации %s: %w", target.Identity, err)
	}

	if onProgress != nil {
		onProgress(result.BytesWritten, total)
	}

	return result, nil
}

// isEndOfExtent отличает конец носителя от реальной ошибки I/O
func isEndOfExtent(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrShortWrite) ||
		errors.Is(err, syscall.ENOSPC)
}
