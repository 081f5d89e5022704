package wipe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// SampleWindow размер окна выборочной проверки
const SampleWindow = 1024 * 1024 // 1MB

// IsZeroed выборочно проверяет, что цель обнулена: окна по 1MB в начале,
// середине и конце. Если цель меньше двух окон, середина и конец
// пропускаются.
//
// Это приближение, а не гарантия по всему объёму: полное сканирование
// многотерабайтного носителя заняло бы часы. Компромисс сознательный и
// соответствует процедуре верификации clear-этапа.
func IsZeroed(path string, size uint64) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("ошибка открытия цели для проверки: %w", err)
	}
	defer file.Close()

	offsets := []int64{0}
	if size >= 2*SampleWindow {
		middle := int64(size/2) - SampleWindow/2
		tail := int64(size) - SampleWindow
		offsets = append(offsets, middle, tail)
	}

	buf := GetBuffer(SampleWindow)
	defer PutBuffer(buf)

	for _, offset := range offsets {
		n, err := file.ReadAt(buf, offset)
		if err != nil && err != io.EOF {
			return false, fmt.Errorf("ошибка чтения окна по смещению %d: %w", offset, err)
		}
		if !WindowIsZero(buf[:n]) {
			return false, nil
		}
	}

	return true, nil
}

// WindowIsZero проверяет, что каждый байт окна равен нулю
func WindowIsZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

// HashHead возвращает SHA-256 первого мегабайта цели. Снимается до первой
// записи (sha_before) и после последнего прохода (sha_after).
func HashHead(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("ошибка открытия цели для хеширования: %w", err)
	}
	defer file.Close()

	buf := GetBuffer(SampleWindow)
	defer PutBuffer(buf)

	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("ошибка чтения головного региона: %w", err)
	}

	sum := sha256.Sum256(buf[:n])
	return hex.EncodeToString(sum[:]), nil
}
