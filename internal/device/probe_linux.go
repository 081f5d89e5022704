//go:build linux

package device

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// blockDeviceSize reads the device size via the BLKGETSIZE64 ioctl.
func blockDeviceSize(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open device %s: %w", path, err)
	}
	defer f.Close()

	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return 0, fmt.Errorf("BLKGETSIZE64 failed for %s: %w", path, err)
	}

	return uint64(size), nil
}

// rotationalHint reads the rotational flag from sysfs (1 = HDD, 0 = SSD/NVMe).
func rotationalHint(path string) (bool, bool) {
	base := filepath.Base(path)
	data, err := os.ReadFile(filepath.Join("/sys/block", base, "queue/rotational"))
	if err != nil {
		return false, false
	}
	return strings.TrimSpace(string(data)) == "1", true
}
