//go:build !linux

package device

import "fmt"

// Без sysfs и ioctl размер определяется чтением до конца устройства.
func blockDeviceSize(path string) (uint64, error) {
	return 0, fmt.Errorf("block device size probe not supported on this platform")
}

func rotationalHint(path string) (bool, bool) {
	return false, false
}
