package device

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind distinguishes raw block devices from regular files.
type Kind string

const (
	KindDevice Kind = "device"
	KindFile   Kind = "file"
)

// Info contains information about a wipe target
type Info struct {
	Path       string
	Kind       Kind
	SizeBytes  uint64
	Rotational bool
	MediaKind  string // hdd/ssd/nvme/usb/file/unknown
	Model      string
	Serial     string
}

// Probe gets information about a device or file path.
// Media kind detection is best-effort and never blocks a wipe.
func Probe(path string) (Info, error) {
	info := Info{
		Path:      path,
		MediaKind: "unknown",
	}

	st, err := os.Stat(path)
	if err != nil {
		return info, fmt.Errorf("failed to stat target %s: %w", path, err)
	}

	if st.Mode().IsRegular() {
		info.Kind = KindFile
		info.MediaKind = "file"
		info.SizeBytes = uint64(st.Size())
		return info, nil
	}

	info.Kind = KindDevice
	info.MediaKind = classifyByPath(path)

	if size, err := blockDeviceSize(path); err == nil && size > 0 {
		info.SizeBytes = size
	}

	if rot, ok := rotationalHint(path); ok {
		info.Rotational = rot
		if info.MediaKind == "unknown" {
			if rot {
				info.MediaKind = "hdd"
			} else {
				info.MediaKind = "ssd"
			}
		}
	}

	return info, nil
}

// classifyByPath определяет тип носителя по имени устройства
func classifyByPath(path string) string {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(base, "nvme"):
		return "nvme"
	case strings.HasPrefix(base, "mmcblk"):
		return "usb"
	default:
		return "unknown"
	}
}
