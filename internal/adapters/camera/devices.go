package camera

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bft-labs/paintwatch/internal/domain"
)

// DefaultDevicePattern matches V4L2 capture nodes.
const DefaultDevicePattern = "/dev/video*"

// listDevices returns the devices matching pattern ordered by index.
// Nodes without a numeric suffix are ignored.
func listDevices(pattern string) ([]domain.Device, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	return parseDevices(paths), nil
}

func parseDevices(paths []string) []domain.Device {
	devices := make([]domain.Device, 0, len(paths))
	for _, p := range paths {
		idx, ok := deviceIndex(p)
		if !ok {
			continue
		}
		devices = append(devices, domain.Device{Index: idx, Path: p})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Index < devices[j].Index })
	return devices
}

// deviceIndex extracts N from a path ending in videoN.
func deviceIndex(path string) (int, bool) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "video") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(base, "video"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
