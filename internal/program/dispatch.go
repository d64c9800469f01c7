package program

import (
	"fmt"
	"math"
)

// MaxWorkgroupsPerDimension is the WebGPU default for maxComputeWorkgroupsPerDimension.
const MaxWorkgroupsPerDimension = 65535

// GroupsFor returns ceil(n/groupSize).
func GroupsFor(n int, groupSize uint32) uint32 {
	g := uint64(groupSize)
	return uint32((uint64(n) + g - 1) / g) //nolint:gosec // G115: n is an element count
}

// NormalizeDispatch fits a dispatch into the per-dimension limit. When any
// dimension exceeds it the total is respread over a square (or cube) grid.
// The result may contain more groups than requested; kernels bounds-check.
func NormalizeDispatch(dispatch [3]uint32, limit uint32) ([3]uint32, error) {
	x, y, z := dispatch[0], dispatch[1], dispatch[2]
	if x <= limit && y <= limit && z <= limit {
		return dispatch, nil
	}

	size := float64(x) * float64(y) * float64(z)
	avg := math.Ceil(math.Sqrt(size))
	if avg > float64(limit) {
		avg = math.Ceil(math.Cbrt(size))
		if avg > float64(limit) {
			return dispatch, fmt.Errorf("dispatch %dx%dx%d exceeds the WebGPU maximum of %d per dimension", x, y, z, limit)
		}
		d := uint32(avg)
		return [3]uint32{d, d, d}, nil
	}
	d := uint32(avg)
	return [3]uint32{d, d, 1}, nil
}
