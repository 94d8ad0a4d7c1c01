package util

import (
	"runtime"
)

// GetHeapAllocMB reports live heap allocation in whole megabytes, for the
// end-of-run debug line.
func GetHeapAllocMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc >> 20
}
