package pipeline

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// memoryPerWorkerGB assumes each concurrent operation invocation may hold a
// loaded model; clinical NLP models commonly sit in the 1-2GB range.
const memoryPerWorkerGB = 1.5

// memoryBufferGB is reserved for the rest of the system.
const memoryBufferGB = 2.0

// safeWorkerCount recommends a worker count for the available memory.
func safeWorkerCount(availableGB float64) int {
	if availableGB < memoryBufferGB {
		return 1
	}
	recommended := int((availableGB - memoryBufferGB) / memoryPerWorkerGB)
	if recommended < 1 {
		return 1
	}
	if recommended > 16 {
		return 16
	}
	return recommended
}

// checkMemoryPressure validates the configured worker count against
// available memory. Returns a warning message if the count may be too high,
// empty string if OK or if memory stats are unavailable.
func checkMemoryPressure(workers int) string {
	v, err := mem.VirtualMemory()
	if err != nil {
		return ""
	}
	availableGB := float64(v.Available) / 1024 / 1024 / 1024
	totalGB := float64(v.Total) / 1024 / 1024 / 1024
	recommended := safeWorkerCount(availableGB)
	if workers > recommended {
		return fmt.Sprintf(
			"worker count (%d) exceeds recommended (%d) for available memory (%.1f/%.1fGB)",
			workers, recommended, availableGB, totalGB)
	}
	return ""
}
