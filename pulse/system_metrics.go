package pulse

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/qntx-signal/errors"
)

// SystemMetrics is a snapshot of pool and host resource usage
type SystemMetrics struct {
	WorkersActive int     `json:"workers_active"`
	WorkersTotal  int     `json:"workers_total"`
	JobsProcessed int     `json:"jobs_processed"`
	MemoryUsedGB  float64 `json:"memory_used_gb"`
	MemoryTotalGB float64 `json:"memory_total_gb"`
	MemoryPercent float64 `json:"memory_percent"`
}

// getMemoryStats returns total and available memory in bytes
var getMemoryStats = func() (total uint64, available uint64, err error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get memory stats")
	}
	return v.Total, v.Available, nil
}

// logicalCPUs is swapped in tests
var logicalCPUs = func() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// ResolveWorkerCount returns requested when positive, otherwise one worker
// per logical CPU.
func ResolveWorkerCount(requested int) int {
	if requested > 0 {
		return requested
	}
	if n := logicalCPUs(); n > 0 {
		return n
	}
	return 1
}

// calculateSafeWorkerCount recommends a worker count for the available
// memory, keeping a fixed reserve for the rest of the system.
func calculateSafeWorkerCount(availableGB, perWorkerGB float64) int {
	const memoryBuffer = 1.0 // GB reserved for the OS

	if perWorkerGB <= 0 {
		perWorkerGB = DefaultWorkerPoolConfig().MemoryPerWorkerGB
	}
	if availableGB < memoryBuffer {
		return 1
	}

	recommended := int((availableGB - memoryBuffer) / perWorkerGB)
	if recommended < 1 {
		return 1
	}
	return recommended
}

// GetSystemMetrics returns current pool and memory usage
func (wp *WorkerPool) GetSystemMetrics() SystemMetrics {
	total, available, err := getMemoryStats()

	var usedGB, totalGB, percent float64
	if err == nil && total > 0 {
		totalGB = float64(total) / 1024 / 1024 / 1024
		usedGB = float64(total-available) / 1024 / 1024 / 1024
		percent = usedGB / totalGB * 100
	}

	return SystemMetrics{
		WorkersActive: wp.ActiveWorkers(),
		WorkersTotal:  wp.workers,
		JobsProcessed: wp.Processed(),
		MemoryUsedGB:  usedGB,
		MemoryTotalGB: totalGB,
		MemoryPercent: percent,
	}
}

// checkMemoryPressure returns a warning if the worker count may exceed what
// available memory supports, empty string otherwise. Advisory only.
func (wp *WorkerPool) checkMemoryPressure() string {
	total, available, err := getMemoryStats()
	if err != nil {
		return ""
	}

	availableGB := float64(available) / 1024 / 1024 / 1024
	totalGB := float64(total) / 1024 / 1024 / 1024
	recommended := calculateSafeWorkerCount(availableGB, wp.config.MemoryPerWorkerGB)

	if wp.workers > recommended {
		return fmt.Sprintf(
			"Worker count (%d) exceeds recommended (%d) for available memory (%.1f/%.1fGB)",
			wp.workers, recommended, totalGB-availableGB, totalGB)
	}
	return ""
}
