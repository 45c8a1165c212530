package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/qntx-signal/errors"
)

func TestResolveWorkerCount(t *testing.T) {
	prev := logicalCPUs
	t.Cleanup(func() { logicalCPUs = prev })
	logicalCPUs = func() int { return 6 }

	assert.Equal(t, 3, ResolveWorkerCount(3))
	assert.Equal(t, 6, ResolveWorkerCount(0))
	assert.Equal(t, 6, ResolveWorkerCount(-2))

	logicalCPUs = func() int { return 0 }
	assert.Equal(t, 1, ResolveWorkerCount(0))
}

func TestCalculateSafeWorkerCount(t *testing.T) {
	assert.Equal(t, 1, calculateSafeWorkerCount(0.5, 0.5))
	assert.Equal(t, 6, calculateSafeWorkerCount(4.0, 0.5))
	assert.Equal(t, 1, calculateSafeWorkerCount(1.2, 2.0))
	assert.Equal(t, 6, calculateSafeWorkerCount(4.0, 0), "zero per-worker falls back to default")
}

func TestCheckMemoryPressure(t *testing.T) {
	prev := getMemoryStats
	t.Cleanup(func() { getMemoryStats = prev })

	const gb = 1024 * 1024 * 1024
	getMemoryStats = func() (uint64, uint64, error) { return 8 * gb, 2 * gb, nil }

	pool := NewWorkerPool(WorkerPoolConfig{Workers: 16, MemoryPerWorkerGB: 0.5}, nil, nil)
	assert.Contains(t, pool.checkMemoryPressure(), "exceeds recommended (2)")

	pool = NewWorkerPool(WorkerPoolConfig{Workers: 2, MemoryPerWorkerGB: 0.5}, nil, nil)
	assert.Empty(t, pool.checkMemoryPressure())

	getMemoryStats = func() (uint64, uint64, error) { return 0, 0, errors.New("unsupported") }
	assert.Empty(t, pool.checkMemoryPressure())

	metrics := pool.GetSystemMetrics()
	assert.Equal(t, 2, metrics.WorkersTotal)
	assert.Zero(t, metrics.MemoryTotalGB)
}
