package pulse

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/sym"
)

func makeJobs(n int) []*Job {
	jobs := make([]*Job, n)
	for i := range jobs {
		jobs[i] = NewJob(fmt.Sprintf("day-%02d", i+1), fmt.Sprintf("/data/2022/11/%02d", i+1))
	}
	return jobs
}

func TestWorkerPool_RunsEveryJobOnce(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)

	handler := HandlerFunc{HandlerName: "test", Fn: func(ctx context.Context, job *Job) error {
		mu.Lock()
		seen[job.ID]++
		mu.Unlock()
		job.Result = job.Payload
		return nil
	}}

	pool := NewWorkerPool(WorkerPoolConfig{Workers: 4}, handler, zaptest.NewLogger(t).Sugar())
	jobs := makeJobs(30)

	require.NoError(t, pool.Run(context.Background(), jobs))

	assert.Len(t, seen, 30)
	for _, job := range jobs {
		assert.Equal(t, 1, seen[job.ID], job.ID)
		assert.Equal(t, JobStatusCompleted, job.Status)
		assert.Equal(t, job.Payload, job.Result)
		assert.False(t, job.FinishedAt.Before(job.StartedAt))
	}
	assert.Equal(t, 30, pool.Processed())
	assert.Zero(t, pool.ActiveWorkers())
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	var active, peak int32

	handler := HandlerFunc{HandlerName: "test", Fn: func(ctx context.Context, job *Job) error {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}}

	pool := NewWorkerPool(WorkerPoolConfig{Workers: 3}, handler, nil)
	require.NoError(t, pool.Run(context.Background(), makeJobs(12)))

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&peak), int32(1))
}

func TestWorkerPool_FailureIsolatedToJob(t *testing.T) {
	handler := HandlerFunc{HandlerName: "test", Fn: func(ctx context.Context, job *Job) error {
		if job.ID == "day-02" {
			return errors.New("listing failed")
		}
		return nil
	}}

	pool := NewWorkerPool(WorkerPoolConfig{Workers: 2}, handler, zaptest.NewLogger(t).Sugar())
	jobs := makeJobs(4)
	require.NoError(t, pool.Run(context.Background(), jobs))

	assert.Equal(t, JobStatusCompleted, jobs[0].Status)
	assert.Equal(t, JobStatusFailed, jobs[1].Status)
	assert.Equal(t, "listing failed", jobs[1].Error)
	assert.Equal(t, JobStatusCompleted, jobs[2].Status)
	assert.Equal(t, JobStatusCompleted, jobs[3].Status)
}

func TestWorkerPool_RecoversPanics(t *testing.T) {
	handler := HandlerFunc{HandlerName: "test", Fn: func(ctx context.Context, job *Job) error {
		if job.ID == "day-01" {
			panic("nil map")
		}
		return nil
	}}

	pool := NewWorkerPool(WorkerPoolConfig{Workers: 1}, handler, zaptest.NewLogger(t).Sugar())
	jobs := makeJobs(2)
	require.NoError(t, pool.Run(context.Background(), jobs))

	assert.Equal(t, JobStatusFailed, jobs[0].Status)
	assert.True(t, errors.Is(jobs[0].Err, ErrJobPanicked))
	assert.Equal(t, JobStatusCompleted, jobs[1].Status)
}

func TestWorkerPool_CancelledContextSkipsQueuedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	handler := HandlerFunc{HandlerName: "test", Fn: func(ctx context.Context, job *Job) error {
		if job.ID == "day-01" {
			cancel()
			close(release)
		}
		<-release
		return nil
	}}

	pool := NewWorkerPool(WorkerPoolConfig{Workers: 1}, handler, nil)
	jobs := makeJobs(5)
	err := pool.Run(ctx, jobs)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, JobStatusCompleted, jobs[0].Status)
	for _, job := range jobs[1:] {
		assert.Equal(t, JobStatusCancelled, job.Status, job.ID)
	}
}

func TestWorkerPool_EmptyJobList(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{Workers: 2}, HandlerFunc{HandlerName: "noop", Fn: func(context.Context, *Job) error {
		t.Fatal("handler must not run")
		return nil
	}}, nil)
	assert.NoError(t, pool.Run(context.Background(), nil))
}

type recordingObserver struct {
	mu       sync.Mutex
	started  int
	finished []string
}

func (o *recordingObserver) JobStarted(*Job) {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *recordingObserver) JobFinished(j *Job) {
	o.mu.Lock()
	o.finished = append(o.finished, j.ID)
	o.mu.Unlock()
}

func TestWorkerPool_Observer(t *testing.T) {
	obs := &recordingObserver{}
	pool := NewWorkerPool(WorkerPoolConfig{Workers: 2}, HandlerFunc{HandlerName: "noop", Fn: func(context.Context, *Job) error { return nil }}, nil)
	pool.SetObserver(obs)

	require.NoError(t, pool.Run(context.Background(), makeJobs(6)))
	assert.Equal(t, 6, obs.started)
	assert.Len(t, obs.finished, 6)
}

func TestWorkerPool_ClosingLineReportsMetrics(t *testing.T) {
	prev := getMemoryStats
	t.Cleanup(func() { getMemoryStats = prev })
	const gb = 1024 * 1024 * 1024
	getMemoryStats = func() (uint64, uint64, error) { return 8 * gb, 6 * gb, nil }

	core, logs := observer.New(zapcore.InfoLevel)
	handler := HandlerFunc{HandlerName: "test", Fn: func(ctx context.Context, job *Job) error { return nil }}
	pool := NewWorkerPool(WorkerPoolConfig{Workers: 2, MemoryPerWorkerGB: 0.5}, handler, zap.New(core).Sugar())

	require.NoError(t, pool.Run(context.Background(), makeJobs(3)))

	closing := logs.FilterMessage("Worker pool finished").All()
	require.Len(t, closing, 1)
	fields := closing[0].ContextMap()
	assert.EqualValues(t, 3, fields["processed"])
	assert.EqualValues(t, 2, fields["workers"])
	assert.Equal(t, "2.0/8.0", fields["memory_used_gb"])
	assert.Equal(t, sym.PulseClose, fields["symbol"])
}
