package pulse

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/logger"
)

// ErrJobPanicked marks a job whose handler panicked.
var ErrJobPanicked = errors.New("job handler panicked")

// pulseLogger wraps zap.SugaredLogger with lifecycle helpers so pool
// start/stop lines stand out from per-job logs.
type pulseLogger struct {
	*zap.SugaredLogger
	base *zap.SugaredLogger
}

func newPulseLogger(base *zap.SugaredLogger) pulseLogger {
	return pulseLogger{SugaredLogger: logger.AddPulseSymbol(base), base: base}
}

// Starting logs an opening event
func (l pulseLogger) Starting(msg string, keysAndValues ...interface{}) {
	logger.AddPulseOpenSymbol(l.base).Infow(msg, keysAndValues...)
}

// Closing logs a closing event
func (l pulseLogger) Closing(msg string, keysAndValues ...interface{}) {
	logger.AddPulseCloseSymbol(l.base).Infow(msg, keysAndValues...)
}

// Pulse logs per-job operations
func (l pulseLogger) Pulse(msg string, keysAndValues ...interface{}) {
	l.Debugw(msg, keysAndValues...)
}

// WorkerPoolConfig contains configuration for the worker pool
type WorkerPoolConfig struct {
	Workers int `json:"workers"` // Number of concurrent workers; <= 0 means one per logical CPU

	// MemoryPerWorkerGB feeds the advisory memory-pressure check at start.
	MemoryPerWorkerGB float64 `json:"memory_per_worker_gb"`
}

// DefaultWorkerPoolConfig returns one worker per logical CPU.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Workers:           0,
		MemoryPerWorkerGB: 0.5,
	}
}

// WorkerPool runs a finite set of jobs on a fixed number of goroutines.
// A pool is single-use per Run call but may be Run repeatedly.
type WorkerPool struct {
	handler  JobHandler
	workers  int
	config   WorkerPoolConfig
	observer ProgressObserver
	logger   pulseLogger

	mu            sync.Mutex
	activeWorkers int
	processed     int
}

// NewWorkerPool creates a pool that executes jobs with handler.
func NewWorkerPool(cfg WorkerPoolConfig, handler JobHandler, log *zap.SugaredLogger) *WorkerPool {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &WorkerPool{
		handler:  handler,
		workers:  ResolveWorkerCount(cfg.Workers),
		config:   cfg,
		observer: nopObserver{},
		logger:   newPulseLogger(log.Named("pulse")),
	}
}

// SetObserver installs a progress observer. Call before Run.
func (wp *WorkerPool) SetObserver(o ProgressObserver) {
	if o == nil {
		o = nopObserver{}
	}
	wp.observer = o
}

// Workers returns the resolved worker count.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Run feeds jobs through a queue to the workers and blocks until every job
// is completed, failed or cancelled. Jobs still queued when ctx is cancelled
// are marked cancelled without running. Run returns ctx.Err() if the context
// ended before all jobs were dispatched, nil otherwise; per-job failures are
// reported on the jobs themselves.
func (wp *WorkerPool) Run(ctx context.Context, jobs []*Job) error {
	if len(jobs) == 0 {
		return nil
	}

	workers := wp.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	if warning := wp.checkMemoryPressure(); warning != "" {
		wp.logger.Warnw("Memory pressure warning", "warning", warning, "workers", workers)
	}

	wp.logger.Starting("Worker pool starting",
		"handler", wp.handler.Name(),
		"workers", workers,
		"jobs", len(jobs))
	start := time.Now()

	queue := make(chan *Job)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go wp.worker(ctx, i, queue, &wg)
	}

	var dispatchErr error
dispatch:
	for i, job := range jobs {
		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case queue <- job:
				continue
			}
		}
		for _, rest := range jobs[i:] {
			rest.Status = JobStatusCancelled
			rest.Err = ctx.Err()
			rest.Error = ctx.Err().Error()
		}
		dispatchErr = ctx.Err()
		break dispatch
	}
	close(queue)
	wg.Wait()

	metrics := wp.GetSystemMetrics()
	wp.logger.Closing("Worker pool finished",
		"handler", wp.handler.Name(),
		"processed", metrics.JobsProcessed,
		"workers", metrics.WorkersTotal,
		"memory_used_gb", fmt.Sprintf("%.1f/%.1f", metrics.MemoryUsedGB, metrics.MemoryTotalGB),
		"duration_ms", time.Since(start).Milliseconds())

	return dispatchErr
}

func (wp *WorkerPool) worker(ctx context.Context, id int, queue <-chan *Job, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range queue {
		wp.execute(ctx, id, job)
	}
}

func (wp *WorkerPool) execute(ctx context.Context, workerID int, job *Job) {
	job.WorkerID = workerID
	if err := ctx.Err(); err != nil {
		job.Status = JobStatusCancelled
		job.Err = err
		job.Error = err.Error()
		return
	}
	job.Status = JobStatusRunning
	job.StartedAt = time.Now()

	wp.setActive(1)
	wp.observer.JobStarted(job)
	wp.logger.Pulse("Job started",
		"job_id", job.ID,
		"worker_id", workerID,
		"active", wp.ActiveWorkers())

	err := wp.safeExecute(ctx, job)

	job.FinishedAt = time.Now()
	switch {
	case err == nil:
		job.Status = JobStatusCompleted
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		job.Status = JobStatusCancelled
		job.Err = err
		job.Error = err.Error()
	default:
		job.fail(err)
		wp.logger.Warnw("Job failed",
			"job_id", job.ID,
			"worker_id", workerID,
			"error", err)
	}

	wp.setActive(-1)
	wp.observer.JobFinished(job)
	wp.logger.Pulse("Job finished",
		"job_id", job.ID,
		"status", string(job.Status),
		"duration_ms", job.Duration().Milliseconds())
}

// safeExecute converts a handler panic into a job failure so one bad unit
// cannot take the worker down.
func (wp *WorkerPool) safeExecute(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Errorw("Job handler panicked",
				"job_id", job.ID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			err = errors.Wrapf(ErrJobPanicked, "%v", r)
		}
	}()
	return wp.handler.Execute(ctx, job)
}

func (wp *WorkerPool) setActive(delta int) {
	wp.mu.Lock()
	wp.activeWorkers += delta
	if delta < 0 {
		wp.processed++
	}
	wp.mu.Unlock()
}

// Processed returns how many jobs have finished executing.
func (wp *WorkerPool) Processed() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.processed
}

// ActiveWorkers returns the number of workers currently executing a job.
func (wp *WorkerPool) ActiveWorkers() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.activeWorkers
}
