package signal

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/logger"
	"github.com/teranos/qntx-signal/pulse"
)

// BatchConfig selects the month to process.
type BatchConfig struct {
	InputRoot string
	Year      string
	Month     string
	Workers   int // <= 0 means one per logical CPU
}

// Batch runs every day of one month through a worker pool.
type Batch struct {
	cfg      BatchConfig
	agg      *Aggregator
	ledger   Ledger
	observer pulse.ProgressObserver
	logger   *zap.SugaredLogger
	runID    string
}

// NewBatch creates a batch. Each Batch has its own run id.
func NewBatch(cfg BatchConfig, agg *Aggregator, log *zap.SugaredLogger) *Batch {
	if log == nil {
		log = logger.ComponentLogger("signal.batch")
	}
	return &Batch{
		cfg:    cfg,
		agg:    agg,
		logger: log,
		runID:  uuid.NewString(),
	}
}

// WithLedger records the run in l. Ledger errors are logged, never fatal.
func (b *Batch) WithLedger(l Ledger) *Batch {
	b.ledger = l
	return b
}

// WithObserver reports day progress to o.
func (b *Batch) WithObserver(o pulse.ProgressObserver) *Batch {
	b.observer = o
	return b
}

// RunID identifies this batch in logs and the run ledger.
func (b *Batch) RunID() string {
	return b.runID
}

// MonthDir is input/year/month.
func (b *Batch) MonthDir() string {
	return filepath.Join(b.cfg.InputRoot, b.cfg.Year, b.cfg.Month)
}

// DiscoverDays lists the day directories under input/year/month, sorted.
func DiscoverDays(inputRoot, year, month string) ([]string, error) {
	monthDir := filepath.Join(inputRoot, year, month)
	entries, err := os.ReadDir(monthDir)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "list month %s", monthDir),
			"check paths.input, batch.year and batch.month")
	}

	var days []string
	for _, e := range entries {
		path := filepath.Join(monthDir, e.Name())
		if isDir(e, path) {
			days = append(days, path)
		}
	}
	sort.Strings(days)
	return days, nil
}

// Run discovers the month's days, processes them on the pool and blocks
// until all are done. A day that fails is recorded on its DayResult; only a
// failure to discover days is returned. When ctx is cancelled, days not yet
// started are reported as cancelled and the result is still returned.
func (b *Batch) Run(ctx context.Context) (*BatchResult, error) {
	ctx = logger.WithRunID(ctx, b.runID)
	log := logger.AddIXSymbol(logger.LoggerFromContext(ctx, b.logger))

	res := &BatchResult{
		RunID:     b.runID,
		Year:      b.cfg.Year,
		Month:     b.cfg.Month,
		StartedAt: time.Now().UTC(),
	}

	days, err := DiscoverDays(b.cfg.InputRoot, b.cfg.Year, b.cfg.Month)
	if err != nil {
		return nil, err
	}
	if err := b.agg.Prepare(); err != nil {
		return nil, err
	}

	if b.ledger != nil {
		if err := b.ledger.StartRun(ctx, res); err != nil {
			log.Warnw("Recording run start failed", logger.FieldError, err)
		}
	}

	jobs := make([]*pulse.Job, len(days))
	for i, day := range days {
		jobs[i] = pulse.NewJob(filepath.Base(day), day)
	}

	pool := pulse.NewWorkerPool(pulse.WorkerPoolConfig{Workers: b.cfg.Workers}, NewDayHandler(b.agg), b.logger)
	if b.observer != nil {
		pool.SetObserver(b.observer)
	}
	res.Workers = pool.Workers()

	log.Infow("Batch starting",
		logger.FieldYear, b.cfg.Year,
		logger.FieldMonth, b.cfg.Month,
		logger.FieldCount, len(days),
		logger.FieldWorkers, res.Workers)

	if err := pool.Run(ctx, jobs); err != nil {
		res.Cancelled = true
	}

	res.Days = make([]DayResult, len(jobs))
	for i, job := range jobs {
		res.Days[i] = dayResultFromJob(job)
		if res.Days[i].Code == CodeCancelled {
			res.Cancelled = true
		}
	}
	res.FinishedAt = time.Now().UTC()

	if b.ledger != nil {
		// The run context may be cancelled; the ledger still needs the outcome.
		if err := b.ledger.FinishRun(context.WithoutCancel(ctx), res); err != nil {
			log.Warnw("Recording run finish failed", logger.FieldError, err)
		}
	}

	t := res.Totals()
	log.Infow("Batch finished",
		"days", t.Days,
		"intersections", t.Intersections,
		"artifacts", t.Artifacts,
		"files_ok", t.FilesOK,
		"files_failed", t.FilesFailed,
		"cancelled", res.Cancelled,
		logger.FieldDurationMS, res.FinishedAt.Sub(res.StartedAt).Milliseconds())
	return res, nil
}

// dayResultFromJob recovers the DayResult a job produced, or synthesises one
// for jobs that never ran or whose handler panicked.
func dayResultFromJob(job *pulse.Job) DayResult {
	if dr, ok := job.Result.(DayResult); ok {
		return dr
	}
	dr := DayResult{Day: job.ID, Dir: job.Payload}
	switch {
	case job.Err != nil:
		dr.setError(job.Err)
	case job.Status == pulse.JobStatusCancelled:
		dr.Code = CodeCancelled
		dr.Error = "not started"
	}
	return dr
}

// IntersectionPlan is one intersection a run would process.
type IntersectionPlan struct {
	Intersection string `json:"intersection"`
	Dir          string `json:"dir"`
	Files        int    `json:"files"`
}

// DayPlan is one day a run would process.
type DayPlan struct {
	Day           string             `json:"day"`
	Dir           string             `json:"dir"`
	Intersections []IntersectionPlan `json:"intersections"`
	Skipped       []string           `json:"skipped,omitempty"`
}

// Plan walks the month without decoding or writing anything.
func (b *Batch) Plan() ([]DayPlan, error) {
	days, err := DiscoverDays(b.cfg.InputRoot, b.cfg.Year, b.cfg.Month)
	if err != nil {
		return nil, err
	}

	plans := make([]DayPlan, 0, len(days))
	for _, day := range days {
		dirs, skipped, err := b.agg.listIntersections(day)
		if err != nil {
			return nil, err
		}
		p := DayPlan{Day: filepath.Base(day), Dir: day, Skipped: skipped}
		for _, dir := range dirs {
			files, err := listFiles(dir)
			if err != nil {
				return nil, err
			}
			p.Intersections = append(p.Intersections, IntersectionPlan{
				Intersection: filepath.Base(dir),
				Dir:          dir,
				Files:        len(files),
			})
		}
		plans = append(plans, p)
	}
	return plans, nil
}
