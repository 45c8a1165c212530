package pulse

// ProgressObserver receives job lifecycle events from the pool.
// Calls arrive from worker goroutines; implementations must be safe for
// concurrent use and should return quickly.
type ProgressObserver interface {
	JobStarted(job *Job)
	JobFinished(job *Job)
}

// nopObserver discards events.
type nopObserver struct{}

func (nopObserver) JobStarted(*Job)  {}
func (nopObserver) JobFinished(*Job) {}
