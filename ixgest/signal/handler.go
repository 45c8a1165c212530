package signal

import (
	"context"

	"github.com/teranos/qntx-signal/logger"
	"github.com/teranos/qntx-signal/pulse"
)

// DayHandler implements pulse.JobHandler for one day directory. The job
// payload is the day path; the job result is the DayResult.
type DayHandler struct {
	agg *Aggregator
}

// NewDayHandler creates a day job handler.
func NewDayHandler(agg *Aggregator) *DayHandler {
	return &DayHandler{agg: agg}
}

// Name returns the handler identifier
func (h *DayHandler) Name() string {
	return "ixgest.signal.day"
}

// Execute processes one day.
func (h *DayHandler) Execute(ctx context.Context, job *pulse.Job) error {
	ctx = logger.WithComponent(ctx, h.Name())
	res, err := h.agg.ProcessDay(ctx, job.Payload)
	job.Result = res
	return err
}
