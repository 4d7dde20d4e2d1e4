// Package parallel defines the runner contract an engine uses to fan decode
// work out over independent units, plus two implementations: a sequential
// runner and a bounded worker pool. The engine decides what a unit is; the
// runner only guarantees every unit in [start, end) has executed before Run
// returns.
package parallel

// RunInit is invoked once per run, before any task is dispatched, with the
// number of worker slots that will execute tasks. A non-nil error aborts
// the run before any task executes.
type RunInit func(workers int) error

// RunTask executes a single unit of work. worker identifies the slot running
// the task (0 <= worker < workers) so callers can keep per-worker scratch.
type RunTask func(worker, unit int)

// Runner executes tasks for every unit in [start, end). Implementations must
// join all tasks before returning; callers never observe partial completion.
type Runner interface {
	Run(init RunInit, task RunTask, start, end int) error
}

// Sequential runs every unit on the calling goroutine, in order.
type Sequential struct{}

func (Sequential) Run(init RunInit, task RunTask, start, end int) error {
	if init != nil {
		if err := init(1); err != nil {
			return err
		}
	}
	for unit := start; unit < end; unit++ {
		task(0, unit)
	}
	return nil
}

var _ Runner = Sequential{}
