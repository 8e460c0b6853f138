// Package progress synthesizes a plausible progress percentage for the
// server-side import job, which only ever reports "done"/"not done". The
// estimate ramps to 90% over a fixed minimum duration, creeps to 99% over a
// second window, and only hits 100 when the server confirms completion.
package progress

import "time"

const (
	// DefaultMinDuration is the wall-clock time over which the estimate
	// ramps linearly from 0 to 90%.
	DefaultMinDuration = 3 * time.Second
	// DefaultExtraWindow is the window over which it then creeps from 90%
	// to 99%, after which it holds flat.
	DefaultExtraWindow = 5 * time.Second
)

// Estimator turns elapsed wall-clock time into a smooth, monotonically
// non-decreasing percentage in [0,100]. Not safe for concurrent use.
type Estimator struct {
	minDuration time.Duration
	extraWindow time.Duration

	// now is swappable in tests.
	now func() time.Time

	running   bool
	startedAt time.Time
	value     float64
}

func NewEstimator() *Estimator {
	return &Estimator{
		minDuration: DefaultMinDuration,
		extraWindow: DefaultExtraWindow,
		now:         time.Now,
	}
}

func (e *Estimator) Running() bool { return e.running }

// Value is the current displayed percentage.
func (e *Estimator) Value() float64 { return e.value }

// Start records the job start. StartedAt is set exactly once per job: calling
// Start while already running is a no-op, so a re-observed "running" flag
// cannot restart the ramp.
func (e *Estimator) Start() {
	if e.running {
		return
	}
	e.running = true
	e.startedAt = e.now()
	e.value = 0
}

// Tick recomputes the estimate from elapsed time. The displayed value never
// regresses even if recomputation jitters, and never exceeds 99 before
// Complete.
func (e *Estimator) Tick() float64 {
	if !e.running {
		return e.value
	}
	elapsed := e.now().Sub(e.startedAt)

	var ratio float64
	if elapsed <= e.minDuration {
		ratio = float64(elapsed) / float64(e.minDuration) * 0.9
	} else {
		extra := float64(elapsed-e.minDuration) / float64(e.extraWindow)
		if extra > 1 {
			extra = 1
		}
		ratio = 0.9 + extra*0.09
	}

	next := ratio * 100
	if next > 99 {
		next = 99
	}
	if next > e.value {
		e.value = next
	}
	return e.value
}

// Complete pins the value to 100 and stops the job, regardless of elapsed
// time. Only a confirmed completion may do this.
func (e *Estimator) Complete() {
	e.running = false
	e.startedAt = time.Time{}
	e.value = 100
}

// Cancel stops the job without forcing 100. The last displayed value is kept
// for the "cancelling…" copy until the UI tears the bar down.
func (e *Estimator) Cancel() {
	e.running = false
	e.startedAt = time.Time{}
}
