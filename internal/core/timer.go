package core

import "time"

// FixedStep paces simulation updates at a steady steps-per-second rate,
// independent of the frame rate of whatever drives it.
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	now         func() time.Time
}

// NewFixedStep constructs a FixedStep controller targeting the given rate.
func NewFixedStep(sps int) *FixedStep {
	if sps <= 0 {
		sps = 60
	}
	fs := &FixedStep{now: time.Now}
	fs.SetRate(sps)
	fs.accumulator = fs.step
	return fs
}

// SetRate changes the step rate. It is safe to call from the main loop.
func (f *FixedStep) SetRate(sps int) {
	if sps <= 0 {
		sps = 60
	}
	f.step = time.Second / time.Duration(sps)
}

// Due returns how many steps have accumulated since the previous call,
// capped at max so a stalled frame does not trigger a burst.
func (f *FixedStep) Due(max int) int {
	now := f.now()
	if f.last.IsZero() {
		f.last = now
	}
	f.accumulator += now.Sub(f.last)
	f.last = now
	n := 0
	for f.accumulator >= f.step && n < max {
		f.accumulator -= f.step
		n++
	}
	if n == max {
		f.accumulator = 0
	}
	return n
}
