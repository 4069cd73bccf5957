package astro

import (
	"time"
)

// StepFunc maps an instant to a small non-negative category. It is assumed
// piecewise constant with transitions far apart compared to the sampling
// step.
type StepFunc func(t time.Time) int

// Transition is one change of a StepFunc: at Time the function takes Value.
type Transition struct {
	Time  time.Time
	Value int
}

const (
	// DefaultStep keeps the shortest nights just below the polar circles,
	// where sunset and the next sunrise can be minutes apart, resolvable.
	DefaultStep      = 5 * time.Minute
	DefaultPrecision = 100 * time.Millisecond
)

// FinderOptions tunes FindDiscrete. Zero values select the defaults.
type FinderOptions struct {
	// Step is the coarse sampling interval. Two transitions closer than Step
	// that cancel each other out are not seen.
	Step time.Duration
	// Precision is the bisection tolerance.
	Precision time.Duration
}

func (o FinderOptions) withDefaults() FinderOptions {
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.Precision <= 0 {
		o.Precision = DefaultPrecision
	}
	return o
}

// FindDiscrete returns every transition of f inside (start, end], in
// ascending order. It samples f every opts.Step and bisects each bracket
// whose endpoints disagree. A constant f yields an empty result.
func FindDiscrete(start, end time.Time, f StepFunc, opts FinderOptions) []Transition {
	if !start.Before(end) {
		return nil
	}
	opts = opts.withDefaults()

	var (
		out   []Transition
		prevT = start
		prevV = f(start)
	)

	for prevT.Before(end) {
		t := prevT.Add(opts.Step)
		if t.After(end) {
			t = end
		}
		v := f(t)
		if v != prevV {
			out = refine(f, prevT, prevV, t, v, opts.Precision, out)
		}
		prevT, prevV = t, v
	}

	return out
}

// refine bisects [a, b] down to the first change away from va, appends it,
// and continues on the remainder when b's value is still different from the
// value found, so several changes inside one step are all reported.
func refine(f StepFunc, a time.Time, va int, b time.Time, vb int, precision time.Duration, out []Transition) []Transition {
	end, vEnd := b, vb

	for b.Sub(a) > precision {
		mid := a.Add(b.Sub(a) / 2)
		vm := f(mid)
		if vm != va {
			b, vb = mid, vm
		} else {
			a = mid
		}
	}

	out = append(out, Transition{Time: a.Add(b.Sub(a) / 2), Value: vb})

	if vb != vEnd && b.Before(end) {
		return refine(f, b, vb, end, vEnd, precision, out)
	}
	return out
}
