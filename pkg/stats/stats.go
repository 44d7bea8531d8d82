// Package stats keeps bounded-window running statistics over decoded
// telemetry values for the shutdown summary.
package stats

import (
	"math"

	"github.com/ddirect/container/fifo"
	"golang.org/x/exp/constraints"
)

// Window accumulates up to maxSamples values; older samples fall out FIFO so
// long sessions summarize the recent window rather than unbounded history.
type Window[T constraints.Integer] struct {
	samples    fifo.Fifo[T]
	maxSamples int
	sum        float64
	sum2       float64
}

func New[T constraints.Integer](maxSamples int) *Window[T] {
	return &Window[T]{maxSamples: maxSamples}
}

func (w *Window[T]) Sample(x T) {
	if w.samples.Len() >= w.maxSamples {
		if old, ok := w.samples.Dequeue(); ok {
			f := float64(old)
			w.sum -= f
			w.sum2 -= f * f
		}
	}
	f := float64(x)
	w.sum += f
	w.sum2 += f * f
	w.samples.Enqueue(x)
}

func (w *Window[T]) Count() int {
	return w.samples.Len()
}

func (w *Window[T]) Mean() float64 {
	n := w.samples.Len()
	if n < 1 {
		return 0
	}
	return w.sum / float64(n)
}

// StdDev is the sample standard deviation (n-1 denominator).
func (w *Window[T]) StdDev() float64 {
	n := float64(w.samples.Len())
	if n < 2 {
		return 0
	}
	variance := (w.sum2 - w.sum*w.sum/n) / (n - 1)
	if variance < 0 {
		// float cancellation near zero variance
		return 0
	}
	return math.Sqrt(variance)
}
