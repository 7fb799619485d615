package main

import "time"

// spinWindow is how close to the deadline Wait stops sleeping and spins.
const spinWindow = 200 * time.Microsecond

// tickLimiter paces the loop to a fixed tick rate.
type tickLimiter struct {
	period time.Duration
	next   time.Time
}

// newTickLimiter returns a limiter for rate ticks per second. A rate of zero
// or less never waits.
func newTickLimiter(rate int) *tickLimiter {
	l := &tickLimiter{}
	if rate > 0 {
		l.period = time.Second / time.Duration(rate)
	}
	return l
}

// Wait blocks until the next tick is due.
func (l *tickLimiter) Wait() {
	if l.period <= 0 {
		return
	}
	if l.next.IsZero() {
		l.next = time.Now().Add(l.period)
	} else {
		l.next = l.next.Add(l.period)
	}

	for {
		remaining := time.Until(l.next)
		if remaining <= 0 {
			break
		}
		if remaining > spinWindow {
			time.Sleep(remaining - spinWindow)
		}
	}

	// after a hitch, resync instead of running a burst of catch-up ticks
	if late := -time.Until(l.next); late > l.period {
		l.next = time.Now().Add(l.period)
	}
}
