package main

import (
	"testing"
	"time"
)

func TestTickLimiterPaces(t *testing.T) {
	l := newTickLimiter(200)
	start := time.Now()
	for range 10 {
		l.Wait()
	}
	if got := time.Since(start); got < 45*time.Millisecond {
		t.Errorf("10 ticks at 200/s took %v", got)
	}
}

func TestTickLimiterResyncsAfterHitch(t *testing.T) {
	l := newTickLimiter(1000)
	l.Wait()
	time.Sleep(20 * time.Millisecond)
	l.Wait()
	if ahead := time.Until(l.next); ahead < 0 || ahead > 2*time.Millisecond {
		t.Errorf("next tick %v away after a hitch", ahead)
	}
}

func TestTickLimiterDisabled(t *testing.T) {
	l := newTickLimiter(0)
	start := time.Now()
	l.Wait()
	if time.Since(start) > 5*time.Millisecond {
		t.Error("disabled limiter waited")
	}
}
