package regs

import (
	"errors"
	"time"

	"github.com/jpillora/backoff"
)

var ErrTimeout = errors.New("timed out waiting for hardware")

// Poller waits for hardware status bits. The zero Poller spins without a
// timeout, so a flag that never changes hangs the caller.
type Poller struct {
	// Timeout bounds each wait. Zero means wait forever.
	Timeout time.Duration
	// MinSleep and MaxSleep bound the sleep between polls of a timed wait.
	// Untimed waits never sleep.
	MinSleep time.Duration
	MaxSleep time.Duration
}

// Until polls cond until it returns true.
func (p *Poller) Until(cond func() bool) error {
	if p == nil || p.Timeout == 0 {
		for !cond() {
		}
		return nil
	}
	b := &backoff.Backoff{
		Min:    p.MinSleep,
		Max:    p.MaxSleep,
		Factor: 2,
	}
	if b.Min == 0 {
		b.Min = time.Microsecond
	}
	if b.Max == 0 {
		b.Max = time.Millisecond
	}
	deadline := time.Now().Add(p.Timeout)
	for !cond() {
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(b.Duration())
	}
	return nil
}
