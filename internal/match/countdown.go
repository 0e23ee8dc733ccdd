package match

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	countdownSeconds = 25
	countdownTick    = time.Second
)

// countdown is the cancellable timer armed when a match reaches capacity.
// The runner goroutine owns remaining; done closes when the runner has fully
// exited, so stop() gives the caller a hard guarantee that no further tick
// render can happen.
type countdown struct {
	cancel    context.CancelFunc
	done      chan struct{}
	remaining atomic.Int32
}

// stop cancels the timer and waits for the runner to exit. It is called with
// the match op lock held: the runner only ever needs that lock for its final
// transition, and it gives up waiting for it the moment its context is
// cancelled, so this cannot deadlock.
func (c *countdown) stop() {
	c.cancel()
	<-c.done
}
