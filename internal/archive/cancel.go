package archive

import "sync/atomic"

// CancelFlag is the cooperative cancellation signal shared between a caller
// and a running Archiver. Set may be called from any goroutine; the archiver
// polls the flag at loop heads and before page fetches, so the latency to
// honor it is bounded by one in-flight network operation plus one file write.
type CancelFlag struct {
	stopped atomic.Bool
}

func NewCancelFlag() *CancelFlag { return &CancelFlag{} }

// Set requests cancellation. Calling it more than once is harmless.
func (c *CancelFlag) Set() { c.stopped.Store(true) }

// Stopped reports whether cancellation has been requested.
func (c *CancelFlag) Stopped() bool { return c.stopped.Load() }
