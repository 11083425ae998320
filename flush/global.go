package flush

import "sync"

var (
	globalMu   sync.Mutex
	globalInst *Coordinator
)

// Init installs the process-wide Coordinator, replacing any previous one.
// Callers that never call Init get a default-configured instance lazily
// on first Global() call, so Init is only needed to customize threshold,
// worker count, or logger.
func Init(opts ...Option) *Coordinator {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalInst = New(opts...)
	return globalInst
}

// Global returns the process-wide Coordinator, creating a
// default-configured one on first use.
func Global() *Coordinator {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalInst == nil {
		globalInst = New()
	}
	return globalInst
}

// Shutdown closes and clears the process-wide Coordinator, if any. Safe to
// call even if Init/Global was never called.
func Shutdown() error {
	globalMu.Lock()
	inst := globalInst
	globalInst = nil
	globalMu.Unlock()

	if inst == nil {
		return nil
	}
	return inst.Close()
}
