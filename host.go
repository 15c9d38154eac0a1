package platformstrategy

import (
	"sync/atomic"

	"github.com/Swind/go-platform-strategy/core"
)

// HostHandle is a non-owning reference to the host that owns the designated
// execution context. The host stays owned by its environment; the handle only
// answers whether it is still attached and where to submit work.
type HostHandle struct {
	exec     core.Executor
	alive    func() bool
	detached atomic.Bool
}

// NewHostHandle wraps exec. alive is consulted on every use; a nil alive
// means the host is live until Detach is called.
func NewHostHandle(exec core.Executor, alive func() bool) *HostHandle {
	return &HostHandle{exec: exec, alive: alive}
}

// Executor returns the host's designated execution context.
func (h *HostHandle) Executor() core.Executor {
	if h == nil {
		return nil
	}
	return h.exec
}

// Alive reports whether the host can still be used. A nil handle is never alive.
func (h *HostHandle) Alive() bool {
	if h == nil || h.exec == nil || h.detached.Load() {
		return false
	}
	if h.alive == nil {
		return true
	}
	return h.alive()
}

// Detach marks the host as gone. Later work items see a dead handle.
func (h *HostHandle) Detach() {
	if h != nil {
		h.detached.Store(true)
	}
}
