package batchloader

// Hooks are lightweight callbacks for loader events.
// Implementations must be cheap, non-blocking and thread-safe.
type Hooks interface {
	// CacheHit is called when a load is served by an existing cell.
	CacheHit()

	// CacheMiss is called when a load creates a new cell and joins a batch.
	CacheMiss()

	// BatchDispatched is called right before the BatchFunc is invoked.
	BatchDispatched(size int)

	// BatchFailed is called when a whole batch is rejected.
	BatchFailed(size int, err error)

	// KeyFailed is called for each per-key error returned by the BatchFunc.
	KeyFailed(err error)
}

// NopHooks is the default no-op Hooks.
type NopHooks struct{}

var _ Hooks = NopHooks{}

func (NopHooks) CacheHit()              {}
func (NopHooks) CacheMiss()             {}
func (NopHooks) BatchDispatched(int)    {}
func (NopHooks) BatchFailed(int, error) {}
func (NopHooks) KeyFailed(error)        {}
