package status

import "sync"

// StageHolder stores the current stage in a thread-safe way.
// it is the single source of truth for the stage being run across runner and logger.
type StageHolder struct {
	mu       sync.RWMutex
	stage    Stage
	onChange func(old, cur Stage)
}

// OnChange registers a callback that fires when the stage changes.
// only one callback is supported; subsequent calls replace the previous one.
func (h *StageHolder) OnChange(fn func(old, cur Stage)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// Set updates the current stage and fires the OnChange callback if the stage changed.
func (h *StageHolder) Set(s Stage) {
	h.mu.Lock()
	old := h.stage
	h.stage = s
	cb := h.onChange
	h.mu.Unlock()

	if old != s && cb != nil {
		cb(old, s)
	}
}

// Get returns the current stage.
func (h *StageHolder) Get() Stage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stage
}
