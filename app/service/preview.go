package service

import "sync"

// previewTracker assigns a generation to every proration preview per
// subscription. A preview whose generation is no longer current when its
// upstream response arrives has been superseded by a newer request, and its
// result is discarded rather than delivered stale.
type previewTracker struct {
	mu  sync.Mutex
	gen map[string]uint64
}

func newPreviewTracker() *previewTracker {
	return &previewTracker{gen: make(map[string]uint64)}
}

func (t *previewTracker) begin(subscriptionID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen[subscriptionID]++
	return t.gen[subscriptionID]
}

func (t *previewTracker) isCurrent(subscriptionID string, generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen[subscriptionID] == generation
}
