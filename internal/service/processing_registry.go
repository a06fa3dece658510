package service

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// ProcessingRegistry guarantees at-most-one in-flight pipeline run per ticket.
// A second caller for the same ticket id blocks and receives the first run's
// result instead of starting independent work; the slot is released
// unconditionally when the run returns, so a later call starts fresh.
type ProcessingRegistry struct {
	group    singleflight.Group
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewProcessingRegistry builds an empty registry.
func NewProcessingRegistry() *ProcessingRegistry {
	return &ProcessingRegistry{inflight: make(map[string]struct{})}
}

// Submit executes work under the ticket's slot. The returned shared flag is
// true when the caller joined an already-running pipeline.
func (r *ProcessingRegistry) Submit(ticketID string, work func() (*PipelineResult, error)) (*PipelineResult, bool, error) {
	v, err, shared := r.group.Do(ticketID, func() (any, error) {
		r.mark(ticketID)
		defer r.unmark(ticketID)
		return work()
	})
	result, _ := v.(*PipelineResult)
	return result, shared, err
}

// InFlight reports whether a pipeline run currently holds the ticket's slot.
func (r *ProcessingRegistry) InFlight(ticketID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[ticketID]
	return ok
}

func (r *ProcessingRegistry) mark(ticketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight[ticketID] = struct{}{}
}

func (r *ProcessingRegistry) unmark(ticketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, ticketID)
}
