package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for requests and pipeline runs.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	pipelineCount map[string]int64
	pipelineMS    map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		pipelineCount: make(map[string]int64),
		pipelineMS:    make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordPipeline tracks one auto-resolution run by chosen action and outcome.
func (m *Metrics) RecordPipeline(action string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	key := action + "|" + strconv.FormatBool(success)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pipelineCount[key]++
	m.pipelineMS[key] += duration.Milliseconds()
}

// PipelineCount returns the number of runs recorded for an action/outcome pair.
func (m *Metrics) PipelineCount(action string, success bool) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pipelineCount[action+"|"+strconv.FormatBool(success)]
}
