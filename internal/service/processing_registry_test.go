package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var assertErr = errors.New("pipeline exploded")

func TestRegistrySubmitRunsWork(t *testing.T) {
	registry := NewProcessingRegistry()

	result, shared, err := registry.Submit("ticket-1", func() (*PipelineResult, error) {
		return &PipelineResult{TicketID: "ticket-1", Success: true}, nil
	})

	require.NoError(t, err)
	require.False(t, shared)
	require.Equal(t, "ticket-1", result.TicketID)
	require.False(t, registry.InFlight("ticket-1"))
}

func TestRegistryDeduplicatesConcurrentSubmits(t *testing.T) {
	registry := NewProcessingRegistry()
	var executions int64
	release := make(chan struct{})

	const callers = 8
	results := make([]*PipelineResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			result, _, err := registry.Submit("ticket-7", func() (*PipelineResult, error) {
				atomic.AddInt64(&executions, 1)
				<-release
				return &PipelineResult{TicketID: "ticket-7", TraceID: "run-a"}, nil
			})
			require.NoError(t, err)
			results[idx] = result
		}(i)
	}

	require.Eventually(t, func() bool {
		return registry.InFlight("ticket-7")
	}, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	require.Equal(t, int64(1), atomic.LoadInt64(&executions))
	for _, result := range results {
		require.Same(t, results[0], result)
	}
	require.False(t, registry.InFlight("ticket-7"))
}

func TestRegistryAllowsRerunAfterCompletion(t *testing.T) {
	registry := NewProcessingRegistry()
	var executions int64

	run := func() {
		_, _, err := registry.Submit("ticket-2", func() (*PipelineResult, error) {
			atomic.AddInt64(&executions, 1)
			return &PipelineResult{TicketID: "ticket-2"}, nil
		})
		require.NoError(t, err)
	}

	run()
	run()
	require.Equal(t, int64(2), atomic.LoadInt64(&executions))
}

func TestRegistryReleasesSlotOnError(t *testing.T) {
	registry := NewProcessingRegistry()

	_, _, err := registry.Submit("ticket-3", func() (*PipelineResult, error) {
		return nil, assertErr
	})
	require.ErrorIs(t, err, assertErr)
	require.False(t, registry.InFlight("ticket-3"))

	result, _, err := registry.Submit("ticket-3", func() (*PipelineResult, error) {
		return &PipelineResult{TicketID: "ticket-3", Success: true}, nil
	})
	require.NoError(t, err)
	require.True(t, result.Success)
}

func TestRegistryKeysAreIndependent(t *testing.T) {
	registry := NewProcessingRegistry()
	var executions int64
	var wg sync.WaitGroup

	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(ticketID string) {
			defer wg.Done()
			_, _, err := registry.Submit(ticketID, func() (*PipelineResult, error) {
				atomic.AddInt64(&executions, 1)
				return &PipelineResult{TicketID: ticketID}, nil
			})
			require.NoError(t, err)
		}(id)
	}
	wg.Wait()

	require.Equal(t, int64(3), atomic.LoadInt64(&executions))
}
