package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultWorkerConfig(t *testing.T) {
	cfg := DefaultWorkerConfig("processing")
	assert.Equal(t, "processing", cfg.Name)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.True(t, cfg.RecoverStaleOnStart)
}

func TestNewWorker_AppliesDefaults(t *testing.T) {
	w := NewWorker(WorkerConfig{Name: "recalc"}, testLogger(), func(ctx context.Context) error { return nil })
	assert.Equal(t, 5*time.Second, w.config.PollInterval)
	assert.Equal(t, 10, w.config.BatchSize)
}

func TestWorker_StartStop_PollsAndCollectsMetrics(t *testing.T) {
	var calls int64
	w := NewWorker(WorkerConfig{Name: "test", PollInterval: 10 * time.Millisecond}, testLogger(), func(ctx context.Context) error {
		atomic.AddInt64(&calls, 1)
		return nil
	})

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())

	require.Eventually(t, func() bool { return atomic.LoadInt64(&calls) >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, w.Stop(context.Background()))
	assert.False(t, w.IsRunning())
}

func TestWorker_Stop_WhenNotRunning_IsNoop(t *testing.T) {
	w := NewWorker(WorkerConfig{Name: "idle"}, testLogger(), func(ctx context.Context) error { return nil })
	require.NoError(t, w.Stop(context.Background()))
}

func TestWorker_Start_Twice_IsNoop(t *testing.T) {
	w := NewWorker(WorkerConfig{Name: "double", PollInterval: time.Second}, testLogger(), func(ctx context.Context) error { return nil })
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop(context.Background()))
}

func TestWorker_IncrementHelpers(t *testing.T) {
	w := NewWorker(WorkerConfig{Name: "metrics"}, testLogger(), func(ctx context.Context) error { return nil })

	w.IncrementSuccess()
	w.IncrementFailure()
	w.IncrementProcessed()

	m := w.Metrics()
	assert.Equal(t, int64(3), m.Processed)
	assert.Equal(t, int64(1), m.Succeeded)
	assert.Equal(t, int64(1), m.Failed)
}

func TestWorker_ProcessBatch_ErrorDoesNotStopPolling(t *testing.T) {
	var calls int64
	w := NewWorker(WorkerConfig{Name: "flaky", PollInterval: 10 * time.Millisecond}, testLogger(), func(ctx context.Context) error {
		n := atomic.AddInt64(&calls, 1)
		if n == 1 {
			return errors.New("transient failure")
		}
		return nil
	})

	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool { return atomic.LoadInt64(&calls) >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop(context.Background()))
}
