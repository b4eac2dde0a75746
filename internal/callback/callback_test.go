package callback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestRunAsyncInvokesAllHandlers(t *testing.T) {
	chain := New(testLogger())

	var (
		mu       sync.Mutex
		payloads []any
	)
	for i := 0; i < 3; i++ {
		chain.Register("room.closeRoom", func(ctx context.Context, payload any) error {
			mu.Lock()
			defer mu.Unlock()
			payloads = append(payloads, payload)
			return nil
		})
	}

	chain.RunAsync("room.closeRoom", "r1")
	chain.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(payloads) != 3 {
		t.Fatalf("handlers invoked = %d, want 3", len(payloads))
	}
	for _, p := range payloads {
		if p != "r1" {
			t.Errorf("payload = %v, want r1", p)
		}
	}
}

func TestRunAsyncUnknownHookIsNoOp(t *testing.T) {
	chain := New(testLogger())
	chain.RunAsync("no.such.hook", nil)
	chain.Wait()
}

func TestRunAsyncAbsorbsHandlerErrors(t *testing.T) {
	chain := New(testLogger())

	var ran atomic.Int32
	chain.Register("transcript.sent", func(ctx context.Context, payload any) error {
		ran.Add(1)
		return errors.New("downstream unavailable")
	})
	chain.Register("transcript.sent", func(ctx context.Context, payload any) error {
		ran.Add(1)
		return nil
	})

	chain.RunAsync("transcript.sent", nil)
	chain.Wait()

	if got := ran.Load(); got != 2 {
		t.Errorf("handlers invoked = %d, want 2 (errors must not stop the chain)", got)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	chain := New(testLogger())

	chain.Go(func(ctx context.Context) {
		panic("deferred task exploded")
	})
	// Wait must return despite the panic: the task is done, not leaked.
	chain.Wait()

	var ran atomic.Bool
	chain.Go(func(ctx context.Context) { ran.Store(true) })
	chain.Wait()
	if !ran.Load() {
		t.Error("chain unusable after a recovered panic")
	}
}

func TestWaitDrainsScheduledWork(t *testing.T) {
	chain := New(testLogger())

	var completed atomic.Int32
	for i := 0; i < 10; i++ {
		chain.Go(func(ctx context.Context) {
			completed.Add(1)
		})
	}
	chain.Wait()

	if got := completed.Load(); got != 10 {
		t.Errorf("completed = %d, want 10", got)
	}
}
