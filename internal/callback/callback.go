// Package callback provides the named-callback chain used for lifecycle
// hooks ("room.closeRoom", "transcript.sent") and a tracked runner for
// deferred post-commit work. Execution is asynchronous and best-effort:
// failures are logged, never propagated, and never retried.
package callback

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
)

// Handler is a registered callback. Errors are reported, not acted on.
type Handler func(ctx context.Context, payload any) error

// Chain is a process-local registry of named callbacks.
type Chain struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
	logger   *logger.Logger
}

// New creates an empty callback chain.
func New(log *logger.Logger) *Chain {
	return &Chain{
		handlers: make(map[string][]Handler),
		logger:   log,
	}
}

// Register appends a handler to a named hook.
func (c *Chain) Register(name string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = append(c.handlers[name], h)
}

// RunAsync invokes every handler registered under name in the background,
// decoupled from the caller's completion. Panics are contained.
func (c *Chain) RunAsync(name string, payload any) {
	c.mu.RLock()
	handlers := c.handlers[name]
	c.mu.RUnlock()

	for _, h := range handlers {
		c.Go(func(ctx context.Context) {
			if err := h(ctx, payload); err != nil {
				c.logger.Warn("callback failed",
					zap.String("hook", name),
					zap.Error(err),
				)
			}
		})
	}
}

// Go schedules a tracked background task. Wait drains scheduled tasks, so
// shutdown (and tests) can observe deferred work completing.
func (c *Chain) Go(fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("recovered panic in deferred task", zap.Any("panic", r))
			}
		}()
		fn(context.Background())
	}()
}

// Wait blocks until all currently scheduled background work has finished.
func (c *Chain) Wait() {
	c.wg.Wait()
}
