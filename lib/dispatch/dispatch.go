// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Result is the outcome of one unit of work.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the work succeeded.
func (result Result[T]) OK() bool {
	return result.Err == nil
}

// PanicError is the failure delivered when work panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (err *PanicError) Error() string {
	return fmt.Sprintf("background work panicked: %v", err.Value)
}

// Dispatcher owns the completion queue. The goroutine that drains it
// is, by definition, the UI goroutine.
type Dispatcher struct {
	ctx    context.Context
	logger *slog.Logger

	mu      sync.Mutex
	queue   []func()
	ready   chan struct{}
	running sync.WaitGroup
}

// New returns a dispatcher whose work receives ctx. Cancelling ctx is
// a hint to in-flight I/O during shutdown; completions are still
// queued. A nil logger discards.
func New(ctx context.Context, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		ctx:    ctx,
		logger: logger,
		ready:  make(chan struct{}, 1),
	}
}

// Run executes work on a new goroutine and queues onDone with its
// result. onDone runs exactly once, on the draining goroutine. name
// labels the work in debug logs.
func Run[T any](dispatcher *Dispatcher, name string, work func(context.Context) (T, error), onDone func(Result[T])) {
	dispatcher.running.Add(1)
	go func() {
		defer dispatcher.running.Done()
		started := time.Now()
		dispatcher.logger.Debug("background work started", "work", name)
		result := execute(dispatcher.ctx, work)
		dispatcher.logger.Debug("background work finished",
			"work", name,
			"duration", time.Since(started),
			"error", result.Err,
		)
		dispatcher.enqueue(func() {
			if onDone != nil {
				onDone(result)
			}
		})
	}()
}

// Context returns the context work receives.
func (dispatcher *Dispatcher) Context() context.Context {
	return dispatcher.ctx
}

func execute[T any](ctx context.Context, work func(context.Context) (T, error)) (result Result[T]) {
	defer func() {
		if recovered := recover(); recovered != nil {
			var zero T
			result = Result[T]{Value: zero, Err: &PanicError{Value: recovered, Stack: debug.Stack()}}
		}
	}()
	value, err := work(ctx)
	return Result[T]{Value: value, Err: err}
}

func (dispatcher *Dispatcher) enqueue(completion func()) {
	dispatcher.mu.Lock()
	dispatcher.queue = append(dispatcher.queue, completion)
	dispatcher.mu.Unlock()
	select {
	case dispatcher.ready <- struct{}{}:
	default:
	}
}

func (dispatcher *Dispatcher) pop() (func(), bool) {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	if len(dispatcher.queue) == 0 {
		return nil, false
	}
	completion := dispatcher.queue[0]
	dispatcher.queue[0] = nil
	dispatcher.queue = dispatcher.queue[1:]
	return completion, true
}

// Pending returns the number of queued, not yet run completions.
func (dispatcher *Dispatcher) Pending() int {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	return len(dispatcher.queue)
}

// RunPending runs every queued completion in arrival order, including
// any queued by the completions themselves, and returns how many ran.
// It never blocks on work.
func (dispatcher *Dispatcher) RunPending() int {
	count := 0
	for {
		completion, ok := dispatcher.pop()
		if !ok {
			return count
		}
		completion()
		count++
	}
}

// Next blocks until a completion is available, runs it, and returns
// nil. It returns ctx's error if ctx ends first.
func (dispatcher *Dispatcher) Next(ctx context.Context) error {
	completion, err := dispatcher.take(ctx)
	if err != nil {
		return err
	}
	completion()
	return nil
}

func (dispatcher *Dispatcher) take(ctx context.Context) (func(), error) {
	for {
		if completion, ok := dispatcher.pop(); ok {
			return completion, nil
		}
		select {
		case <-dispatcher.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Wait blocks until all started work has returned and queued its
// completion. It does not run completions.
func (dispatcher *Dispatcher) Wait() {
	dispatcher.running.Wait()
}

// Drain waits for all started work and runs completions until none
// remain, including work started by those completions.
func (dispatcher *Dispatcher) Drain() {
	for {
		dispatcher.Wait()
		if dispatcher.RunPending() == 0 {
			return
		}
	}
}
