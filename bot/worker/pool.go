package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sepehrmoghiseh/musifyyy/bot"
)

var (
	ErrPoolClosed = errors.New("worker pool closed")
	ErrPoolBusy   = errors.New("worker pool queue full")
)

var _ bot.WorkerPool = (*Pool)(nil)

// Pool runs downloads and re-encodes on a fixed set of workers so they never
// block update dispatch.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	size   int
	logger bot.Logger
}

// New creates a worker pool with the given size.
func New(size int) *Pool {
	return NewWithLogger(size, nil)
}

// NewWithLogger creates a worker pool that logs recovered task panics.
func NewWithLogger(size int, logger bot.Logger) *Pool {
	if size <= 0 {
		size = 1
	}

	queueSize := size * 8
	if queueSize < 8 {
		queueSize = 8
	}

	p := &Pool{
		tasks:  make(chan func(), queueSize),
		size:   size,
		logger: logger,
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				p.run(task)
			}
		}()
	}

	return p
}

func (p *Pool) run(task func()) {
	if task == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && p.logger != nil {
			p.logger.Error("worker task panicked", "panic", fmt.Sprint(r))
		}
	}()
	task()
}

// Submit enqueues a task for execution, blocking while the queue is full.
// The read lock is held across the send so close never races with it.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	p.tasks <- task
	return nil
}

// TrySubmit enqueues a task without blocking.
func (p *Pool) TrySubmit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolBusy
	}
}

// SubmitWait enqueues a task and waits for it to complete.
func (p *Pool) SubmitWait(task func() error) error {
	return p.SubmitWaitContext(context.Background(), task)
}

// SubmitWaitContext enqueues a task and waits for it or for ctx.
func (p *Pool) SubmitWaitContext(ctx context.Context, task func() error) error {
	if task == nil {
		return nil
	}

	result := make(chan error, 1)
	err := p.Submit(func() {
		result <- task()
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-result:
		return err
	}
}

// Shutdown waits for in-flight tasks until context is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// StopNow closes the pool without waiting for tasks to finish.
func (p *Pool) StopNow() {
	p.close()
}

func (p *Pool) close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()
}

// Size returns the worker count.
func (p *Pool) Size() int {
	return p.size
}
