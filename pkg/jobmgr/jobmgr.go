// Package jobmgr runs named background jobs with cancellation and in-memory
// tracking. A name can only run once at a time.
//
//	jm := jobmgr.NewManager(ctx, nil)
//	_ = jm.Start("sync:1234", func(ctx context.Context) error {
//	    return syncGuild(ctx, "1234")
//	})
//	jm.Shutdown()
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrRunning    = errors.New("job is already running")
	ErrNotRunning = errors.New("job is not running")
	ErrClosed     = errors.New("job manager is shut down")
)

// Event is a lifecycle notification for one job.
type Event struct {
	Job   string
	State string // "running", "done", "error" or "cancelled"
	Err   error
}

func (e Event) String() string {
	if e.Err != nil {
		return e.State + ":" + e.Job + ":" + e.Err.Error()
	}
	return e.State + ":" + e.Job
}

// Reporter receives job lifecycle events. It must not block.
type Reporter func(Event)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager starts, stops and tracks jobs. Safe for concurrent use.
type Manager struct {
	ctx      context.Context
	cancel   context.CancelFunc
	reporter Reporter

	mu     sync.Mutex
	jobs   map[string]*job
	wg     sync.WaitGroup
	closed bool
}

// NewManager derives every job context from parent. reporter may be nil.
func NewManager(parent context.Context, reporter Reporter) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		ctx:      ctx,
		cancel:   cancel,
		reporter: reporter,
		jobs:     make(map[string]*job),
	}
}

// Start runs fn in its own goroutine. The job is forgotten once fn returns.
func (m *Manager) Start(name string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("%q: %w", name, ErrRunning)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer close(j.done)
		defer cancel()

		m.report(Event{Job: name, State: "running"})
		err := fn(ctx)

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()

		switch {
		case err == nil:
			m.report(Event{Job: name, State: "done"})
		case errors.Is(err, context.Canceled):
			m.report(Event{Job: name, State: "cancelled"})
		default:
			m.report(Event{Job: name, State: "error", Err: err})
		}
	}()
	return nil
}

// Stop cancels the named job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%q: %w", name, ErrNotRunning)
	}
	j.cancel()
	<-j.done
	return nil
}

// List returns the names of running jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status summarises running jobs for humans.
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return "Running jobs: " + strings.Join(active, ", ")
}

// Wait blocks until every started job has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown cancels all jobs, refuses new ones and waits for running ones.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

func (m *Manager) report(e Event) {
	if m.reporter != nil {
		m.reporter(e)
	}
}
