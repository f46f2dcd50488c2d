// Package swarm is a fork-join executor over a fixed pool of persistent worker
// goroutines. Workers are created once and reused for every job so dispatching a
// population update each tick costs no goroutine creation.
//
// A job receives (workerID, groupSize) and partitions its own index range, typically
// with Partition. Partitions must be disjoint; the pool does not enforce it.
package swarm

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Job is the function run concurrently by every worker of a group.
type Job func(workerID, groupSize int)

// Swarm owns the worker pool.
type Swarm struct {
	mu      sync.Mutex
	workers []*worker
	idle    []*worker
	stopped bool

	wg       sync.WaitGroup
	stopOnce sync.Once
}

type assignment struct {
	id    int
	group *executionGroup
}

// worker holds two gates: ready receives the next assignment, done is released by the
// caller once the whole group has completed.
type worker struct {
	ready chan assignment
	done  chan struct{}
}

// New starts threads workers and blocks until all of them are waiting for work.
// threads <= 0 uses runtime.NumCPU().
func New(threads int) *Swarm {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	s := &Swarm{
		workers: make([]*worker, threads),
		idle:    make([]*worker, 0, threads),
	}

	var started sync.WaitGroup
	started.Add(threads)
	for i := range s.workers {
		w := &worker{
			ready: make(chan assignment, 1),
			done:  make(chan struct{}, 1),
		}
		s.workers[i] = w
		s.idle = append(s.idle, w)
		s.wg.Add(1)
		go w.run(&s.wg, &started)
	}
	started.Wait()
	return s
}

func (w *worker) run(exited, started *sync.WaitGroup) {
	defer exited.Done()
	started.Done()
	for a := range w.ready {
		a.group.job(a.id, a.group.size)
		a.group.notifyDone()
		<-w.done
	}
}

// Size returns the number of workers in the pool.
func (s *Swarm) Size() int {
	return len(s.workers)
}

// Idle returns the number of workers not claimed by a group.
func (s *Swarm) Idle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.idle)
}

// Execute claims groupSize idle workers and starts job on each with a distinct id in
// [0, groupSize). groupSize <= 0 means the whole pool. When fewer workers are idle, or
// the pool is stopped, the returned WorkGroup performs nothing and waiting on it
// returns immediately.
func (s *Swarm) Execute(job Job, groupSize int) WorkGroup {
	if groupSize <= 0 {
		groupSize = len(s.workers)
	}

	s.mu.Lock()
	if s.stopped || groupSize > len(s.idle) {
		s.mu.Unlock()
		return WorkGroup{}
	}
	claimed := make([]*worker, groupSize)
	copy(claimed, s.idle[len(s.idle)-groupSize:])
	s.idle = s.idle[:len(s.idle)-groupSize]
	s.mu.Unlock()

	g := &executionGroup{
		swarm:   s,
		job:     job,
		size:    groupSize,
		workers: claimed,
	}
	g.cond = sync.NewCond(&g.mu)
	for id, w := range claimed {
		w.ready <- assignment{id: id, group: g}
	}
	return WorkGroup{group: g}
}

// Parallel splits [0, n) across the whole pool, runs fn on every slice and waits.
// If the pool is busy the range is processed on the calling goroutine instead.
func (s *Swarm) Parallel(n int, fn func(lo, hi int)) {
	group := s.Execute(func(id, size int) {
		lo, hi := Partition(id, size, n)
		if lo < hi {
			fn(lo, hi)
		}
	}, 0)
	if !group.Performed() {
		fn(0, n)
		return
	}
	group.WaitExecutionDone()
}

// Stop terminates and joins every worker. Groups must have been waited on first.
// Stop is idempotent.
func (s *Swarm) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		for _, w := range s.workers {
			close(w.ready)
		}
		s.wg.Wait()
	})
}

func (s *Swarm) release(workers []*worker) {
	for _, w := range workers {
		w.done <- struct{}{}
	}
	s.mu.Lock()
	s.idle = append(s.idle, workers...)
	s.mu.Unlock()
}

type executionGroup struct {
	swarm   *Swarm
	job     Job
	size    int
	workers []*worker

	completed atomic.Int32
	mu        sync.Mutex
	cond      *sync.Cond
	waitOnce  sync.Once
}

func (g *executionGroup) notifyDone() {
	g.mu.Lock()
	g.completed.Add(1)
	g.mu.Unlock()
	g.cond.Signal()
}

func (g *executionGroup) wait() {
	g.waitOnce.Do(func() {
		g.mu.Lock()
		for int(g.completed.Load()) < g.size {
			g.cond.Wait()
		}
		g.mu.Unlock()
		g.swarm.release(g.workers)
	})
}

// WorkGroup is the handle returned by Execute. The zero value performs nothing.
type WorkGroup struct {
	group *executionGroup
}

// Performed reports whether the job was dispatched.
func (w WorkGroup) Performed() bool {
	return w.group != nil
}

// WaitExecutionDone blocks until every worker of the group has finished, then returns
// them to the pool. Further calls return immediately.
func (w WorkGroup) WaitExecutionDone() {
	if w.group != nil {
		w.group.wait()
	}
}

// Partition returns the half-open slice [lo, hi) of n items owned by worker id out of
// size workers. Slices for ids 0..size-1 are disjoint and cover [0, n).
func Partition(id, size, n int) (lo, hi int) {
	return id * n / size, (id + 1) * n / size
}
