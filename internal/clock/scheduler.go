// Package clock implements the cooperative, single-threaded discrete-event
// scheduler that the whole simulation core runs on. Processes are plain Go
// functions spawned onto the scheduler; they suspend by calling Timeout or
// Await, never by blocking on anything the scheduler doesn't know about.
package clock

import (
	"container/heap"
	"context"
	"fmt"
)

// Scheduler advances a virtual clock and runs cooperative processes against
// it. There is no parallelism between processes: exactly one process runs at
// a time, between two suspension points, and all state mutation the core
// relies on happens in that window. Real goroutines are used to express each
// process as straight-line code, but the scheduler's run loop is the only
// thing that ever lets more than one of them make progress, one at a time.
type Scheduler struct {
	now     float64
	queue   wakeupQueue
	seq     int64
	horizon float64
}

// New returns a Scheduler with its virtual clock at zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the current virtual time.
func (s *Scheduler) Now() float64 { return s.now }

// wakeup is one pending resumption: fire the process's continuation at
// (time, seq) order. seq breaks ties between events scheduled for the same
// instant in FIFO order, per the spec's ordering guarantee.
type wakeup struct {
	time   float64
	seq    int64
	urgent bool // interrupt delivery: preempts ordinary wakeups due at the same instant
	proc   *Process
}

type wakeupQueue []*wakeup

func (q wakeupQueue) Len() int { return len(q) }
func (q wakeupQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	if q[i].urgent != q[j].urgent {
		return q[i].urgent
	}
	return q[i].seq < q[j].seq
}
func (q wakeupQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *wakeupQueue) Push(x interface{}) { *q = append(*q, x.(*wakeup)) }
func (q *wakeupQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Process is a cooperative coroutine running on the scheduler. It is
// implemented as a goroutine that hands control back to the scheduler at
// every suspension point via a pair of unbuffered rendezvous channels, so
// that at most one of {scheduler loop, this process} is ever running.
type Process struct {
	s *Scheduler

	resume   chan resumeSignal // scheduler -> process: proceed
	yielded  chan yieldRequest // process -> scheduler: I'm suspending, here's why
	done     chan struct{}
	doneOnce bool

	interruptPending bool
	interruptReason  string

	awaiters []*Process
}

type resumeSignal struct{}

type yieldKind int

const (
	yieldTimeout yieldKind = iota
	yieldAwait
	yieldFinished
)

type yieldRequest struct {
	kind  yieldKind
	delta float64
	sub   *Process
}

// Interrupted is returned by Timeout/Await when the process was interrupted
// while suspended instead of waking up naturally.
type Interrupted struct {
	Reason string
}

func (e *Interrupted) Error() string {
	return fmt.Sprintf("interrupted: %s", e.Reason)
}

// Spawn starts fn as a new process on the scheduler. fn receives the
// process's own handle, which it uses to suspend (Timeout, Await). Spawn
// runs fn synchronously up to its first suspension point (or to completion)
// before returning, so a freshly spawned process observes and mutates state
// before its spawner's next suspension point.
func (s *Scheduler) Spawn(fn func(p *Process)) *Process {
	p := &Process{
		s:       s,
		resume:  make(chan resumeSignal),
		yielded: make(chan yieldRequest),
		done:    make(chan struct{}),
	}

	go func() {
		<-p.resume
		fn(p)
		p.yielded <- yieldRequest{kind: yieldFinished}
	}()

	s.pump(p)
	return p
}

// pump lets p run until its next suspension (or completion) and schedules
// whatever it asked for.
func (s *Scheduler) pump(p *Process) {
	p.resume <- resumeSignal{}
	req := <-p.yielded

	switch req.kind {
	case yieldTimeout:
		s.seq++
		heap.Push(&s.queue, &wakeup{time: s.now + req.delta, seq: s.seq, proc: p})
	case yieldAwait:
		sub := req.sub
		if sub.Done() {
			s.pump(p) // sub already finished: resume p immediately, same instant
		} else {
			sub.awaiters = append(sub.awaiters, p)
		}
	case yieldFinished:
		if !p.doneOnce {
			p.doneOnce = true
			close(p.done)
			for _, awaiter := range p.awaiters {
				s.pump(awaiter)
			}
			p.awaiters = nil
		}
	}
}

// Timeout suspends the calling process until Δ seconds of virtual time have
// elapsed, or returns *Interrupted if Interrupt was called on it first.
func (p *Process) Timeout(delta float64) error {
	if delta < 0 {
		delta = 0
	}
	p.yielded <- yieldRequest{kind: yieldTimeout, delta: delta}
	<-p.resume

	if p.interruptPending {
		reason := p.interruptReason
		p.interruptPending = false
		p.interruptReason = ""
		return &Interrupted{Reason: reason}
	}
	return nil
}

// Await suspends the calling process until sub completes. Sub-processes are
// never interrupted by Await itself; if sub needs to be cancellable, the
// caller interrupts it directly by reference.
func (p *Process) Await(sub *Process) {
	p.yielded <- yieldRequest{kind: yieldAwait, sub: sub}
	<-p.resume
}

// Now returns the scheduler's current virtual time, for processes that want
// to stamp events without threading the scheduler through explicitly.
func (p *Process) Now() float64 { return p.s.Now() }

// Interrupt injects a failure into p's current suspension. If p is not
// currently suspended in a Timeout (it has already woken, or never
// suspended, or has already finished), this is a silent no-op, per the
// concurrency contract in spec.md §5.
//
// Delivery happens by re-scheduling p to wake immediately (at the current
// virtual time) marked urgent, so it sorts ahead of every ordinary wakeup
// already queued for "now" — not just ones scheduled after it — per
// spec.md §5's guarantee that an interrupt preempts other processes due at
// the same instant, so the handler observes now - idle_start before any of
// them runs.
func (s *Scheduler) Interrupt(p *Process, reason string) {
	if p == nil {
		return
	}
	idx := s.queue.indexOf(p)
	if idx < 0 {
		return // not currently suspended: no-op by contract
	}
	heap.Remove(&s.queue, idx)
	p.interruptPending = true
	p.interruptReason = reason
	s.seq++
	heap.Push(&s.queue, &wakeup{time: s.now, seq: s.seq, urgent: true, proc: p})
}

func (q wakeupQueue) indexOf(p *Process) int {
	for i, w := range q {
		if w.proc == p {
			return i
		}
	}
	return -1
}

// Done reports whether p has completed (naturally or by running out its
// function body).
func (p *Process) Done() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Run advances the scheduler until virtual time reaches until, or the event
// queue drains, whichever comes first. It is not safe to call Run
// concurrently with Spawn/Interrupt from another goroutine — the scheduler
// is single-threaded by contract.
func (s *Scheduler) Run(ctx context.Context, until float64) error {
	s.horizon = until
	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.time > until {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		heap.Pop(&s.queue)
		s.now = next.time
		s.pump(next.proc)
	}
	if s.now < until {
		s.now = until
	}
	return nil
}
