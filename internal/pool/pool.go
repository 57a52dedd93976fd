// Package pool implements the bounded-concurrency worker runtime shared by
// the Map and Foreach operators. It pulls from a single upstream Source,
// fans each item out to one of Concurrency worker goroutines, and delivers
// results back through Next — either in completion order or, if Ordered is
// set, re-sequenced into upstream order.
//
// The design is grounded on the teacher corpus's microbatch package (a
// dedicated puller goroutine plus a fixed worker pool, wired together with
// channels rather than shared mutable state) and on golang.org/x/sync's
// errgroup/semaphore pair: semaphore.Weighted enforces the prefetch budget,
// errgroup.Group owns the puller and worker goroutines so that Close can
// cancel them and wait for them to exit. None of those goroutines returns
// an error; per-item failures travel through the results instead.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Source is the minimal upstream contract the pool pulls from.
type Source[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Func transforms one upstream value. It never sees upstream errors —
// those pass through the pool untouched — and is never called with the
// Done sentinel.
type Func[T, U any] func(v T) (U, error)

// Config controls a Pool's concurrency and delivery order.
type Config struct {
	// Concurrency is the worker count and, equivalently, the prefetch
	// budget: at most Concurrency upstream pulls may be in-flight or
	// buffered-but-undelivered at any instant (spec.md §5).
	Concurrency int
	// Ordered requests re-sequencing into upstream order. Unordered
	// delivers in completion order.
	Ordered bool
	// Done is the upstream's end-of-iteration sentinel value, compared by
	// reference. Required.
	Done error
}

type job[T any] struct {
	seq uint64
	v   T
	err error // set for a positional upstream error
}

type result[U any] struct {
	seq uint64
	v   U
	err error
}

// Pool runs fn over up with bounded concurrency. It implements Source[U]
// via Next. The pool is demand-driven: no goroutine is started, and
// nothing is pulled from up, until the first call to Next.
type Pool[T, U any] struct {
	up  Source[T]
	fn  Func[T, U]
	cfg Config

	startOnce sync.Once
	startCtx  context.Context
	cancel    context.CancelFunc
	sem       *semaphore.Weighted
	input     chan job[T]
	output    chan result[U]
	eg        *errgroup.Group

	mu      sync.Mutex
	pending map[uint64]result[U]
	nextOut uint64
	done    bool
	doneErr error
}

// New builds a Pool. Panics if cfg.Done is nil. cfg.Concurrency <= 0 is
// treated as 1.
func New[T, U any](up Source[T], fn Func[T, U], cfg Config) *Pool[T, U] {
	if cfg.Done == nil {
		panic(`pool: Config.Done must not be nil`)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Pool[T, U]{
		up:      up,
		fn:      fn,
		cfg:     cfg,
		pending: make(map[uint64]result[U]),
	}
}

// start lazily launches the puller and worker goroutines, bound to ctx.
func (p *Pool[T, U]) start(ctx context.Context) {
	p.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		p.startCtx = ctx
		p.cancel = cancel
		p.sem = semaphore.NewWeighted(int64(p.cfg.Concurrency))
		p.input = make(chan job[T], p.cfg.Concurrency)
		p.output = make(chan result[U], p.cfg.Concurrency)

		eg, egCtx := errgroup.WithContext(ctx)
		p.eg = eg

		eg.Go(func() error {
			defer close(p.input)
			var seq uint64
			for {
				if err := p.sem.Acquire(egCtx, 1); err != nil {
					return nil
				}
				v, err := p.up.Next(egCtx)
				if err == p.cfg.Done {
					// The terminal signal is never queued as a job: doing
					// so would let a free worker forward it to output
					// ahead of slower, still-in-flight real jobs,
					// terminating the pool before every result in the
					// prefetch window has been delivered.
					p.sem.Release(1)
					return nil
				}
				j := job[T]{seq: seq, v: v, err: err}
				seq++
				select {
				case p.input <- j:
				case <-egCtx.Done():
					p.sem.Release(1)
					return nil
				}
			}
		})

		var workers sync.WaitGroup
		workers.Add(p.cfg.Concurrency)
		for i := 0; i < p.cfg.Concurrency; i++ {
			eg.Go(func() error {
				defer workers.Done()
				for j := range p.input {
					r := result[U]{seq: j.seq, err: j.err}
					if j.err == nil {
						r.v, r.err = p.fn(j.v)
					}
					select {
					case p.output <- r:
					case <-egCtx.Done():
						return nil
					}
				}
				return nil
			})
		}

		// The output channel closes only once every worker has finished
		// draining p.input, i.e. once every real job's result has already
		// been pushed to output — so a consumer can never observe Done
		// before a result it is entitled to see (spec.md §4.3).
		eg.Go(func() error {
			workers.Wait()
			close(p.output)
			return nil
		})
	})
}

// Next returns the next transformed value, or the pool's Done error (the
// same sentinel passed as cfg.Done) once the upstream is exhausted and
// every in-flight item has been delivered.
func (p *Pool[T, U]) Next(ctx context.Context) (U, error) {
	var zero U

	p.mu.Lock()
	if p.done {
		err := p.doneErr
		p.mu.Unlock()
		return zero, err
	}
	p.mu.Unlock()

	p.start(ctx)

	for {
		if !p.cfg.Ordered {
			select {
			case r, ok := <-p.output:
				if !ok {
					p.finish(p.cfg.Done)
					return zero, p.cfg.Done
				}
				p.sem.Release(1)
				return r.v, r.err
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		p.mu.Lock()
		r, ok := p.pending[p.nextOut]
		if ok {
			delete(p.pending, p.nextOut)
			p.nextOut++
		}
		p.mu.Unlock()
		if ok {
			p.sem.Release(1)
			return r.v, r.err
		}

		select {
		case r, ok := <-p.output:
			if !ok {
				p.finish(p.cfg.Done)
				return zero, p.cfg.Done
			}
			if r.seq == p.nextOut {
				p.mu.Lock()
				p.nextOut++
				p.mu.Unlock()
				p.sem.Release(1)
				return r.v, r.err
			}
			p.mu.Lock()
			p.pending[r.seq] = r
			p.mu.Unlock()
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// finish latches the Done error so every subsequent Next call returns it
// immediately, without touching the (by-then fully drained) channels.
func (p *Pool[T, U]) finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		p.done = true
		p.doneErr = err
	}
}

// Close cancels any still-running worker goroutines and waits for them to
// exit. Callers that abandon a Pool before exhausting it (e.g. a Limit
// upstream of a Map) should call Close to avoid leaking goroutines.
func (p *Pool[T, U]) Close() error {
	p.startOnce.Do(func() {}) // no-op if never started; avoids a nil eg below
	if p.eg == nil {
		return nil
	}
	if p.cancel != nil {
		p.cancel()
	}
	return p.eg.Wait()
}
