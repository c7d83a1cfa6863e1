package upload

import (
	"sync"

	"github.com/banshee-data/skyrelay/internal/monitoring"
)

// DefaultWorkers is the upload worker pool size.
const DefaultWorkers = 5

// Pool drains the queue with a fixed set of workers started once at daemon
// startup. A worker must be unkillable by any single bad item: delivery
// errors are captured and logged, and a recover guard backstops the loop
// body against anything unexpected. Workers only return when the queue is
// closed and drained.
type Pool struct {
	queue   *Queue
	deliver func(Params) error
	workers int
	metrics *monitoring.Metrics
	wg      sync.WaitGroup
}

// NewPool creates a pool of workers delivering queue items through the
// given function. workers of zero or less uses DefaultWorkers. metrics may
// be nil.
func NewPool(q *Queue, deliver func(Params) error, workers int, metrics *monitoring.Metrics) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{
		queue:   q,
		deliver: deliver,
		workers: workers,
		metrics: metrics,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(id)
		}(i)
	}
}

// Wait blocks until every worker has returned. Workers only return after
// Close on the queue, so Wait is for shutdown and tests.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(id int) {
	for {
		params, ok := p.queue.Pop()
		if !ok {
			return
		}
		p.process(id, params)
	}
}

// process attempts one delivery. Failures of any sort are logged and the
// item is dropped; nothing propagates far enough to stop the worker loop.
func (p *Pool) process(id int, params Params) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("upload worker %d: recovered: %v", id, r)
		}
	}()
	if err := p.deliver(params); err != nil {
		monitoring.Logf("upload worker %d: dropping %q: %v", id, params["vehicle"], err)
		if p.metrics != nil {
			p.metrics.UploadFailures.Inc()
		}
	}
	if p.metrics != nil {
		p.metrics.QueueDepth.Set(float64(p.queue.Len()))
	}
}
