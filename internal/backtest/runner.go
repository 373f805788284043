package backtest

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ducminhle1904/regime-backtest/internal/strategy"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// Job is one independent backtest task: a symbol, its price series, the
// signal series a strategy produced for it, and the run configuration.
// Jobs share nothing mutable, which is what makes batch parallelism
// safe; a single run stays strictly sequential.
type Job struct {
	ID      string
	Symbol  string
	Data    []types.OHLCV
	Signals []strategy.Signal
	Config  Config
}

// JobResult is the outcome of one Job.
type JobResult struct {
	ID       string
	Result   *Result
	Duration time.Duration
	Err      error
}

// Observer receives run lifecycle events, e.g. for metrics export.
type Observer interface {
	RunStarted()
	RunCompleted(duration time.Duration, trades int)
	RunFailed()
}

// Runner executes independent backtest jobs on a bounded worker pool.
type Runner struct {
	workerCount int
	observer    Observer
	jobQueue    chan Job
	resultQueue chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewRunner creates a runner with the given parallelism; zero or
// negative workerCount means one worker per CPU. observer may be nil.
func NewRunner(workerCount, queueSize int, observer Observer) *Runner {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		workerCount: workerCount,
		observer:    observer,
		jobQueue:    make(chan Job, queueSize),
		resultQueue: make(chan JobResult, queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the workers.
func (r *Runner) Start() {
	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker()
	}
}

// Stop drains and shuts down the pool.
func (r *Runner) Stop() {
	close(r.jobQueue)
	r.wg.Wait()
	close(r.resultQueue)
	r.cancel()
}

// Submit queues a job for execution.
func (r *Runner) Submit(job Job) error {
	select {
	case r.jobQueue <- job:
		return nil
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// Results returns the channel completed jobs arrive on.
func (r *Runner) Results() <-chan JobResult {
	return r.resultQueue
}

// RunBatch is the synchronous convenience wrapper: submit everything,
// collect everything.
func (r *Runner) RunBatch(jobs []Job) []JobResult {
	r.Start()

	go func() {
		for _, job := range jobs {
			if err := r.Submit(job); err != nil {
				return
			}
		}
		close(r.jobQueue)
	}()

	results := make([]JobResult, 0, len(jobs))
	for i := 0; i < len(jobs); i++ {
		result, ok := <-r.resultQueue
		if !ok {
			break
		}
		results = append(results, result)
	}

	r.wg.Wait()
	close(r.resultQueue)
	r.cancel()
	return results
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for {
		select {
		case job, ok := <-r.jobQueue:
			if !ok {
				return
			}
			result := r.process(job)
			select {
			case r.resultQueue <- result:
			case <-r.ctx.Done():
				return
			}
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Runner) process(job Job) JobResult {
	start := time.Now()
	if r.observer != nil {
		r.observer.RunStarted()
	}

	out := JobResult{ID: job.ID}
	executor, err := NewExecutor(job.Config)
	if err == nil {
		out.Result, err = executor.Run(job.Symbol, job.Data, job.Signals)
	}
	out.Err = err
	out.Duration = time.Since(start)

	if r.observer != nil {
		if err != nil {
			r.observer.RunFailed()
		} else {
			r.observer.RunCompleted(out.Duration, len(out.Result.Trades))
		}
	}
	return out
}
