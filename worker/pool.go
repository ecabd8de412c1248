package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
)

var (
	// ErrQueueFull is returned when Submit finds no free queue slot
	ErrQueueFull = errors.New("job queue is full")
	// ErrPoolShutdown is returned when Submit is called after Shutdown
	ErrPoolShutdown = errors.New("worker pool is shut down")
)

// Job represents a work item to be processed
type Job struct {
	ID       uint64
	Function func()
	Created  time.Time
}

// Pool runs buy and sell round trips on a fixed set of goroutines
type Pool struct {
	maxWorkers int

	jobQueue   chan Job
	jobCounter uint64

	workerCount int32

	isInitialized bool
	isShutdown    bool
	wg            sync.WaitGroup
	mutex         sync.RWMutex

	stats  PoolStats
	logger *logging.Logger
}

// PoolStats tracks pool statistics
type PoolStats struct {
	JobsSubmitted  uint64
	JobsCompleted  uint64
	JobsRejected   uint64
	JobsPanicked   uint64
	JobsInProgress int32
}

// NewPool creates a new worker pool
func NewPool() *Pool {
	return &Pool{
		logger: logging.NewLogger("trading-service", "worker-pool"),
	}
}

// Initialize starts maxWorkers workers with a queue twice that size
func (p *Pool) Initialize(maxWorkers int) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.isInitialized {
		return fmt.Errorf("worker pool already initialized")
	}
	if maxWorkers <= 0 {
		return fmt.Errorf("maxWorkers must be positive, got: %d", maxWorkers)
	}

	p.maxWorkers = maxWorkers
	p.jobQueue = make(chan Job, maxWorkers*2)

	for i := 0; i < maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
		atomic.AddInt32(&p.workerCount, 1)
	}

	p.isInitialized = true
	p.logger.WorkerPoolEvent("initialized", maxWorkers, cap(p.jobQueue))
	return nil
}

// Submit queues job without blocking. A full queue returns ErrQueueFull.
func (p *Pool) Submit(job func()) error {
	if job == nil {
		return fmt.Errorf("job function cannot be nil")
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.isShutdown {
		return ErrPoolShutdown
	}
	if !p.isInitialized {
		return fmt.Errorf("worker pool not initialized")
	}

	workJob := Job{
		ID:       atomic.AddUint64(&p.jobCounter, 1),
		Function: job,
		Created:  time.Now(),
	}

	select {
	case p.jobQueue <- workJob:
		atomic.AddUint64(&p.stats.JobsSubmitted, 1)
		return nil
	default:
		atomic.AddUint64(&p.stats.JobsRejected, 1)
		return fmt.Errorf("%w (capacity: %d)", ErrQueueFull, cap(p.jobQueue))
	}
}

// GetWorkerCount returns the current number of workers
func (p *Pool) GetWorkerCount() int {
	return int(atomic.LoadInt32(&p.workerCount))
}

// Shutdown stops accepting jobs and waits for queued jobs to finish or ctx to expire
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mutex.Lock()
	if p.isShutdown || !p.isInitialized {
		p.isShutdown = true
		p.mutex.Unlock()
		return nil
	}
	p.isShutdown = true
	close(p.jobQueue)
	p.mutex.Unlock()

	p.logger.WorkerPoolEvent("shutting_down", p.GetWorkerCount(), len(p.jobQueue))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.WorkerPoolEvent("shutdown_complete", 0, 0)
		return nil
	case <-ctx.Done():
		p.logger.Warn("Worker pool shutdown timed out", map[string]interface{}{
			"jobs_in_progress": atomic.LoadInt32(&p.stats.JobsInProgress),
		})
		return ctx.Err()
	}
}

func (p *Pool) worker(id int) {
	defer func() {
		atomic.AddInt32(&p.workerCount, -1)
		p.wg.Done()
	}()

	for job := range p.jobQueue {
		p.processJob(id, job)
	}
}

// processJob runs one job and recovers from its panics
func (p *Pool) processJob(workerID int, job Job) {
	atomic.AddInt32(&p.stats.JobsInProgress, 1)

	defer func() {
		atomic.AddInt32(&p.stats.JobsInProgress, -1)
		atomic.AddUint64(&p.stats.JobsCompleted, 1)

		if r := recover(); r != nil {
			atomic.AddUint64(&p.stats.JobsPanicked, 1)
			p.logger.PanicRecovery("", fmt.Sprintf("worker-%d", workerID), r, string(debug.Stack()))
			p.logger.Error("Job panicked", map[string]interface{}{
				"job_id":        job.ID,
				"queued_for_ms": time.Since(job.Created).Milliseconds(),
				"worker_id":     workerID,
			})
		}
	}()

	job.Function()
}

// GetStats returns current pool statistics
func (p *Pool) GetStats() map[string]interface{} {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	queueLength, queueCapacity := 0, 0
	if p.jobQueue != nil {
		queueLength, queueCapacity = len(p.jobQueue), cap(p.jobQueue)
	}

	return map[string]interface{}{
		"max_workers":      p.maxWorkers,
		"workers":          p.GetWorkerCount(),
		"jobs_submitted":   atomic.LoadUint64(&p.stats.JobsSubmitted),
		"jobs_completed":   atomic.LoadUint64(&p.stats.JobsCompleted),
		"jobs_rejected":    atomic.LoadUint64(&p.stats.JobsRejected),
		"jobs_panicked":    atomic.LoadUint64(&p.stats.JobsPanicked),
		"jobs_in_progress": atomic.LoadInt32(&p.stats.JobsInProgress),
		"queue_length":     queueLength,
		"queue_capacity":   queueCapacity,
		"is_initialized":   p.isInitialized,
		"is_shutdown":      p.isShutdown,
	}
}
