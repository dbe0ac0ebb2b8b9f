// Package worker provides an asynchronous worker pool that serializes the
// work of each user while different users proceed in parallel.
//
// Every job carries a key (the user's external id). Jobs with the same key
// land on the same worker and run in enqueue order, so a user's turns and
// study prompts never race each other.
package worker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/studybot/pkg/logger"
)

var (
	defaultNumWorkers   uint = 4
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 30 * time.Second
)

// Job is a unit of work for the worker pool to execute.
type Job struct {
	// Key selects the worker. Jobs sharing a key run sequentially.
	Key string

	// Name describes the job in logs, e.g. "turn" or "prompt".
	Name string

	// Run does the work. Its error is logged and the job dropped.
	Run func(ctx context.Context) error
}

// Config is the configuration options for the worker pool.
type Config struct {
	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of each worker's buffered queue (defaults to 256).
	QueueSize uint

	// JobTimeout bounds a single job (defaults to 30s).
	JobTimeout time.Duration

	// OnResult, when set, observes every finished job.
	OnResult func(job Job, err error)

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool processes jobs asynchronously on a fixed set of workers.
type Pool struct {
	config *Config
	queues []chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queues: make([]chan Job, c.NumWorkers),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		wp.queues[i] = make(chan Job, c.QueueSize)
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker owning its key.
// Returns true if enqueued, false if that worker's queue is full or the pool
// is closed, resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Error("job not queued, pool closed, job dropped",
			"job", job.Name,
			"key", job.Key,
		)
		return false
	}

	shard := p.shard(job.Key)
	select {
	case p.queues[shard] <- job:
		p.logger.Debug("job queued",
			"job", job.Name,
			"key", job.Key,
			"worker_id", shard,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"job", job.Name,
			"key", job.Key,
			"worker_id", shard,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// shard maps a key onto a worker index.
func (p *Pool) shard(key string) uint {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return uint(h.Sum32()) % uint(len(p.queues))
}

// worker is the inner worker thread that continuously pulls jobs off its queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queues[id] {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob runs a Job with a timeout, recovering from panics so one bad
// job never takes the worker down.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	start := time.Now()
	err := p.run(ctx, job)
	if p.config.OnResult != nil {
		p.config.OnResult(job, err)
	}

	if err != nil {
		p.logger.Error("job failed",
			"job", job.Name,
			"key", job.Key,
			"error", err,
		)
		return
	}

	p.logger.Debug("job done",
		"job", job.Name,
		"key", job.Key,
		"duration", time.Since(start),
	)
}

func (p *Pool) run(ctx context.Context, job Job) (err error) {
	if job.Run == nil {
		return errors.New("job has no run function")
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	return job.Run(ctx)
}
