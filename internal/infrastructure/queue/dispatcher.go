package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/supplyhub/supplier-console/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Invalidator drops cached state for a user.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Job is one cache invalidation request. Done, when set, runs after the
// invalidation attempt whether or not it succeeded.
type Job struct {
	UserID string
	Done   func()
}

// Dispatcher routes invalidation jobs to a fixed set of workers using
// consistent hashing on the user id, so a user's jobs run in order.
type Dispatcher struct {
	workers []chan Job
	target  Invalidator
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, target Invalidator, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan Job, numWorkers),
		target:  target,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan Job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands job to the worker owning its user. It blocks while that
// worker's buffer is full, until ctx is done; it reports whether the job
// was accepted.
func (d *Dispatcher) Enqueue(ctx context.Context, job Job) bool {
	idx := d.shardIndex(job.UserID)
	select {
	case d.workers[idx] <- job:
		metrics.InvalidationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return true
	case <-ctx.Done():
		return false
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan Job) {
	depth := metrics.InvalidationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if err := d.target.Invalidate(ctx, job.UserID); err != nil {
				d.log.Error().Err(err).
					Str("user_id", job.UserID).
					Int("worker_id", id).
					Msg("cache invalidation failed")
			}
			if job.Done != nil {
				job.Done()
			}
		}
	}
}
