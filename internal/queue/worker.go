package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/common"
	"github.com/ternarybob/labelsync/internal/interfaces"
)

// WorkerPool manages a pool of workers that process queue messages
type WorkerPool struct {
	queueMgr interfaces.QueueManager
	config   Config
	handlers map[string]JobHandler
	mu       sync.RWMutex
	logger   arbor.ILogger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(queueMgr interfaces.QueueManager, config Config, logger arbor.ILogger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}

	return &WorkerPool{
		queueMgr: queueMgr,
		config:   config,
		handlers: make(map[string]JobHandler),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterHandler registers a job type handler
func (wp *WorkerPool) RegisterHandler(jobType string, handler JobHandler) {
	wp.mu.Lock()
	wp.handlers[jobType] = handler
	wp.mu.Unlock()

	wp.logger.Debug().
		Str("job_type", jobType).
		Msg("Job handler registered")
}

// Start starts the worker pool
func (wp *WorkerPool) Start() error {
	wp.logger.Info().
		Int("concurrency", wp.config.Concurrency).
		Msg("Starting worker pool")

	for i := 0; i < wp.config.Concurrency; i++ {
		workerID := i
		wp.wg.Add(1)
		common.SafeGo(wp.logger, fmt.Sprintf("queue-worker-%d", workerID), func() {
			defer wp.wg.Done()
			wp.worker(workerID)
		})
	}

	return nil
}

// Stop cancels the workers and waits for in-flight jobs to return
func (wp *WorkerPool) Stop() error {
	wp.logger.Info().Msg("Stopping worker pool")
	wp.cancel()
	wp.wg.Wait()
	return nil
}

// worker is the main worker loop that processes messages
func (wp *WorkerPool) worker(workerID int) {
	// Stagger worker starts across the poll interval
	staggerDelay := (wp.config.PollInterval / time.Duration(wp.config.Concurrency)) * time.Duration(workerID)
	if staggerDelay > 0 {
		select {
		case <-time.After(staggerDelay):
		case <-wp.ctx.Done():
			return
		}
	}

	wp.logger.Debug().
		Int("worker_id", workerID).
		Msg("Worker started")

	ticker := time.NewTicker(wp.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug().
				Int("worker_id", workerID).
				Msg("Worker stopped")
			return

		case <-ticker.C:
			// Drain everything visible before waiting for the next tick
			for {
				err := wp.processMessage(workerID)
				if errors.Is(err, ErrNoMessage) || wp.ctx.Err() != nil {
					break
				}
				if err != nil {
					wp.logger.Warn().
						Err(err).
						Int("worker_id", workerID).
						Msg("Error processing message")
					break
				}
			}
		}
	}
}

// processMessage receives and processes a single message.
// A message is deleted when its handler succeeds or it cannot be handled at all;
// a failed handler leaves it in the queue for redelivery.
func (wp *WorkerPool) processMessage(workerID int) error {
	msg, deleteFn, err := wp.queueMgr.Receive(wp.ctx)
	if err != nil {
		if errors.Is(err, ErrNoMessage) {
			return ErrNoMessage
		}
		return fmt.Errorf("failed to receive message: %w", err)
	}

	wp.mu.RLock()
	handler, exists := wp.handlers[msg.Type]
	wp.mu.RUnlock()

	if !exists {
		wp.logger.Error().
			Str("type", msg.Type).
			Str("job_id", msg.JobID).
			Msg("No handler registered for job type")
		if delErr := deleteFn(); delErr != nil {
			wp.logger.Warn().Err(delErr).Msg("Failed to delete unknown job type message")
		}
		return fmt.Errorf("no handler for job type: %s", msg.Type)
	}

	wp.logger.Debug().
		Str("job_id", msg.JobID).
		Str("type", msg.Type).
		Int("worker_id", workerID).
		Msg("Processing message")

	startTime := time.Now()
	stopHeartbeat := wp.keepInvisible(msg.JobID)
	handlerErr := wp.runHandler(handler, msg)
	stopHeartbeat()
	duration := time.Since(startTime)

	if handlerErr != nil {
		wp.logger.Error().
			Err(handlerErr).
			Str("job_id", msg.JobID).
			Str("type", msg.Type).
			Int64("duration_ms", duration.Milliseconds()).
			Int("worker_id", workerID).
			Msg("Job handler failed, message left for redelivery")
		return nil
	}

	wp.logger.Info().
		Str("job_id", msg.JobID).
		Str("type", msg.Type).
		Int64("duration_ms", duration.Milliseconds()).
		Int("worker_id", workerID).
		Msg("Job completed successfully")

	if err := deleteFn(); err != nil {
		return fmt.Errorf("failed to delete message %s after success: %w", msg.JobID, err)
	}

	return nil
}

// runHandler turns a handler panic into an error so the message is redelivered
func (wp *WorkerPool) runHandler(handler JobHandler, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(wp.ctx, msg)
}

// keepInvisible extends the message's visibility while its handler runs so a
// long batch refresh is not redelivered to another worker. The returned func stops it.
func (wp *WorkerPool) keepInvisible(jobID string) func() {
	interval := wp.config.VisibilityTimeout / 2
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	common.SafeGo(wp.logger, "visibility-"+jobID, func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-wp.ctx.Done():
				return
			case <-ticker.C:
				if err := wp.queueMgr.Extend(wp.ctx, jobID, wp.config.VisibilityTimeout); err != nil {
					wp.logger.Warn().
						Err(err).
						Str("job_id", jobID).
						Msg("Failed to extend message visibility")
				}
			}
		}
	})

	return func() { close(done) }
}
