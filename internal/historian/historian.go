// internal/historian/historian.go is the drain that moves session actions from the Redis
// queue into Postgres in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jason-s-yu/kingscup/internal/models"
	"github.com/sirupsen/logrus"
)

// Sink persists a batch of actions. database.ActionStore implements it.
type Sink interface {
	InsertActions(ctx context.Context, actions []models.SessionAction) error
}

// Options controls batching.
type Options struct {
	BatchSize  int
	FlushEvery time.Duration
	// PopTimeout bounds each blocking pop so shutdown and timed flushes are noticed.
	PopTimeout time.Duration
	// MaxPending caps how many unflushed actions are kept while the sink is failing.
	MaxPending int
}

func DefaultOptions() Options {
	return Options{
		BatchSize:  20,
		FlushEvery: 500 * time.Millisecond,
		PopTimeout: 3 * time.Second,
		MaxPending: 1000,
	}
}

// Service drains a Queue into a Sink. It is driven by a single goroutine in Run.
type Service struct {
	queue  Queue
	sink   Sink
	opts   Options
	logger *logrus.Logger

	batch     []models.SessionAction
	lastFlush time.Time
}

func New(queue Queue, sink Sink, opts Options, logger *logrus.Logger) *Service {
	if opts.PopTimeout <= 0 || opts.PopTimeout > opts.FlushEvery {
		opts.PopTimeout = opts.FlushEvery
	}
	return &Service{
		queue:  queue,
		sink:   sink,
		opts:   opts,
		logger: logger,
		batch:  make([]models.SessionAction, 0, opts.BatchSize),
	}
}

// Run pops until ctx is cancelled, then flushes what is left and returns.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("historian started")
	s.lastFlush = time.Now()
	for {
		if ctx.Err() != nil {
			s.shutdownFlush()
			s.logger.Info("historian stopped")
			return nil
		}

		payload, ok, err := s.queue.Pop(ctx, s.opts.PopTimeout)
		switch {
		case err != nil && errors.Is(err, context.Canceled):
			continue
		case err != nil:
			s.logger.WithError(err).Error("queue pop failed")
			s.sleep(ctx, time.Second)
		case ok:
			s.append(payload)
		}

		if len(s.batch) >= s.opts.BatchSize || time.Since(s.lastFlush) >= s.opts.FlushEvery {
			s.flush(ctx)
		}
	}
}

func (s *Service) append(payload string) {
	var action models.SessionAction
	if err := json.Unmarshal([]byte(payload), &action); err != nil {
		s.logger.WithError(err).Warn("invalid action record")
		return
	}
	s.batch = append(s.batch, action)
	if over := len(s.batch) - s.opts.MaxPending; s.opts.MaxPending > 0 && over > 0 {
		s.logger.WithField("dropped", over).Error("pending actions over limit, dropping oldest")
		s.batch = append(s.batch[:0], s.batch[over:]...)
	}
}

// flush writes the batch. A failed batch is kept for the next attempt.
func (s *Service) flush(ctx context.Context) {
	s.lastFlush = time.Now()
	if len(s.batch) == 0 {
		return
	}
	if err := s.sink.InsertActions(ctx, s.batch); err != nil {
		s.logger.WithError(err).WithField("count", len(s.batch)).Error("flush failed")
		return
	}
	s.logger.WithField("count", len(s.batch)).Debug("flushed actions")
	s.batch = s.batch[:0]
}

func (s *Service) shutdownFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(ctx)
}

func (s *Service) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Pending reports how many actions are waiting to be flushed. Only safe once Run returned.
func (s *Service) Pending() int {
	return len(s.batch)
}
