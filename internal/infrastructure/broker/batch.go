package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BatchConfig controls when pending recalculations are flushed.
type BatchConfig struct {
	Size    int
	Timeout time.Duration
}

// Recalculator is the part of the cash-flow service the worker drives.
type Recalculator interface {
	RecalculateMany(ctx context.Context, ids []uuid.UUID) error
}

// RecalcBatcher collects changed bond ids and recomputes them in batches.
// An id queued twice before a flush is recomputed once.
type RecalcBatcher struct {
	bonds *batchBuffer[uuid.UUID]
}

func NewRecalcBatcher(cfg BatchConfig, service Recalculator, logger logrus.FieldLogger) *RecalcBatcher {
	log := logger.WithField("component", "recalc_batcher")
	return &RecalcBatcher{
		bonds: newBatchBuffer(cfg, func(ctx context.Context, ids []uuid.UUID) error {
			return service.RecalculateMany(ctx, ids)
		}, log),
	}
}

// Run sets the base context for asynchronous flushes.
func (b *RecalcBatcher) Run(ctx context.Context) {
	b.bonds.setContext(ctx)
}

// Stop flushes whatever is still pending.
func (b *RecalcBatcher) Stop(ctx context.Context) error {
	b.bonds.setContext(ctx)
	return b.bonds.drain(ctx)
}

func (b *RecalcBatcher) Add(bondUID uuid.UUID) error {
	if bondUID == uuid.Nil {
		return errors.New("bond uid is empty")
	}
	return b.bonds.enqueue(bondUID)
}

// Pending reports how many ids wait for the next flush.
func (b *RecalcBatcher) Pending() int {
	b.bonds.mu.Lock()
	defer b.bonds.mu.Unlock()
	return len(b.bonds.items)
}

type batchBuffer[T comparable] struct {
	cfg     BatchConfig
	mu      sync.Mutex
	items   []T
	seen    map[T]struct{}
	timer   *time.Timer
	flushFn func(context.Context, []T) error
	logger  logrus.FieldLogger
	ctx     context.Context
}

func newBatchBuffer[T comparable](cfg BatchConfig, flushFn func(context.Context, []T) error, logger logrus.FieldLogger) *batchBuffer[T] {
	return &batchBuffer[T]{
		cfg:     cfg,
		seen:    make(map[T]struct{}),
		flushFn: flushFn,
		logger:  logger,
	}
}

func (bb *batchBuffer[T]) setContext(ctx context.Context) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	bb.ctx = ctx
}

func (bb *batchBuffer[T]) enqueue(item T) error {
	bb.mu.Lock()
	ctx := bb.ctx
	if ctx == nil {
		bb.mu.Unlock()
		return errors.New("batch buffer is not running")
	}
	if err := ctx.Err(); err != nil {
		bb.mu.Unlock()
		return err
	}
	if _, dup := bb.seen[item]; dup {
		bb.mu.Unlock()
		return nil
	}
	bb.seen[item] = struct{}{}
	bb.items = append(bb.items, item)

	var batch []T
	limit := bb.cfg.Size
	if limit <= 0 {
		limit = 1
	}
	if len(bb.items) >= limit {
		batch = bb.takeBatchLocked()
	} else if bb.timer == nil && bb.cfg.Timeout > 0 {
		bb.startTimerLocked()
	}
	bb.mu.Unlock()

	// the batch covers other deliveries too, so its failure is not this item's
	if err := bb.flush(ctx, batch); err != nil {
		bb.logFailure(err, batch)
	}
	return nil
}

func (bb *batchBuffer[T]) startTimerLocked() {
	bb.timer = time.AfterFunc(bb.cfg.Timeout, func() {
		bb.mu.Lock()
		ctx := bb.ctx
		batch := bb.takeBatchLocked()
		bb.mu.Unlock()
		if err := bb.flush(ctx, batch); err != nil {
			bb.logFailure(err, batch)
		}
	})
}

func (bb *batchBuffer[T]) takeBatchLocked() []T {
	if bb.timer != nil {
		bb.timer.Stop()
		bb.timer = nil
	}
	if len(bb.items) == 0 {
		return nil
	}
	batch := make([]T, len(bb.items))
	copy(batch, bb.items)
	bb.items = bb.items[:0]
	clear(bb.seen)
	return batch
}

func (bb *batchBuffer[T]) flush(ctx context.Context, batch []T) error {
	if len(batch) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	if err := bb.flushFn(ctx, batch); err != nil {
		return err
	}
	if bb.logger != nil {
		bb.logger.WithFields(logrus.Fields{
			"size":    len(batch),
			"took_ms": time.Since(start).Milliseconds(),
		}).Debug("flushed batch")
	}
	return nil
}

func (bb *batchBuffer[T]) drain(ctx context.Context) error {
	bb.mu.Lock()
	batch := bb.takeBatchLocked()
	bb.mu.Unlock()
	return bb.flush(ctx, batch)
}

func (bb *batchBuffer[T]) logFailure(err error, batch []T) {
	if bb.logger == nil {
		return
	}
	bb.logger.WithError(err).WithFields(logrus.Fields{
		"size":  len(batch),
		"items": batch,
	}).Warn("batch flush failed")
}
