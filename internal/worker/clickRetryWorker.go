package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/storage"
)

const (
	// DefaultFlushInterval is how often pending increments are retried.
	DefaultFlushInterval = 10 * time.Second
	// DefaultMaxAttempts is how many flushes a code survives before it is dropped.
	DefaultMaxAttempts = 5

	batchThreshold = 25
	bufferSize     = 1024
	flushTimeout   = 3 * time.Second
)

type Incrementer interface {
	IncrementClicks(ctx context.Context, code string) (int64, error)
}

type pendingClick struct {
	code     string
	attempts int
}

// ClickRetryWorker re-applies click increments that failed while serving a
// redirect. Clicks are kept in memory only and are lost on a crash.
type ClickRetryWorker struct {
	in          chan string
	logger      *zap.Logger
	repo        Incrementer
	interval    time.Duration
	maxAttempts int
}

func NewClickRetryWorker(logger *zap.Logger, repo Incrementer, interval time.Duration, maxAttempts int) *ClickRetryWorker {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &ClickRetryWorker{
		in:          make(chan string, bufferSize),
		logger:      logger,
		repo:        repo,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Enqueue schedules one click for code. It never blocks; when the buffer is
// full the click is dropped.
func (w *ClickRetryWorker) Enqueue(code string) {
	select {
	case w.in <- code:
	default:
		w.logger.Error("click retry buffer full, click dropped", zap.String("code", code))
	}
}

// Run flushes pending clicks every interval or once more than 25 are queued.
// It makes a last flush and returns when ctx is done.
func (w *ClickRetryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var pending []pendingClick

	for {
		select {
		case code := <-w.in:
			pending = append(pending, pendingClick{code: code})
			if len(pending) > batchThreshold {
				pending = w.flush(ctx, pending)
			}
		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			pending = w.flush(ctx, pending)
		case <-ctx.Done():
			pending = w.drain(pending)
			if len(pending) > 0 {
				w.flush(context.WithoutCancel(ctx), pending)
			}
			w.logger.Info("click retry worker stopped")
			return
		}
	}
}

func (w *ClickRetryWorker) drain(pending []pendingClick) []pendingClick {
	for {
		select {
		case code := <-w.in:
			pending = append(pending, pendingClick{code: code})
		default:
			return pending
		}
	}
}

// flush retries every pending click and returns the ones to keep.
func (w *ClickRetryWorker) flush(ctx context.Context, pending []pendingClick) []pendingClick {
	w.logger.Info("retrying click increments", zap.Int("count", len(pending)))

	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	kept := pending[:0]
	for _, p := range pending {
		_, err := w.repo.IncrementClicks(ctx, p.code)
		switch {
		case err == nil:
			continue
		case errors.Is(err, storage.ErrNotFound):
			w.logger.Warn("click for unknown code dropped", zap.String("code", p.code))
			continue
		}

		p.attempts++
		if p.attempts >= w.maxAttempts {
			w.logger.Error("click dropped after retries",
				zap.String("code", p.code),
				zap.Int("attempts", p.attempts),
				zap.Error(err),
			)
			continue
		}
		kept = append(kept, p)
	}

	return kept
}
