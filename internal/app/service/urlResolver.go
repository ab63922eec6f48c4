package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/cache"
	"github.com/atinyakov/clickshort/internal/metrics"
	"github.com/atinyakov/clickshort/internal/storage"
)

// Resolve returns the original URL of code and counts one click. A failed
// click increment is logged and retried in the background; it never fails
// the redirect. storage.ErrNotFound is returned for unknown codes.
func (s *URLService) Resolve(ctx context.Context, code string) (string, error) {
	// A visitor hanging up must not abort a click that is already being counted.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	original, ok := s.cached(ctx, code)
	if !ok {
		link, err := s.store.FindByCode(ctx, code)
		if err != nil {
			return "", err
		}
		original = link.Original
		s.remember(ctx, code, original)
	}

	s.countClick(ctx, code)
	metrics.RedirectsTotal.Inc()

	return original, nil
}

func (s *URLService) cached(ctx context.Context, code string) (string, bool) {
	if s.cache == nil {
		return "", false
	}

	original, err := s.cache.Get(ctx, code)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache lookup failed", zap.String("code", code), zap.Error(err))
		}
		metrics.CacheMissesTotal.Inc()
		return "", false
	}

	metrics.CacheHitsTotal.Inc()
	return original, true
}

func (s *URLService) remember(ctx context.Context, code, original string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Set(ctx, code, original); err != nil {
		s.logger.Warn("cache store failed", zap.String("code", code), zap.Error(err))
	}
}

func (s *URLService) countClick(ctx context.Context, code string) {
	clicks, err := s.store.IncrementClicks(ctx, code)
	if err == nil {
		s.logger.Debug("click counted", zap.String("code", code), zap.Int64("clicks", clicks))
		return
	}

	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("cached code missing from store", zap.String("code", code))
		return
	}

	metrics.ClickIncrementFailuresTotal.Inc()
	s.logger.Error("click increment failed, redirecting anyway", zap.String("code", code), zap.Error(err))

	if s.retrier != nil {
		s.retrier.Enqueue(code)
	}
}
