// Package service implements short link creation, redirect resolution,
// usage aggregation and admin authentication.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/metrics"
	"github.com/atinyakov/clickshort/internal/storage"
)

// DefaultMaxAttempts bounds the insert loop of Shorten.
const DefaultMaxAttempts = 10

// storeTimeout bounds store calls made on a context detached from the request.
const storeTimeout = 3 * time.Second

type URLService struct {
	store       LinkStore
	generator   CodeGenerator
	cache       URLCache
	retrier     ClickRetrier
	logger      *zap.Logger
	baseURL     string
	maxAttempts int
}

// Option configures optional collaborators of URLService.
type Option func(*URLService)

// WithCache makes Resolve consult c before the store.
func WithCache(c URLCache) Option {
	return func(s *URLService) {
		s.cache = c
	}
}

// WithClickRetrier hands failed click increments to r.
func WithClickRetrier(r ClickRetrier) Option {
	return func(s *URLService) {
		s.retrier = r
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(s *URLService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewURL(store LinkStore, generator CodeGenerator, logger *zap.Logger, baseURL string, opts ...Option) *URLService {
	s := &URLService{
		store:       store,
		generator:   generator,
		logger:      logger,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxAttempts: DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *URLService) PingContext(ctx context.Context) error {
	return s.store.PingContext(ctx)
}

// ShortURL is the public address of code.
func (s *URLService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

// validateURL accepts absolute URLs only. The string is used as given; no
// normalization happens, so "https://a.com" and "https://a.com/" are
// different links.
func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrURLRequired
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	return nil
}

// insertOutcome tags the result of one insert attempt.
type insertOutcome int

const (
	outcomeFailed insertOutcome = iota
	outcomeInserted
	outcomeCollision
)

func (s *URLService) tryInsert(ctx context.Context, original string) (*storage.Link, insertOutcome, error) {
	code, err := s.generator.Generate()
	if err != nil {
		return nil, outcomeFailed, err
	}

	link, err := s.store.Insert(ctx, original, code)
	switch {
	case err == nil:
		return link, outcomeInserted, nil
	case errors.Is(err, storage.ErrConflict):
		return nil, outcomeCollision, nil
	default:
		return nil, outcomeFailed, err
	}
}

// Shorten returns the link for rawURL, creating it on first use. Repeated
// calls with the same exact string return the same code.
func (s *URLService) Shorten(ctx context.Context, rawURL string) (*storage.Link, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByOriginal(ctx, rawURL)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		link, outcome, err := s.tryInsert(ctx, rawURL)

		switch outcome {
		case outcomeInserted:
			metrics.LinksCreatedTotal.Inc()
			s.logger.Info("link created",
				zap.String("code", link.Code),
				zap.String("original", link.Original),
				zap.Int("attempt", attempt),
			)
			s.remember(ctx, link.Code, link.Original)
			return link, nil
		case outcomeCollision:
			metrics.CodeCollisionsTotal.Inc()
			s.logger.Warn("short code collision, retrying", zap.Int("attempt", attempt))
		default:
			return nil, err
		}
	}

	s.logger.Error("short code generation exhausted",
		zap.String("original", rawURL),
		zap.Int("attempts", s.maxAttempts),
	)
	return nil, fmt.Errorf("%w after %d attempts", ErrExhausted, s.maxAttempts)
}
