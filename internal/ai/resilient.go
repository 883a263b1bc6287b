package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// ResilientProvider wraps an AI provider with resilience patterns from
// fortify. Only quota exhaustion is retried; other upstream failures
// surface immediately.
type ResilientProvider struct {
	provider  Provider
	retrier   retry.Retry[*Response]
	bulkhead  bulkhead.Bulkhead[*Response]
	rateLimit ratelimit.RateLimiter
	logger    *slog.Logger
	name      string
}

// ResilientConfig holds configuration for the resilient provider wrapper
type ResilientConfig struct {
	// EnableRetry enables retry with backoff for quota errors
	EnableRetry bool

	// EnableBulkhead enables concurrency limiting
	EnableBulkhead bool

	// EnableRateLimit enables rate limiting
	EnableRateLimit bool

	// MaxConcurrent for bulkhead (default: 5)
	MaxConcurrent int

	// RatePerSecond for rate limiting (default: 2)
	RatePerSecond int

	// Logger for resilience events
	Logger *slog.Logger
}

// DefaultResilientConfig returns sensible defaults for AI resilience
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableRetry:     true,
		EnableBulkhead:  true,
		EnableRateLimit: true,
		MaxConcurrent:   5,
		RatePerSecond:   2,
	}
}

// NewResilientProvider wraps a provider with resilience patterns
func NewResilientProvider(provider Provider, cfg ResilientConfig) *ResilientProvider {
	rp := &ResilientProvider{
		provider: provider,
		logger:   cfg.Logger,
		name:     provider.Name(),
	}

	if cfg.EnableRetry {
		rp.retrier = retry.New[*Response](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  2 * time.Second,
			MaxDelay:      60 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable: func(err error) bool {
				return errors.Is(err, domain.ErrUpstreamQuota)
			},
		})
	}

	if cfg.EnableBulkhead {
		maxConcurrent := cfg.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 5
		}
		rp.bulkhead = bulkhead.New[*Response](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 2,
			QueueTimeout:  30 * time.Second,
		})
	}

	if cfg.EnableRateLimit {
		rate := cfg.RatePerSecond
		if rate <= 0 {
			rate = 2
		}
		rp.rateLimit = ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    rate * 3,
			Interval: time.Second,
		})
	}

	return rp
}

func (p *ResilientProvider) Name() string {
	return p.provider.Name()
}

func (p *ResilientProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p.rateLimit != nil {
		if !p.rateLimit.Allow(ctx, p.name) {
			return nil, fmt.Errorf("%w: local rate limit exceeded for provider %s", domain.ErrUpstreamQuota, p.name)
		}
	}

	operation := func(ctx context.Context) (*Response, error) {
		return p.provider.Generate(ctx, req)
	}

	if p.bulkhead != nil {
		operation = func(ctx context.Context) (*Response, error) {
			return p.bulkhead.Execute(ctx, func(ctx context.Context) (*Response, error) {
				return p.provider.Generate(ctx, req)
			})
		}
	}

	if p.retrier != nil {
		resp, err := p.retrier.Do(ctx, operation)
		if err != nil && errors.Is(err, domain.ErrUpstreamQuota) && p.logger != nil {
			p.logger.Warn("quota still exhausted after retries", "provider", p.name)
		}
		return resp, err
	}

	return operation(ctx)
}

// Synthesize forwards to the wrapped provider when it supports speech.
// Speech requests are never retried; callers handle quota errors with a
// local fallback instead.
func (p *ResilientProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	synth, ok := p.provider.(Synthesizer)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support speech", p.name)
	}
	return synth.Synthesize(ctx, text)
}

// Close releases resources held by the resilient provider
func (p *ResilientProvider) Close() error {
	if p.rateLimit != nil {
		return p.rateLimit.Close()
	}
	return nil
}
