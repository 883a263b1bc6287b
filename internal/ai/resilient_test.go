package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

func TestResilientProviderForwardsResponse(t *testing.T) {
	inner := &mockProvider{name: "mock", response: &Response{Content: "hello"}}
	p := NewResilientProvider(inner, ResilientConfig{})
	defer p.Close()

	resp, err := p.Generate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("Content = %q", resp.Content)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestResilientProviderRateLimitIsQuotaError(t *testing.T) {
	inner := &mockProvider{name: "mock", response: &Response{Content: "ok"}}
	p := NewResilientProvider(inner, ResilientConfig{
		EnableRateLimit: true,
		RatePerSecond:   1,
	})
	defer p.Close()

	// Burn through the burst allowance until the limiter rejects.
	var err error
	for i := 0; i < 10; i++ {
		if _, err = p.Generate(context.Background(), &Request{}); err != nil {
			break
		}
	}
	if err == nil {
		t.Fatal("limiter never rejected a burst of requests")
	}
	if !errors.Is(err, domain.ErrUpstreamQuota) {
		t.Errorf("error = %v, want ErrUpstreamQuota so callers back off", err)
	}
}

func TestResilientProviderDoesNotRetryUpstreamErrors(t *testing.T) {
	inner := &mockProvider{name: "mock", err: domain.ErrUpstream}
	p := NewResilientProvider(inner, ResilientConfig{EnableRetry: true})
	defer p.Close()

	_, err := p.Generate(context.Background(), &Request{})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("Generate() error = %v, want ErrUpstream", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 (no retries for plain upstream failures)", inner.calls)
	}
}
