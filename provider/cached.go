package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/money3x/councilflow/internal/cache"
)

// CachedProvider wraps a Provider with a Redis-backed generation cache.
// Identical prompts to the same provider are served from cache within the
// TTL. Cache failures never fail a generation: a broken cache degrades to
// pass-through.
//
// The wrapper presents the full optional-extension surface and forwards
// each call to the inner handle when it supports the extension; calls the
// inner handle cannot take are silent no-ops.
type CachedProvider struct {
	inner  Provider
	cache  *cache.Manager
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider wraps inner with a generation cache.
func NewCachedProvider(inner Provider, mgr *cache.Manager, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{
		inner:  inner,
		cache:  mgr,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "cached_provider"), zap.String("provider", inner.Name())),
	}
}

// Name returns the inner provider's identifier.
func (c *CachedProvider) Name() string { return c.inner.Name() }

// Generate serves from cache when possible, otherwise delegates to the
// inner provider and stores the result best-effort.
func (c *CachedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	key := c.key(prompt)
	if cached, err := c.cache.Get(ctx, key); err == nil {
		c.logger.Debug("generation cache hit")
		return cached, nil
	} else if !cache.IsCacheMiss(err) {
		c.logger.Warn("cache read failed, passing through", zap.Error(err))
	}

	out, err := c.inner.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, out, c.ttl); err != nil {
		c.logger.Warn("cache write failed", zap.Error(err))
	}
	return out, nil
}

func (c *CachedProvider) key(prompt string) string {
	sum := sha256.Sum256([]byte(c.inner.Name() + "\x00" + prompt))
	return "cflow:gen:" + hex.EncodeToString(sum[:])
}

// ProbeHealth forwards to the inner provider when supported, otherwise
// performs a trivial generation.
func (c *CachedProvider) ProbeHealth(ctx context.Context) error {
	if prober, ok := c.inner.(HealthProber); ok {
		return prober.ProbeHealth(ctx)
	}
	_, err := c.inner.Generate(ctx, "Health check")
	return err
}

// SetRole forwards to the inner provider when supported.
func (c *CachedProvider) SetRole(role string) error {
	if aware, ok := c.inner.(RoleAware); ok {
		return aware.SetRole(role)
	}
	return nil
}

// SetSpecialties forwards to the inner provider when supported.
func (c *CachedProvider) SetSpecialties(specialties []string) error {
	if aware, ok := c.inner.(SpecialtyAware); ok {
		return aware.SetSpecialties(specialties)
	}
	return nil
}

// SetCouncilContext forwards to the inner provider when supported.
func (c *CachedProvider) SetCouncilContext(council any) {
	if aware, ok := c.inner.(CouncilAware); ok {
		aware.SetCouncilContext(council)
	}
}

// Teardown forwards to the inner provider when supported.
func (c *CachedProvider) Teardown(ctx context.Context) error {
	if td, ok := c.inner.(Teardowner); ok {
		return td.Teardown(ctx)
	}
	return nil
}
