package council

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/money3x/councilflow/provider"
)

// HealthStatus is the per-provider health state.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthChecking  HealthStatus = "checking"
)

// HealthRecord is one provider's last health observation. Records are
// replaced wholesale on each check and never deleted while the provider
// is active.
type HealthRecord struct {
	ProviderID    string        `json:"provider_id"`
	LastCheckedAt time.Time     `json:"last_checked_at"`
	Status        HealthStatus  `json:"status"`
	Latency       time.Duration `json:"latency,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
}

// startHealthLoopLocked launches the periodic health sweep. Caller must
// hold the write lock; any previous loop must already be stopped.
func (c *Council) startHealthLoopLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.healthCancel = cancel
	c.healthDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.healthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.CheckHealth(ctx)
			}
		}
	}()
}

// stopHealthLoop cancels the sweep and waits for the goroutine to exit.
// Safe to call when no loop is running.
func (c *Council) stopHealthLoop() {
	c.mu.Lock()
	cancel := c.healthCancel
	done := c.healthDone
	c.healthCancel = nil
	c.healthDone = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// CheckHealth probes every active provider once. Providers exposing a
// dedicated probe are probed directly; the rest get a trivial generation
// call. Probes run concurrently and independently: one provider's
// failure never touches another's record.
func (c *Council) CheckHealth(ctx context.Context) {
	c.mu.RLock()
	snapshot := make([]*MemberRecord, 0, len(c.order))
	for _, id := range c.order {
		snapshot = append(snapshot, c.members[id])
	}
	c.mu.RUnlock()

	var g errgroup.Group
	for _, member := range snapshot {
		member := member
		g.Go(func() error {
			c.probeMember(ctx, member)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Council) probeMember(ctx context.Context, member *MemberRecord) {
	c.setHealth(HealthRecord{
		ProviderID:    member.Identifier,
		Status:        HealthChecking,
		LastCheckedAt: time.Now(),
	})

	probeCtx, cancel := context.WithTimeout(ctx, c.healthProbeTimeout)
	defer cancel()

	start := time.Now()
	var err error
	if member.Caps.HealthProbe {
		err = member.Handle.(provider.HealthProber).ProbeHealth(probeCtx)
	} else {
		_, err = member.Handle.Generate(probeCtx, "Health check")
	}
	elapsed := time.Since(start)

	rec := HealthRecord{
		ProviderID:    member.Identifier,
		LastCheckedAt: time.Now(),
		Latency:       elapsed,
	}
	if err != nil {
		rec.Status = HealthUnhealthy
		rec.LastError = err.Error()
	} else {
		rec.Status = HealthHealthy
	}
	c.setHealth(rec)

	if c.metrics != nil {
		c.metrics.RecordHealthCheck(member.Identifier, elapsed)
		c.metrics.SetProviderHealth(member.Identifier, err == nil)
	}
}

func (c *Council) setHealth(rec HealthRecord) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	c.health[rec.ProviderID] = rec
}

// HealthRecords returns a copy of every provider's current health record.
func (c *Council) HealthRecords() map[string]HealthRecord {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	out := make(map[string]HealthRecord, len(c.health))
	for id, rec := range c.health {
		out[id] = rec
	}
	return out
}

// OverallHealth returns round(100 * healthy / total), or 0 when no
// providers are tracked.
func (c *Council) OverallHealth() int {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	if len(c.health) == 0 {
		return 0
	}
	healthy := 0
	for _, rec := range c.health {
		if rec.Status == HealthHealthy {
			healthy++
		}
	}
	return int(math.Round(100 * float64(healthy) / float64(len(c.health))))
}
