package council

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/money3x/councilflow/internal/metrics"
	"github.com/money3x/councilflow/provider"
	"github.com/money3x/councilflow/types"
)

// State is the council's initialization state.
type State string

const (
	StateUninitialized        State = "uninitialized"
	StateInitializing         State = "initializing"
	StatePartiallyInitialized State = "partially_initialized"
	StateFullyInitialized     State = "fully_initialized"
	StateFailedInitialization State = "failed_initialization"
)

// Operational reports whether workflows may run in this state.
func (s State) Operational() bool {
	return s == StatePartiallyInitialized || s == StateFullyInitialized
}

// Council roles. Each workflow stage is bound to one of these.
const (
	RoleCreator   = "creator"
	RoleReviewer  = "reviewer"
	RoleEnhancer  = "enhancer"
	RoleValidator = "validator"
	RoleLocalizer = "localizer"
)

// DefaultHealthInterval is the period between health sweeps.
const DefaultHealthInterval = 5 * time.Minute

// DefaultHealthProbeTimeout bounds a single health probe.
const DefaultHealthProbeTimeout = 10 * time.Second

// MemberRecord is one active provider with its council assignment.
// Records are owned exclusively by the Council; snapshots handed out by
// Status are copies.
type MemberRecord struct {
	Identifier   string
	DisplayName  string
	Role         string
	Specialties  []string
	Handle       provider.Provider
	Caps         provider.Capabilities
	RegisteredAt time.Time
}

// InitError is one provider's failure during an initialization attempt.
type InitError struct {
	ProviderID string    `json:"provider_id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// InitAttempt collects the outcome of one (re)initialization call.
// Errors are construction failures that kept a provider out of the
// roster; Warnings are setup failures on providers that stayed active.
type InitAttempt struct {
	AttemptedAt time.Time   `json:"attempted_at"`
	Errors      []InitError `json:"errors,omitempty"`
	Warnings    []InitError `json:"warnings,omitempty"`
	Succeeded   int         `json:"succeeded"`
	Total       int         `json:"total"`
}

// Council orchestrates the provider roster: lifecycle, role assignment,
// health tracking, workflow execution, and single-member consultation.
//
// All roster mutation is serialized through an RWMutex. Workflow
// execution holds the read lock for its whole run, so a reinitialize in
// flight blocks new workflow starts rather than exposing a half-cleared
// roster.
type Council struct {
	logger   *zap.Logger
	registry *provider.Registry
	configs  []provider.Config
	metrics  *metrics.Collector
	tracer   trace.Tracer

	prioritySort       bool
	healthInterval     time.Duration
	healthProbeTimeout time.Duration

	mu      sync.RWMutex
	state   State
	members map[string]*MemberRecord
	order   []string // registration order
	roles   map[string]string
	attempt InitAttempt

	healthMu sync.RWMutex
	health   map[string]HealthRecord

	healthCancel context.CancelFunc
	healthDone   chan struct{}
}

// Option customizes a Council.
type Option func(*Council)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Council) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Council) { c.metrics = m }
}

// WithHealthInterval overrides the periodic health sweep interval.
func WithHealthInterval(d time.Duration) Option {
	return func(c *Council) {
		if d > 0 {
			c.healthInterval = d
		}
	}
}

// WithHealthProbeTimeout overrides the per-probe timeout.
func WithHealthProbeTimeout(d time.Duration) Option {
	return func(c *Council) {
		if d > 0 {
			c.healthProbeTimeout = d
		}
	}
}

// WithPrioritySort makes Initialize walk candidates in ascending
// priority order instead of enumeration order. The quality variant
// enables this.
func WithPrioritySort() Option {
	return func(c *Council) { c.prioritySort = true }
}

// New creates a Council over the given registry and enabled-provider
// configuration. The council starts Uninitialized.
func New(registry *provider.Registry, configs []provider.Config, opts ...Option) *Council {
	c := &Council{
		logger:             zap.NewNop(),
		registry:           registry,
		configs:            configs,
		tracer:             otel.Tracer("github.com/money3x/councilflow/council"),
		healthInterval:     DefaultHealthInterval,
		healthProbeTimeout: DefaultHealthProbeTimeout,
		state:              StateUninitialized,
		members:            make(map[string]*MemberRecord),
		roles:              make(map[string]string),
		health:             make(map[string]HealthRecord),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "council"))
	return c
}

// State returns the current initialization state.
func (c *Council) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Initialize constructs every candidate provider (enabled, credentialed)
// via the registry, attaches role and specialties, and seeds health
// records. One provider's failure never aborts the loop. The periodic
// health sweep starts when at least one provider succeeded.
func (c *Council) Initialize(ctx context.Context) error {
	candidates, err := c.beginInit()
	if err != nil {
		return err
	}
	// a sweep from a previous initialization must not outlive this one
	c.stopHealthLoop()

	installed := make([]*MemberRecord, 0, len(candidates))
	var initErrs, warnings []InitError
	for _, cfg := range candidates {
		handle, err := c.registry.Construct(ctx, cfg)
		if err != nil {
			initErrs = append(initErrs, InitError{
				ProviderID: cfg.Identifier,
				Message:    err.Error(),
				Timestamp:  time.Now(),
			})
			if c.metrics != nil {
				c.metrics.RecordInitFailure(cfg.Identifier)
			}
			c.logger.Warn("provider construction failed, continuing",
				zap.String("provider", cfg.Identifier), zap.Error(err))
			continue
		}
		rec, recWarnings := c.attach(cfg, handle)
		installed = append(installed, rec)
		warnings = append(warnings, recWarnings...)
	}

	return c.finishInit(candidates, installed, initErrs, warnings)
}

// InitializeFromPool adopts already-constructed, already-healthy handles
// from an external pool instead of constructing new ones. Candidates
// missing from the pool are recorded as per-provider errors. A nil or
// empty pool falls back to Initialize.
func (c *Council) InitializeFromPool(ctx context.Context, pool *SharedPool) error {
	if pool == nil || pool.Len() == 0 {
		return c.Initialize(ctx)
	}

	candidates, err := c.beginInit()
	if err != nil {
		return err
	}
	c.stopHealthLoop()

	installed := make([]*MemberRecord, 0, len(candidates))
	var initErrs, warnings []InitError
	for _, cfg := range candidates {
		handle, ok := pool.Get(cfg.Identifier)
		if !ok {
			initErrs = append(initErrs, InitError{
				ProviderID: cfg.Identifier,
				Message:    "provider not present in shared pool",
				Timestamp:  time.Now(),
			})
			if c.metrics != nil {
				c.metrics.RecordInitFailure(cfg.Identifier)
			}
			continue
		}
		rec, recWarnings := c.attach(cfg, handle)
		installed = append(installed, rec)
		warnings = append(warnings, recWarnings...)
	}

	return c.finishInit(candidates, installed, initErrs, warnings)
}

// beginInit transitions into Initializing and returns the candidate
// list. It fails when another initialization is already in flight.
func (c *Council) beginInit() ([]provider.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateInitializing {
		return nil, types.NewError(types.ErrAlreadyInitializing,
			"initialization already in progress")
	}
	c.state = StateInitializing
	c.attempt = InitAttempt{AttemptedAt: time.Now()}

	candidates := provider.Candidates(c.configs)
	if c.prioritySort {
		candidates = provider.SortByPriority(candidates)
	}
	if len(candidates) == 0 {
		c.state = StateFailedInitialization
		return nil, types.NewError(types.ErrConfiguration,
			"no enabled providers with credentials")
	}
	return candidates, nil
}

// attach wires role, specialties, and council context into a freshly
// obtained handle. Setup failures come back as SETUP-coded warnings;
// the provider is activated regardless.
func (c *Council) attach(cfg provider.Config, handle provider.Provider) (*MemberRecord, []InitError) {
	var warnings []InitError
	warn := func(err error) {
		c.logger.Warn("provider setup failed, provider still active",
			zap.String("provider", cfg.Identifier), zap.Error(err))
		warnings = append(warnings, InitError{
			ProviderID: cfg.Identifier,
			Message:    err.Error(),
			Timestamp:  time.Now(),
		})
	}

	caps := provider.DetectCapabilities(handle)
	if caps.RoleAssign {
		if err := handle.(provider.RoleAware).SetRole(cfg.Role); err != nil {
			warn(types.NewErrorf(types.ErrSetup, "role assignment failed for %q", cfg.Identifier).
				WithProvider(cfg.Identifier).WithCause(err))
		}
	}
	if caps.Specialties {
		if err := handle.(provider.SpecialtyAware).SetSpecialties(cfg.Specialties); err != nil {
			warn(types.NewErrorf(types.ErrSetup, "specialty assignment failed for %q", cfg.Identifier).
				WithProvider(cfg.Identifier).WithCause(err))
		}
	}
	if caps.CouncilContext {
		handle.(provider.CouncilAware).SetCouncilContext(c)
	}
	return &MemberRecord{
		Identifier:   cfg.Identifier,
		DisplayName:  cfg.DisplayName,
		Role:         cfg.Role,
		Specialties:  append([]string(nil), cfg.Specialties...),
		Handle:       handle,
		Caps:         caps,
		RegisteredAt: time.Now(),
	}, warnings
}

// finishInit installs the surviving members, resolves the final state,
// seeds health records, and starts the health sweep.
func (c *Council) finishInit(candidates []provider.Config, installed []*MemberRecord, initErrs, warnings []InitError) error {
	c.mu.Lock()
	c.attempt.Errors = initErrs
	c.attempt.Warnings = warnings
	c.attempt.Succeeded = len(installed)
	c.attempt.Total = len(candidates)

	if len(installed) == 0 {
		c.state = StateFailedInitialization
		c.mu.Unlock()
		return types.NewErrorf(types.ErrConstruction,
			"all %d candidate providers failed to initialize: %s",
			len(candidates), joinInitErrors(initErrs))
	}

	c.members = make(map[string]*MemberRecord, len(installed))
	c.order = make([]string, 0, len(installed))
	c.roles = make(map[string]string, len(installed))
	for _, rec := range installed {
		c.members[rec.Identifier] = rec
		c.order = append(c.order, rec.Identifier)
		// last-registered-wins for duplicate roles
		c.roles[rec.Role] = rec.Identifier
	}

	if len(installed) == len(candidates) {
		c.state = StateFullyInitialized
	} else {
		c.state = StatePartiallyInitialized
	}

	c.healthMu.Lock()
	c.health = make(map[string]HealthRecord, len(installed))
	now := time.Now()
	for _, rec := range installed {
		c.health[rec.Identifier] = HealthRecord{
			ProviderID:    rec.Identifier,
			Status:        HealthHealthy,
			LastCheckedAt: now,
		}
	}
	c.healthMu.Unlock()

	if c.metrics != nil {
		c.metrics.SetActiveProviders(len(installed))
		for _, rec := range installed {
			c.metrics.SetProviderHealth(rec.Identifier, true)
		}
	}

	c.startHealthLoopLocked()
	state := c.state
	c.mu.Unlock()

	c.logger.Info("council initialized",
		zap.String("state", string(state)),
		zap.Int("succeeded", len(installed)),
		zap.Int("total", len(candidates)))
	return nil
}

func joinInitErrors(errs []InitError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.ProviderID+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// Consult performs a direct single-shot generation against the provider
// holding the given role, bypassing the pipeline.
func (c *Council) Consult(ctx context.Context, role, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", types.NewError(types.ErrValidation, "question must not be empty")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.readyLocked(); err != nil {
		return "", err
	}
	providerID, ok := c.roles[role]
	if !ok {
		if c.metrics != nil {
			c.metrics.RecordConsultation(role, "no_member")
		}
		return "", types.NewErrorf(types.ErrNoMember, "no council member holds role %q", role)
	}

	out, err := c.members[providerID].Handle.Generate(ctx, question)
	if c.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.RecordConsultation(role, outcome)
		c.metrics.RecordProviderCall(providerID, outcome)
	}
	if err != nil {
		return "", types.NewErrorf(types.ErrStageExecution, "consultation with %q failed", providerID).
			WithProvider(providerID).WithCause(err)
	}
	return out, nil
}

// readyLocked returns a NOT_READY error (including collected
// initialization errors) unless the council is operational.
// Caller must hold at least the read lock.
func (c *Council) readyLocked() error {
	if c.state.Operational() {
		return nil
	}
	msg := "council is not ready (state: " + string(c.state) + ")"
	if len(c.attempt.Errors) > 0 {
		msg += "; initialization errors: " + joinInitErrors(c.attempt.Errors)
	}
	return types.NewError(types.ErrNotReady, msg)
}

// Reinitialize stops the health sweep, clears the roster, and re-runs
// Initialize. It returns the post-reinitialization detailed status.
func (c *Council) Reinitialize(ctx context.Context) (DetailedStatusSnapshot, error) {
	c.stopHealthLoop()

	c.mu.Lock()
	c.members = make(map[string]*MemberRecord)
	c.order = nil
	c.roles = make(map[string]string)
	c.state = StateUninitialized
	c.healthMu.Lock()
	c.health = make(map[string]HealthRecord)
	c.healthMu.Unlock()
	c.mu.Unlock()

	err := c.Initialize(ctx)
	return c.DetailedStatus(), err
}

// Shutdown stops the health sweep, runs best-effort teardown hooks on
// every member, and clears the roster back to Uninitialized.
func (c *Council) Shutdown(ctx context.Context) error {
	c.stopHealthLoop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		rec := c.members[id]
		if !rec.Caps.Teardown {
			continue
		}
		if err := rec.Handle.(provider.Teardowner).Teardown(ctx); err != nil {
			c.logger.Warn("provider teardown failed",
				zap.String("provider", id), zap.Error(err))
		}
	}

	c.members = make(map[string]*MemberRecord)
	c.order = nil
	c.roles = make(map[string]string)
	c.state = StateUninitialized
	c.healthMu.Lock()
	c.health = make(map[string]HealthRecord)
	c.healthMu.Unlock()

	if c.metrics != nil {
		c.metrics.SetActiveProviders(0)
	}
	c.logger.Info("council shut down")
	return nil
}
