// Package mocks provides test doubles for the provider capability
// contract, with builder-style configuration for fixed responses, error
// injection, delays, and call recording.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/money3x/councilflow/provider"
)

// Call records one generation invocation.
type Call struct {
	Prompt string
	Output string
	Err    error
}

// MockProvider is a configurable in-memory implementation of the full
// provider capability surface. It is safe for concurrent use.
type MockProvider struct {
	mu sync.Mutex

	name         string
	response     string
	err          error
	probeErr     error
	delay        time.Duration
	failAfter    int // fail from the Nth call onward (0 = never)
	generateFunc func(ctx context.Context, prompt string) (string, error)

	callCount    int
	calls        []Call
	role         string
	specialties  []string
	council      any
	tornDown     bool
	probeCount   int
	setRoleErr   error
	setSpecsErr  error
	teardownErr  error
}

// NewMockProvider creates a mock named name with a fixed default response.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:     name,
		response: "mock response from " + name,
	}
}

// WithResponse sets the fixed response content.
func (m *MockProvider) WithResponse(response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithError makes every generation fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithProbeError makes health probes fail with err.
func (m *MockProvider) WithProbeError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeErr = err
	return m
}

// WithDelay makes each generation sleep (honoring ctx) before returning.
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithFailAfter makes generation fail with err starting at call n.
func (m *MockProvider) WithFailAfter(n int, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	m.err = err
	return m
}

// WithGenerateFunc replaces the canned behavior entirely.
func (m *MockProvider) WithGenerateFunc(fn func(ctx context.Context, prompt string) (string, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateFunc = fn
	return m
}

// WithSetRoleError makes SetRole fail.
func (m *MockProvider) WithSetRoleError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setRoleErr = err
	return m
}

// WithTeardownError makes Teardown fail.
func (m *MockProvider) WithTeardownError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownErr = err
	return m
}

// Name implements provider.Provider.
func (m *MockProvider) Name() string { return m.name }

// Generate implements provider.Provider.
func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	count := m.callCount
	delay := m.delay
	fn := m.generateFunc
	response := m.response
	err := m.err
	failAfter := m.failAfter
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			m.record(prompt, "", ctx.Err())
			return "", ctx.Err()
		}
	}
	if ctx.Err() != nil {
		m.record(prompt, "", ctx.Err())
		return "", ctx.Err()
	}

	if fn != nil {
		out, ferr := fn(ctx, prompt)
		m.record(prompt, out, ferr)
		return out, ferr
	}

	if err != nil && (failAfter == 0 || count >= failAfter) {
		m.record(prompt, "", err)
		return "", err
	}
	m.record(prompt, response, nil)
	return response, nil
}

func (m *MockProvider) record(prompt, output string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Prompt: prompt, Output: output, Err: err})
}

// ProbeHealth implements provider.HealthProber.
func (m *MockProvider) ProbeHealth(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeCount++
	if m.probeErr != nil {
		return m.probeErr
	}
	return ctx.Err()
}

// SetRole implements provider.RoleAware.
func (m *MockProvider) SetRole(role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setRoleErr != nil {
		return m.setRoleErr
	}
	m.role = role
	return nil
}

// SetSpecialties implements provider.SpecialtyAware.
func (m *MockProvider) SetSpecialties(specialties []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setSpecsErr != nil {
		return m.setSpecsErr
	}
	m.specialties = append([]string(nil), specialties...)
	return nil
}

// SetCouncilContext implements provider.CouncilAware.
func (m *MockProvider) SetCouncilContext(council any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.council = council
}

// Teardown implements provider.Teardowner.
func (m *MockProvider) Teardown(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.teardownErr != nil {
		return m.teardownErr
	}
	m.tornDown = true
	return nil
}

// CallCount returns the number of Generate invocations.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Calls returns a copy of recorded generation calls.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Role returns the last assigned role.
func (m *MockProvider) Role() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.role
}

// Specialties returns the last assigned specialty list.
func (m *MockProvider) Specialties() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.specialties...)
}

// CouncilContext returns the stored council handle.
func (m *MockProvider) CouncilContext() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.council
}

// TornDown reports whether Teardown ran successfully.
func (m *MockProvider) TornDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tornDown
}

// ProbeCount returns the number of health probes.
func (m *MockProvider) ProbeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probeCount
}

// BareProvider is a minimal provider with no optional extensions,
// for exercising capability detection and probe fallback paths.
type BareProvider struct {
	ProviderName string
	Response     string
	Err          error

	mu    sync.Mutex
	count int
}

// Name implements provider.Provider.
func (b *BareProvider) Name() string { return b.ProviderName }

// Generate implements provider.Provider.
func (b *BareProvider) Generate(ctx context.Context, _ string) (string, error) {
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
	if b.Err != nil {
		return "", b.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.Response, nil
}

// CallCount returns the number of Generate invocations.
func (b *BareProvider) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

var _ provider.Provider = (*MockProvider)(nil)
var _ provider.HealthProber = (*MockProvider)(nil)
var _ provider.RoleAware = (*MockProvider)(nil)
var _ provider.SpecialtyAware = (*MockProvider)(nil)
var _ provider.CouncilAware = (*MockProvider)(nil)
var _ provider.Teardowner = (*MockProvider)(nil)
var _ provider.Provider = (*BareProvider)(nil)
