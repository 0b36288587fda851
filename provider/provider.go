package provider

import (
	"context"
)

// Provider is the capability contract every text-generation backend must
// satisfy. Concrete implementations wrap external APIs; the engine never
// looks past this boundary.
type Provider interface {
	// Generate produces text from a prompt. It may fail with a transport
	// or provider error.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name returns the provider's unique identifier.
	Name() string
}

// HealthProber is an optional extension for providers that expose a
// dedicated lightweight health probe. Providers without it are probed
// with a trivial generation call instead.
type HealthProber interface {
	ProbeHealth(ctx context.Context) error
}

// RoleAware is an optional extension for providers that accept a role label.
type RoleAware interface {
	SetRole(role string) error
}

// SpecialtyAware is an optional extension for providers that accept a
// specialty list.
type SpecialtyAware interface {
	SetSpecialties(specialties []string) error
}

// CouncilAware is an optional extension for providers that want a handle
// back to the orchestrator that owns them.
type CouncilAware interface {
	SetCouncilContext(council any)
}

// Teardowner is an optional extension for providers that hold resources
// needing release on shutdown.
type Teardowner interface {
	Teardown(ctx context.Context) error
}

// Capabilities records which optional extensions a provider handle
// supports. Detected once at registration, never re-checked per call.
type Capabilities struct {
	HealthProbe    bool `json:"health_probe"`
	RoleAssign     bool `json:"role_assign"`
	Specialties    bool `json:"specialties"`
	CouncilContext bool `json:"council_context"`
	Teardown       bool `json:"teardown"`
}

// DetectCapabilities inspects a provider handle for the optional
// extension interfaces.
func DetectCapabilities(p Provider) Capabilities {
	var caps Capabilities
	if _, ok := p.(HealthProber); ok {
		caps.HealthProbe = true
	}
	if _, ok := p.(RoleAware); ok {
		caps.RoleAssign = true
	}
	if _, ok := p.(SpecialtyAware); ok {
		caps.Specialties = true
	}
	if _, ok := p.(CouncilAware); ok {
		caps.CouncilContext = true
	}
	if _, ok := p.(Teardowner); ok {
		caps.Teardown = true
	}
	return caps
}
