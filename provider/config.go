package provider

import (
	"sort"
	"strings"
	"time"
)

// Config describes one enabled-provider record from configuration.
// Only records with Enabled=true and a present credential become
// initialization candidates.
type Config struct {
	// Identifier is the unique provider id (e.g., "gpt", "claude").
	Identifier string `yaml:"identifier" json:"identifier"`
	// DisplayName is the human-readable name.
	DisplayName string `yaml:"display_name" json:"display_name"`
	// Role is the council role this provider fills (e.g., "creator").
	Role string `yaml:"role" json:"role"`
	// Specialties lists the provider's declared strengths, in order.
	Specialties []string `yaml:"specialties" json:"specialties,omitempty"`
	// Priority orders initialization for priority-sorted councils
	// (lower first).
	Priority int `yaml:"priority" json:"priority"`
	// Enabled gates whether the record is an initialization candidate.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// APIKey is the provider credential. Records without one are skipped.
	APIKey string `yaml:"api_key" json:"-"`
	// BaseURL is the provider API base URL.
	BaseURL string `yaml:"base_url" json:"base_url,omitempty"`
	// Model selects the backend model, when the provider supports it.
	Model string `yaml:"model" json:"model,omitempty"`
	// Timeout bounds a single generation HTTP call. Zero means the
	// adapter default.
	Timeout time.Duration `yaml:"timeout" json:"timeout,omitempty"`
}

// HasCredential reports whether the record carries a usable credential.
func (c Config) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Candidates filters configs down to enabled entries with a credential,
// preserving input order.
func Candidates(configs []Config) []Config {
	out := make([]Config, 0, len(configs))
	for _, c := range configs {
		if c.Enabled && c.HasCredential() {
			out = append(out, c)
		}
	}
	return out
}

// SortByPriority returns a copy of configs stably sorted by ascending
// priority. Entries with equal priority keep their relative order.
func SortByPriority(configs []Config) []Config {
	out := make([]Config, len(configs))
	copy(out, configs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}
