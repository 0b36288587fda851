package council

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/money3x/councilflow/provider"
	"github.com/money3x/councilflow/testutil/mocks"
)

// fiveRoleConfigs returns one enabled, credentialed config per council role.
func fiveRoleConfigs() []provider.Config {
	return []provider.Config{
		{Identifier: "gpt", DisplayName: "GPT", Role: RoleCreator, Priority: 1, Enabled: true, APIKey: "k", Specialties: []string{"writing"}},
		{Identifier: "claude", DisplayName: "Claude", Role: RoleReviewer, Priority: 2, Enabled: true, APIKey: "k"},
		{Identifier: "gemini", DisplayName: "Gemini", Role: RoleEnhancer, Priority: 3, Enabled: true, APIKey: "k"},
		{Identifier: "deepseek", DisplayName: "DeepSeek", Role: RoleValidator, Priority: 4, Enabled: true, APIKey: "k"},
		{Identifier: "qwen", DisplayName: "Qwen", Role: RoleLocalizer, Priority: 5, Enabled: true, APIKey: "k"},
	}
}

// registryFor registers a fixed-handle constructor per provider.
func registryFor(handles map[string]provider.Provider) *provider.Registry {
	r := provider.NewRegistry(zap.NewNop())
	for id, handle := range handles {
		handle := handle
		r.Register(id, func(_ context.Context, _ provider.Config) (provider.Provider, error) {
			return handle, nil
		})
	}
	return r
}

// fiveRoleMocks returns a mock per config identifier, each answering with
// "<id> output".
func fiveRoleMocks() map[string]*mocks.MockProvider {
	out := make(map[string]*mocks.MockProvider)
	for _, cfg := range fiveRoleConfigs() {
		out[cfg.Identifier] = mocks.NewMockProvider(cfg.Identifier).
			WithResponse(cfg.Identifier + " output")
	}
	return out
}

func handlesOf(ms map[string]*mocks.MockProvider) map[string]provider.Provider {
	out := make(map[string]provider.Provider, len(ms))
	for id, m := range ms {
		out[id] = m
	}
	return out
}

// newInitializedCouncil builds and initializes a council over the given
// mocks with a long health interval so the sweep stays quiet in tests.
func newInitializedCouncil(t *testing.T, ms map[string]*mocks.MockProvider, opts ...Option) *Council {
	t.Helper()
	opts = append([]Option{WithHealthInterval(time.Hour)}, opts...)
	c := New(registryFor(handlesOf(ms)), fiveRoleConfigs(), opts...)
	require.NoError(t, c.Initialize(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}
