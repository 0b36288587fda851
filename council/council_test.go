package council

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/money3x/councilflow/provider"
	"github.com/money3x/councilflow/testutil/mocks"
	"github.com/money3x/councilflow/types"
)

func TestInitialize_AllSucceed(t *testing.T) {
	ms := fiveRoleMocks()
	c := newInitializedCouncil(t, ms)

	assert.Equal(t, StateFullyInitialized, c.State())

	snap := c.Status()
	assert.Equal(t, 5, snap.MemberCount)
	assert.Equal(t, "gpt", snap.Roles[RoleCreator])
	assert.Equal(t, "qwen", snap.Roles[RoleLocalizer])
	assert.Equal(t, 100, snap.OverallHealth)

	// role/specialty assignment reached the handles
	assert.Equal(t, RoleCreator, ms["gpt"].Role())
	assert.Equal(t, []string{"writing"}, ms["gpt"].Specialties())
	assert.Same(t, c, ms["gpt"].CouncilContext())
}

func TestInitialize_PartialFailure(t *testing.T) {
	ms := fiveRoleMocks()
	handles := handlesOf(ms)
	r := registryFor(handles)
	// gemini's constructor fails; the loop must continue
	r.Register("gemini", func(context.Context, provider.Config) (provider.Provider, error) {
		return nil, errors.New("quota exhausted")
	})

	c := New(r, fiveRoleConfigs(), WithHealthInterval(time.Hour))
	require.NoError(t, c.Initialize(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })

	assert.Equal(t, StatePartiallyInitialized, c.State())

	detail := c.DetailedStatus()
	assert.Equal(t, 4, detail.InitAttempt.Succeeded)
	assert.Equal(t, 5, detail.InitAttempt.Total)
	require.Len(t, detail.InitAttempt.Errors, 1)
	assert.Equal(t, "gemini", detail.InitAttempt.Errors[0].ProviderID)
	assert.Contains(t, detail.InitAttempt.Errors[0].Message, "quota exhausted")

	_, enhancerAssigned := detail.Roles[RoleEnhancer]
	assert.False(t, enhancerAssigned)
}

func TestInitialize_SetupFailureBecomesWarning(t *testing.T) {
	ms := fiveRoleMocks()
	ms["claude"].WithSetRoleError(errors.New("role rejected"))
	c := newInitializedCouncil(t, ms)

	// setup failures never keep a provider out of the roster
	assert.Equal(t, StateFullyInitialized, c.State())

	detail := c.DetailedStatus()
	assert.Empty(t, detail.InitAttempt.Errors)
	require.Len(t, detail.InitAttempt.Warnings, 1)
	warning := detail.InitAttempt.Warnings[0]
	assert.Equal(t, "claude", warning.ProviderID)
	assert.Contains(t, warning.Message, string(types.ErrSetup))
	assert.Contains(t, warning.Message, "role rejected")

	out, err := c.Consult(context.Background(), RoleReviewer, "check this")
	require.NoError(t, err)
	assert.Equal(t, "claude output", out)
}

func TestInitialize_AllFail(t *testing.T) {
	r := provider.NewRegistry(zap.NewNop())
	for _, cfg := range fiveRoleConfigs() {
		r.Register(cfg.Identifier, func(context.Context, provider.Config) (provider.Provider, error) {
			return nil, errors.New("unreachable")
		})
	}
	c := New(r, fiveRoleConfigs(), WithHealthInterval(time.Hour))

	err := c.Initialize(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrConstruction, types.GetErrorCode(err))
	assert.Equal(t, StateFailedInitialization, c.State())
}

func TestInitialize_NoCandidates(t *testing.T) {
	configs := []provider.Config{
		{Identifier: "a", Role: RoleCreator, Enabled: false, APIKey: "k"},
		{Identifier: "b", Role: RoleReviewer, Enabled: true}, // no credential
	}
	c := New(provider.NewRegistry(nil), configs)

	err := c.Initialize(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
	assert.Equal(t, StateFailedInitialization, c.State())
}

func TestExecuteWorkflow_FailsFastWhenNotReady(t *testing.T) {
	ms := fiveRoleMocks()
	c := New(registryFor(handlesOf(ms)), nil)

	_, err := c.ExecuteWorkflow(context.Background(), "write something", "full")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotReady, types.GetErrorCode(err))

	for id, m := range ms {
		assert.Zero(t, m.CallCount(), "provider %s must not be called", id)
	}
}

func TestRoleAssignment_LastWriterWins(t *testing.T) {
	ms := map[string]*mocks.MockProvider{
		"first":  mocks.NewMockProvider("first"),
		"second": mocks.NewMockProvider("second"),
	}
	configs := []provider.Config{
		{Identifier: "first", Role: RoleCreator, Enabled: true, APIKey: "k"},
		{Identifier: "second", Role: RoleCreator, Enabled: true, APIKey: "k"},
	}
	c := New(registryFor(handlesOf(ms)), configs, WithHealthInterval(time.Hour))
	require.NoError(t, c.Initialize(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })

	snap := c.Status()
	assert.Equal(t, "second", snap.Roles[RoleCreator])
	assert.Equal(t, 2, snap.MemberCount, "both providers stay active members")
}

func TestConsult(t *testing.T) {
	ms := fiveRoleMocks()
	ms["claude"].WithResponse("looks good to me")
	c := newInitializedCouncil(t, ms)

	out, err := c.Consult(context.Background(), RoleReviewer, "is this paragraph fine?")
	require.NoError(t, err)
	assert.Equal(t, "looks good to me", out)

	calls := ms["claude"].Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "is this paragraph fine?", calls[0].Prompt, "consult bypasses templates")
}

func TestConsult_NoMemberForRole(t *testing.T) {
	ms := map[string]*mocks.MockProvider{"gpt": mocks.NewMockProvider("gpt")}
	configs := []provider.Config{
		{Identifier: "gpt", Role: RoleCreator, Enabled: true, APIKey: "k"},
	}
	c := New(registryFor(handlesOf(ms)), configs, WithHealthInterval(time.Hour))
	require.NoError(t, c.Initialize(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })

	_, err := c.Consult(context.Background(), RoleLocalizer, "translate this")
	require.Error(t, err)
	assert.Equal(t, types.ErrNoMember, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), RoleLocalizer)
}

func TestStatus_Idempotent(t *testing.T) {
	c := newInitializedCouncil(t, fiveRoleMocks())

	first := c.Status()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Status())
	}
}

func TestReinitialize(t *testing.T) {
	ms := fiveRoleMocks()
	c := newInitializedCouncil(t, ms)

	detail, err := c.Reinitialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateFullyInitialized, detail.State)
	assert.Equal(t, 5, detail.MemberCount)
	assert.Equal(t, 5, detail.InitAttempt.Succeeded)
}

func TestShutdown_RunsTeardownBestEffort(t *testing.T) {
	ms := fiveRoleMocks()
	ms["claude"].WithTeardownError(errors.New("socket already closed"))
	c := newInitializedCouncil(t, ms)

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Equal(t, StateUninitialized, c.State())
	assert.True(t, ms["gpt"].TornDown())
	assert.False(t, ms["claude"].TornDown(), "failing teardown is logged, not retried")
	assert.Zero(t, c.Status().MemberCount)
}

func TestInitializeFromPool(t *testing.T) {
	pool := NewSharedPool()
	for _, cfg := range fiveRoleConfigs() {
		pool.Add(mocks.NewMockProvider(cfg.Identifier))
	}

	// registry is empty: adoption must not construct anything
	c := New(provider.NewRegistry(nil), fiveRoleConfigs(), WithHealthInterval(time.Hour))
	require.NoError(t, c.InitializeFromPool(context.Background(), pool))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })

	assert.Equal(t, StateFullyInitialized, c.State())
	assert.Equal(t, 5, c.Status().MemberCount)
}

func TestInitializeFromPool_PartialAdoption(t *testing.T) {
	pool := NewSharedPool()
	pool.Add(mocks.NewMockProvider("gpt"))
	pool.Add(mocks.NewMockProvider("claude"))

	c := New(provider.NewRegistry(nil), fiveRoleConfigs(), WithHealthInterval(time.Hour))
	require.NoError(t, c.InitializeFromPool(context.Background(), pool))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })

	assert.Equal(t, StatePartiallyInitialized, c.State())
	detail := c.DetailedStatus()
	assert.Equal(t, 2, detail.InitAttempt.Succeeded)
	assert.Len(t, detail.InitAttempt.Errors, 3)
}

func TestInitializeFromPool_EmptyPoolFallsBack(t *testing.T) {
	ms := fiveRoleMocks()
	c := New(registryFor(handlesOf(ms)), fiveRoleConfigs(), WithHealthInterval(time.Hour))

	require.NoError(t, c.InitializeFromPool(context.Background(), nil))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	assert.Equal(t, StateFullyInitialized, c.State())
}

func TestInitialize_PrioritySortOrdersRegistration(t *testing.T) {
	ms := fiveRoleMocks()
	configs := fiveRoleConfigs()
	// scramble priorities: qwen should register first
	configs[0].Priority = 50
	configs[4].Priority = 0

	c := New(registryFor(handlesOf(ms)), configs,
		WithHealthInterval(time.Hour), WithPrioritySort())
	require.NoError(t, c.Initialize(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })

	members := c.Status().Members
	require.Len(t, members, 5)
	assert.Equal(t, "qwen", members[0].Identifier)
	assert.Equal(t, "gpt", members[4].Identifier)
}
