package quality

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/money3x/councilflow/archive"
	"github.com/money3x/councilflow/council"
	"github.com/money3x/councilflow/provider"
	"github.com/money3x/councilflow/seo"
	"github.com/money3x/councilflow/testutil/mocks"
)

// finalOutput is what the localizer (the full workflow's last stage) hands
// back, so it becomes the pipeline's final content.
const finalOutput = "# Garden Planning Basics\n\n" +
	"A practical walkthrough of soil preparation, seasonal planting windows, " +
	"and low-maintenance layouts that keep a small garden productive all year."

// newCouncil builds a five-member council whose last stage answers with
// final.
func newCouncil(t *testing.T, final string) *council.Council {
	t.Helper()

	configs := []provider.Config{
		{Identifier: "gpt", Role: council.RoleCreator, Enabled: true, APIKey: "k"},
		{Identifier: "claude", Role: council.RoleReviewer, Enabled: true, APIKey: "k"},
		{Identifier: "gemini", Role: council.RoleEnhancer, Enabled: true, APIKey: "k"},
		{Identifier: "deepseek", Role: council.RoleValidator, Enabled: true, APIKey: "k"},
		{Identifier: "qwen", Role: council.RoleLocalizer, Enabled: true, APIKey: "k"},
	}
	registry := provider.NewRegistry(zap.NewNop())
	for _, cfg := range configs {
		response := cfg.Identifier + " output"
		if cfg.Role == council.RoleLocalizer {
			response = final
		}
		handle := mocks.NewMockProvider(cfg.Identifier).WithResponse(response)
		registry.Register(cfg.Identifier, func(context.Context, provider.Config) (provider.Provider, error) {
			return handle, nil
		})
	}

	c := council.New(registry, configs, council.WithHealthInterval(time.Hour))
	require.NoError(t, c.Initialize(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

func TestEngine_CreateOptimizedContent(t *testing.T) {
	c := newCouncil(t, finalOutput)
	engine := NewEngine(c,
		WithOrganization(seo.Organization{Name: "Acme Media", URL: "https://acme.example"}),
		WithCanonicalBaseURL("https://acme.example/articles/"),
	)

	got, err := engine.CreateOptimizedContent(context.Background(), "write a gardening guide", "garden", "article")
	require.NoError(t, err)

	assert.Equal(t, council.RunCompleted, got.Status)
	assert.Len(t, got.Steps, 5)
	assert.Equal(t, finalOutput, got.Content)
	assert.Equal(t, "Garden Planning Basics", got.Title)
	assert.True(t, strings.HasPrefix(got.Description, "A practical walkthrough"))
	assert.LessOrEqual(t, len(got.Description), 155)
	assert.Equal(t, "article", got.ContentType)
	assert.Equal(t, "garden", got.Keyword)

	assert.Equal(t, "Garden Planning Basics", got.Schema.Headline)
	assert.Equal(t, "garden", got.Schema.Keywords)
	assert.Equal(t, "https://acme.example/articles/garden-planning-basics",
		got.Schema.MainEntityOfPage.ID)
	assert.Equal(t, "Acme Media", got.Schema.Publisher.Name)

	// title in range and containing the keyword, plus the attached schema
	assert.Positive(t, got.Score.SEO)
	assert.GreaterOrEqual(t, got.Score.Combined, 0)
	assert.LessOrEqual(t, got.Score.Combined, 100)
}

func TestEngine_ArchivesCompletedRun(t *testing.T) {
	store, err := archive.Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	c := newCouncil(t, finalOutput)
	engine := NewEngine(c, WithArchive(store))

	got, err := engine.CreateOptimizedContent(context.Background(), "write a gardening guide", "garden", "article")
	require.NoError(t, err)

	rec, err := store.Get(context.Background(), got.RunID)
	require.NoError(t, err)
	assert.Equal(t, "full", rec.Workflow)
	assert.Equal(t, string(council.RunCompleted), rec.Status)
	assert.Equal(t, "write a gardening guide", rec.Prompt)
	assert.Equal(t, finalOutput, rec.Content)
	assert.Equal(t, 5, rec.Steps)
	assert.Equal(t, got.Score.Combined, rec.CombinedScore)
}

func TestEngine_ArchiveFailureDoesNotFailRun(t *testing.T) {
	store, err := archive.Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	c := newCouncil(t, finalOutput)
	engine := NewEngine(c, WithArchive(store))

	got, err := engine.CreateOptimizedContent(context.Background(), "prompt", "kw", "article")
	require.NoError(t, err, "archival is best-effort")
	assert.Equal(t, council.RunCompleted, got.Status)
}

func TestEngine_PropagatesWorkflowError(t *testing.T) {
	c := council.New(provider.NewRegistry(zap.NewNop()), nil)
	engine := NewEngine(c)

	_, err := engine.CreateOptimizedContent(context.Background(), "prompt", "kw", "article")
	require.Error(t, err)
}

func TestDerivePage(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantTitle string
		wantDesc  string
	}{
		{
			name:      "markdown heading",
			content:   "# A Title\n\nFirst sentence of the body.",
			wantTitle: "A Title",
			wantDesc:  "First sentence of the body.",
		},
		{
			name:      "plain first line",
			content:   "A Title\nBody follows here.",
			wantTitle: "A Title",
			wantDesc:  "Body follows here.",
		},
		{
			name:      "leading blank lines skipped",
			content:   "\n\n## Deep Heading\nBody.",
			wantTitle: "Deep Heading",
			wantDesc:  "Body.",
		},
		{
			name:      "empty content",
			content:   "",
			wantTitle: "",
			wantDesc:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := derivePage(tt.content)
			assert.Equal(t, tt.wantTitle, page.Title)
			assert.Equal(t, tt.wantDesc, page.Description)
			assert.Equal(t, tt.content, page.Content)
		})
	}
}

func TestDerivePage_DescriptionTruncatedAtWordBoundary(t *testing.T) {
	body := strings.Repeat("lorem ipsum ", 40)
	page := derivePage("# Title\n\n" + body)

	assert.LessOrEqual(t, len(page.Description), 155)
	assert.False(t, strings.HasSuffix(page.Description, " "))
	assert.NotEqual(t, "ipsu", page.Description[len(page.Description)-4:], "no mid-word cut")
}

func TestDerivePage_MultibyteDescriptionStaysValid(t *testing.T) {
	// no space in the first 155 bytes, so the fallback cut applies; it
	// must land on a rune boundary
	page := derivePage("# タイトル\n\n" + strings.Repeat("説明", 200))

	assert.LessOrEqual(t, len(page.Description), 155)
	assert.True(t, utf8.ValidString(page.Description))
	assert.NotEmpty(t, page.Description)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Garden Planning Basics", "garden-planning-basics"},
		{"  Mixed:  CASE & Symbols!  ", "mixed-case-symbols"},
		{"already-slugged", "already-slugged"},
		{"2026 Trends", "2026-trends"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), tt.in)
	}
}

var errBoom = errors.New("boom")

func TestEngine_DegradedRunStillScored(t *testing.T) {
	configs := []provider.Config{
		{Identifier: "gpt", Role: council.RoleCreator, Enabled: true, APIKey: "k"},
		{Identifier: "claude", Role: council.RoleReviewer, Enabled: true, APIKey: "k"},
	}
	registry := provider.NewRegistry(zap.NewNop())
	creator := mocks.NewMockProvider("gpt").WithResponse(finalOutput)
	reviewer := mocks.NewMockProvider("claude").WithError(errBoom)
	registry.Register("gpt", func(context.Context, provider.Config) (provider.Provider, error) {
		return creator, nil
	})
	registry.Register("claude", func(context.Context, provider.Config) (provider.Provider, error) {
		return reviewer, nil
	})

	c := council.New(registry, configs, council.WithHealthInterval(time.Hour))
	require.NoError(t, c.Initialize(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })

	engine := NewEngine(c)
	got, err := engine.CreateOptimizedContent(context.Background(), "prompt", "garden", "article")
	require.NoError(t, err)
	assert.Equal(t, council.RunDegraded, got.Status)
	assert.NotEmpty(t, got.Content)
}
