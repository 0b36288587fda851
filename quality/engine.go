// Package quality implements the stricter quality-pipeline variant: the
// full council workflow followed by rubric scoring and structured
// metadata assembly, with optional archival of the completed run.
package quality

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/money3x/councilflow/archive"
	"github.com/money3x/councilflow/council"
	"github.com/money3x/councilflow/seo"
)

// descriptionLimit caps the auto-derived meta description length.
const descriptionLimit = 155

// OptimizedContent is the quality pipeline's result: the run's steps, the
// final content, its score, and the assembled structured metadata.
type OptimizedContent struct {
	RunID       string               `json:"run_id"`
	Status      council.RunStatus    `json:"status"`
	Steps       []council.StepRecord `json:"steps"`
	Content     string               `json:"content"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	ContentType string               `json:"content_type"`
	Keyword     string               `json:"keyword"`
	Score       seo.Score            `json:"score"`
	Schema      seo.ArticleSchema    `json:"schema"`
}

// Engine drives the quality variant over an underlying council. Build
// the council with council.WithPrioritySort so candidates initialize in
// ascending priority order.
type Engine struct {
	council *council.Council
	scorer  *seo.Scorer
	org     seo.Organization
	baseURL string
	store   *archive.Store
	logger  *zap.Logger
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithScorer replaces the default scorer.
func WithScorer(s *seo.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithOrganization sets the publisher identity used in schema markup.
func WithOrganization(org seo.Organization) Option {
	return func(e *Engine) { e.org = org }
}

// WithCanonicalBaseURL sets the base for canonical page references.
func WithCanonicalBaseURL(u string) Option {
	return func(e *Engine) { e.baseURL = strings.TrimRight(u, "/") }
}

// WithArchive attaches a run archive; completed runs are stored
// best-effort after scoring.
func WithArchive(store *archive.Store) Option {
	return func(e *Engine) { e.store = store }
}

// NewEngine creates a quality engine over an initialized (or
// to-be-initialized) council.
func NewEngine(c *council.Council, opts ...Option) *Engine {
	e := &Engine{
		council: c,
		scorer:  seo.NewScorer(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "quality_engine"))
	return e
}

// CreateOptimizedContent runs the full workflow over the prompt, then
// scores the final content against the target keyword and assembles
// schema markup. Degraded runs are still scored; the caller sees the
// run status alongside the score.
func (e *Engine) CreateOptimizedContent(ctx context.Context, prompt, targetKeyword, contentType string) (*OptimizedContent, error) {
	run, err := e.council.ExecuteWorkflow(ctx, prompt, "full")
	if err != nil {
		return nil, err
	}

	page := derivePage(run.CurrentContent)
	page.HasSchema = true // the record below ships with the content
	score := e.scorer.Score(page, targetKeyword)

	keywords := []string{}
	if kw := strings.TrimSpace(targetKeyword); kw != "" {
		keywords = append(keywords, kw)
	}
	canonical := e.baseURL + "/" + slugify(page.Title)
	schema := seo.BuildArticleSchema(page, keywords, e.org, canonical, e.now())

	result := &OptimizedContent{
		RunID:       run.ID,
		Status:      run.Status,
		Steps:       run.Steps,
		Content:     run.CurrentContent,
		Title:       page.Title,
		Description: page.Description,
		ContentType: contentType,
		Keyword:     targetKeyword,
		Score:       score,
		Schema:      schema,
	}

	if e.store != nil {
		rec := archive.RunRecord{
			ID:            run.ID,
			Workflow:      run.Workflow,
			Status:        string(run.Status),
			Prompt:        run.OriginalPrompt,
			Content:       run.CurrentContent,
			Title:         page.Title,
			Keyword:       targetKeyword,
			ContentType:   contentType,
			Steps:         len(run.Steps),
			CombinedScore: score.Combined,
			CreatedAt:     e.now(),
		}
		if err := e.store.Save(ctx, rec); err != nil {
			e.logger.Warn("run archive failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	e.logger.Info("optimized content produced",
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("combined_score", score.Combined),
		zap.Int("steps", len(run.Steps)))
	return result, nil
}

// derivePage splits final pipeline output into title, description, and
// body. The title is the first non-empty line with markdown heading
// markers stripped; the description is the following text truncated at
// a word boundary.
func derivePage(content string) seo.Page {
	page := seo.Page{Content: content}

	lines := strings.Split(content, "\n")
	rest := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		page.Title = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		rest = strings.Join(lines[i+1:], " ")
		break
	}

	desc := strings.Join(strings.Fields(rest), " ")
	if len(desc) > descriptionLimit {
		cut := strings.LastIndex(desc[:descriptionLimit], " ")
		if cut <= 0 {
			// no word boundary in range; back off to a rune boundary
			cut = descriptionLimit
			for cut > 0 && !utf8.RuneStart(desc[cut]) {
				cut--
			}
		}
		desc = desc[:cut]
	}
	page.Description = desc
	return page
}

// slugify turns a title into a canonical URL path segment.
func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
