package council

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/money3x/councilflow/types"
)

// RunStatus is the final state of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunDegraded  RunStatus = "degraded"
	RunFailed    RunStatus = "failed"
)

// FallbackSentinel is returned as content when every provider fails
// during degraded-mode generation.
const FallbackSentinel = "Content generation is temporarily degraded. Please retry later."

// fallbackMarker is appended to the original prompt in degraded mode so
// providers answer standalone instead of expecting pipeline context.
const fallbackMarker = "\n\n[fallback mode: produce your best standalone answer to the request above]"

// StepRecord is one executed pipeline stage. Records are append-only and
// never mutated after the run returns.
type StepRecord struct {
	StepIndex  int       `json:"step_index"`
	Role       string    `json:"role"`
	ProviderID string    `json:"provider_id"`
	Output     string    `json:"output"`
	Timestamp  time.Time `json:"timestamp"`
}

// PipelineRun is the result of one workflow invocation. It is owned by
// the invoking call and immutable once returned.
type PipelineRun struct {
	ID               string       `json:"id"`
	OriginalPrompt   string       `json:"original_prompt"`
	Workflow         string       `json:"workflow"`
	Steps            []StepRecord `json:"steps"`
	CurrentContent   string       `json:"current_content"`
	Status           RunStatus    `json:"status"`
	Error            string       `json:"error,omitempty"`
	FallbackProvider string       `json:"fallback_provider,omitempty"`
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
}

// Stage is one role-bound step of a named workflow. Template takes the
// stage input as its single formatting argument.
type Stage struct {
	Name     string
	Role     string
	Template string
}

var roleDescriptions = map[string]string{
	RoleCreator:   "content creation specialist",
	RoleReviewer:  "quality review specialist",
	RoleEnhancer:  "structural enhancement and search visibility specialist",
	RoleValidator: "technical validation specialist",
	RoleLocalizer: "localization specialist",
}

// workflows maps each workflow name to its fixed ordered stage list.
// All four workflows draw on the same role set.
var workflows = map[string][]Stage{
	"full": {
		{Name: "create", Role: RoleCreator,
			Template: "Write comprehensive content for the following request:\n\n%s"},
		{Name: "review", Role: RoleReviewer,
			Template: "Review the following content for quality, accuracy, and tone. Return the improved content in full:\n\n%s"},
		{Name: "enhance", Role: RoleEnhancer,
			Template: "Improve the structure, headings, and search visibility of the following content. Return the enhanced content in full:\n\n%s"},
		{Name: "validate", Role: RoleValidator,
			Template: "Validate the technical accuracy of the following content and correct any issues. Return the corrected content in full:\n\n%s"},
		{Name: "localize", Role: RoleLocalizer,
			Template: "Adapt the following content for the target locale and audience. Return the localized content in full:\n\n%s"},
	},
	"create": {
		{Name: "create", Role: RoleCreator,
			Template: "Write comprehensive content for the following request:\n\n%s"},
	},
	"review": {
		{Name: "review", Role: RoleReviewer,
			Template: "Review the following content for quality, accuracy, and tone. Return the improved content in full:\n\n%s"},
		{Name: "validate", Role: RoleValidator,
			Template: "Validate the technical accuracy of the following content and correct any issues. Return the corrected content in full:\n\n%s"},
	},
	"optimize": {
		{Name: "enhance", Role: RoleEnhancer,
			Template: "Improve the structure, headings, and search visibility of the following content. Return the enhanced content in full:\n\n%s"},
	},
}

// WorkflowNames returns the sorted names of all defined workflows.
func WorkflowNames() []string {
	names := make([]string, 0, len(workflows))
	for name := range workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// renderStagePrompt builds the provider prompt for a stage from the
// stage input and the target role's description.
func renderStagePrompt(stage Stage, input string) string {
	desc, ok := roleDescriptions[stage.Role]
	if !ok {
		desc = stage.Role
	}
	return fmt.Sprintf("Acting as the council's %s.\n\n", desc) +
		fmt.Sprintf(stage.Template, input)
}

// ExecuteWorkflow runs the named workflow over the prompt. Stages execute
// strictly sequentially against a shared content buffer; a stage whose
// role has no member is skipped with the buffer unchanged. On a stage
// error the degradation manager produces best-effort fallback content and
// the run finishes degraded; cancellation surfaces as failed with the
// completed steps preserved.
//
// Validation failures and a non-operational council return an error and
// no run; every started run returns a PipelineRun with an explicit status
// and a nil error.
func (c *Council) ExecuteWorkflow(ctx context.Context, prompt, workflowName string) (*PipelineRun, error) {
	stages, ok := workflows[workflowName]
	if !ok {
		return nil, types.NewErrorf(types.ErrUnknownWorkflow,
			"unknown workflow %q (valid: %s)", workflowName, strings.Join(WorkflowNames(), ", "))
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, types.NewError(types.ErrValidation, "prompt must not be empty")
	}

	// The read lock is held for the whole run: a reinitialize in flight
	// blocks new starts, and an in-flight run never observes a
	// half-cleared roster.
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.readyLocked(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "council.execute_workflow",
		trace.WithAttributes(
			attribute.String("workflow", workflowName),
			attribute.Int("stages", len(stages)),
		))
	defer span.End()

	run := &PipelineRun{
		ID:             uuid.NewString(),
		OriginalPrompt: prompt,
		Workflow:       workflowName,
		Status:         RunRunning,
		StartedAt:      time.Now(),
	}
	defer func() {
		run.FinishedAt = time.Now()
		if c.metrics != nil {
			c.metrics.RecordWorkflowRun(workflowName, string(run.Status), run.FinishedAt.Sub(run.StartedAt))
		}
	}()

	content := ""
	for i, stage := range stages {
		providerID, assigned := c.roles[stage.Role]
		if !assigned {
			c.logger.Debug("stage skipped, role unassigned",
				zap.String("workflow", workflowName), zap.String("role", stage.Role))
			continue
		}
		if i > 0 && content == "" {
			// Nothing to transform yet; soft skip.
			continue
		}

		input := prompt
		if i > 0 {
			input = content
		}

		stageStart := time.Now()
		out, err := c.runStage(ctx, stage, c.members[providerID], input)
		if c.metrics != nil {
			c.metrics.RecordStage(workflowName, stage.Role, time.Since(stageStart))
		}
		if err != nil {
			if ctx.Err() != nil {
				// Caller cancellation: keep completed steps, no fallback.
				run.Status = RunFailed
				run.Error = ctx.Err().Error()
				return run, nil
			}
			run.Error = err.Error()
			c.logger.Warn("stage failed, entering degraded mode",
				zap.String("workflow", workflowName),
				zap.String("stage", stage.Name),
				zap.String("provider", providerID),
				zap.Error(err))
			c.degradeLocked(ctx, run)
			return run, nil
		}

		content = out
		run.CurrentContent = content
		run.Steps = append(run.Steps, StepRecord{
			StepIndex:  len(run.Steps),
			Role:       stage.Role,
			ProviderID: providerID,
			Output:     out,
			Timestamp:  time.Now(),
		})
	}

	run.Status = RunCompleted
	return run, nil
}

// runStage invokes one stage's provider inside its own span.
func (c *Council) runStage(ctx context.Context, stage Stage, member *MemberRecord, input string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "council.stage",
		trace.WithAttributes(
			attribute.String("stage", stage.Name),
			attribute.String("role", stage.Role),
			attribute.String("provider", member.Identifier),
		))
	defer span.End()

	out, err := member.Handle.Generate(ctx, renderStagePrompt(stage, input))
	if c.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.RecordProviderCall(member.Identifier, outcome)
	}
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}

// degradeLocked attempts best-effort generation against every active
// provider in registration order, using the ORIGINAL prompt rather than
// the partially transformed buffer. The first success supplies the
// fallback content; when all fail, the fixed sentinel does. Either way
// the run finishes degraded. Caller must hold at least the read lock.
func (c *Council) degradeLocked(ctx context.Context, run *PipelineRun) {
	if c.metrics != nil {
		c.metrics.RecordDegradation(run.Workflow)
	}
	fallbackPrompt := run.OriginalPrompt + fallbackMarker
	for _, id := range c.order {
		out, err := c.members[id].Handle.Generate(ctx, fallbackPrompt)
		if c.metrics != nil {
			outcome := "success"
			if err != nil {
				outcome = "error"
			}
			c.metrics.RecordProviderCall(id, outcome)
		}
		if err != nil {
			c.logger.Debug("fallback provider failed",
				zap.String("provider", id), zap.Error(err))
			continue
		}
		run.CurrentContent = out
		run.FallbackProvider = id
		run.Status = RunDegraded
		return
	}
	run.CurrentContent = FallbackSentinel
	run.Status = RunDegraded
}
