// Package council implements the orchestration core: a roster of
// text-generation providers, each assigned a council role (creator,
// reviewer, enhancer, validator, localizer), driven through named
// multi-stage workflows over a shared content buffer.
//
// The pipeline is soft: a stage whose role has no assigned provider is
// skipped with the buffer unchanged, and a stage failure hands control to
// the degradation manager, which tries every remaining provider against
// the original prompt before settling on a fixed sentinel. Callers always
// receive a PipelineRun with an explicit status; only whole-system
// failures (not ready, invalid arguments) surface as errors.
package council
