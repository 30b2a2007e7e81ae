package task

// Stage names, used for logging and metric labels.
const (
	StageGenerate       = "generate"
	StageUploadImage    = "upload_image"
	StageUploadMetadata = "upload_metadata"
	StageMint           = "mint"
)

// StageOutcome classifies how a pipeline stage ended.
type StageOutcome int

const (
	// OutcomeOK means the stage succeeded and the pipeline continues.
	OutcomeOK StageOutcome = iota

	// OutcomeRetryable means the stage failed and the whole run aborts;
	// the retry policy decides whether the task goes back to pending.
	OutcomeRetryable

	// OutcomeSkip means the stage did not run to success but the
	// pipeline continues anyway. Only the mint stage produces this: a
	// mint error or a missing wallet never fails the task.
	OutcomeSkip
)

// StageResult is the outcome of one pipeline stage. Making the mint
// stage return Skip instead of an error keeps the stage-four rule in
// the control flow rather than in a special-cased catch.
type StageResult struct {
	Outcome StageOutcome
	Err     error
}

// OK reports a successful stage.
func OK() StageResult {
	return StageResult{Outcome: OutcomeOK}
}

// Retryable reports a failed stage whose error aborts the run.
func Retryable(err error) StageResult {
	return StageResult{Outcome: OutcomeRetryable, Err: err}
}

// Skip reports a stage that was bypassed without failing the run. The
// error, if any, is recorded for logging only.
func Skip(err error) StageResult {
	return StageResult{Outcome: OutcomeSkip, Err: err}
}

// Failed reports whether this result aborts the pipeline run.
func (r StageResult) Failed() bool {
	return r.Outcome == OutcomeRetryable
}
