package queue

import "fmt"

// Outcome of one task execution attempt.
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeRetry   = "retry"
	OutcomeError   = "error"
)

// Result is the tagged outcome of a task attempt. Exactly one shape per
// outcome: success carries nothing extra, skipped carries the reason, retry
// and error carry the cause.
type Result struct {
	Outcome string
	Reason  string
	Err     error
}

func Success() Result {
	return Result{Outcome: OutcomeSuccess}
}

func Skipped(reason string) Result {
	return Result{Outcome: OutcomeSkipped, Reason: reason}
}

func Retry(err error) Result {
	return Result{Outcome: OutcomeRetry, Err: err}
}

func Error(err error) Result {
	return Result{Outcome: OutcomeError, Err: err}
}

// AsTaskError translates a Result into the error contract asynq expects:
// retryable outcomes return an error so asynq re-delivers the task, terminal
// outcomes return nil so it does not.
func (r Result) AsTaskError() error {
	if r.Outcome != OutcomeRetry {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return fmt.Errorf("task retry: %s", r.Reason)
}
