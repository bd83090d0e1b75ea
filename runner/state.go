package runner

// State represents the current state of a runner
type State string

const (
	StatePending             State = "pending"
	StateWaitForDependencies State = "waitForDependencies" //waiting for a parent
	StateRunning             State = "running"
	StateCompleted           State = "completed"
	StateFailed              State = "failed"
	StateSkipped             State = "skipped"
)

// IsTerminal reports whether the state is final for the run.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateSkipped
}
