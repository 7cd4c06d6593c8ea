package model

// FlowState stores per-invocation state for the Eino turn graph.
// It is registered via compose.WithGenLocalState and only touched inside
// state handlers or compose.ProcessState, which Eino serializes.
type FlowState struct {
	ConversationKey string
	DependencyCalls int
}

// TurnInput is what the HTTP layer hands to the graph after authentication.
type TurnInput struct {
	UserID    string
	SessionID string
	Message   string
	// State is the stored state, nil when the session has none.
	State *ConversationState
}

// Outcome labels how a turn ended, for logs and metrics.
type Outcome string

const (
	OutcomePrompted        Outcome = "prompted"
	OutcomeAdvanced        Outcome = "advanced"
	OutcomeRejected        Outcome = "rejected"
	OutcomeDependencyError Outcome = "dependency_error"
	OutcomeEmptyResult     Outcome = "empty_result"
	OutcomeCompleted       Outcome = "completed"
	OutcomeEngineError     Outcome = "engine_error"
	OutcomeUnknownStep     Outcome = "unknown_step"
)

// Turn flows between graph nodes. Current is never mutated; nodes write Next.
type Turn struct {
	UserID    string
	SessionID string
	Message   string
	Reset     bool

	Current *ConversationState
	// Next is persisted when non-nil. Clear drops the stored state first.
	Next  *ConversationState
	Clear bool

	// Selection carries validated friend names from the friends node to the fetch node.
	Selection []string
	// Candidates carries genre-filtered movies from the mood node to the recommend node.
	Candidates []Movie

	Response *TurnResponse
	Outcome  Outcome
	// Err is the soft failure behind Response, nil when the turn went as planned.
	Err             error
	DependencyCalls int
}

// Step returns the step of the loaded state.
func (t *Turn) Step() Step {
	if t.Current == nil {
		return StepNone
	}
	return t.Current.Step
}

// Done reports whether a node already produced the reply for this turn.
func (t *Turn) Done() bool {
	return t.Response != nil
}
