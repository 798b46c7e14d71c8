package verify

import "context"

// Request is the payload dispatched to the course verification service.
type Request struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	UserID string `json:"user_id"`
}

// SkillMatch is a skill term the verifier extracted from the certificate.
type SkillMatch struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MatchCount int    `json:"match_count"`
}

// Result is the terminal outcome of one verification round-trip.
type Result struct {
	Verified bool         `json:"verified"`
	Error    string       `json:"error,omitempty"`
	Skills   []SkillMatch `json:"skills_list,omitempty"`
	TimedOut bool         `json:"-"`
}

// TaskState is the lifecycle state of an in-flight verification task.
type TaskState string

const (
	TaskPending TaskState = "PENDING"
	TaskSuccess TaskState = "SUCCESS"
	TaskFailure TaskState = "FAILURE"
)

// Terminal reports whether the state admits no further transitions.
func (s TaskState) Terminal() bool {
	return s == TaskSuccess || s == TaskFailure
}

// Broker dispatches verification tasks and reports their results.
// The task id is chosen by the caller and carried through to the result.
type Broker interface {
	Dispatch(ctx context.Context, taskID string, req Request) error
	Result(ctx context.Context, taskID string) (TaskState, []byte, error)
}
