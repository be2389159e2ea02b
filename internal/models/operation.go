package models

import "time"

// OperationType tags a queued operation with the remote call it defers.
type OperationType string

const (
	// OperationSubmitAssignment defers creating a submission.
	OperationSubmitAssignment OperationType = "submit_assignment"
	// OperationUpdateSubmission defers updating an existing submission.
	OperationUpdateSubmission OperationType = "update_submission"
	// OperationGradeSubmission defers recording a convener's verdict.
	OperationGradeSubmission OperationType = "grade_submission"
)

// MaxOperationRetries is the retry ceiling: once an operation's retry count
// would reach this value it is dropped from the queue instead of retained.
const MaxOperationRetries = 3

// QueuedOperation is a durable record of a mutating action deferred for lack
// of connectivity. Exactly one payload field matching Type is populated.
// Apart from RetryCount increments an operation is never mutated after
// enqueue.
type QueuedOperation struct {
	ID         string        `json:"id"`
	Type       OperationType `json:"type"`
	Timestamp  time.Time     `json:"timestamp"`
	RetryCount int           `json:"retry_count"`

	Submit *SubmitPayload `json:"submit,omitempty"`
	Update *UpdatePayload `json:"update,omitempty"`
	Grade  *GradePayload  `json:"grade,omitempty"`
}

// SubmitPayload carries a deferred submission create.
type SubmitPayload struct {
	AssignmentID uint        `json:"assignment_id" validate:"required,gt=0"`
	TextAnswer   string      `json:"text_answer"`
	Files        []LocalFile `json:"files"`
}

// UpdatePayload carries a deferred submission update.
type UpdatePayload struct {
	SubmissionID uint    `json:"submission_id" validate:"required,gt=0"`
	TextAnswer   *string `json:"text_answer"`
	Status       *string `json:"status" validate:"omitempty,oneof=draft submitted graded"`
}

// GradePayload carries a deferred grading verdict.
type GradePayload struct {
	SubmissionID  uint   `json:"submission_id" validate:"required,gt=0"`
	GradingStatus string `json:"grading_status" validate:"required,oneof=passed failed"`
	Feedback      string `json:"feedback"`
}

// CanRetry reports whether the operation may be attempted again without
// reaching the ceiling.
func (op QueuedOperation) CanRetry() bool {
	return op.RetryCount+1 < MaxOperationRetries
}
