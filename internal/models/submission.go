package models

import "time"

// Submission represents a student's response to an assignment.
type Submission struct {
	ID            uint             `json:"id"`
	AssignmentID  uint             `json:"assignment_id"`
	StudentID     uint             `json:"student_id"`
	TextAnswer    *string          `json:"text_answer"`
	Files         []SubmissionFile `json:"files"`
	Status        string           `json:"status"`
	GradingStatus string           `json:"grading_status"`
	Feedback      *string          `json:"feedback"`
	SubmittedAt   *time.Time       `json:"submitted_at"`
	GradedAt      *time.Time       `json:"graded_at"`
}

// SubmissionFile is a file already uploaded as part of a submission. Order
// matches upload order.
type SubmissionFile struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

const (
	// SubmissionStatusDraft indicates a response begun locally but not yet
	// accepted by the API.
	SubmissionStatusDraft = "draft"
	// SubmissionStatusSubmitted indicates the API accepted the response.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates a convener has graded the response.
	SubmissionStatusGraded = "graded"
)

const (
	// GradingStatusPending indicates the submission awaits a verdict.
	GradingStatusPending = "pending"
	// GradingStatusPassed indicates a passing verdict.
	GradingStatusPassed = "passed"
	// GradingStatusFailed indicates a failing verdict.
	GradingStatusFailed = "failed"
)

// IsGraded reports whether the submission carries a final verdict.
func (s Submission) IsGraded() bool {
	return s.GradingStatus == GradingStatusPassed || s.GradingStatus == GradingStatusFailed
}

// IsSubmitted reports whether the submission has reached the backend, graded
// or not.
func (s Submission) IsSubmitted() bool {
	return s.Status == SubmissionStatusSubmitted || s.Status == SubmissionStatusGraded
}
