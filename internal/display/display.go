package display

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/noah-isme/gema-mobile-core/internal/models"
)

// Human-readable submission status labels shown on assignment cards.
const (
	StatusNotSubmitted  = "Not Submitted"
	StatusDraftSaved    = "Draft Saved"
	StatusPendingReview = "Pending Review"
	StatusPassed        = "Passed"
	StatusFailed        = "Failed"
)

// AssignmentDisplayData is a presentation-ready projection of an assignment
// and its embedded submission. It is recomputed on every render and never
// cached or mutated independently.
type AssignmentDisplayData struct {
	Title            string    `json:"title"`
	Instructions     string    `json:"instructions"`
	DueDate          time.Time `json:"due_date"`
	SubmissionStatus string    `json:"submission_status"`
	IsOverdue        bool      `json:"is_overdue"`
	HasGrade         bool      `json:"has_grade"`
	HasFeedback      bool      `json:"has_feedback"`
}

// GetAssignmentDisplayData projects the assignment against the current clock.
func GetAssignmentDisplayData(assignment models.Assignment) AssignmentDisplayData {
	return GetAssignmentDisplayDataAt(assignment, time.Now())
}

// GetAssignmentDisplayDataAt projects the assignment against an explicit
// reference time. A submission that has reached the backend is never shown
// as overdue, even past the deadline.
func GetAssignmentDisplayDataAt(assignment models.Assignment, now time.Time) AssignmentDisplayData {
	submission := assignment.MySubmission

	overdue := (submission == nil || !submission.IsSubmitted()) && assignment.DueDate.Before(now)

	hasGrade := submission != nil && submission.IsGraded()
	hasFeedback := hasGrade && submission.Feedback != nil && *submission.Feedback != ""

	return AssignmentDisplayData{
		Title:            assignment.Title,
		Instructions:     assignment.Instructions,
		DueDate:          assignment.DueDate,
		SubmissionStatus: submissionLabel(submission),
		IsOverdue:        overdue,
		HasGrade:         hasGrade,
		HasFeedback:      hasFeedback,
	}
}

func submissionLabel(submission *models.Submission) string {
	switch {
	case submission == nil:
		return StatusNotSubmitted
	case submission.Status == models.SubmissionStatusDraft:
		return StatusDraftSaved
	case submission.GradingStatus == models.GradingStatusPassed:
		return StatusPassed
	case submission.GradingStatus == models.GradingStatusFailed:
		return StatusFailed
	default:
		return StatusPendingReview
	}
}

const millisPerDay = 24 * 60 * 60 * 1000

// FormatDueDate phrases a deadline relative to the current clock.
func FormatDueDate(dueDate time.Time) string {
	return FormatDueDateAt(dueDate, time.Now())
}

// FormatDueDateAt phrases a deadline relative to an explicit reference time.
// The day delta is the ceiling of the millisecond difference: any positive
// fraction of a day counts as a whole day remaining, and a deadline missed
// by a millisecond already reads as overdue by one day.
func FormatDueDateAt(dueDate time.Time, now time.Time) string {
	diff := dueDate.Sub(now).Milliseconds()
	days := int(math.Ceil(float64(diff) / millisPerDay))

	switch {
	case days < 0:
		overdue := -days
		if overdue == 1 {
			return "Overdue by 1 day"
		}
		return fmt.Sprintf("Overdue by %d days", overdue)
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days <= 7:
		return fmt.Sprintf("Due in %d days", days)
	case dueDate.Year() == now.Year():
		return dueDate.Format("Jan 2")
	default:
		return dueDate.Format("Jan 2, 2006")
	}
}

// TruncateText shortens text to at most maxLength characters plus a
// three-character ellipsis, trimming trailing whitespace before the marker.
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	if maxLength < 0 {
		maxLength = 0
	}

	return strings.TrimRight(string(runes[:maxLength]), " \t\r\n") + "..."
}

// HasAllRequiredFields reports whether the projection is complete enough to
// render an assignment card.
func HasAllRequiredFields(data AssignmentDisplayData) bool {
	return data.Title != "" &&
		data.Instructions != "" &&
		!data.DueDate.IsZero() &&
		data.SubmissionStatus != ""
}
