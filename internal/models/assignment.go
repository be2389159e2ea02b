package models

import "time"

// Assignment is the remote representation of a lesson assignment as returned
// by the learning API. When the student has responded, the API embeds their
// submission under MySubmission.
type Assignment struct {
	ID           uint        `json:"id"`
	LessonID     uint        `json:"lesson_id"`
	Title        string      `json:"title"`
	Instructions string      `json:"instructions"`
	DueDate      time.Time   `json:"due_date"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	MySubmission *Submission `json:"my_submission,omitempty"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
