package validation

import (
	"strings"
	"time"
)

// Field names used as keys in the error map returned by
// ValidateAssignmentForm.
const (
	FieldTitle        = "title"
	FieldInstructions = "instructions"
	FieldDueDate      = "dueDate"
)

// Messages for invalid assignment form fields. Call sites render these
// inline, so the exact wording is part of the contract.
const (
	MsgTitleRequired        = "Title is required"
	MsgInstructionsRequired = "Instructions are required"
	MsgDueDateInFuture      = "Due date must be in the future"
)

// AssignmentForm carries the fields of the assignment create/edit form.
type AssignmentForm struct {
	Title        string
	Instructions string
	DueDate      time.Time
}

// ValidateAssignmentForm checks the form against the current clock. The
// returned map holds one message per invalid field; a field absent from the
// map passed validation. No field carries a maximum length.
func ValidateAssignmentForm(form AssignmentForm) map[string]string {
	return ValidateAssignmentFormAt(form, time.Now())
}

// ValidateAssignmentFormAt is ValidateAssignmentForm against an explicit
// reference time. A due date equal to the reference time is invalid: the
// deadline must be strictly in the future.
func ValidateAssignmentFormAt(form AssignmentForm, now time.Time) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(form.Title) == "" {
		errs[FieldTitle] = MsgTitleRequired
	}
	if strings.TrimSpace(form.Instructions) == "" {
		errs[FieldInstructions] = MsgInstructionsRequired
	}
	if !form.DueDate.After(now) {
		errs[FieldDueDate] = MsgDueDateInFuture
	}

	return errs
}

// IsValidAssignmentForm reports whether the whole form passes validation.
func IsValidAssignmentForm(form AssignmentForm) bool {
	return len(ValidateAssignmentForm(form)) == 0
}

// IsValidAssignmentFormAt is IsValidAssignmentForm against an explicit
// reference time.
func IsValidAssignmentFormAt(form AssignmentForm, now time.Time) bool {
	return len(ValidateAssignmentFormAt(form, now)) == 0
}

// ValidateField checks a single form field in isolation, returning the empty
// string when the value is valid. Unlike the map form, which omits valid
// keys, single-field validation always yields a string; both shapes are
// relied on by callers.
func ValidateField(name string, value interface{}) string {
	return ValidateFieldAt(name, value, time.Now())
}

// ValidateFieldAt is ValidateField against an explicit reference time.
func ValidateFieldAt(name string, value interface{}, now time.Time) string {
	switch name {
	case FieldTitle:
		if s, ok := value.(string); !ok || strings.TrimSpace(s) == "" {
			return MsgTitleRequired
		}
	case FieldInstructions:
		if s, ok := value.(string); !ok || strings.TrimSpace(s) == "" {
			return MsgInstructionsRequired
		}
	case FieldDueDate:
		if t, ok := value.(time.Time); !ok || !t.After(now) {
			return MsgDueDateInFuture
		}
	}

	return ""
}
