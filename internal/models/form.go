package models

import (
	"encoding/json"
	"time"
)

// FormType describes an applicable form with a JSON field schema.
type FormType struct {
	ID          string          `db:"id" json:"id"`
	NameEnglish string          `db:"name_english" json:"name_english"`
	NameBangla  string          `db:"name_bangla" json:"name_bangla"`
	Description string          `db:"description" json:"description,omitempty"`
	FormFields  json.RawMessage `db:"form_fields" json:"form_fields"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// SubmissionStatus enumerates the form submission workflow states.
type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionApproved   SubmissionStatus = "approved"
	SubmissionRejected   SubmissionStatus = "rejected"
)

// FormSubmission represents a user's answer to a form type.
type FormSubmission struct {
	ID          string           `db:"id" json:"id"`
	FormTypeID  string           `db:"form_type_id" json:"form_type_id"`
	UserID      string           `db:"user_id" json:"user_id"`
	FormData    json.RawMessage  `db:"form_data" json:"form_data"`
	Status      SubmissionStatus `db:"status" json:"status"`
	SubmittedAt time.Time        `db:"submitted_at" json:"submitted_at"`
	ProcessedAt *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
	ProcessedBy *string          `db:"processed_by" json:"processed_by,omitempty"`
	Remarks     *string          `db:"remarks" json:"remarks,omitempty"`
}

// CanTransition reports whether a submission may move to the target status.
// The workflow is pending -> processing -> approved|rejected; pending may
// also be resolved directly.
func (s SubmissionStatus) CanTransition(target SubmissionStatus) bool {
	switch s {
	case SubmissionPending:
		return target == SubmissionProcessing || target == SubmissionApproved || target == SubmissionRejected
	case SubmissionProcessing:
		return target == SubmissionApproved || target == SubmissionRejected
	default:
		return false
	}
}
