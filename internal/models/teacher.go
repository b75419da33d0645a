package models

import "time"

// Teacher represents a staff member with bilingual name fields.
type Teacher struct {
	ID                    string    `db:"id" json:"id"`
	EmployeeID            string    `db:"employee_id" json:"employee_id"`
	NameBangla            string    `db:"name_bangla" json:"name_bangla"`
	NameEnglish           string    `db:"name_english" json:"name_english"`
	Designation           string    `db:"designation" json:"designation"`
	Qualification         string    `db:"qualification" json:"qualification"`
	SubjectSpecialization string    `db:"subject_specialization" json:"subject_specialization"`
	JoiningDate           time.Time `db:"joining_date" json:"joining_date"`
	Phone                 string    `db:"phone" json:"phone,omitempty"`
	Email                 string    `db:"email" json:"email,omitempty"`
	Address               string    `db:"address" json:"address,omitempty"`
	PhotoURL              *string   `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// TeacherFilter captures filtering criteria for listing teachers.
type TeacherFilter struct {
	Search   string
	Page     int
	PageSize int
}
