package models

import "time"

// Student represents an enrolled pupil with bilingual name fields.
type Student struct {
	ID                 string    `db:"id" json:"id"`
	StudentID          string    `db:"student_id" json:"student_id"`
	NameBangla         string    `db:"name_bangla" json:"name_bangla"`
	NameEnglish        string    `db:"name_english" json:"name_english"`
	BirthCertificateNo string    `db:"birth_certificate_no" json:"birth_certificate_no"`
	BloodGroup         string    `db:"blood_group" json:"blood_group,omitempty"`
	ClassID            string    `db:"class_id" json:"class_id"`
	SectionID          string    `db:"section_id" json:"section_id"`
	AdmissionDate      time.Time `db:"admission_date" json:"admission_date"`
	FatherName         string    `db:"father_name" json:"father_name"`
	MotherName         string    `db:"mother_name" json:"mother_name"`
	Address            string    `db:"address" json:"address,omitempty"`
	Phone              string    `db:"phone" json:"phone,omitempty"`
	PhotoURL           *string   `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	ClassID   string
	SectionID string
	Search    string
	Page      int
	PageSize  int
}
