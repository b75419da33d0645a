package models

import "time"

// DashboardStats aggregates headline counts for the admin dashboard.
type DashboardStats struct {
	TotalStudents      int       `json:"total_students"`
	TotalTeachers      int       `json:"total_teachers"`
	TotalNotices       int       `json:"total_notices"`
	PendingSubmissions int       `json:"pending_submissions"`
	GeneratedAt        time.Time `json:"generated_at"`
}
