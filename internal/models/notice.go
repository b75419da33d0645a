package models

import "time"

// NoticePriority defines the urgency band of a notice.
type NoticePriority string

const (
	NoticePriorityUrgent NoticePriority = "urgent"
	NoticePriorityHigh   NoticePriority = "high"
	NoticePriorityNormal NoticePriority = "normal"
	NoticePriorityLow    NoticePriority = "low"
)

// NoticeAudience defines who a notice is addressed to.
type NoticeAudience string

const (
	NoticeAudienceAll      NoticeAudience = "all"
	NoticeAudienceStudents NoticeAudience = "students"
	NoticeAudienceTeachers NoticeAudience = "teachers"
	NoticeAudienceParents  NoticeAudience = "parents"
)

// Notice represents a published announcement row. Content holds raw HTML
// exactly as submitted; consumers are responsible for rendering it inside a
// sandboxed context.
type Notice struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Content        string         `db:"content" json:"content"`
	Priority       NoticePriority `db:"priority" json:"priority"`
	TargetAudience NoticeAudience `db:"target_audience" json:"target_audience"`
	IsMarquee      bool           `db:"is_marquee" json:"is_marquee"`
	AttachmentURL  *string        `db:"attachment_url" json:"attachment_url,omitempty"`
	PublishedBy    string         `db:"published_by" json:"published_by"`
	PublishedAt    time.Time      `db:"published_at" json:"published_at"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// NoticePage bounds a descending published_at slice of the notice list.
type NoticePage struct {
	Limit  int
	Offset int
}
