package models

import "time"

// Interview is a recruiter-authored posting with its question sequence already normalized.
type Interview struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"ownerId"`
	Role            string     `json:"role"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"durationMinutes"`
	TypeTags        []string   `json:"typeTags"`
	Questions       []string   `json:"questions"`
	Rating          *int       `json:"rating,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ScheduledAt     *time.Time `json:"scheduledAt,omitempty"`
}

// Feedback is one candidate's rating of a completed session.
type Feedback struct {
	PostingID     string `json:"postingId"`
	Rating        int    `json:"rating"`
	Comments      string `json:"comments,omitempty"`
	CandidateName string `json:"candidateName,omitempty"`
}

// InterviewRecord is the persisted row. Questions is stored as text (a JSON array
// when written by this service) and must be normalized on read.
type InterviewRecord struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	OwnerID     string     `gorm:"column:user_id;size:64;index;not null" json:"user_id"`
	Job         string     `gorm:"not null" json:"job"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Duration    int        `gorm:"not null" json:"duration"`
	Types       []string   `gorm:"serializer:json;type:text" json:"types"`
	Questions   string     `gorm:"type:text;not null" json:"questions"`
	Rating      *int       `json:"rating"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at"`
}

func (InterviewRecord) TableName() string { return "interviews" }

type FeedbackRecord struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	InterviewID   string    `gorm:"size:36;index;not null" json:"interview_id"`
	Rating        int       `gorm:"not null" json:"rating"`
	Comments      string    `gorm:"type:text" json:"comments"`
	CandidateName string    `json:"candidate_name"`
	CreatedAt     time.Time `json:"created_at"`
}

func (FeedbackRecord) TableName() string { return "interview_feedback" }
