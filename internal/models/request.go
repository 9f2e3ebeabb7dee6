package models

import (
	"strings"
	"time"
)

// CreateInterviewRequest accepts the field aliases used by the creation form
// and older clients (job/jobTitle/role, description/jobDescription).
type CreateInterviewRequest struct {
	Job            string     `json:"job"`
	JobTitle       string     `json:"jobTitle"`
	Role           string     `json:"role"`
	Description    string     `json:"description"`
	JobDescription string     `json:"jobDescription"`
	Duration       *int       `json:"duration"`
	Types          []string   `json:"types"`
	NumQuestions   *int       `json:"numQuestions"`
	ScheduledAt    *time.Time `json:"scheduledAt"`
}

// implements the Validator interface; on success Job, Description, Duration,
// Types and NumQuestions hold the resolved values
func (r *CreateInterviewRequest) Validate() error {
	r.Job = firstNonBlank(r.Job, r.JobTitle, r.Role)
	if r.Job == "" {
		return &ErrorResponse{Code: "missing_job", Message: "Job title is required"}
	}

	r.Description = firstNonBlank(r.Description, r.JobDescription)
	if r.Description == "" {
		return &ErrorResponse{Code: "missing_description", Message: "Job description is required"}
	}

	if r.Duration == nil {
		d := DefaultDurationMinutes
		r.Duration = &d
	}
	if *r.Duration <= 0 {
		return &ErrorResponse{Code: "invalid_duration", Message: "Duration must be a positive number of minutes"}
	}

	// absent means the default focus; an explicit empty list is a client mistake
	if r.Types == nil {
		r.Types = DefaultTypeTags()
	}
	tags := make([]string, 0, len(r.Types))
	for _, tag := range r.Types {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return &ErrorResponse{Code: "invalid_types", Message: "Interview types must not be blank"}
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return &ErrorResponse{Code: "missing_types", Message: "At least one interview type is required"}
	}
	r.Types = tags

	if r.NumQuestions == nil {
		n := DefaultQuestionCount
		r.NumQuestions = &n
	}
	if *r.NumQuestions < MinQuestionCount || *r.NumQuestions > MaxQuestionCount {
		return &ErrorResponse{
			Code:    "invalid_num_questions",
			Message: "Number of questions must be between 1 and 15",
			Details: []ValidationErrorDetail{{Field: "numQuestions", Reason: "out of range"}},
		}
	}

	return nil
}

type FeedbackRequest struct {
	Rating        int    `json:"rating"`
	Comments      string `json:"comments"`
	CandidateName string `json:"candidateName"`
}

func (r *FeedbackRequest) Validate() error {
	if !ValidRating(r.Rating) {
		return &ErrorResponse{Code: "invalid_rating", Message: "Rating must be between 1 and 5"}
	}
	r.Comments = strings.TrimSpace(r.Comments)
	r.CandidateName = strings.TrimSpace(r.CandidateName)
	return nil
}

type LoginRequest struct {
	Email    string
	Password string
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return &ErrorResponse{Code: "invalid_email", Message: "A valid email is required"}
	}
	if r.Password == "" {
		return &ErrorResponse{Code: "missing_password", Message: "Password is required"}
	}
	return nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
