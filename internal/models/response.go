package models

// uniform error responses
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// single field validation error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type CreateInterviewResponse struct {
	ID        string   `json:"id"`
	Questions []string `json:"questions"`
}

type FeedbackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type InterviewLinkResponse struct {
	ID       string   `json:"id"`
	Link     string   `json:"link"`
	Duration int      `json:"duration"`
	Types    []string `json:"types"`
}

// GenerationResponse is what a Question Source returns for one prompt.
type GenerationResponse struct {
	Content  string             `json:"content"`
	Metadata GenerationMetadata `json:"metadata"`
}

type GenerationMetadata struct {
	ProcessingTime int    `json:"processing_time_ms"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}
