package models

const (
	DefaultDurationMinutes = 30
	DefaultQuestionCount   = 8
	MinQuestionCount       = 1
	MaxQuestionCount       = 15

	MinRating = 1
	MaxRating = 5
)

// recommended interview lengths in minutes; other positive values are accepted
var RecommendedDurations = []int{15, 30, 45, 60, 90}

// interview focus areas offered by the creation form; tags are free-form
var InterviewTypes = []string{"technical", "behavioral", "cultural", "problem-solving"}

func DefaultTypeTags() []string {
	return []string{"technical"}
}

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

func IsRecommendedDuration(minutes int) bool {
	for _, d := range RecommendedDurations {
		if d == minutes {
			return true
		}
	}
	return false
}
