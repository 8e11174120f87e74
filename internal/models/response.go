package models

import "time"

// Response is one stored answer. At most one row exists per
// (sessionId, questionId) pair; resubmission overwrites the earlier answer.
type Response struct {
	ID               int64     `json:"id,omitempty"`
	SessionID        string    `json:"sessionId"`
	QuestionID       string    `json:"questionId"`
	CategoryIndex    int       `json:"categoryIndex"`
	SubcategoryIndex int       `json:"subcategoryIndex"`
	TopicIndex       int       `json:"topicIndex"`
	QuestionIndex    int       `json:"questionIndex"`
	Category         string    `json:"category"`
	Subcategory      string    `json:"subcategory"`
	Topic            string    `json:"topic"`
	Question         string    `json:"question"`
	Answer           string    `json:"answer"`
	TimeSpent        int       `json:"timeSpent"`
	QualityScore     int       `json:"qualityScore"`
	IsAttentionCheck bool      `json:"isAttentionCheck"`
	// AttentionCheckCorrect is nil for ordinary responses.
	AttentionCheckCorrect *bool     `json:"attentionCheckCorrect,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// Position returns the denormalized tree position of the response.
func (r *Response) Position() Position {
	return Position{
		CategoryIndex:    r.CategoryIndex,
		SubcategoryIndex: r.SubcategoryIndex,
		TopicIndex:       r.TopicIndex,
		QuestionIndex:    r.QuestionIndex,
	}
}
