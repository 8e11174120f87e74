package models

// ── Request Types ────────────────────────────────────────

type CreateSessionRequest struct {
	Region        string `json:"region"`
	Age           int    `json:"age"`
	YearsInRegion int    `json:"yearsInRegion"`
}

type BatchSaveRequest struct {
	SessionID string     `json:"sessionId"`
	Responses []Response `json:"responses"`
}

type SubmitAnswerRequest struct {
	Answer    string `json:"answer"`
	TimeSpent int    `json:"timeSpent"` // seconds
}

type JumpRequest struct {
	QuestionID string `json:"questionId"`
}

type AttentionAnswerRequest struct {
	Answer         string `json:"answer,omitempty"`
	SelectedOption *int   `json:"selectedOption,omitempty"`
}

// ── Response Types ────────────────────────────────────────

type CreateSessionResponse struct {
	SessionID      string `json:"sessionId"`
	TotalQuestions int    `json:"totalQuestions"`
	Message        string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// QuestionContext is the fully resolved question at a position, as served
// to the client.
type QuestionContext struct {
	QuestionID  string   `json:"questionId"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Topic       string   `json:"topic"`
	Question    string   `json:"question"`
	Position    Position `json:"position"`
}
