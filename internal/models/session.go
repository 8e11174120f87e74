package models

import "time"

// ── Session & Progress ───────────────────────────────────

// ValidRegions is the accepted demographic region set.
var ValidRegions = map[string]bool{
	"North":   true,
	"South":   true,
	"East":    true,
	"West":    true,
	"Central": true,
}

// UserInfo is the demographic capture collected before the survey starts.
type UserInfo struct {
	Region        string `json:"region"`
	Age           int    `json:"age"`
	YearsInRegion int    `json:"yearsInRegion"`
}

// Progress is the durable per-session survey state. It is rewritten after
// every navigation transition so a reload resumes exactly where the
// respondent left off.
type Progress struct {
	CurrentCategory       int `json:"currentCategory"`
	CurrentSubcategory    int `json:"currentSubcategory"`
	CurrentTopic          int `json:"currentTopic"`
	CurrentQuestion       int `json:"currentQuestion"`
	CompletedQuestions    int `json:"completedQuestions"`
	TotalQuestions        int `json:"totalQuestions"`
	AttentionChecksPassed int `json:"attentionChecksPassed"`
	AttentionChecksFailed int `json:"attentionChecksFailed"`
}

// Position returns the current tree position recorded in the progress.
func (p Progress) Position() Position {
	return Position{
		CategoryIndex:    p.CurrentCategory,
		SubcategoryIndex: p.CurrentSubcategory,
		TopicIndex:       p.CurrentTopic,
		QuestionIndex:    p.CurrentQuestion,
	}
}

// SetPosition records a tree position into the progress.
func (p *Progress) SetPosition(pos Position) {
	p.CurrentCategory = pos.CategoryIndex
	p.CurrentSubcategory = pos.SubcategoryIndex
	p.CurrentTopic = pos.TopicIndex
	p.CurrentQuestion = pos.QuestionIndex
}

// Session is one respondent's survey session.
type Session struct {
	SessionID    string    `json:"sessionId"`
	UserInfo     UserInfo  `json:"userInfo"`
	Progress     Progress  `json:"progress"`
	IsCompleted  bool      `json:"isCompleted"`
	IsExpired    bool      `json:"isExpired"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
