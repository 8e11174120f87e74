package models

// ── Question Tree ────────────────────────────────────────

// Topic is the third level of the question tree: a named group of
// free-text questions.
type Topic struct {
	Topic     string   `json:"topic"`
	Questions []string `json:"questions"`
}

// Subcategory groups topics under a category.
type Subcategory struct {
	Subcategory string  `json:"subcategory"`
	Topics      []Topic `json:"topics"`
}

// Category is the top level of the question tree. A survey is an ordered
// slice of categories, loaded once at startup and immutable afterwards.
type Category struct {
	Category      string        `json:"category"`
	Subcategories []Subcategory `json:"subcategories"`
}

// SurveyInfo summarizes the loaded question tree.
type SurveyInfo struct {
	TotalQuestions     int `json:"totalQuestions"`
	TotalCategories    int `json:"totalCategories"`
	TotalSubcategories int `json:"totalSubcategories"`
	TotalTopics        int `json:"totalTopics"`
}
