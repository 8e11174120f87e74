package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Position addresses a single question in the tree by its four zero-based
// indices. The string form ("c-s-t-q") is the join key between a position
// and its stored response.
type Position struct {
	CategoryIndex    int `json:"categoryIndex"`
	SubcategoryIndex int `json:"subcategoryIndex"`
	TopicIndex       int `json:"topicIndex"`
	QuestionIndex    int `json:"questionIndex"`
}

// QuestionID returns the canonical string encoding of the position.
func (p Position) QuestionID() string {
	return fmt.Sprintf("%d-%d-%d-%d", p.CategoryIndex, p.SubcategoryIndex, p.TopicIndex, p.QuestionIndex)
}

// ParseQuestionID decodes a question ID back into a Position. Round-trips
// losslessly with QuestionID for all valid positions.
func ParseQuestionID(id string) (Position, error) {
	parts := strings.Split(id, "-")
	if len(parts) != 4 {
		return Position{}, fmt.Errorf("invalid question ID %q: expected 4 parts", id)
	}

	indices := make([]int, 4)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Position{}, fmt.Errorf("invalid question ID %q: %w", id, err)
		}
		if n < 0 {
			return Position{}, fmt.Errorf("invalid question ID %q: negative index", id)
		}
		indices[i] = n
	}

	return Position{
		CategoryIndex:    indices[0],
		SubcategoryIndex: indices[1],
		TopicIndex:       indices[2],
		QuestionIndex:    indices[3],
	}, nil
}
