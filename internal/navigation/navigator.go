// Package navigation owns the respondent's position in the question tree:
// sequential advance/retreat transitions, arbitrary jumps, completion
// detection, and section-completion milestones.
package navigation

import (
	"fmt"

	"github.com/cultural-survey/backend/internal/models"
)

// MilestoneKind identifies the structural unit completed by an advance.
type MilestoneKind string

const (
	MilestoneNone        MilestoneKind = ""
	MilestoneTopic       MilestoneKind = "topic"
	MilestoneSubcategory MilestoneKind = "subcategory"
	MilestoneCategory    MilestoneKind = "category"
)

// Valid reports whether the position addresses an existing question in the
// tree.
func Valid(pos models.Position, tree []models.Category) bool {
	if pos.CategoryIndex < 0 || pos.CategoryIndex >= len(tree) {
		return false
	}
	category := tree[pos.CategoryIndex]
	if pos.SubcategoryIndex < 0 || pos.SubcategoryIndex >= len(category.Subcategories) {
		return false
	}
	subcategory := category.Subcategories[pos.SubcategoryIndex]
	if pos.TopicIndex < 0 || pos.TopicIndex >= len(subcategory.Topics) {
		return false
	}
	topic := subcategory.Topics[pos.TopicIndex]
	return pos.QuestionIndex >= 0 && pos.QuestionIndex < len(topic.Questions)
}

// Advance returns the next sequential position. Rolls the question index
// over into the next topic, subcategory, and category as each runs out,
// skipping topics that hold no questions. completed is true when advancing
// from the final question of the tree.
func Advance(pos models.Position, tree []models.Category) (next models.Position, completed bool) {
	for {
		category := tree[pos.CategoryIndex]
		subcategory := category.Subcategories[pos.SubcategoryIndex]
		topic := subcategory.Topics[pos.TopicIndex]

		switch {
		case pos.QuestionIndex < len(topic.Questions)-1:
			pos.QuestionIndex++
		case pos.TopicIndex < len(subcategory.Topics)-1:
			pos.TopicIndex++
			pos.QuestionIndex = 0
		case pos.SubcategoryIndex < len(category.Subcategories)-1:
			pos.SubcategoryIndex++
			pos.TopicIndex = 0
			pos.QuestionIndex = 0
		case pos.CategoryIndex < len(tree)-1:
			pos.CategoryIndex++
			pos.SubcategoryIndex = 0
			pos.TopicIndex = 0
			pos.QuestionIndex = 0
		default:
			return pos, true
		}

		if Valid(pos, tree) {
			return pos, false
		}
		// Landed in an empty topic; keep rolling forward. QuestionIndex is 0
		// here, so the next iteration rolls the topic again.
	}
}

// Retreat returns the previous sequential position: the exact inverse of
// Advance for every non-boundary position. ok is false at the very first
// question.
func Retreat(pos models.Position, tree []models.Category) (prev models.Position, ok bool) {
	for {
		switch {
		case pos.QuestionIndex > 0:
			pos.QuestionIndex--
		case pos.TopicIndex > 0:
			pos.TopicIndex--
			topic := tree[pos.CategoryIndex].Subcategories[pos.SubcategoryIndex].Topics[pos.TopicIndex]
			pos.QuestionIndex = len(topic.Questions) - 1
		case pos.SubcategoryIndex > 0:
			pos.SubcategoryIndex--
			subcategory := tree[pos.CategoryIndex].Subcategories[pos.SubcategoryIndex]
			pos.TopicIndex = len(subcategory.Topics) - 1
			pos.QuestionIndex = len(subcategory.Topics[pos.TopicIndex].Questions) - 1
		case pos.CategoryIndex > 0:
			pos.CategoryIndex--
			category := tree[pos.CategoryIndex]
			pos.SubcategoryIndex = len(category.Subcategories) - 1
			subcategory := category.Subcategories[pos.SubcategoryIndex]
			pos.TopicIndex = len(subcategory.Topics) - 1
			pos.QuestionIndex = len(subcategory.Topics[pos.TopicIndex].Questions) - 1
		default:
			return pos, false
		}

		if Valid(pos, tree) {
			return pos, true
		}
		// Landed in an empty topic (QuestionIndex is -1); clamp and keep
		// rolling backward.
		pos.QuestionIndex = 0
	}
}

// JumpTo validates a direct navigation target. Jumps bypass sequential
// constraints; the only requirement is that the target exists.
func JumpTo(target models.Position, tree []models.Category) error {
	if !Valid(target, tree) {
		return fmt.Errorf("position %s does not address a question", target.QuestionID())
	}
	return nil
}

// Milestone reports the structural unit completed when advancing from pos.
// Exactly one tier fires per qualifying advance, the coarsest applicable:
// finishing the last topic of a subcategory supersedes the topic milestone,
// and finishing the last subcategory of a category supersedes both.
func Milestone(pos models.Position, tree []models.Category) MilestoneKind {
	category := tree[pos.CategoryIndex]
	subcategory := category.Subcategories[pos.SubcategoryIndex]
	topic := subcategory.Topics[pos.TopicIndex]

	if pos.QuestionIndex != len(topic.Questions)-1 {
		return MilestoneNone
	}
	if pos.TopicIndex != len(subcategory.Topics)-1 {
		return MilestoneTopic
	}
	if pos.SubcategoryIndex != len(category.Subcategories)-1 {
		return MilestoneSubcategory
	}
	return MilestoneCategory
}

// First returns the origin position of the tree.
func First() models.Position {
	return models.Position{}
}

// TotalQuestions counts every question in the tree.
func TotalQuestions(tree []models.Category) int {
	total := 0
	for _, category := range tree {
		for _, subcategory := range category.Subcategories {
			for _, topic := range subcategory.Topics {
				total += len(topic.Questions)
			}
		}
	}
	return total
}

// QuestionAt resolves a position to its full question context. Returns an
// error for positions outside the tree.
func QuestionAt(pos models.Position, tree []models.Category) (*models.QuestionContext, error) {
	if !Valid(pos, tree) {
		return nil, fmt.Errorf("position %s does not address a question", pos.QuestionID())
	}
	category := tree[pos.CategoryIndex]
	subcategory := category.Subcategories[pos.SubcategoryIndex]
	topic := subcategory.Topics[pos.TopicIndex]
	return &models.QuestionContext{
		QuestionID:  pos.QuestionID(),
		Category:    category.Category,
		Subcategory: subcategory.Subcategory,
		Topic:       topic.Topic,
		Question:    topic.Questions[pos.QuestionIndex],
		Position:    pos,
	}, nil
}
