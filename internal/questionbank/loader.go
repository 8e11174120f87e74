// Package questionbank loads and validates the static question tree.
package questionbank

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/cultural-survey/backend/internal/models"
)

// Load reads the question tree from a JSON file. Structural problems
// (empty tree, missing levels) are fatal; a topic with no questions is
// only logged, since the navigator simply never lands on it.
func Load(path string) ([]models.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a question tree document.
func Parse(data []byte) ([]models.Category, error) {
	var tree []models.Category
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse questions data: %w", err)
	}
	if err := validate(tree); err != nil {
		return nil, err
	}

	info := Totals(tree)
	log.Printf("[questionbank] loaded %d categories, %d subcategories, %d topics, %d questions",
		info.TotalCategories, info.TotalSubcategories, info.TotalTopics, info.TotalQuestions)
	return tree, nil
}

func validate(tree []models.Category) error {
	if len(tree) == 0 {
		return fmt.Errorf("questions data is empty")
	}
	for ci, category := range tree {
		if category.Category == "" {
			return fmt.Errorf("category %d has no name", ci)
		}
		if len(category.Subcategories) == 0 {
			return fmt.Errorf("category %q has no subcategories", category.Category)
		}
		for si, subcategory := range category.Subcategories {
			if len(subcategory.Topics) == 0 {
				return fmt.Errorf("subcategory %q (%d) of %q has no topics", subcategory.Subcategory, si, category.Category)
			}
			for _, topic := range subcategory.Topics {
				if len(topic.Questions) == 0 {
					log.Printf("[questionbank] warning: topic %q under %q/%q has no questions",
						topic.Topic, category.Category, subcategory.Subcategory)
				}
			}
		}
	}
	return nil
}

// Totals summarizes the tree for the survey-info endpoint.
func Totals(tree []models.Category) models.SurveyInfo {
	info := models.SurveyInfo{TotalCategories: len(tree)}
	for _, category := range tree {
		info.TotalSubcategories += len(category.Subcategories)
		for _, subcategory := range category.Subcategories {
			info.TotalTopics += len(subcategory.Topics)
			for _, topic := range subcategory.Topics {
				info.TotalQuestions += len(topic.Questions)
			}
		}
	}
	return info
}
