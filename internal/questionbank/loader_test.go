package questionbank

import (
	"os"
	"path/filepath"
	"testing"
)

const validJSON = `[
  {
    "category": "Food",
    "subcategories": [
      {
        "subcategory": "Daily meals",
        "topics": [
          {"topic": "Breakfast", "questions": ["What do you eat?", "Who cooks?"]},
          {"topic": "Dinner", "questions": ["When do you eat?"]}
        ]
      }
    ]
  },
  {
    "category": "Rituals",
    "subcategories": [
      {
        "subcategory": "Weddings",
        "topics": [
          {"topic": "Ceremonies", "questions": ["Describe a custom."]}
        ]
      }
    ]
  }
]`

func TestParse_Valid(t *testing.T) {
	tree, err := Parse([]byte(validJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("len(tree) = %d, want 2", len(tree))
	}
	info := Totals(tree)
	if info.TotalQuestions != 4 || info.TotalTopics != 3 || info.TotalSubcategories != 2 {
		t.Errorf("Totals = %+v, want 4 questions / 3 topics / 2 subcategories", info)
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "{{"},
		{"empty tree", "[]"},
		{"category without subcategories", `[{"category": "Food", "subcategories": []}]`},
		{"subcategory without topics", `[{"category": "Food", "subcategories": [{"subcategory": "Meals", "topics": []}]}]`},
		{"unnamed category", `[{"category": "", "subcategories": [{"subcategory": "Meals", "topics": [{"topic": "T", "questions": ["q"]}]}]}]`},
	}
	for _, tc := range cases {
		if _, err := Parse([]byte(tc.data)); err == nil {
			t.Errorf("%s: Parse = nil error, want error", tc.name)
		}
	}
}

func TestParse_EmptyTopicIsNotFatal(t *testing.T) {
	data := `[{"category": "Food", "subcategories": [{"subcategory": "Meals", "topics": [{"topic": "Empty", "questions": []}]}]}]`
	if _, err := Parse([]byte(data)); err != nil {
		t.Errorf("empty topic should warn, not fail: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte(validJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	tree, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tree) != 2 {
		t.Errorf("len(tree) = %d, want 2", len(tree))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("Load(missing) = nil error, want error")
	}
}
