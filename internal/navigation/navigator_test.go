package navigation

import (
	"testing"

	"github.com/cultural-survey/backend/internal/models"
)

// testTree is an intentionally lopsided fixture: uneven question counts per
// topic, uneven topic counts per subcategory, two categories.
func testTree() []models.Category {
	return []models.Category{
		{
			Category: "Food",
			Subcategories: []models.Subcategory{
				{
					Subcategory: "Daily meals",
					Topics: []models.Topic{
						{Topic: "Breakfast", Questions: []string{"q0", "q1", "q2"}},
						{Topic: "Dinner", Questions: []string{"q0"}},
					},
				},
				{
					Subcategory: "Festive food",
					Topics: []models.Topic{
						{Topic: "Sweets", Questions: []string{"q0", "q1"}},
					},
				},
			},
		},
		{
			Category: "Rituals",
			Subcategories: []models.Subcategory{
				{
					Subcategory: "Weddings",
					Topics: []models.Topic{
						{Topic: "Ceremonies", Questions: []string{"q0", "q1"}},
					},
				},
			},
		},
	}
}

func pos(c, s, t, q int) models.Position {
	return models.Position{CategoryIndex: c, SubcategoryIndex: s, TopicIndex: t, QuestionIndex: q}
}

func TestQuestionIDRoundTrip(t *testing.T) {
	tree := testTree()
	p := First()
	for {
		parsed, err := models.ParseQuestionID(p.QuestionID())
		if err != nil {
			t.Fatalf("ParseQuestionID(%q): %v", p.QuestionID(), err)
		}
		if parsed != p {
			t.Fatalf("round trip: got %+v, want %+v", parsed, p)
		}
		next, completed := Advance(p, tree)
		if completed {
			break
		}
		p = next
	}
}

func TestParseQuestionID_Invalid(t *testing.T) {
	for _, id := range []string{"", "1-2-3", "1-2-3-4-5", "a-0-0-0", "0-0-0--1"} {
		if _, err := models.ParseQuestionID(id); err == nil {
			t.Errorf("ParseQuestionID(%q) = nil error, want error", id)
		}
	}
}

func TestAdvance_Rollovers(t *testing.T) {
	tree := testTree()
	tests := []struct {
		name string
		from models.Position
		want models.Position
	}{
		{"within topic", pos(0, 0, 0, 0), pos(0, 0, 0, 1)},
		{"topic rollover", pos(0, 0, 0, 2), pos(0, 0, 1, 0)},
		{"subcategory rollover", pos(0, 0, 1, 0), pos(0, 1, 0, 0)},
		{"category rollover", pos(0, 1, 0, 1), pos(1, 0, 0, 0)},
	}
	for _, tt := range tests {
		got, completed := Advance(tt.from, tree)
		if completed {
			t.Errorf("%s: unexpected completion", tt.name)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: Advance(%v) = %v, want %v", tt.name, tt.from, got, tt.want)
		}
	}
}

func TestAdvance_Completion(t *testing.T) {
	tree := testTree()
	_, completed := Advance(pos(1, 0, 0, 1), tree)
	if !completed {
		t.Errorf("advancing from the terminal position did not signal completion")
	}
}

func TestAdvanceAndRetreat_SkipEmptyTopic(t *testing.T) {
	tree := []models.Category{{
		Category: "Food",
		Subcategories: []models.Subcategory{{
			Subcategory: "Daily meals",
			Topics: []models.Topic{
				{Topic: "Breakfast", Questions: []string{"q0"}},
				{Topic: "Snacks"}, // no questions yet
				{Topic: "Dinner", Questions: []string{"q0", "q1"}},
			},
		}},
	}}

	next, completed := Advance(pos(0, 0, 0, 0), tree)
	if completed {
		t.Fatal("Advance() signaled completion with questions remaining")
	}
	if got, want := next, pos(0, 0, 2, 0); got != want {
		t.Errorf("Advance() = %v, want %v (empty topic skipped)", got, want)
	}

	prev, ok := Retreat(next, tree)
	if !ok {
		t.Fatal("Retreat() refused a non-origin position")
	}
	if got, want := prev, pos(0, 0, 0, 0); got != want {
		t.Errorf("Retreat() = %v, want %v (empty topic skipped)", got, want)
	}
}

func TestAdvance_VisitsEveryQuestionExactlyOnce(t *testing.T) {
	tree := testTree()
	total := TotalQuestions(tree)
	if total != 8 {
		t.Fatalf("TotalQuestions = %d, want 8", total)
	}

	seen := map[string]bool{}
	p := First()
	steps := 0
	for {
		if seen[p.QuestionID()] {
			t.Fatalf("position %s visited twice", p.QuestionID())
		}
		seen[p.QuestionID()] = true
		steps++

		next, completed := Advance(p, tree)
		if completed {
			break
		}
		p = next
	}
	if steps != total {
		t.Errorf("walked %d positions, want %d", steps, total)
	}
}

func TestRetreat_InvertsAdvance(t *testing.T) {
	tree := testTree()
	p := First()
	for {
		next, completed := Advance(p, tree)
		if completed {
			break
		}
		back, ok := Retreat(next, tree)
		if !ok {
			t.Fatalf("Retreat(%v) refused", next)
		}
		if back != p {
			t.Fatalf("Retreat(Advance(%v)) = %v, want %v", p, back, p)
		}
		p = next
	}
}

func TestRetreat_AtOrigin(t *testing.T) {
	if _, ok := Retreat(First(), testTree()); ok {
		t.Errorf("Retreat at the first position should refuse")
	}
}

func TestJumpTo(t *testing.T) {
	tree := testTree()
	if err := JumpTo(pos(1, 0, 0, 1), tree); err != nil {
		t.Errorf("JumpTo(valid) = %v, want nil", err)
	}
	for _, target := range []models.Position{
		pos(2, 0, 0, 0), pos(0, 2, 0, 0), pos(0, 0, 2, 0), pos(0, 0, 0, 3), pos(-1, 0, 0, 0),
	} {
		if err := JumpTo(target, tree); err == nil {
			t.Errorf("JumpTo(%v) = nil, want error", target)
		}
	}
}

func TestMilestone(t *testing.T) {
	tree := testTree()
	tests := []struct {
		name string
		from models.Position
		want MilestoneKind
	}{
		{"mid-topic", pos(0, 0, 0, 1), MilestoneNone},
		{"last question of a non-final topic", pos(0, 0, 0, 2), MilestoneTopic},
		// Last question of the last topic of a subcategory that is not the
		// category's last: subcategory supersedes topic.
		{"end of non-final subcategory", pos(0, 0, 1, 0), MilestoneSubcategory},
		{"end of category", pos(0, 1, 0, 1), MilestoneCategory},
		{"end of final category", pos(1, 0, 0, 1), MilestoneCategory},
	}
	for _, tt := range tests {
		if got := Milestone(tt.from, tree); got != tt.want {
			t.Errorf("%s: Milestone(%v) = %q, want %q", tt.name, tt.from, got, tt.want)
		}
	}
}

func TestQuestionAt(t *testing.T) {
	tree := testTree()
	ctx, err := QuestionAt(pos(0, 1, 0, 1), tree)
	if err != nil {
		t.Fatalf("QuestionAt: %v", err)
	}
	if ctx.Category != "Food" || ctx.Subcategory != "Festive food" || ctx.Topic != "Sweets" || ctx.Question != "q1" {
		t.Errorf("QuestionAt resolved %+v", ctx)
	}
	if ctx.QuestionID != "0-1-0-1" {
		t.Errorf("QuestionID = %q, want 0-1-0-1", ctx.QuestionID)
	}

	if _, err := QuestionAt(pos(5, 0, 0, 0), tree); err == nil {
		t.Errorf("QuestionAt(invalid) = nil error, want error")
	}
}
