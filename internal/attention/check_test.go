package attention

import "testing"

func TestIsCheckDue(t *testing.T) {
	tests := []struct {
		count    int
		interval int
		want     bool
	}{
		{0, 7, false},
		{1, 7, false},
		{6, 7, false},
		{7, 7, true},
		{8, 7, false},
		{14, 7, true},
		{21, 7, true},
		{5, 5, true},
		{15, 15, true},
		{10, 0, false}, // disabled
	}
	for _, tt := range tests {
		if got := IsCheckDue(tt.count, tt.interval); got != tt.want {
			t.Errorf("IsCheckDue(%d, %d) = %v, want %v", tt.count, tt.interval, got, tt.want)
		}
	}
}

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Yellow!  ", "yellow"},
		{"The sun is YELLOW.", "the sun is yellow"},
		{"seven   days", "seven days"},
		{"t-u-e", "tue"},
	}
	for _, tt := range tests {
		if got := NormalizeAnswer(tt.in); got != tt.want {
			t.Errorf("NormalizeAnswer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGradeOpenText(t *testing.T) {
	accepted := []string{"yellow", "gold", "golden", "orange"}
	tests := []struct {
		answer string
		want   bool
	}{
		{"yellow", true},
		{"Yellow!", true},
		{"the sun is yellow", true}, // containment
		{"golden", true},
		{"blue", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := GradeOpenText(tt.answer, accepted); got != tt.want {
			t.Errorf("GradeOpenText(%q) = %v, want %v", tt.answer, got, tt.want)
		}
	}

	if !GradeOpenText("tue", []string{"tuesday"}) {
		t.Errorf("tuesday abbreviation not accepted")
	}
}

func TestGenerate_OpenText(t *testing.T) {
	// Pin the draw to the first open-text template.
	check := generate("Food", "Breakfast dishes", "South",
		func(int) int { return 0 },
		func(int, func(i, j int)) {})

	if check.Type != TypeOpenText {
		t.Fatalf("Type = %q, want open_text", check.Type)
	}
	if len(check.ExpectedAnswers) == 0 {
		t.Errorf("open-text check has no accepted answers")
	}
	if check.Category != "Food" || check.Topic != "Breakfast dishes" {
		t.Errorf("check context = %q/%q, want Food/Breakfast dishes", check.Category, check.Topic)
	}
}

func TestGenerate_MultipleChoiceCorrectIndexTracksShuffle(t *testing.T) {
	// Pick the first choice template (topic interpolation) and reverse the
	// options in the shuffle. The correct option must be re-located by tag.
	reverse := func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}
	check := generate("Food", "Breakfast dishes", "South",
		func(int) int { return len(openTextBank) },
		reverse)

	if check.Type != TypeMultipleChoice {
		t.Fatalf("Type = %q, want multiple_choice", check.Type)
	}
	if len(check.Options) != 4 {
		t.Fatalf("len(Options) = %d, want 4", len(check.Options))
	}
	if check.Options[check.CorrectOption] != "Breakfast dishes" {
		t.Errorf("Options[%d] = %q, want the interpolated topic", check.CorrectOption, check.Options[check.CorrectOption])
	}
	// The correct value started at index 0; a full reversal moves it last.
	if check.CorrectOption != 3 {
		t.Errorf("CorrectOption = %d, want 3 after reversal", check.CorrectOption)
	}
}

func TestGenerate_RandomizedStillConsistent(t *testing.T) {
	// Whatever the shuffle does, grading the correct index must pass.
	for i := 0; i < 50; i++ {
		check := Generate("Rituals", "Wedding customs", "North")
		if check.Type != TypeMultipleChoice {
			continue
		}
		if !Grade(check, "", check.CorrectOption) {
			t.Fatalf("correct index did not grade as correct: %+v", check)
		}
		for idx := range check.Options {
			if idx != check.CorrectOption && Grade(check, "", idx) {
				t.Fatalf("distractor index %d graded as correct: %+v", idx, check)
			}
		}
	}
}

func TestGrade_MultipleChoiceIgnoresText(t *testing.T) {
	check := Check{Type: TypeMultipleChoice, Options: []string{"a", "b", "c"}, CorrectOption: 1}
	if Grade(check, "b", 0) {
		t.Errorf("wrong index graded correct despite matching text")
	}
	if !Grade(check, "", 1) {
		t.Errorf("correct index graded incorrect")
	}
}
