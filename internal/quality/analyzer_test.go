package quality

import "testing"

func TestAnalyze_NoneResponse(t *testing.T) {
	cases := []string{"none", "N/A", "  nothing ", "idk", "not sure", "Not Applicable", "same"}
	for _, answer := range cases {
		v := Analyze(answer)
		if !v.IsNoneResponse {
			t.Errorf("Analyze(%q).IsNoneResponse = false, want true", answer)
		}
		if v.Score > 60 {
			t.Errorf("Analyze(%q).Score = %d, want <= 60", answer, v.Score)
		}
	}
}

func TestAnalyze_NoneRequiresWholeString(t *testing.T) {
	v := Analyze("There is nothing quite like the harvest festival in our village")
	if v.IsNoneResponse {
		t.Errorf("embedded 'nothing' flagged as none response")
	}
}

func TestAnalyze_Gibberish(t *testing.T) {
	cases := []struct {
		answer string
		reason string
	}{
		{"bcdfghjk", "consonant run"},
		{"aeiouaeiou", "vowel run"},
		{"abcabcabc", "repeating pattern"},
		{"12345!!", "no letters"},
		{"wanderlusting", "long single token"},
	}
	for _, tc := range cases {
		v := Analyze(tc.answer)
		if !v.IsGibberish {
			t.Errorf("Analyze(%q) (%s): IsGibberish = false, want true", tc.answer, tc.reason)
		}
		if v.Score > 40 {
			t.Errorf("Analyze(%q) (%s): Score = %d, want <= 40", tc.answer, tc.reason, v.Score)
		}
	}
}

func TestAnalyze_KeyboardMashing(t *testing.T) {
	v := Analyze("asdf asdf asdf")
	if !v.IsGibberish {
		t.Errorf("Analyze mashing: IsGibberish = false, want true")
	}
	if v.Score > 50 {
		t.Errorf("Analyze mashing: Score = %d, want <= 50", v.Score)
	}

	// Mashing must not stack on top of the composition rule.
	v = Analyze("aaaaaaaaaa")
	found := 0
	for _, issue := range v.Issues {
		if issue == "Appears to be random characters or gibberish" || issue == "Keyboard mashing or test input detected" {
			found++
		}
	}
	if found != 1 {
		t.Errorf("gibberish and mashing both fired for the same answer: issues = %v", v.Issues)
	}
}

func TestAnalyze_WordRepetition(t *testing.T) {
	v := Analyze("rice curry rice dosa rice idli rice sambar for breakfast")
	if v.Score != 70 {
		t.Errorf("Score = %d, want 70 (repetition penalty only)", v.Score)
	}
	if v.IsGibberish || v.IsNoneResponse {
		t.Errorf("repetition answer misclassified: %+v", v)
	}
}

func TestAnalyze_Vagueness(t *testing.T) {
	v := Analyze("we do things and stuff and things with other stuff sometimes")
	if v.Score != 85 {
		t.Errorf("Score = %d, want 85 (vagueness penalty only)", v.Score)
	}
}

func TestAnalyze_SpecificAnswerScoresHigh(t *testing.T) {
	answer := "In my region, for example, families traditionally visit elders during festivals such as Diwali."
	v := Analyze(answer)
	if v.Score <= 80 {
		t.Errorf("Score = %d, want > 80", v.Score)
	}
	if v.IsLowQuality() {
		t.Errorf("specific answer flagged low quality")
	}
	if len(v.Issues) != 0 {
		t.Errorf("specific answer produced issues: %v", v.Issues)
	}
}

func TestAnalyze_SpecificityBonusCapped(t *testing.T) {
	// All three positive families fire: bonus is capped at +20, and the
	// final score is clamped to 100.
	v := Analyze("For example, in our area we usually prepare sweets, such as laddoo, traditionally shared with neighbors.")
	if v.Score != 100 {
		t.Errorf("Score = %d, want 100 (clamped)", v.Score)
	}
}

func TestAnalyze_ScoreClampedAtZero(t *testing.T) {
	// none (-40) never stacks with enough other penalties to go negative in
	// practice, but a gibberish+repetition+vagueness combination can.
	v := Analyze("zzz zzz zzz zzz stuff stuff stuff stuff things things things things")
	if v.Score < 0 || v.Score > 100 {
		t.Errorf("Score = %d, want within [0,100]", v.Score)
	}
}

func TestIsLowQuality(t *testing.T) {
	if (Verdict{Score: 29}).IsLowQuality() != true {
		t.Errorf("score 29 should be low quality")
	}
	if (Verdict{Score: 30}).IsLowQuality() != false {
		t.Errorf("score 30 should not be low quality")
	}
}

func TestHasRepeatingPattern(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"abcabcabc", true},
		{"xyzxyzxyzxyz", true},
		{"abcabc", false}, // only two occurrences
		{"ababab", false}, // unit shorter than 3
		{"a normal sentence", false},
	}
	for _, tt := range tests {
		if got := hasRepeatingPattern(tt.text); got != tt.want {
			t.Errorf("hasRepeatingPattern(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
