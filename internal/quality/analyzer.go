package quality

import (
	"regexp"
	"strings"
)

// Score deductions and bonuses per issue class. Each class contributes at
// most once per answer.
const (
	nonePenalty       = 40
	gibberishPenalty  = 60
	mashingPenalty    = 50
	repetitionPenalty = 30
	vaguenessPenalty  = 15
	specificityBonus  = 8
	specificityCap    = 20

	// LowQualityThreshold is the score below which an answer is considered
	// low quality.
	LowQualityThreshold = 30
)

// Verdict is the result of analyzing a single answer.
type Verdict struct {
	Score          int      `json:"score"`
	Issues         []string `json:"issues"`
	IsNoneResponse bool     `json:"isNoneResponse"`
	IsGibberish    bool     `json:"isGibberish"`
}

// IsLowQuality reports whether the score falls below the low-quality threshold.
func (v Verdict) IsLowQuality() bool {
	return v.Score < LowQualityThreshold
}

// Whole-string patterns for non-informative "none" type answers.
var nonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(none|n/a|na|nothing|no|idk|i don't know|dk|dunno)$`),
	regexp.MustCompile(`^(none that i know|nothing that i know|no idea|not sure|dont know|don't know)$`),
	regexp.MustCompile(`^(same|similar|normal|usual|regular|typical|standard|common)$`),
	regexp.MustCompile(`^(not applicable|not available|no information|no data)$`),
}

// Character-composition patterns for gibberish. Repeating-substring
// detection needs backreferences, which RE2 lacks, so it lives in
// hasRepeatingPattern instead.
var gibberishPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[bcdfghjklmnpqrstvwxyz]{6,}$`), // consonant run
	regexp.MustCompile(`^[aeiou]{6,}$`),                 // vowel run
	regexp.MustCompile(`^[^a-z\s]*$`),                   // no letters at all
	regexp.MustCompile(`^[a-z]{8,}$`),                   // long single token, no spaces
}

// Keyboard-mashing and placeholder tokens.
var mashingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`qwerty|asdf|zxcv|hjkl|yuiop`),
	regexp.MustCompile(`abcd|1234|test|xxx|yyy|zzz`),
}

// Generic filler words that signal a lack of specificity.
var vaguePhrases = []string{"something", "things", "stuff", "anything", "everything"}

var vagueWordPatterns = compileWordPatterns(vaguePhrases)

// Positive specificity signals: exemplifying or locating phrases.
var positivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(example|for instance|specifically|traditionally|commonly|usually|typically)\b`),
	regexp.MustCompile(`\b(in my region|in our area|locally|here we|we usually|in our culture)\b`),
	regexp.MustCompile(`\b(such as|like|including|consists of|involves|includes)\b`),
}

func compileWordPatterns(words []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		patterns[i] = regexp.MustCompile(`\b` + w + `\b`)
	}
	return patterns
}

// Analyze scores a single free-text answer for low-quality signals. It is
// a pure function: deterministic, no side effects.
func Analyze(answer string) Verdict {
	v := Verdict{Score: 100, Issues: []string{}}
	text := strings.ToLower(strings.TrimSpace(answer))

	if matchesAny(nonePatterns, text) {
		v.IsNoneResponse = true
		v.Issues = append(v.Issues, `Generic "none" or non-informative response`)
		v.Score -= nonePenalty
	}

	hasGibberish := matchesAny(gibberishPatterns, text) || hasRepeatingPattern(text)
	if hasGibberish {
		v.IsGibberish = true
		v.Issues = append(v.Issues, "Appears to be random characters or gibberish")
		v.Score -= gibberishPenalty
	}

	// Mashing only counts if the composition rule did not already fire, so
	// the same answer is not penalized twice.
	if !hasGibberish && (matchesAny(mashingPatterns, text) || hasCharacterRun(text)) {
		v.IsGibberish = true
		v.Issues = append(v.Issues, "Keyboard mashing or test input detected")
		v.Score -= mashingPenalty
	}

	if hasExcessiveRepetition(text) {
		v.Issues = append(v.Issues, "Excessive word repetition")
		v.Score -= repetitionPenalty
	}

	if countMatches(vagueWordPatterns, text) > 3 {
		v.Issues = append(v.Issues, "Response lacks specific details")
		v.Score -= vaguenessPenalty
	}

	positiveCount := 0
	for _, pattern := range positivePatterns {
		if pattern.MatchString(text) {
			positiveCount++
		}
	}
	if positiveCount > 0 {
		bonus := positiveCount * specificityBonus
		if bonus > specificityCap {
			bonus = specificityCap
		}
		v.Score += bonus
	}

	if v.Score < 0 {
		v.Score = 0
	}
	if v.Score > 100 {
		v.Score = 100
	}
	return v
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	total := 0
	for _, p := range patterns {
		total += len(p.FindAllString(text, -1))
	}
	return total
}

// maxRepeatUnit bounds the repeating-substring search so a 5000-character
// answer stays cheap to scan.
const maxRepeatUnit = 32

// hasRepeatingPattern reports whether the text contains a substring of
// length >= 3 repeated at least three times consecutively (abcabcabc).
func hasRepeatingPattern(text string) bool {
	n := len(text)
	maxUnit := n / 3
	if maxUnit > maxRepeatUnit {
		maxUnit = maxRepeatUnit
	}
	for unit := 3; unit <= maxUnit; unit++ {
		for i := 0; i+3*unit <= n; i++ {
			if text[i:i+unit] == text[i+unit:i+2*unit] && text[i:i+unit] == text[i+2*unit:i+3*unit] {
				return true
			}
		}
	}
	return false
}

// hasCharacterRun reports whether any single character repeats five or more
// times in a row.
func hasCharacterRun(text string) bool {
	run := 0
	var prev rune = -1
	for _, r := range text {
		if r == prev {
			run++
			if run >= 5 {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// hasExcessiveRepetition reports whether any word longer than two characters
// appears more than three times.
func hasExcessiveRepetition(text string) bool {
	counts := map[string]int{}
	for _, word := range strings.Fields(text) {
		if len(word) <= 2 {
			continue
		}
		counts[word]++
		if counts[word] > 3 {
			return true
		}
	}
	return false
}
