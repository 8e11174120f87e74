package attention

import (
	"math/rand"
	"regexp"
	"strings"
)

// DefaultInterval is how many real answers sit between probes unless
// overridden by configuration.
const DefaultInterval = 7

// IsCheckDue reports whether the next served item must be an attention
// check. Stateless: the caller tracks whether a probe was already shown for
// the current count.
func IsCheckDue(answeredCount, interval int) bool {
	if interval <= 0 {
		return false
	}
	return answeredCount > 0 && answeredCount%interval == 0
}

// CheckType distinguishes the two probe families.
type CheckType string

const (
	TypeOpenText       CheckType = "open_text"
	TypeMultipleChoice CheckType = "multiple_choice"
)

// Check is a generated probe question. Ephemeral: never persisted verbatim,
// only as a specially tagged response.
type Check struct {
	Type            CheckType `json:"type"`
	Question        string    `json:"question"`
	ExpectedAnswers []string  `json:"expectedAnswers,omitempty"` // open text only
	Options         []string  `json:"options,omitempty"`         // multiple choice only
	CorrectOption   int       `json:"correctOption,omitempty"`   // index after shuffling
	Category        string    `json:"category"`
	Topic           string    `json:"topic"`
}

type openTextTemplate struct {
	question string
	accepted []string
}

var openTextBank = []openTextTemplate{
	{"What color is the sun? Please type exactly one color.", []string{"yellow", "gold", "golden", "orange"}},
	{"How many days are in one week? Please enter only the number in words.", []string{"7", "seven"}},
	{"This survey is about cultural practices in which country? Please type the country name.", []string{"india", "bharat"}},
	{"What day comes after Monday? Please type only the day name.", []string{"tuesday", "tue"}},
	{"How many fingers are on one human hand? Please enter only the number in words.", []string{"5", "five"}},
	{"How many months are in one year? Please enter only the number in words.", []string{"12", "twelve"}},
}

type choiceTemplate struct {
	question    string
	correct     func(category, topic, region string) string
	distractors []string
}

var choiceBank = []choiceTemplate{
	{
		question:    "Which topic are the questions on this page asking about?",
		correct:     func(_, topic, _ string) string { return topic },
		distractors: []string{"Weather patterns", "Traffic rules", "Computer programming"},
	},
	{
		question:    "Which survey section are you currently answering?",
		correct:     func(category, _, _ string) string { return category },
		distractors: []string{"Space exploration", "Stock markets", "Olympic sports"},
	},
	{
		question:    "Which region did you select at the start of this survey?",
		correct:     func(_, _, region string) string { return region },
		distractors: []string{"Arctic", "Atlantis", "Pacific"},
	},
}

// Generate draws a probe uniformly at random from the fixed bank. Half the
// bank is open-text factual checks; half is contextual multiple choice with
// the correct option interpolated from the live survey position.
func Generate(category, topic, region string) Check {
	return generate(category, topic, region, rand.Intn, rand.Shuffle)
}

// generate is the deterministic core, taking the random sources as inputs
// so tests can pin them.
func generate(category, topic, region string, intn func(int) int, shuffle func(int, func(i, j int))) Check {
	total := len(openTextBank) + len(choiceBank)
	pick := intn(total)

	if pick < len(openTextBank) {
		tmpl := openTextBank[pick]
		return Check{
			Type:            TypeOpenText,
			Question:        tmpl.question,
			ExpectedAnswers: tmpl.accepted,
			Category:        category,
			Topic:           topic,
		}
	}

	tmpl := choiceBank[pick-len(openTextBank)]

	// Shuffle tagged pairs, then recover the correct index by tag rather
	// than by string equality, so duplicate option text stays gradable.
	type option struct {
		text    string
		correct bool
	}
	options := []option{{text: tmpl.correct(category, topic, region), correct: true}}
	for _, d := range tmpl.distractors {
		options = append(options, option{text: d})
	}
	shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	check := Check{
		Type:     TypeMultipleChoice,
		Question: tmpl.question,
		Category: category,
		Topic:    topic,
	}
	for i, opt := range options {
		check.Options = append(check.Options, opt.text)
		if opt.correct {
			check.CorrectOption = i
		}
	}
	return check
}

var punctuation = regexp.MustCompile(`[^\w\s]`)
var whitespace = regexp.MustCompile(`\s+`)

// NormalizeAnswer lowercases, trims, strips punctuation, and collapses
// whitespace, matching how open-text probe answers are graded.
func NormalizeAnswer(answer string) string {
	clean := strings.ToLower(strings.TrimSpace(answer))
	clean = punctuation.ReplaceAllString(clean, "")
	return whitespace.ReplaceAllString(clean, " ")
}

// GradeOpenText reports whether a free-text probe answer is acceptable:
// exact match or substring containment against the accepted set, plus a few
// common variations.
func GradeOpenText(answer string, accepted []string) bool {
	clean := NormalizeAnswer(answer)
	if clean == "" {
		return false
	}

	for _, a := range accepted {
		want := strings.ToLower(strings.TrimSpace(a))
		if clean == want {
			return true
		}
		if strings.Contains(clean, want) {
			return true
		}
		// Common synonym variations.
		if want == "yellow" && (strings.Contains(clean, "gold") || clean == "golden") {
			return true
		}
		if want == "tuesday" && clean == "tue" {
			return true
		}
	}
	return false
}

// Grade evaluates a submitted probe answer. For multiple choice,
// selectedOption is compared against the post-shuffle correct index; answer
// is ignored. Grading never touches progress counters: the orchestrator
// records pass/fail.
func Grade(check Check, answer string, selectedOption int) bool {
	if check.Type == TypeMultipleChoice {
		return selectedOption == check.CorrectOption
	}
	return GradeOpenText(answer, check.ExpectedAnswers)
}
