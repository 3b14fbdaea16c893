package feedback

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rbright/rehearse/internal/question"
)

const (
	briefWordLimit  = 10
	lengthWordLimit = 30

	// minAnswerRunes is the trimmed length below which an answer is treated
	// as a non-answer.
	minAnswerRunes = 5
)

const (
	NarrativeBrief  = "Your answer is quite brief. Consider providing more details and examples."
	NarrativeStart  = "Good start! Your answer covers the basics but could use more depth."
	NarrativeLength = "Good answer length. Make sure your points are clear and well-structured."

	genericHint = "Think about your relevant experiences and skills."
)

var (
	briefSuggestions = []string{
		"Try to elaborate with specific examples from your experience.",
		"Use the STAR method for behavioral questions.",
	}
	startSuggestions = []string{
		"Consider adding a concrete example.",
		"Explain the impact or result of your actions.",
	}
	lengthSuggestions = []string{
		"Ensure your answer directly addresses the question.",
		"Practice maintaining a confident tone.",
	}

	uncertaintySignals = []string{"don't know", "don’t know", "dont know", "not sure"}
)

// Result is the structured evaluation of one answer.
type Result struct {
	// Correction is nil when no correction rule matched.
	Correction  *string  `json:"correction"`
	Notes       []string `json:"notes,omitempty"`
	Polished    string   `json:"polished"`
	Narrative   string   `json:"narrative"`
	Suggestions []string `json:"suggestions"`
	WordCount   int      `json:"word_count"`
}

// Evaluate scores answer for q. The question is accepted for parity with
// richer evaluators; the rule-based one only reads the answer.
func Evaluate(answer string, _ question.Question) Result {
	result := Result{
		Polished:  Polish(answer),
		WordCount: WordCount(answer),
	}

	if corrected, notes := ApplyAll(answer, AnswerRules); len(notes) > 0 {
		result.Correction = &corrected
		result.Notes = notes
	}

	switch {
	case result.WordCount < briefWordLimit:
		result.Narrative = NarrativeBrief
		result.Suggestions = append([]string(nil), briefSuggestions...)
	case result.WordCount < lengthWordLimit:
		result.Narrative = NarrativeStart
		result.Suggestions = append([]string(nil), startSuggestions...)
	default:
		result.Narrative = NarrativeLength
		result.Suggestions = append([]string(nil), lengthSuggestions...)
	}

	return result
}

// WordCount counts whitespace-delimited non-empty tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Polish trims text, upper-cases its first character and guarantees
// terminal punctuation.
func Polish(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	first, size := utf8.DecodeRuneInString(text)
	text = string(unicode.ToUpper(first)) + text[size:]

	switch text[len(text)-1] {
	case '.', '!', '?':
		return text
	default:
		return text + "."
	}
}

// NeedsHint reports whether answer signals uncertainty or is too short to
// count as an attempt.
func NeedsHint(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if utf8.RuneCountInString(trimmed) < minAnswerRunes {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, signal := range uncertaintySignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}

// InterviewerResponse composes what the interviewer says after answer.
func InterviewerResponse(answer string, q question.Question, result Result) string {
	if NeedsHint(answer) {
		hint := q.Hint
		if strings.TrimSpace(hint) == "" {
			hint = genericHint
		}
		return "I understand. Let me give you a hint: " + hint +
			" Would you like to try answering again, or should I share a sample answer?"
	}

	parts := []string{"Thank you for your answer.", result.Narrative}
	if len(result.Suggestions) > 0 {
		parts = append(parts, "Here's a suggestion: "+result.Suggestions[0])
	}
	parts = append(parts, "Let's move on to the next question.")
	return strings.Join(parts, " ")
}

// LiveNote is a single grammar observation on a live utterance.
type LiveNote struct {
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
}

// AnalyzeLive applies the first matching live rule to text.
func AnalyzeLive(text string) (LiveNote, bool) {
	rule, ok := FirstMatch(text, LiveRules)
	if !ok {
		return LiveNote{}, false
	}
	corrected, _ := rule.Apply(text)
	return LiveNote{Original: text, Corrected: corrected, Explanation: rule.Explanation}, true
}
