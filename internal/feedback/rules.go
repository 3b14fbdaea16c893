// Package feedback evaluates spoken interview answers with rule-based corrections and heuristics.
package feedback

import (
	"regexp"
	"strings"
)

// Rule is one ordered correction: every match of Pattern becomes Replacement
// unless Keep vetoes that particular match.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
	Explanation string
	// Keep reports whether the match at text[start:end] must be left as is.
	Keep func(text string, start, end int) bool
}

// Matches reports whether r would change text.
func (r Rule) Matches(text string) bool {
	for _, loc := range r.Pattern.FindAllStringIndex(text, -1) {
		if r.Keep == nil || !r.Keep(text, loc[0], loc[1]) {
			return true
		}
	}
	return false
}

// Apply replaces every non-vetoed match of r in text.
func (r Rule) Apply(text string) (string, bool) {
	matches := r.Pattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text, false
	}

	var out strings.Builder
	out.Grow(len(text))

	changed := false
	last := 0
	for _, match := range matches {
		start, end := match[0], match[1]
		out.WriteString(text[last:start])
		if r.Keep != nil && r.Keep(text, start, end) {
			out.WriteString(text[start:end])
		} else {
			out.WriteString(r.Replacement)
			changed = true
		}
		last = end
	}
	out.WriteString(text[last:])

	if !changed {
		return text, false
	}
	return out.String(), true
}

// ApplyAll runs every rule in order over text, feeding each rule the output of
// the previous one. It returns the corrected text and the explanations of the
// rules that fired.
func ApplyAll(text string, rules []Rule) (string, []string) {
	var notes []string
	for _, rule := range rules {
		next, changed := rule.Apply(text)
		if !changed {
			continue
		}
		text = next
		notes = append(notes, rule.Explanation)
	}
	return text, notes
}

// FirstMatch returns the first rule that would change text.
func FirstMatch(text string, rules []Rule) (Rule, bool) {
	for _, rule := range rules {
		if rule.Matches(text) {
			return rule, true
		}
	}
	return Rule{}, false
}

const (
	explainPronoun     = `Capitalize "I" when referring to yourself`
	explainContraction = "Use apostrophe in contractions"
	explainFormal      = "Use formal language in interviews"
)

// followedBy reports whether the word after text[end:] starts with one of words.
func followedBy(words ...string) func(string, int, int) bool {
	return func(text string, _ int, end int) bool {
		rest := text[end:]
		trimmed := strings.TrimLeft(rest, " \t\r\n")
		if len(trimmed) == len(rest) {
			return false
		}
		next := strings.ToLower(leadingWord(trimmed))
		for _, w := range words {
			if strings.HasPrefix(next, w) {
				return true
			}
		}
		return false
	}
}

func leadingWord(s string) string {
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			end++
			continue
		}
		break
	}
	return s[:end]
}

// AnswerRules is the ordered correction list applied to interview answers.
var AnswerRules = []Rule{
	{Pattern: regexp.MustCompile(`\bi\b`), Replacement: "I", Explanation: explainPronoun},
	{Pattern: regexp.MustCompile(`(?i)\bdont\b`), Replacement: "don't", Explanation: explainContraction},
	{Pattern: regexp.MustCompile(`(?i)\bcant\b`), Replacement: "can't", Explanation: explainContraction},
	{Pattern: regexp.MustCompile(`(?i)\bwont\b`), Replacement: "won't", Explanation: explainContraction},
	{Pattern: regexp.MustCompile(`(?i)\bim\b`), Replacement: "I'm", Explanation: explainContraction},
	{Pattern: regexp.MustCompile(`(?i)\bive\b`), Replacement: "I've", Explanation: explainContraction},
	{Pattern: regexp.MustCompile(`(?i)\btheres\b`), Replacement: "there's", Explanation: explainContraction},
	{
		Pattern:     regexp.MustCompile(`(?i)\bits\b`),
		Replacement: "it's",
		Explanation: explainContraction,
		Keep:        followedBy("own", "self"),
	},
	{Pattern: regexp.MustCompile(`(?i)\bwanna\b`), Replacement: "want to", Explanation: explainFormal},
	{Pattern: regexp.MustCompile(`(?i)\bgonna\b`), Replacement: "going to", Explanation: explainFormal},
	{Pattern: regexp.MustCompile(`(?i)\bkinda\b`), Replacement: "kind of", Explanation: explainFormal},
}

// LiveRules is the first-match list used for live meeting transcription.
// A lowercase "i" directly before a modal or auxiliary verb is left alone.
var LiveRules = []Rule{
	{
		Pattern:     regexp.MustCompile(`\bi\b`),
		Replacement: "I",
		Explanation: explainPronoun,
		Keep:        followedBy("am", "have", "will", "would", "could", "should"),
	},
	{Pattern: regexp.MustCompile(`(?i)\bdont\b`), Replacement: "don't", Explanation: explainContraction},
	{Pattern: regexp.MustCompile(`(?i)\bcant\b`), Replacement: "can't", Explanation: explainContraction},
	{Pattern: regexp.MustCompile(`(?i)\bwanna\b`), Replacement: "want to", Explanation: explainFormal},
	{Pattern: regexp.MustCompile(`(?i)\bgonna\b`), Replacement: "going to", Explanation: explainFormal},
	{Pattern: regexp.MustCompile(`(?i)\bkinda\b`), Replacement: "kind of", Explanation: explainFormal},
}
