package feedback

import (
	"regexp"
	"strings"
	"testing"

	"github.com/rbright/rehearse/internal/question"
	"github.com/stretchr/testify/require"
)

var sampleQuestion = question.Question{
	ID:       "hr-5",
	Text:     "Describe a challenging situation you faced and how you handled it.",
	Category: question.CategoryHR,
	Hint:     "Use the STAR method: Situation, Task, Action, Result.",
}

func TestApplyAllRunsEveryMatchingRuleInOrder(t *testing.T) {
	t.Parallel()

	got, notes := ApplyAll("i dont think im gonna quit, its fine", AnswerRules)
	require.Equal(t, "I don't think I'm going to quit, it's fine", got)
	require.Equal(t, []string{
		explainPronoun,
		explainContraction,
		explainContraction,
		explainContraction,
		explainFormal,
	}, notes)
}

func TestApplyAllNoMatchLeavesTextUntouched(t *testing.T) {
	t.Parallel()

	got, notes := ApplyAll("I have shipped three services.", AnswerRules)
	require.Equal(t, "I have shipped three services.", got)
	require.Empty(t, notes)
}

func TestItsPossessiveGuard(t *testing.T) {
	t.Parallel()

	got, notes := ApplyAll("the team made its own tooling", AnswerRules)
	require.Equal(t, "the team made its own tooling", got)
	require.Empty(t, notes)

	got, _ = ApplyAll("its great and the code explains itself", AnswerRules)
	require.Equal(t, "it's great and the code explains itself", got)

	for _, text := range []string{"the team and its owners agreed", "its ownership model", "its selfhosted runner"} {
		got, notes = ApplyAll(text, AnswerRules)
		require.Equal(t, text, got)
		require.Empty(t, notes)
	}

	result := Evaluate("the team and its owners agreed", question.Question{})
	require.Nil(t, result.Correction)
}

func TestRuleApplyVetoedEverywhereReportsUnchanged(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Pattern:     regexp.MustCompile(`x`),
		Replacement: "y",
		Keep:        func(string, int, int) bool { return true },
	}
	got, changed := rule.Apply("xxx")
	require.False(t, changed)
	require.Equal(t, "xxx", got)
	require.False(t, rule.Matches("xxx"))
}

func TestEvaluateCorrectionForLowercasePronoun(t *testing.T) {
	t.Parallel()

	answers := []string{
		"i led the migration",
		"Last year i rebuilt the billing pipeline and cut costs",
		"we shipped it and then i wrote the postmortem",
	}
	for _, answer := range answers {
		result := Evaluate(answer, sampleQuestion)
		require.NotNil(t, result.Correction, answer)
		require.Contains(t, *result.Correction, "I ")
		require.NotContains(t, " "+*result.Correction+" ", " i ")
	}
}

func TestEvaluateNilCorrectionWhenClean(t *testing.T) {
	t.Parallel()

	result := Evaluate("I enjoy distributed systems.", sampleQuestion)
	require.Nil(t, result.Correction)
	require.Empty(t, result.Notes)
}

func TestEvaluateWordCountBuckets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		words     int
		narrative string
		first     string
	}{
		{name: "one word", words: 1, narrative: NarrativeBrief, first: briefSuggestions[0]},
		{name: "nine words", words: 9, narrative: NarrativeBrief, first: briefSuggestions[0]},
		{name: "ten words", words: 10, narrative: NarrativeStart, first: startSuggestions[0]},
		{name: "twenty nine words", words: 29, narrative: NarrativeStart, first: startSuggestions[0]},
		{name: "thirty words", words: 30, narrative: NarrativeLength, first: lengthSuggestions[0]},
		{name: "eighty words", words: 80, narrative: NarrativeLength, first: lengthSuggestions[0]},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			answer := strings.TrimSpace(strings.Repeat("word \t\n ", tc.words))
			result := Evaluate(answer, sampleQuestion)
			require.Equal(t, tc.words, result.WordCount)
			require.Equal(t, tc.narrative, result.Narrative)
			require.Len(t, result.Suggestions, 2)
			require.Equal(t, tc.first, result.Suggestions[0])
		})
	}
}

func TestEvaluateSuggestionsAreNotShared(t *testing.T) {
	t.Parallel()

	result := Evaluate("short", sampleQuestion)
	result.Suggestions[0] = "mutated"
	require.Equal(t, "Try to elaborate with specific examples from your experience.", Evaluate("short", sampleQuestion).Suggestions[0])
}

func TestWordCountIgnoresWhitespaceRuns(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, WordCount("   \n\t "))
	require.Equal(t, 3, WordCount("  one   two\tthree\n"))
}

func TestPolish(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  hello world  ":     "Hello world.",
		"already done.":       "Already done.",
		"really?":             "Really?",
		"wow!":                "Wow!",
		"élan matters":        "Élan matters.",
		"42 is the answer":    "42 is the answer.",
		"Ends with a comma, ": "Ends with a comma,.",
	}
	for input, want := range tests {
		require.Equal(t, want, Polish(input), input)
	}
	require.Empty(t, Polish("   "))
}

func TestPolishProperty(t *testing.T) {
	t.Parallel()

	inputs := []string{"a", "b c", "i think so", "x?", "  trailing space  ", "multi\nline answer"}
	for _, input := range inputs {
		got := Polish(input)
		require.NotEmpty(t, got)
		first := []rune(got)[0]
		require.Equal(t, strings.ToUpper(string(first)), string(first))
		require.Contains(t, ".!?", got[len(got)-1:])
	}
}

func TestInterviewerResponseHintBranch(t *testing.T) {
	t.Parallel()

	for _, answer := range []string{"I'm not sure about that one", "honestly I DON'T KNOW", "um", "  ok  "} {
		result := Evaluate(answer, sampleQuestion)
		got := InterviewerResponse(answer, sampleQuestion, result)
		require.Equal(t,
			"I understand. Let me give you a hint: Use the STAR method: Situation, Task, Action, Result. Would you like to try answering again, or should I share a sample answer?",
			got, answer)
	}
}

func TestInterviewerResponseGenericHintWhenQuestionHasNone(t *testing.T) {
	t.Parallel()

	q := question.Question{ID: "motivation", Text: "Why?"}
	got := InterviewerResponse("not sure", q, Evaluate("not sure", q))
	require.Contains(t, got, "Let me give you a hint: Think about your relevant experiences and skills.")
}

func TestInterviewerResponseFeedbackBranch(t *testing.T) {
	t.Parallel()

	answer := "I organized the team and we delivered the release on time."
	result := Evaluate(answer, sampleQuestion)
	got := InterviewerResponse(answer, sampleQuestion, result)
	require.Equal(t,
		"Thank you for your answer. "+NarrativeStart+" Here's a suggestion: Consider adding a concrete example. Let's move on to the next question.",
		got)
}

func TestInterviewerResponseWithoutSuggestions(t *testing.T) {
	t.Parallel()

	got := InterviewerResponse("a complete answer", sampleQuestion, Result{Narrative: "Fine."})
	require.Equal(t, "Thank you for your answer. Fine. Let's move on to the next question.", got)
}

func TestAnalyzeLiveFirstMatchOnly(t *testing.T) {
	t.Parallel()

	note, ok := AnalyzeLive("yesterday i dont remember")
	require.True(t, ok)
	require.Equal(t, "yesterday I dont remember", note.Corrected)
	require.Equal(t, explainPronoun, note.Explanation)
	require.Equal(t, "yesterday i dont remember", note.Original)
}

func TestAnalyzeLiveAuxiliaryGuard(t *testing.T) {
	t.Parallel()

	note, ok := AnalyzeLive("i am gonna present")
	require.True(t, ok)
	require.Equal(t, "i am going to present", note.Corrected)
	require.Equal(t, explainFormal, note.Explanation)

	_, ok = AnalyzeLive("I am presenting now")
	require.False(t, ok)

	_, ok = AnalyzeLive("i amazingly shipped it")
	require.False(t, ok)

	_, ok = AnalyzeLive("i haven't started")
	require.False(t, ok)
}
