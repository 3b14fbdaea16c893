package question

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rbright/rehearse/internal/resume"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory(" HR ")
	require.NoError(t, err)
	require.Equal(t, CategoryHR, got)
	require.Equal(t, "HR", got.Title())

	got, err = ParseCategory("technical")
	require.NoError(t, err)
	require.Equal(t, "Technical", got.Title())

	_, err = ParseCategory("behavioral")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown interview type")
}

func TestDifficultyOrdering(t *testing.T) {
	require.Less(t, DifficultyEasy, DifficultyMedium)
	require.Less(t, DifficultyMedium, DifficultyHard)

	d, err := ParseDifficulty("Hard")
	require.NoError(t, err)
	require.Equal(t, DifficultyHard, d)
	require.Equal(t, "hard", d.String())

	_, err = ParseDifficulty("brutal")
	require.Error(t, err)
}

func TestDefaultBankHasBothCategories(t *testing.T) {
	bank := DefaultBank()
	require.Equal(t, 5, bank.Len(CategoryHR))
	require.Equal(t, 5, bank.Len(CategoryTechnical))
	for _, q := range bank.Questions(CategoryTechnical) {
		require.Equal(t, CategoryTechnical, q.Category)
		require.NotEmpty(t, q.Hint)
		require.NotEmpty(t, q.SampleAnswer)
	}
}

func TestBankQuestionsReturnsCopy(t *testing.T) {
	bank := DefaultBank()
	qs := bank.Questions(CategoryHR)
	qs[0].Text = "mutated"
	require.NotEqual(t, "mutated", bank.Questions(CategoryHR)[0].Text)
}

func TestRandomSupplierDrawsFromCategoryWithRepeats(t *testing.T) {
	bank := DefaultBank()
	supplier, err := NewRandomSupplier(bank, CategoryHR, rand.New(rand.NewPCG(7, 11)))
	require.NoError(t, err)

	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		q, ok := supplier.Question(i)
		require.True(t, ok)
		require.Equal(t, CategoryHR, q.Category)
		seen[q.ID]++
	}
	require.Len(t, seen, 5)
	for _, count := range seen {
		require.Greater(t, count, 1)
	}
}

func TestRandomSupplierRejectsEmptyCategory(t *testing.T) {
	bank := NewBank([]Question{{ID: "only", Text: "x", Category: CategoryHR}})
	_, err := NewRandomSupplier(bank, CategoryTechnical, nil)
	require.ErrorIs(t, err, ErrEmptyCategory)
}

func TestDeriveFullProfileOrder(t *testing.T) {
	seq := Derive(resume.Demo(), CategoryTechnical)

	ids := make([]string, 0, len(seq))
	for _, q := range seq {
		ids = append(ids, q.ID)
	}
	require.Equal(t, []string{
		"skill-1", "skill-2", "experience", "education", "project", "technical-closing", "motivation",
	}, ids)
	require.Contains(t, seq[0].Text, "JavaScript")
	require.Contains(t, seq[1].Text, "React")
	require.Contains(t, seq[5].Text, "debugging")
}

func TestDeriveSkipsEmptySections(t *testing.T) {
	profile := resume.Profile{
		Skills:     []string{"X", "Y"},
		Experience: []string{"e1"},
		Projects:   []string{"p1"},
	}
	seq := Derive(profile, CategoryHR)

	require.Len(t, seq, 6)
	require.Contains(t, seq[0].Text, "X")
	require.Contains(t, seq[1].Text, "Y")
	require.Equal(t, TopicExperience, seq[2].Topic)
	require.Equal(t, TopicProject, seq[3].Topic)
	require.Equal(t, "hr-closing", seq[4].ID)
	require.Contains(t, seq[4].Text, "conflicting priorities")
	require.Equal(t, "motivation", seq[5].ID)
	for _, q := range seq {
		require.NotEqual(t, TopicEducation, q.Topic)
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	profile := resume.Profile{Skills: []string{"Go", "SQL", "Docker"}, Education: []string{"BSc"}}
	require.Equal(t, Derive(profile, CategoryHR), Derive(profile, CategoryHR))

	seq := Derive(profile, CategoryHR)
	require.Len(t, seq, 5)
	require.NotContains(t, seq[0].Text+seq[1].Text, "Docker")
}

func TestSequenceExhausts(t *testing.T) {
	seq := Sequence{{ID: "a"}, {ID: "b"}}

	q, ok := seq.Question(1)
	require.True(t, ok)
	require.Equal(t, "b", q.ID)

	_, ok = seq.Question(2)
	require.False(t, ok)
	_, ok = seq.Question(-1)
	require.False(t, ok)
}

func TestParseBankValid(t *testing.T) {
	bank, err := ParseBank([]byte(`
questions:
  - id: sys-1
    category: technical
    difficulty: hard
    text: Design a rate limiter.
    hint: Think about token buckets.
  - id: hr-x
    category: HR
    difficulty: easy
    text: "  Why us?  "
`))
	require.NoError(t, err)
	require.Equal(t, 1, bank.Len(CategoryTechnical))
	require.Equal(t, 1, bank.Len(CategoryHR))
	require.Equal(t, "Why us?", bank.Questions(CategoryHR)[0].Text)
	require.Equal(t, "Think about token buckets.", bank.Questions(CategoryTechnical)[0].Hint)
}

func TestParseBankValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "empty", content: "questions: []", wantErr: "must not be empty"},
		{name: "missing id", content: "questions:\n  - category: hr\n    difficulty: easy\n    text: x", wantErr: "id must not be empty"},
		{name: "duplicate id", content: "questions:\n  - {id: a, category: hr, difficulty: easy, text: x}\n  - {id: a, category: hr, difficulty: easy, text: y}", wantErr: "duplicated"},
		{name: "bad category", content: "questions:\n  - {id: a, category: sales, difficulty: easy, text: x}", wantErr: "category"},
		{name: "bad difficulty", content: "questions:\n  - {id: a, category: hr, difficulty: meh, text: x}", wantErr: "difficulty"},
		{name: "blank text", content: "questions:\n  - {id: a, category: hr, difficulty: easy, text: '  '}", wantErr: "text must not be empty"},
		{name: "malformed", content: "questions: [", wantErr: "yaml"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBank([]byte(tc.content))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadBankFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte("questions:\n  - {id: a, category: hr, difficulty: easy, text: \"Hello?\"}\n"), 0o600))

	bank, err := LoadBankFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, bank.Len(CategoryHR))

	_, err = LoadBankFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "read question bank"))
}

func TestDescribe(t *testing.T) {
	got := Describe(Question{ID: "hr-1", Category: CategoryHR, Difficulty: DifficultyEasy, Text: "Hi?"})
	require.Equal(t, "hr-1/hr/easy: Hi?", got)
}
