package question

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rbright/rehearse/internal/resume"
)

// RandomSupplier draws uniformly from one bank category on every call.
// Repeats are permitted; the supplier keeps no memory of earlier draws.
type RandomSupplier struct {
	questions []Question
	intn      func(int) int
}

// NewRandomSupplier builds a random-bank supplier for category.
// A nil rng uses the process-global source.
func NewRandomSupplier(bank Bank, category Category, rng *rand.Rand) (*RandomSupplier, error) {
	if err := bank.Require(category); err != nil {
		return nil, err
	}
	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}
	return &RandomSupplier{questions: bank.Questions(category), intn: intn}, nil
}

// Question ignores index and returns a uniform draw.
func (s *RandomSupplier) Question(int) (Question, bool) {
	return s.questions[s.intn(len(s.questions))], true
}

// Sequence is a finite, precomputed question run.
type Sequence []Question

// Question returns the entry at index while it is in range.
func (s Sequence) Question(index int) (Question, bool) {
	if index < 0 || index >= len(s) {
		return Question{}, false
	}
	return s[index], true
}

const maxSkillQuestions = 2

// Derive builds the resume-driven question run for profile and category.
//
// Order is fixed: leading skills, experience, education, projects,
// the category closing question, then the general motivation question.
func Derive(profile resume.Profile, category Category) Sequence {
	seq := make(Sequence, 0, 7)

	skillTemplates := []string{
		"I see you have %[1]s listed in your resume. Can you describe a project where you used %[1]s?",
		"How would you rate your proficiency in %[1]s? Can you give an example of how you've applied it?",
	}
	for i, skill := range profile.LeadingSkills(maxSkillQuestions) {
		seq = append(seq, Question{
			ID:         fmt.Sprintf("skill-%d", i+1),
			Text:       fmt.Sprintf(skillTemplates[i], skill),
			Category:   category,
			Difficulty: DifficultyMedium,
			Topic:      TopicSkills,
			Source:     "Skill: " + skill,
		})
	}

	if len(profile.Experience) > 0 {
		seq = append(seq, Question{
			ID:         "experience",
			Text:       "Can you walk me through your most recent work experience and your key responsibilities?",
			Category:   category,
			Difficulty: DifficultyMedium,
			Topic:      TopicExperience,
			Source:     "Experience section",
		})
	}
	if len(profile.Education) > 0 {
		seq = append(seq, Question{
			ID:         "education",
			Text:       "How has your educational background prepared you for this role?",
			Category:   category,
			Difficulty: DifficultyMedium,
			Topic:      TopicEducation,
			Source:     "Education section",
		})
	}
	if len(profile.Projects) > 0 {
		seq = append(seq, Question{
			ID:         "project",
			Text:       "Tell me about a challenging project you worked on. What were the main obstacles and how did you overcome them?",
			Category:   category,
			Difficulty: DifficultyMedium,
			Topic:      TopicProject,
			Source:     "Projects section",
		})
	}

	closing := Question{
		ID:         string(category) + "-closing",
		Category:   category,
		Difficulty: DifficultyMedium,
		Topic:      TopicGeneral,
		Source:     category.Title() + " interview",
	}
	if category == CategoryTechnical {
		closing.Text = "Based on your technical experience, how do you approach debugging a complex issue in production?"
	} else {
		closing.Text = "Based on your experience, how do you handle conflicting priorities or deadlines?"
	}
	seq = append(seq, closing)

	seq = append(seq, Question{
		ID:         "motivation",
		Text:       "What motivates you to apply for this position, and how does it align with your career goals?",
		Category:   category,
		Difficulty: DifficultyMedium,
		Topic:      TopicGeneral,
		Source:     "General assessment",
	})

	return seq
}

// Describe renders a one-line summary of q for status output.
func Describe(q Question) string {
	parts := []string{q.ID, string(q.Category)}
	if q.Difficulty != 0 {
		parts = append(parts, q.Difficulty.String())
	}
	return strings.Join(parts, "/") + ": " + q.Text
}
