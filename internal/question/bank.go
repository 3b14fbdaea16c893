package question

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyCategory indicates a bank has no questions for a requested category.
var ErrEmptyCategory = errors.New("question bank has no questions for category")

// Bank is an in-memory question set grouped by category.
type Bank struct {
	byCategory map[Category][]Question
}

// NewBank groups questions by category, preserving input order.
func NewBank(questions []Question) Bank {
	b := Bank{byCategory: make(map[Category][]Question)}
	for _, q := range questions {
		b.byCategory[q.Category] = append(b.byCategory[q.Category], q)
	}
	return b
}

// Questions returns a copy of the questions tagged with category.
func (b Bank) Questions(category Category) []Question {
	src := b.byCategory[category]
	out := make([]Question, len(src))
	copy(out, src)
	return out
}

// Len reports how many questions are tagged with category.
func (b Bank) Len(category Category) int {
	return len(b.byCategory[category])
}

// Require fails when category has no questions.
func (b Bank) Require(category Category) error {
	if b.Len(category) == 0 {
		return fmt.Errorf("%w %q", ErrEmptyCategory, category)
	}
	return nil
}

type bankFile struct {
	Questions []bankEntry `yaml:"questions"`
}

type bankEntry struct {
	ID           string `yaml:"id"`
	Category     string `yaml:"category"`
	Difficulty   string `yaml:"difficulty"`
	Text         string `yaml:"text"`
	Hint         string `yaml:"hint"`
	SampleAnswer string `yaml:"sample_answer"`
}

// LoadBankFile reads a YAML question bank from path.
func LoadBankFile(path string) (Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bank{}, fmt.Errorf("read question bank %q: %w", path, err)
	}
	bank, err := ParseBank(data)
	if err != nil {
		return Bank{}, fmt.Errorf("parse question bank %q: %w", path, err)
	}
	return bank, nil
}

// ParseBank decodes and validates YAML bank content.
func ParseBank(data []byte) (Bank, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Bank{}, err
	}
	if len(file.Questions) == 0 {
		return Bank{}, errors.New("questions must not be empty")
	}

	seen := make(map[string]struct{}, len(file.Questions))
	questions := make([]Question, 0, len(file.Questions))
	for i, entry := range file.Questions {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return Bank{}, fmt.Errorf("questions[%d].id must not be empty", i)
		}
		if _, dup := seen[id]; dup {
			return Bank{}, fmt.Errorf("questions[%d].id %q is duplicated", i, id)
		}
		seen[id] = struct{}{}

		category, err := ParseCategory(entry.Category)
		if err != nil {
			return Bank{}, fmt.Errorf("questions[%d].category: %w", i, err)
		}
		difficulty, err := ParseDifficulty(entry.Difficulty)
		if err != nil {
			return Bank{}, fmt.Errorf("questions[%d].difficulty: %w", i, err)
		}
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			return Bank{}, fmt.Errorf("questions[%d].text must not be empty", i)
		}

		questions = append(questions, Question{
			ID:           id,
			Text:         text,
			Category:     category,
			Difficulty:   difficulty,
			Hint:         strings.TrimSpace(entry.Hint),
			SampleAnswer: strings.TrimSpace(entry.SampleAnswer),
		})
	}

	return NewBank(questions), nil
}

// DefaultBank is the built-in HR and technical question set.
func DefaultBank() Bank {
	return NewBank([]Question{
		{
			ID:           "hr-1",
			Text:         "Tell me about yourself and your background.",
			Category:     CategoryHR,
			Difficulty:   DifficultyEasy,
			Hint:         "Focus on your professional journey and key achievements.",
			SampleAnswer: "I am a software developer with 3 years of experience. I specialize in web development and have worked on various projects involving React and Node.js. I am passionate about creating user-friendly applications.",
		},
		{
			ID:           "hr-2",
			Text:         "Why are you interested in this position?",
			Category:     CategoryHR,
			Difficulty:   DifficultyEasy,
			Hint:         "Connect your skills and interests to the role.",
			SampleAnswer: "I am excited about this position because it aligns with my skills in frontend development and offers opportunities for growth. I admire the company's focus on innovation.",
		},
		{
			ID:           "hr-3",
			Text:         "What are your greatest strengths?",
			Category:     CategoryHR,
			Difficulty:   DifficultyMedium,
			Hint:         "Give specific examples that demonstrate your strengths.",
			SampleAnswer: "My greatest strength is problem-solving. I enjoy breaking down complex problems into manageable parts. For example, I once optimized a database query that reduced load time by 50%.",
		},
		{
			ID:           "hr-4",
			Text:         "Where do you see yourself in 5 years?",
			Category:     CategoryHR,
			Difficulty:   DifficultyMedium,
			Hint:         "Show ambition while being realistic about growth.",
			SampleAnswer: "In 5 years, I see myself as a senior developer leading a team. I want to grow technically while also developing leadership skills.",
		},
		{
			ID:           "hr-5",
			Text:         "Describe a challenging situation you faced and how you handled it.",
			Category:     CategoryHR,
			Difficulty:   DifficultyHard,
			Hint:         "Use the STAR method: Situation, Task, Action, Result.",
			SampleAnswer: "In my previous role, we had a tight deadline for a major feature. I organized the team, prioritized tasks, and we delivered on time by working efficiently and communicating clearly.",
		},
		{
			ID:           "tech-1",
			Text:         "Explain the difference between let, const, and var in JavaScript.",
			Category:     CategoryTechnical,
			Difficulty:   DifficultyEasy,
			Hint:         "Think about scope and mutability.",
			SampleAnswer: "var is function-scoped and can be redeclared. let is block-scoped and can be reassigned but not redeclared. const is block-scoped and cannot be reassigned after initialization.",
		},
		{
			ID:           "tech-2",
			Text:         "What is the virtual DOM and how does React use it?",
			Category:     CategoryTechnical,
			Difficulty:   DifficultyMedium,
			Hint:         "Think about performance optimization.",
			SampleAnswer: "The virtual DOM is a lightweight copy of the actual DOM. React uses it to batch updates and minimize direct DOM manipulation. When state changes, React compares the virtual DOM with the real DOM and only updates what has changed.",
		},
		{
			ID:           "tech-3",
			Text:         "Explain the concept of closures in JavaScript.",
			Category:     CategoryTechnical,
			Difficulty:   DifficultyMedium,
			Hint:         "Think about function scope and variable access.",
			SampleAnswer: "A closure is a function that has access to variables from its outer scope, even after the outer function has returned. This allows for data privacy and creating factory functions.",
		},
		{
			ID:           "tech-4",
			Text:         "What are the SOLID principles in software development?",
			Category:     CategoryTechnical,
			Difficulty:   DifficultyHard,
			Hint:         "Each letter represents a principle of object-oriented design.",
			SampleAnswer: "SOLID stands for: Single Responsibility, Open/Closed, Liskov Substitution, Interface Segregation, and Dependency Inversion. These principles help create maintainable and scalable code.",
		},
		{
			ID:           "tech-5",
			Text:         "How would you optimize a slow database query?",
			Category:     CategoryTechnical,
			Difficulty:   DifficultyHard,
			Hint:         "Think about indexing, query structure, and data retrieval.",
			SampleAnswer: "I would first analyze the query with EXPLAIN. Then consider adding indexes, optimizing JOIN operations, limiting data retrieved, and possibly caching results.",
		},
	})
}
