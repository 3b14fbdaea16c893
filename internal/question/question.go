// Package question holds the interview question model and the suppliers that produce prompts.
package question

import (
	"fmt"
	"strings"
)

// Category is the interview track a question belongs to.
type Category string

const (
	CategoryHR        Category = "hr"
	CategoryTechnical Category = "technical"
)

// ParseCategory normalizes a user-supplied category name.
func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryHR:
		return CategoryHR, nil
	case CategoryTechnical:
		return CategoryTechnical, nil
	default:
		return "", fmt.Errorf("unknown interview type %q (want hr or technical)", raw)
	}
}

// Title is the spoken form of the category.
func (c Category) Title() string {
	switch c {
	case CategoryHR:
		return "HR"
	case CategoryTechnical:
		return "Technical"
	default:
		return string(c)
	}
}

// Difficulty orders questions from easy to hard.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota + 1
	DifficultyMedium
	DifficultyHard
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty maps easy/medium/hard onto Difficulty.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return 0, fmt.Errorf("unknown difficulty %q", raw)
	}
}

// Topic records which resume section a derived question came from.
type Topic string

const (
	TopicSkills     Topic = "skills"
	TopicExperience Topic = "experience"
	TopicEducation  Topic = "education"
	TopicProject    Topic = "project"
	TopicGeneral    Topic = "general"
)

// Question is one immutable interview prompt.
type Question struct {
	ID           string
	Text         string
	Category     Category
	Difficulty   Difficulty
	Topic        Topic
	Source       string
	Hint         string
	SampleAnswer string
}

// Supplier yields the question at a position in a session's run.
// The bool result is false once a finite sequence is exhausted.
type Supplier interface {
	Question(index int) (Question, bool)
}
