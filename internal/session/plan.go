package session

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rbright/rehearse/internal/question"
	"github.com/rbright/rehearse/internal/resume"
)

// Mode selects where a session's questions come from.
type Mode string

const (
	ModeBank   Mode = "bank"
	ModeResume Mode = "resume"
)

// ErrNoQuestionSource is returned when a plan cannot supply a first question.
var ErrNoQuestionSource = errors.New("session has no question source")

// Plan is the validated configuration one session starts from.
type Plan struct {
	Mode     Mode
	Category question.Category
	Supplier question.Supplier
	// Profile is only read in resume mode, for the greeting.
	Profile resume.Profile
}

// BankPlan draws random questions of category from bank.
func BankPlan(bank question.Bank, category question.Category, rng *rand.Rand) (Plan, error) {
	supplier, err := question.NewRandomSupplier(bank, category, rng)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Mode: ModeBank, Category: category, Supplier: supplier}, nil
}

// ResumePlan walks the question sequence derived from profile.
func ResumePlan(profile resume.Profile, category question.Category) Plan {
	return Plan{
		Mode:     ModeResume,
		Category: category,
		Supplier: question.Derive(profile, category),
		Profile:  profile,
	}
}

func (p Plan) Validate() error {
	switch p.Mode {
	case ModeBank, ModeResume:
	default:
		return fmt.Errorf("unknown session mode %q", p.Mode)
	}
	if _, err := question.ParseCategory(string(p.Category)); err != nil {
		return err
	}
	if p.Supplier == nil {
		return ErrNoQuestionSource
	}
	if _, ok := p.Supplier.Question(0); !ok {
		return ErrNoQuestionSource
	}
	return nil
}

func (p Plan) greeting() string {
	if p.Mode == ModeResume {
		return fmt.Sprintf(
			"Welcome! I've reviewed your resume. I can see you have experience with %s. Let's begin the %s interview.",
			strings.Join(p.Profile.LeadingSkills(3), ", "),
			p.Category.Title(),
		)
	}
	return fmt.Sprintf("Hello! I'll be your %s interviewer today. Let's begin with your first question.", p.Category.Title())
}

const closingText = "We've covered all the questions based on your resume. Thank you for your responses!"
