package resume

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phonePattern = regexp.MustCompile(`[\d\s-]{10,}`)
)

// skillKeywords are matched case-insensitively anywhere in the resume text.
var skillKeywords = []string{
	"JavaScript", "TypeScript", "Python", "Java", "React", "Node.js",
	"SQL", "MongoDB", "AWS", "Docker", "Git", "HTML", "CSS",
	"Machine Learning", "Data Analysis", "Agile", "Scrum",
	"Communication", "Leadership", "Problem Solving", "Teamwork",
}

var fallbackSkills = []string{"General Programming", "Communication"}

var (
	experienceHeadings = []string{"experience", "work history", "employment"}
	educationHeadings  = []string{"education", "academic", "degree"}
	projectHeadings    = []string{"project", "portfolio"}
)

const (
	sectionLineMin   = 20
	sectionLineMax   = 200
	sectionLineLimit = 3
)

// Extract builds a keyword profile from resume text. It never fails: a
// resume with no recognizable skills gets a generic skill list.
func Extract(text string) Profile {
	profile := Profile{
		Email:      strings.TrimSpace(emailPattern.FindString(text)),
		Phone:      strings.TrimSpace(phonePattern.FindString(text)),
		Skills:     matchSkills(text),
		Experience: extractSection(text, experienceHeadings),
		Education:  extractSection(text, educationHeadings),
		Projects:   extractSection(text, projectHeadings),
		RawText:    text,
	}
	if len(profile.Skills) == 0 {
		profile.Skills = append([]string(nil), fallbackSkills...)
	}
	return profile
}

func matchSkills(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, skill := range skillKeywords {
		if strings.Contains(lower, strings.ToLower(skill)) {
			found = append(found, skill)
		}
	}
	return found
}

// extractSection collects up to three content lines following the first line
// that mentions any heading keyword. Later heading lines are skipped, not
// treated as section ends.
func extractSection(text string, headings []string) []string {
	var (
		lines     []string
		inSection bool
	)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		lower := strings.ToLower(line)
		if containsAny(lower, headings) {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}

		if n := utf8.RuneCountInString(trimmed); n > sectionLineMin && n < sectionLineMax {
			lines = append(lines, trimmed)
			if len(lines) >= sectionLineLimit {
				break
			}
		}
	}

	return lines
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
