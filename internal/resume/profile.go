// Package resume turns resume text into a keyword profile used to derive interview questions.
package resume

// Profile is the keyword-level view of one resume.
type Profile struct {
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Skills     []string `json:"skills"`
	Experience []string `json:"experience"`
	Education  []string `json:"education"`
	Projects   []string `json:"projects"`
	RawText    string   `json:"-"`
}

// Demo returns the fixed profile used when extraction is unavailable or fails.
func Demo() Profile {
	return Profile{
		Name:  "John Doe",
		Email: "john.doe@email.com",
		Phone: "+1 234 567 8900",
		Skills: []string{
			"JavaScript", "React", "Node.js", "Python", "SQL", "Git", "Agile",
		},
		Experience: []string{
			"Software Developer at Tech Company (2021-Present)",
			"Junior Developer at Startup Inc (2019-2021)",
		},
		Education: []string{
			"B.S. Computer Science, University (2019)",
		},
		Projects: []string{
			"E-commerce Platform - Full-stack application",
			"Task Management App - React & Node.js",
		},
		RawText: "Demo resume for testing purposes.",
	}
}

// LeadingSkills returns at most n skills from the front of the profile.
func (p Profile) LeadingSkills(n int) []string {
	if n <= 0 || len(p.Skills) == 0 {
		return nil
	}
	if len(p.Skills) < n {
		n = len(p.Skills)
	}
	out := make([]string, n)
	copy(out, p.Skills[:n])
	return out
}
