// Package resume holds the structured résumé of an applicant and the analysis derived from it.
package resume

import (
	"fmt"
	"strings"
)

// Person is the contact block of a résumé.
type Person struct {
	Name              string  `json:"name"`
	Email             *string `json:"email"`
	Phone             *string `json:"phone"`
	Title             string  `json:"title"`
	YearsOfExperience float64 `json:"years_of_experience"`
}

type Skill struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Completeness tracks which STAR elements of a project are filled in.
type Completeness struct {
	Situation bool    `json:"situation"`
	Task      bool    `json:"task"`
	Actions   bool    `json:"actions"`
	Results   bool    `json:"results"`
	Score     float64 `json:"score"`
}

type Project struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Company      *string      `json:"company"`
	Period       string       `json:"period"`
	Role         *string      `json:"role"`
	Situation    *string      `json:"situation"`
	Task         *string      `json:"task"`
	Actions      []string     `json:"actions"`
	Results      []string     `json:"results"`
	TechStack    []string     `json:"tech_stack"`
	Completeness Completeness `json:"is_complete"`
}

type Career struct {
	Company     string  `json:"company"`
	Position    string  `json:"position"`
	Duration    string  `json:"duration"`
	Description *string `json:"description"`
}

type Education struct {
	Institution string   `json:"institution"`
	Degree      string   `json:"degree"`
	Major       string   `json:"major"`
	Duration    string   `json:"duration"`
	GPA         *float64 `json:"gpa"`
}

// Resume is the structured résumé of one applicant.
type Resume struct {
	Person    *Person     `json:"person"`
	Skills    []Skill     `json:"skills"`
	Projects  []Project   `json:"projects"`
	Career    []Career    `json:"career"`
	Education []Education `json:"education"`
}

// Canonical renders the résumé in the stable indented JSON form used inside prompts and storage.
func (r *Resume) Canonical() (string, error) {
	if r == nil {
		return "", fmt.Errorf("resume is nil")
	}

	data, err := encodeJSON(r, "  ")
	if err != nil {
		return "", fmt.Errorf("marshal resume: %w", err)
	}

	return string(data), nil
}

// Recompute derives the STAR flags from the project fields and sets the score to 0.25 per present element.
func (c *Completeness) Recompute(p *Project) {
	c.Situation = nonEmpty(p.Situation)
	c.Task = nonEmpty(p.Task)
	c.Actions = hasItems(p.Actions)
	c.Results = hasItems(p.Results)

	score := 0.0
	for _, ok := range []bool{c.Situation, c.Task, c.Actions, c.Results} {
		if ok {
			score += 0.25
		}
	}
	c.Score = score
}

// Missing lists the STAR elements that are not filled in yet, in STAR order.
func (c Completeness) Missing() []string {
	var missing []string
	for _, el := range []struct {
		name string
		ok   bool
	}{
		{"situation", c.Situation},
		{"task", c.Task},
		{"actions", c.Actions},
		{"results", c.Results},
	} {
		if !el.ok {
			missing = append(missing, el.name)
		}
	}
	return missing
}

// Normalize collapses duplicate skills and recomputes project completeness in place.
func (r *Resume) Normalize() {
	if r == nil {
		return
	}

	seen := make(map[string]struct{}, len(r.Skills))
	skills := make([]Skill, 0, len(r.Skills))
	for _, s := range r.Skills {
		s.Name = strings.TrimSpace(s.Name)
		s.Category = strings.TrimSpace(s.Category)
		key := strings.ToLower(s.Name) + "\x00" + strings.ToLower(s.Category)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, s)
	}
	r.Skills = skills

	for i := range r.Projects {
		p := &r.Projects[i]
		p.Completeness.Recompute(p)
	}
}

// ProjectByID returns the project with the given id, or nil.
func (r *Resume) ProjectByID(id string) *Project {
	if r == nil {
		return nil
	}
	for i := range r.Projects {
		if r.Projects[i].ID == id {
			return &r.Projects[i]
		}
	}
	return nil
}

// CompletenessScore averages project completeness; a résumé without projects scores 0.
func (r *Resume) CompletenessScore() float64 {
	if r == nil || len(r.Projects) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range r.Projects {
		total += p.Completeness.Score
	}
	return total / float64(len(r.Projects))
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func hasItems(items []string) bool {
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			return true
		}
	}
	return false
}
