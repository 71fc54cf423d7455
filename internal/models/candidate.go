package models

import (
	"time"

	"github.com/google/uuid"
)

// Niche is a job market segment.
type Niche string

const (
	NicheTech       Niche = "tech"
	NicheCreative   Niche = "creative"
	NicheHealth     Niche = "health"
	NicheFinance    Niche = "finance"
	NicheMarketing  Niche = "marketing"
	NicheSales      Niche = "sales"
	NicheOperations Niche = "operations"
	NicheEducation  Niche = "education"
)

// Niches lists every supported niche.
var Niches = []Niche{
	NicheTech, NicheCreative, NicheHealth, NicheFinance,
	NicheMarketing, NicheSales, NicheOperations, NicheEducation,
}

// Valid reports whether n is a known niche.
func (n Niche) Valid() bool {
	for _, niche := range Niches {
		if n == niche {
			return true
		}
	}
	return false
}

// ExperienceLevel is a candidate's or job's seniority band.
type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "entry"
	ExperienceJunior    ExperienceLevel = "junior"
	ExperienceMiddle    ExperienceLevel = "middle"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceLead      ExperienceLevel = "lead"
	ExperienceExecutive ExperienceLevel = "executive"
)

// Valid reports whether e is a known experience level.
func (e ExperienceLevel) Valid() bool {
	switch e {
	case ExperienceEntry, ExperienceJunior, ExperienceMiddle,
		ExperienceSenior, ExperienceLead, ExperienceExecutive:
		return true
	}
	return false
}

// Candidate is a job seeker profile.
type Candidate struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone"`
	Skills             []string        `json:"skills"`
	ExperienceLevel    ExperienceLevel `json:"experience_level"`
	SalaryExpectation  float64         `json:"salary_expectation"`
	Location           string          `json:"location"`
	Niche              Niche           `json:"niche"`
	Bio                string          `json:"bio"`
	SoftSkills         []string        `json:"soft_skills"`
	Languages          []string        `json:"languages"`
	VideoPitchURL      string          `json:"video_pitch_url,omitempty"`
	CulturePreferences []string        `json:"culture_preferences"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
