package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is an open position posted by an employer.
type Job struct {
	ID                 uuid.UUID       `json:"id"`
	Title              string          `json:"title"`
	Company            string          `json:"company"`
	Description        string          `json:"description"`
	RequiredSkills     []string        `json:"required_skills"`
	ExperienceLevel    ExperienceLevel `json:"experience_level"`
	SalaryRangeMin     float64         `json:"salary_range_min"`
	SalaryRangeMax     float64         `json:"salary_range_max"`
	Location           string          `json:"location"`
	Niche              Niche           `json:"niche"`
	CompanyCulture     []string        `json:"company_culture"`
	Benefits           []string        `json:"benefits"`
	RequiredSoftSkills []string        `json:"required_soft_skills"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
