package models

import (
	"time"

	"github.com/google/uuid"
)

// Match is an AI-scored pairing of a candidate and a job.
// All scores are bounded 0-100.
type Match struct {
	ID                uuid.UUID `json:"id"`
	CandidateID       uuid.UUID `json:"candidate_id"`
	JobID             uuid.UUID `json:"job_id"`
	OverallScore      float64   `json:"overall_score"`
	SkillsMatch       float64   `json:"skills_match"`
	CultureMatch      float64   `json:"culture_match"`
	SalaryMatch       float64   `json:"salary_match"`
	AIAnalysis        string    `json:"ai_analysis"`
	MatchReasons      []string  `json:"match_reasons"`
	GapsIdentified    []string  `json:"gaps_identified"`
	SuccessProjection float64   `json:"success_projection"`
	CreatedAt         time.Time `json:"created_at"`
}
