// Package match scores candidate-job pairings, using the Gemini API when
// configured and a static fallback otherwise.
package match

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/diligencias582/TRABAJAI/internal/metrics"
	"github.com/diligencias582/TRABAJAI/internal/models"
)

// Scorer produces a match for a candidate-job pair. Implementations never
// fail outright: when analysis is unavailable they return the fallback
// match so batch generation keeps going.
type Scorer interface {
	Score(ctx context.Context, c *models.Candidate, j *models.Job) *models.Match
}

// fallbackMatch is the static result used when AI analysis is unavailable.
func fallbackMatch(c *models.Candidate, j *models.Job) *models.Match {
	metrics.MatchFallbacks.Inc()
	return &models.Match{
		ID:                uuid.New(),
		CandidateID:       c.ID,
		JobID:             j.ID,
		OverallScore:      50.0,
		SkillsMatch:       50.0,
		CultureMatch:      50.0,
		SalaryMatch:       50.0,
		AIAnalysis:        "Basic analysis due to AI service unavailability",
		MatchReasons:      []string{"Skills alignment", "Experience level match"},
		GapsIdentified:    []string{"AI analysis pending"},
		SuccessProjection: 50.0,
		CreatedAt:         time.Now(),
	}
}
