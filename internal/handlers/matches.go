package handlers

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/diligencias582/TRABAJAI/internal/metrics"
	"github.com/diligencias582/TRABAJAI/internal/models"
)

// GenerateMatches handles POST /api/matches/generate/{job_id}. Every
// candidate in the job's niche is scored; a scorer fallback still yields a
// stored match, so one flaky analysis cannot abort the batch.
func (h *Handler) GenerateMatches(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.uuidParam(w, r, "job_id")
	if !ok {
		return
	}

	job, err := h.db.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Error().Err(err).Msg("get job")
		h.Error(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "job not found")
		return
	}

	candidates, err := h.db.ListCandidatesByNiche(r.Context(), job.Niche)
	if err != nil {
		h.log.Error().Err(err).Msg("list candidates by niche")
		h.Error(w, http.StatusInternalServerError, "failed to load candidates")
		return
	}

	matches := make([]models.Match, 0, len(candidates))
	for i := range candidates {
		m := h.scorer.Score(r.Context(), &candidates[i], job)
		if err := h.db.InsertMatch(r.Context(), m); err != nil {
			h.log.Error().Err(err).
				Str("candidate_id", m.CandidateID.String()).
				Msg("insert match")
			continue
		}
		metrics.MatchesGenerated.Inc()
		matches = append(matches, *m)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].OverallScore > matches[j].OverallScore
	})

	h.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Generated %d matches", len(matches)),
		"matches": matches,
	})
}

// MatchesForJob handles GET /api/matches/job/{job_id}, best score first.
func (h *Handler) MatchesForJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.uuidParam(w, r, "job_id")
	if !ok {
		return
	}

	matches, err := h.db.ListMatchesForJob(r.Context(), jobID)
	if err != nil {
		h.log.Error().Err(err).Msg("list matches for job")
		h.Error(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	h.JSON(w, http.StatusOK, map[string]any{"matches": matches})
}

// MatchesForCandidate handles GET /api/matches/candidate/{candidate_id}.
func (h *Handler) MatchesForCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := h.uuidParam(w, r, "candidate_id")
	if !ok {
		return
	}

	matches, err := h.db.ListMatchesForCandidate(r.Context(), candidateID)
	if err != nil {
		h.log.Error().Err(err).Msg("list matches for candidate")
		h.Error(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	h.JSON(w, http.StatusOK, map[string]any{"matches": matches})
}
