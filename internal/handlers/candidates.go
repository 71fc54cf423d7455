package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

// CreateCandidateRequest represents the candidate creation request.
type CreateCandidateRequest struct {
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	Skills             []string `json:"skills"`
	ExperienceLevel    string   `json:"experience_level"`
	SalaryExpectation  float64  `json:"salary_expectation"`
	Location           string   `json:"location"`
	Niche              string   `json:"niche"`
	Bio                string   `json:"bio"`
	SoftSkills         []string `json:"soft_skills"`
	Languages          []string `json:"languages"`
	VideoPitchURL      string   `json:"video_pitch_url"`
	CulturePreferences []string `json:"culture_preferences"`
}

// CreateCandidate handles POST /api/candidates.
func (h *Handler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req CreateCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if !models.Niche(req.Niche).Valid() {
		h.Error(w, http.StatusBadRequest, "unknown niche")
		return
	}
	if !models.ExperienceLevel(req.ExperienceLevel).Valid() {
		h.Error(w, http.StatusBadRequest, "unknown experience_level")
		return
	}

	now := time.Now()
	c := &models.Candidate{
		ID:                 uuid.New(),
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Skills:             emptyIfNil(req.Skills),
		ExperienceLevel:    models.ExperienceLevel(req.ExperienceLevel),
		SalaryExpectation:  req.SalaryExpectation,
		Location:           req.Location,
		Niche:              models.Niche(req.Niche),
		Bio:                req.Bio,
		SoftSkills:         emptyIfNil(req.SoftSkills),
		Languages:          emptyIfNil(req.Languages),
		VideoPitchURL:      req.VideoPitchURL,
		CulturePreferences: emptyIfNil(req.CulturePreferences),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := h.db.CreateCandidate(r.Context(), c); err != nil {
		h.log.Error().Err(err).Msg("create candidate")
		h.Error(w, http.StatusInternalServerError, "failed to create candidate")
		return
	}
	h.JSON(w, http.StatusCreated, c)
}

// ListCandidates handles GET /api/candidates.
func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.db.ListCandidates(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list candidates")
		h.Error(w, http.StatusInternalServerError, "failed to list candidates")
		return
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	h.JSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

// GetCandidate handles GET /api/candidates/{id}.
func (h *Handler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}

	c, err := h.db.GetCandidate(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Msg("get candidate")
		h.Error(w, http.StatusInternalServerError, "failed to load candidate")
		return
	}
	if c == nil {
		h.Error(w, http.StatusNotFound, "candidate not found")
		return
	}
	h.JSON(w, http.StatusOK, c)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
