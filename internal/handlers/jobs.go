package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

// CreateJobRequest represents the job creation request.
type CreateJobRequest struct {
	Title              string   `json:"title"`
	Company            string   `json:"company"`
	Description        string   `json:"description"`
	RequiredSkills     []string `json:"required_skills"`
	ExperienceLevel    string   `json:"experience_level"`
	SalaryRangeMin     float64  `json:"salary_range_min"`
	SalaryRangeMax     float64  `json:"salary_range_max"`
	Location           string   `json:"location"`
	Niche              string   `json:"niche"`
	CompanyCulture     []string `json:"company_culture"`
	Benefits           []string `json:"benefits"`
	RequiredSoftSkills []string `json:"required_soft_skills"`
}

// CreateJob handles POST /api/jobs.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		h.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if strings.TrimSpace(req.Company) == "" {
		h.Error(w, http.StatusBadRequest, "company is required")
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
	if req.SalaryRangeMax < req.SalaryRangeMin {
		h.Error(w, http.StatusBadRequest, "salary_range_max must be >= salary_range_min")
		return
	}

	now := time.Now()
	j := &models.Job{
		ID:                 uuid.New(),
		Title:              req.Title,
		Company:            req.Company,
		Description:        req.Description,
		RequiredSkills:     emptyIfNil(req.RequiredSkills),
		ExperienceLevel:    models.ExperienceLevel(req.ExperienceLevel),
		SalaryRangeMin:     req.SalaryRangeMin,
		SalaryRangeMax:     req.SalaryRangeMax,
		Location:           req.Location,
		Niche:              models.Niche(req.Niche),
		CompanyCulture:     emptyIfNil(req.CompanyCulture),
		Benefits:           emptyIfNil(req.Benefits),
		RequiredSoftSkills: emptyIfNil(req.RequiredSoftSkills),
		Status:             "active",
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := h.db.CreateJob(r.Context(), j); err != nil {
		h.log.Error().Err(err).Msg("create job")
		h.Error(w, http.StatusInternalServerError, "failed to create job")
		return
	}
	h.JSON(w, http.StatusCreated, j)
}

// ListJobs handles GET /api/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.db.ListJobs(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list jobs")
		h.Error(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	h.JSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// GetJob handles GET /api/jobs/{id}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}

	j, err := h.db.GetJob(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Msg("get job")
		h.Error(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if j == nil {
		h.Error(w, http.StatusNotFound, "job not found")
		return
	}
	h.JSON(w, http.StatusOK, j)
}
