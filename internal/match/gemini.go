package match

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

const geminiTimeout = 30 * time.Second

// GeminiScorer scores pairings through the Gemini generateContent API.
// Any failure along the way (transport, HTTP status, malformed JSON) falls
// back to the static match rather than failing the batch.
type GeminiScorer struct {
	log    zerolog.Logger
	client *http.Client
	apiURL string
	apiKey string
}

// NewGeminiScorer creates a scorer against the given endpoint.
func NewGeminiScorer(logger zerolog.Logger, apiURL, apiKey string) *GeminiScorer {
	return &GeminiScorer{
		log:    logger.With().Str("component", "gemini").Logger(),
		client: &http.Client{Timeout: geminiTimeout},
		apiURL: apiURL,
		apiKey: apiKey,
	}
}

// generateContent request/response shapes, reduced to the fields used.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// scorePayload is the JSON document the model is asked to produce.
type scorePayload struct {
	SkillsMatch       float64  `json:"skills_match"`
	CultureMatch      float64  `json:"culture_match"`
	SalaryMatch       float64  `json:"salary_match"`
	SuccessProjection float64  `json:"success_projection"`
	OverallScore      float64  `json:"overall_score"`
	MatchReasons      []string `json:"match_reasons"`
	GapsIdentified    []string `json:"gaps_identified"`
	AIAnalysis        string   `json:"ai_analysis"`
}

// Score analyzes one candidate-job pair. Never returns nil.
func (s *GeminiScorer) Score(ctx context.Context, c *models.Candidate, j *models.Job) *models.Match {
	payload, err := s.analyze(ctx, c, j)
	if err != nil {
		s.log.Warn().Err(err).
			Str("candidate_id", c.ID.String()).
			Str("job_id", j.ID.String()).
			Msg("AI analysis failed, using fallback scoring")
		return fallbackMatch(c, j)
	}

	return &models.Match{
		ID:                uuid.New(),
		CandidateID:       c.ID,
		JobID:             j.ID,
		OverallScore:      payload.OverallScore,
		SkillsMatch:       payload.SkillsMatch,
		CultureMatch:      payload.CultureMatch,
		SalaryMatch:       payload.SalaryMatch,
		AIAnalysis:        payload.AIAnalysis,
		MatchReasons:      payload.MatchReasons,
		GapsIdentified:    payload.GapsIdentified,
		SuccessProjection: payload.SuccessProjection,
		CreatedAt:         time.Now(),
	}
}

func (s *GeminiScorer) analyze(ctx context.Context, c *models.Candidate, j *models.Job) (*scorePayload, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: buildPrompt(c, j)}}}},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: unexpected status %d", resp.StatusCode)
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, err
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty response")
	}

	text := stripFences(gr.Candidates[0].Content.Parts[0].Text)

	var payload scorePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("gemini: malformed score payload: %w", err)
	}
	return &payload, nil
}

// stripFences removes a surrounding markdown code fence, which the model
// emits despite being asked for bare JSON.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func buildPrompt(c *models.Candidate, j *models.Job) string {
	var b strings.Builder
	b.WriteString("Analyze this candidate-job match for a recruitment platform. Provide detailed scoring and insights:\n\n")

	b.WriteString("CANDIDATE:\n")
	fmt.Fprintf(&b, "- Name: %s\n", c.Name)
	fmt.Fprintf(&b, "- Skills: %s\n", strings.Join(c.Skills, ", "))
	fmt.Fprintf(&b, "- Soft Skills: %s\n", strings.Join(c.SoftSkills, ", "))
	fmt.Fprintf(&b, "- Experience: %s\n", c.ExperienceLevel)
	fmt.Fprintf(&b, "- Salary Expectation: $%.2f\n", c.SalaryExpectation)
	fmt.Fprintf(&b, "- Bio: %s\n", c.Bio)
	fmt.Fprintf(&b, "- Culture Preferences: %s\n\n", strings.Join(c.CulturePreferences, ", "))

	b.WriteString("JOB:\n")
	fmt.Fprintf(&b, "- Title: %s\n", j.Title)
	fmt.Fprintf(&b, "- Company: %s\n", j.Company)
	fmt.Fprintf(&b, "- Required Skills: %s\n", strings.Join(j.RequiredSkills, ", "))
	fmt.Fprintf(&b, "- Required Soft Skills: %s\n", strings.Join(j.RequiredSoftSkills, ", "))
	fmt.Fprintf(&b, "- Experience Level: %s\n", j.ExperienceLevel)
	fmt.Fprintf(&b, "- Salary Range: $%.2f - $%.2f\n", j.SalaryRangeMin, j.SalaryRangeMax)
	fmt.Fprintf(&b, "- Company Culture: %s\n", strings.Join(j.CompanyCulture, ", "))
	fmt.Fprintf(&b, "- Description: %s\n\n", j.Description)

	b.WriteString(`Analyze and provide scores (0-100) for:
1. SKILLS_MATCH: Technical/hard skills alignment
2. CULTURE_MATCH: Cultural fit and soft skills
3. SALARY_MATCH: Salary expectation vs offer alignment
4. SUCCESS_PROJECTION: Likelihood of success in role

Also provide:
- OVERALL_SCORE: Weighted average (40% skills, 30% culture, 20% salary, 10% success projection)
- MATCH_REASONS: Top 3 reasons why this is a good match
- GAPS_IDENTIFIED: Areas where candidate needs improvement
- AI_ANALYSIS: Detailed paragraph analysis

Respond in JSON format:
{
    "skills_match": 0-100,
    "culture_match": 0-100,
    "salary_match": 0-100,
    "success_projection": 0-100,
    "overall_score": 0-100,
    "match_reasons": ["reason1", "reason2", "reason3"],
    "gaps_identified": ["gap1", "gap2"],
    "ai_analysis": "detailed analysis paragraph"
}`)

	return b.String()
}
