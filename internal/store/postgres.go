package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool
// and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_rooms (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		participants TEXT[] NOT NULL DEFAULT '{}',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_message TEXT NOT NULL DEFAULT '',
		last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		metadata JSONB NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS chat_participants (
		user_id TEXT NOT NULL,
		room_id UUID NOT NULL REFERENCES chat_rooms(id),
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		online BOOLEAN NOT NULL DEFAULT FALSE,
		typing BOOLEAN NOT NULL DEFAULT FALSE,
		role TEXT NOT NULL DEFAULT 'participant',
		PRIMARY KEY (user_id, room_id)
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		room_id UUID NOT NULL REFERENCES chat_rooms(id),
		sender_id TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		body TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'text',
		ts TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		edited BOOLEAN NOT NULL DEFAULT FALSE,
		reply_to TEXT NOT NULL DEFAULT '',
		attachments TEXT[] NOT NULL DEFAULT '{}',
		reactions JSONB NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS candidates (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		skills TEXT[] NOT NULL DEFAULT '{}',
		experience_level TEXT NOT NULL,
		salary_expectation DOUBLE PRECISION NOT NULL DEFAULT 0,
		location TEXT NOT NULL DEFAULT '',
		niche TEXT NOT NULL,
		bio TEXT NOT NULL DEFAULT '',
		soft_skills TEXT[] NOT NULL DEFAULT '{}',
		languages TEXT[] NOT NULL DEFAULT '{}',
		video_pitch_url TEXT NOT NULL DEFAULT '',
		culture_preferences TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		required_skills TEXT[] NOT NULL DEFAULT '{}',
		experience_level TEXT NOT NULL,
		salary_range_min DOUBLE PRECISION NOT NULL DEFAULT 0,
		salary_range_max DOUBLE PRECISION NOT NULL DEFAULT 0,
		location TEXT NOT NULL DEFAULT '',
		niche TEXT NOT NULL,
		company_culture TEXT[] NOT NULL DEFAULT '{}',
		benefits TEXT[] NOT NULL DEFAULT '{}',
		required_soft_skills TEXT[] NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS matches (
		id UUID PRIMARY KEY,
		candidate_id UUID NOT NULL,
		job_id UUID NOT NULL,
		overall_score DOUBLE PRECISION NOT NULL,
		skills_match DOUBLE PRECISION NOT NULL,
		culture_match DOUBLE PRECISION NOT NULL,
		salary_match DOUBLE PRECISION NOT NULL,
		ai_analysis TEXT NOT NULL DEFAULT '',
		match_reasons TEXT[] NOT NULL DEFAULT '{}',
		gaps_identified TEXT[] NOT NULL DEFAULT '{}',
		success_projection DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_chat_messages_room_seq ON chat_messages(room_id, seq DESC);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_ts ON chat_messages(ts);
	CREATE INDEX IF NOT EXISTS idx_chat_participants_user ON chat_participants(user_id);
	CREATE INDEX IF NOT EXISTS idx_chat_rooms_activity ON chat_rooms(last_activity);
	CREATE INDEX IF NOT EXISTS idx_candidates_niche ON candidates(niche);
	CREATE INDEX IF NOT EXISTS idx_jobs_niche ON jobs(niche);
	CREATE INDEX IF NOT EXISTS idx_matches_job ON matches(job_id);
	CREATE INDEX IF NOT EXISTS idx_matches_candidate ON matches(candidate_id);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateRoom inserts a room and upserts an offline participant record for
// every initial participant.
func (s *PostgresStore) CreateRoom(ctx context.Context, room *models.Room) error {
	metadata, err := json.Marshal(room.Metadata)
	if err != nil {
		return err
	}
	if room.Participants == nil {
		room.Participants = []string{}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO chat_rooms (id, name, kind, participants, created_by, created_at, last_message, last_activity, active, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, room.ID, room.Name, string(room.Kind), room.Participants, room.CreatedBy,
		room.CreatedAt, room.LastMessage, room.LastActivity, room.Active, metadata)
	if err != nil {
		return err
	}

	for _, userID := range room.Participants {
		p := &models.Participant{
			UserID:   userID,
			RoomID:   room.ID,
			JoinedAt: room.CreatedAt,
			LastSeen: room.CreatedAt,
			Online:   false,
			Role:     models.RoleParticipant,
		}
		if err := s.UpsertParticipant(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) scanRoom(row pgx.Row) (*models.Room, error) {
	room := &models.Room{}
	var kind string
	var metadata []byte
	err := row.Scan(
		&room.ID, &room.Name, &kind, &room.Participants, &room.CreatedBy,
		&room.CreatedAt, &room.LastMessage, &room.LastActivity, &room.Active, &metadata,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	room.Kind = models.RoomKind(kind)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &room.Metadata); err != nil {
			return nil, err
		}
	}
	return room, nil
}

// GetRoom retrieves a room by ID. Returns (nil, nil) when absent.
func (s *PostgresStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, kind, participants, created_by, created_at, last_message, last_activity, active, metadata
		FROM chat_rooms WHERE id = $1
	`, id)
	return s.scanRoom(row)
}

// ListRoomsForUser retrieves the active rooms the user belongs to,
// most recently active first.
func (s *PostgresStore) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.kind, r.participants, r.created_by, r.created_at, r.last_message, r.last_activity, r.active, r.metadata
		FROM chat_rooms r
		JOIN chat_participants p ON p.room_id = r.id
		WHERE p.user_id = $1 AND r.active = TRUE
		ORDER BY r.last_activity DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := s.scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

// UpdateRoomPreview sets the last-message preview and activity timestamp.
func (s *PostgresStore) UpdateRoomPreview(ctx context.Context, id uuid.UUID, preview string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE chat_rooms SET last_message = $2, last_activity = $3 WHERE id = $1
	`, id, preview, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedDefaultRooms creates the reserved general and support rooms if absent.
// Idempotent across restarts.
func (s *PostgresStore) SeedDefaultRooms(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_rooms (id, name, kind)
		VALUES
			($1, 'General', 'general'),
			($2, 'Support', 'support')
		ON CONFLICT (id) DO NOTHING
	`, models.GeneralRoomID, models.SupportRoomID)
	return err
}

// UpsertParticipant inserts or refreshes a (user, room) membership record
// and keeps the room's participant set in sync.
func (s *PostgresStore) UpsertParticipant(ctx context.Context, p *models.Participant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_participants (user_id, room_id, joined_at, last_seen, online, typing, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, room_id) DO UPDATE
		SET last_seen = EXCLUDED.last_seen, online = EXCLUDED.online
	`, p.UserID, p.RoomID, p.JoinedAt, p.LastSeen, p.Online, p.Typing, string(p.Role))
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE chat_rooms SET participants = array_append(participants, $2)
		WHERE id = $1 AND NOT participants @> ARRAY[$2]
	`, p.RoomID, p.UserID)
	return err
}

// RemoveParticipant deletes a membership record and removes the user from
// the room's participant set. No-op when the membership does not exist.
func (s *PostgresStore) RemoveParticipant(ctx context.Context, roomID uuid.UUID, userID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM chat_participants WHERE room_id = $1 AND user_id = $2
	`, roomID, userID)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE chat_rooms SET participants = array_remove(participants, $2) WHERE id = $1
	`, roomID, userID)
	return err
}

// ListParticipants retrieves all membership records for a room.
func (s *PostgresStore) ListParticipants(ctx context.Context, roomID uuid.UUID) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, room_id, joined_at, last_seen, online, typing, role
		FROM chat_participants WHERE room_id = $1
		ORDER BY joined_at
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		var role string
		if err := rows.Scan(&p.UserID, &p.RoomID, &p.JoinedAt, &p.LastSeen, &p.Online, &p.Typing, &role); err != nil {
			return nil, err
		}
		p.Role = models.Role(role)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ListUserRoomIDs retrieves the ids of every room the user holds a
// membership record in.
func (s *PostgresStore) ListUserRoomIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT room_id FROM chat_participants WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetPresence updates the online flag and last-seen timestamp for a
// (user, room) membership.
func (s *PostgresStore) SetPresence(ctx context.Context, roomID uuid.UUID, userID string, online bool, lastSeen time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE chat_participants SET online = $3, last_seen = $4
		WHERE room_id = $1 AND user_id = $2
	`, roomID, userID, online, lastSeen)
	return err
}

// AppendMessage durably inserts a message. Insertion order per room is
// preserved by the seq column.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	reactions, err := json.Marshal(msg.Reactions)
	if err != nil {
		return err
	}
	if msg.Attachments == nil {
		msg.Attachments = []string{}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, room_id, sender_id, sender_name, body, kind, ts, edited, reply_to, attachments, reactions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, msg.ID, msg.RoomID, msg.SenderID, msg.SenderName, msg.Body, string(msg.Kind),
		msg.Timestamp, msg.Edited, msg.ReplyTo, msg.Attachments, reactions)
	return err
}

func scanMessage(rows pgx.Rows) (*models.Message, error) {
	msg := &models.Message{}
	var kind string
	var reactions []byte
	err := rows.Scan(
		&msg.ID, &msg.RoomID, &msg.SenderID, &msg.SenderName, &msg.Body, &kind,
		&msg.Timestamp, &msg.Edited, &msg.ReplyTo, &msg.Attachments, &reactions,
	)
	if err != nil {
		return nil, err
	}
	msg.Kind = models.MessageKind(kind)
	msg.Reactions = map[string][]string{}
	if len(reactions) > 0 {
		if err := json.Unmarshal(reactions, &msg.Reactions); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// PageMessages returns up to limit messages for a room. The window is
// computed newest-first (offset 0 = most recent messages) and the result
// is returned in chronological order.
func (s *PostgresStore) PageMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, sender_id, sender_name, body, kind, ts, edited, reply_to, attachments, reactions
		FROM chat_messages
		WHERE room_id = $1
		ORDER BY seq DESC
		LIMIT $2 OFFSET $3
	`, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reverseMessages(msgs), nil
}

// GetMessage retrieves a message by ID. Returns (nil, nil) when absent.
func (s *PostgresStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, sender_id, sender_name, body, kind, ts, edited, reply_to, attachments, reactions
		FROM chat_messages WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanMessage(rows)
}

// UpdateReactions replaces the reaction mapping of a message.
func (s *PostgresStore) UpdateReactions(ctx context.Context, id string, reactions map[string][]string) error {
	data, err := json.Marshal(reactions)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE chat_messages SET reactions = $2 WHERE id = $1
	`, id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCandidate inserts a candidate profile.
func (s *PostgresStore) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO candidates (id, name, email, phone, skills, experience_level, salary_expectation,
			location, niche, bio, soft_skills, languages, video_pitch_url, culture_preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, c.ID, c.Name, c.Email, c.Phone, c.Skills, string(c.ExperienceLevel), c.SalaryExpectation,
		c.Location, string(c.Niche), c.Bio, c.SoftSkills, c.Languages, c.VideoPitchURL,
		c.CulturePreferences, c.CreatedAt, c.UpdatedAt)
	return err
}

func scanCandidate(rows pgx.Rows) (*models.Candidate, error) {
	c := &models.Candidate{}
	var level, niche string
	err := rows.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Skills, &level, &c.SalaryExpectation,
		&c.Location, &niche, &c.Bio, &c.SoftSkills, &c.Languages, &c.VideoPitchURL,
		&c.CulturePreferences, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ExperienceLevel = models.ExperienceLevel(level)
	c.Niche = models.Niche(niche)
	return c, nil
}

const candidateColumns = `id, name, email, phone, skills, experience_level, salary_expectation,
	location, niche, bio, soft_skills, languages, video_pitch_url, culture_preferences, created_at, updated_at`

// GetCandidate retrieves a candidate by ID. Returns (nil, nil) when absent.
func (s *PostgresStore) GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanCandidate(rows)
}

// ListCandidates retrieves all candidates.
func (s *PostgresStore) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	return s.queryCandidates(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY created_at DESC`)
}

// ListCandidatesByNiche retrieves candidates within a niche.
func (s *PostgresStore) ListCandidatesByNiche(ctx context.Context, niche models.Niche) ([]models.Candidate, error) {
	return s.queryCandidates(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE niche = $1`, string(niche))
}

func (s *PostgresStore) queryCandidates(ctx context.Context, query string, args ...any) ([]models.Candidate, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

const jobColumns = `id, title, company, description, required_skills, experience_level,
	salary_range_min, salary_range_max, location, niche, company_culture, benefits,
	required_soft_skills, status, created_at, updated_at`

// CreateJob inserts a job posting.
func (s *PostgresStore) CreateJob(ctx context.Context, j *models.Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (id, title, company, description, required_skills, experience_level,
			salary_range_min, salary_range_max, location, niche, company_culture, benefits,
			required_soft_skills, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, j.ID, j.Title, j.Company, j.Description, j.RequiredSkills, string(j.ExperienceLevel),
		j.SalaryRangeMin, j.SalaryRangeMax, j.Location, string(j.Niche), j.CompanyCulture,
		j.Benefits, j.RequiredSoftSkills, j.Status, j.CreatedAt, j.UpdatedAt)
	return err
}

func scanJob(rows pgx.Rows) (*models.Job, error) {
	j := &models.Job{}
	var level, niche string
	err := rows.Scan(
		&j.ID, &j.Title, &j.Company, &j.Description, &j.RequiredSkills, &level,
		&j.SalaryRangeMin, &j.SalaryRangeMax, &j.Location, &niche, &j.CompanyCulture,
		&j.Benefits, &j.RequiredSoftSkills, &j.Status, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.ExperienceLevel = models.ExperienceLevel(level)
	j.Niche = models.Niche(niche)
	return j, nil
}

// GetJob retrieves a job by ID. Returns (nil, nil) when absent.
func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanJob(rows)
}

// ListJobs retrieves all job postings.
func (s *PostgresStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

const matchColumns = `id, candidate_id, job_id, overall_score, skills_match, culture_match,
	salary_match, ai_analysis, match_reasons, gaps_identified, success_projection, created_at`

// InsertMatch persists a scored match.
func (s *PostgresStore) InsertMatch(ctx context.Context, m *models.Match) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (id, candidate_id, job_id, overall_score, skills_match, culture_match,
			salary_match, ai_analysis, match_reasons, gaps_identified, success_projection, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, m.ID, m.CandidateID, m.JobID, m.OverallScore, m.SkillsMatch, m.CultureMatch,
		m.SalaryMatch, m.AIAnalysis, m.MatchReasons, m.GapsIdentified, m.SuccessProjection, m.CreatedAt)
	return err
}

func (s *PostgresStore) queryMatches(ctx context.Context, query string, args ...any) ([]models.Match, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		err := rows.Scan(
			&m.ID, &m.CandidateID, &m.JobID, &m.OverallScore, &m.SkillsMatch, &m.CultureMatch,
			&m.SalaryMatch, &m.AIAnalysis, &m.MatchReasons, &m.GapsIdentified, &m.SuccessProjection, &m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListMatchesForJob retrieves a job's matches, best score first.
func (s *PostgresStore) ListMatchesForJob(ctx context.Context, jobID uuid.UUID) ([]models.Match, error) {
	return s.queryMatches(ctx, `SELECT `+matchColumns+` FROM matches WHERE job_id = $1 ORDER BY overall_score DESC`, jobID)
}

// ListMatchesForCandidate retrieves a candidate's matches, best score first.
func (s *PostgresStore) ListMatchesForCandidate(ctx context.Context, candidateID uuid.UUID) ([]models.Match, error) {
	return s.queryMatches(ctx, `SELECT `+matchColumns+` FROM matches WHERE candidate_id = $1 ORDER BY overall_score DESC`, candidateID)
}

// ChatAnalytics aggregates chat counters. OnlineUsers is left for the
// caller to fill from the connection hub.
func (s *PostgresStore) ChatAnalytics(ctx context.Context) (*models.ChatAnalytics, error) {
	a := &models.ChatAnalytics{RoomsByKind: map[string]int64{}}

	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_rooms WHERE active = TRUE`).Scan(&a.ActiveRooms)
	if err != nil {
		return nil, err
	}
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_messages`).Scan(&a.TotalMessages)
	if err != nil {
		return nil, err
	}
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_messages WHERE ts > NOW() - INTERVAL '24 hours'`).Scan(&a.Messages24h)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `SELECT kind, COUNT(*) FROM chat_rooms WHERE active = TRUE GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		a.RoomsByKind[kind] = count
	}
	return a, rows.Err()
}

// DashboardAnalytics aggregates recruiting metrics for the dashboard.
func (s *PostgresStore) DashboardAnalytics(ctx context.Context) (*models.DashboardAnalytics, error) {
	d := &models.DashboardAnalytics{NicheDistribution: map[string]models.NicheStats{}}

	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&d.TotalCandidates)
	if err != nil {
		return nil, err
	}
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&d.TotalJobs)
	if err != nil {
		return nil, err
	}
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(AVG(overall_score), 0) FROM matches`).Scan(&d.TotalMatches, &d.AvgMatchScore)
	if err != nil {
		return nil, err
	}

	top, err := s.queryMatches(ctx, `SELECT `+matchColumns+` FROM matches ORDER BY overall_score DESC LIMIT 10`)
	if err != nil {
		return nil, err
	}
	d.TopMatches = top

	for _, niche := range models.Niches {
		stats := models.NicheStats{}
		err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates WHERE niche = $1`, string(niche)).Scan(&stats.Candidates)
		if err != nil {
			return nil, err
		}
		err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE niche = $1`, string(niche)).Scan(&stats.Jobs)
		if err != nil {
			return nil, err
		}
		d.NicheDistribution[string(niche)] = stats
	}
	return d, nil
}
