package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the development
// fallback when no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/trabajai.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/trabajai.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist. List and map columns are
// stored as JSON text.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		participants TEXT NOT NULL DEFAULT '[]',
		created_by TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_message TEXT NOT NULL DEFAULT '',
		last_activity DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		active INTEGER NOT NULL DEFAULT 1,
		metadata TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS chat_participants (
		user_id TEXT NOT NULL,
		room_id TEXT NOT NULL,
		joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		online INTEGER NOT NULL DEFAULT 0,
		typing INTEGER NOT NULL DEFAULT 0,
		role TEXT NOT NULL DEFAULT 'participant',
		PRIMARY KEY (user_id, room_id)
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		room_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		body TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'text',
		ts DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		edited INTEGER NOT NULL DEFAULT 0,
		reply_to TEXT NOT NULL DEFAULT '',
		attachments TEXT NOT NULL DEFAULT '[]',
		reactions TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS candidates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		skills TEXT NOT NULL DEFAULT '[]',
		experience_level TEXT NOT NULL,
		salary_expectation REAL NOT NULL DEFAULT 0,
		location TEXT NOT NULL DEFAULT '',
		niche TEXT NOT NULL,
		bio TEXT NOT NULL DEFAULT '',
		soft_skills TEXT NOT NULL DEFAULT '[]',
		languages TEXT NOT NULL DEFAULT '[]',
		video_pitch_url TEXT NOT NULL DEFAULT '',
		culture_preferences TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		required_skills TEXT NOT NULL DEFAULT '[]',
		experience_level TEXT NOT NULL,
		salary_range_min REAL NOT NULL DEFAULT 0,
		salary_range_max REAL NOT NULL DEFAULT 0,
		location TEXT NOT NULL DEFAULT '',
		niche TEXT NOT NULL,
		company_culture TEXT NOT NULL DEFAULT '[]',
		benefits TEXT NOT NULL DEFAULT '[]',
		required_soft_skills TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL,
		job_id TEXT NOT NULL,
		overall_score REAL NOT NULL,
		skills_match REAL NOT NULL,
		culture_match REAL NOT NULL,
		salary_match REAL NOT NULL,
		ai_analysis TEXT NOT NULL DEFAULT '',
		match_reasons TEXT NOT NULL DEFAULT '[]',
		gaps_identified TEXT NOT NULL DEFAULT '[]',
		success_projection REAL NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages(room_id, seq);
	CREATE INDEX IF NOT EXISTS idx_chat_participants_user ON chat_participants(user_id);
	CREATE INDEX IF NOT EXISTS idx_candidates_niche ON candidates(niche);
	CREATE INDEX IF NOT EXISTS idx_jobs_niche ON jobs(niche);
	CREATE INDEX IF NOT EXISTS idx_matches_job ON matches(job_id);
	CREATE INDEX IF NOT EXISTS idx_matches_candidate ON matches(candidate_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func encodeJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func decodeStrings(data string) []string {
	var out []string
	if data != "" {
		_ = json.Unmarshal([]byte(data), &out)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// CreateRoom inserts a room and upserts an offline participant record for
// every initial participant.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *models.Room) error {
	if room.Participants == nil {
		room.Participants = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_rooms (id, name, kind, participants, created_by, created_at, last_message, last_activity, active, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, room.ID.String(), room.Name, string(room.Kind), encodeJSON(room.Participants), room.CreatedBy,
		room.CreatedAt, room.LastMessage, room.LastActivity, room.Active, encodeJSON(room.Metadata))
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

func scanRoomSQLite(row interface{ Scan(...any) error }) (*models.Room, error) {
	room := &models.Room{}
	var id, kind, participants, metadata string
	err := row.Scan(
		&id, &room.Name, &kind, &participants, &room.CreatedBy,
		&room.CreatedAt, &room.LastMessage, &room.LastActivity, &room.Active, &metadata,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	room.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	room.Kind = models.RoomKind(kind)
	room.Participants = decodeStrings(participants)
	if metadata != "" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &room.Metadata); err != nil {
			return nil, err
		}
	}
	return room, nil
}

// GetRoom retrieves a room by ID. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, participants, created_by, created_at, last_message, last_activity, active, metadata
		FROM chat_rooms WHERE id = ?
	`, id.String())
	return scanRoomSQLite(row)
}

// ListRoomsForUser retrieves the active rooms the user belongs to,
// most recently active first.
func (s *SQLiteStore) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.kind, r.participants, r.created_by, r.created_at, r.last_message, r.last_activity, r.active, r.metadata
		FROM chat_rooms r
		JOIN chat_participants p ON p.room_id = r.id
		WHERE p.user_id = ? AND r.active = 1
		ORDER BY r.last_activity DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := scanRoomSQLite(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

// UpdateRoomPreview sets the last-message preview and activity timestamp.
func (s *SQLiteStore) UpdateRoomPreview(ctx context.Context, id uuid.UUID, preview string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chat_rooms SET last_message = ?, last_activity = ? WHERE id = ?
	`, preview, at, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedDefaultRooms creates the reserved general and support rooms if absent.
// Idempotent across restarts.
func (s *SQLiteStore) SeedDefaultRooms(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO chat_rooms (id, name, kind) VALUES
			(?, 'General', 'general'),
			(?, 'Support', 'support')
	`, models.GeneralRoomID.String(), models.SupportRoomID.String())
	return err
}

// UpsertParticipant inserts or refreshes a (user, room) membership record
// and keeps the room's participant set in sync.
func (s *SQLiteStore) UpsertParticipant(ctx context.Context, p *models.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_participants (user_id, room_id, joined_at, last_seen, online, typing, role)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, room_id) DO UPDATE
		SET last_seen = excluded.last_seen, online = excluded.online
	`, p.UserID, p.RoomID.String(), p.JoinedAt, p.LastSeen, p.Online, p.Typing, string(p.Role))
	if err != nil {
		return err
	}
	return s.syncRoomParticipants(ctx, p.RoomID, p.UserID, true)
}

// RemoveParticipant deletes a membership record and removes the user from
// the room's participant set. No-op when the membership does not exist.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, roomID uuid.UUID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM chat_participants WHERE room_id = ? AND user_id = ?
	`, roomID.String(), userID)
	if err != nil {
		return err
	}
	return s.syncRoomParticipants(ctx, roomID, userID, false)
}

// syncRoomParticipants adds or removes a user in the room's participant set.
// SQLite has no array type, so this is a read-modify-write on the JSON column.
func (s *SQLiteStore) syncRoomParticipants(ctx context.Context, roomID uuid.UUID, userID string, add bool) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT participants FROM chat_rooms WHERE id = ?`, roomID.String()).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	participants := decodeStrings(raw)
	updated := make([]string, 0, len(participants)+1)
	found := false
	for _, id := range participants {
		if id == userID {
			found = true
			if !add {
				continue
			}
		}
		updated = append(updated, id)
	}
	if add && !found {
		updated = append(updated, userID)
	}
	if add == found {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `UPDATE chat_rooms SET participants = ? WHERE id = ?`,
		encodeJSON(updated), roomID.String())
	return err
}

// ListParticipants retrieves all membership records for a room.
func (s *SQLiteStore) ListParticipants(ctx context.Context, roomID uuid.UUID) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, room_id, joined_at, last_seen, online, typing, role
		FROM chat_participants WHERE room_id = ?
		ORDER BY joined_at
	`, roomID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		var id, role string
		if err := rows.Scan(&p.UserID, &id, &p.JoinedAt, &p.LastSeen, &p.Online, &p.Typing, &role); err != nil {
			return nil, err
		}
		p.RoomID, err = uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		p.Role = models.Role(role)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ListUserRoomIDs retrieves the ids of every room the user holds a
// membership record in.
func (s *SQLiteStore) ListUserRoomIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT room_id FROM chat_participants WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetPresence updates the online flag and last-seen timestamp for a
// (user, room) membership.
func (s *SQLiteStore) SetPresence(ctx context.Context, roomID uuid.UUID, userID string, online bool, lastSeen time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chat_participants SET online = ?, last_seen = ?
		WHERE room_id = ? AND user_id = ?
	`, online, lastSeen, roomID.String(), userID)
	return err
}

// AppendMessage durably inserts a message. Insertion order per room is
// preserved by the seq column.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.Attachments == nil {
		msg.Attachments = []string{}
	}
	if msg.Reactions == nil {
		msg.Reactions = map[string][]string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, room_id, sender_id, sender_name, body, kind, ts, edited, reply_to, attachments, reactions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.RoomID.String(), msg.SenderID, msg.SenderName, msg.Body, string(msg.Kind),
		msg.Timestamp, msg.Edited, msg.ReplyTo, encodeJSON(msg.Attachments), encodeJSON(msg.Reactions))
	return err
}

func scanMessageSQLite(row interface{ Scan(...any) error }) (*models.Message, error) {
	msg := &models.Message{}
	var roomID, kind, attachments, reactions string
	err := row.Scan(
		&msg.ID, &roomID, &msg.SenderID, &msg.SenderName, &msg.Body, &kind,
		&msg.Timestamp, &msg.Edited, &msg.ReplyTo, &attachments, &reactions,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	msg.RoomID, err = uuid.Parse(roomID)
	if err != nil {
		return nil, err
	}
	msg.Kind = models.MessageKind(kind)
	msg.Attachments = decodeStrings(attachments)
	msg.Reactions = map[string][]string{}
	if reactions != "" && reactions != "null" {
		if err := json.Unmarshal([]byte(reactions), &msg.Reactions); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// PageMessages returns up to limit messages for a room. The window is
// computed newest-first (offset 0 = most recent messages) and the result
// is returned in chronological order.
func (s *SQLiteStore) PageMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, sender_id, sender_name, body, kind, ts, edited, reply_to, attachments, reactions
		FROM chat_messages
		WHERE room_id = ?
		ORDER BY seq DESC
		LIMIT ? OFFSET ?
	`, roomID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		msg, err := scanMessageSQLite(rows)
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
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, room_id, sender_id, sender_name, body, kind, ts, edited, reply_to, attachments, reactions
		FROM chat_messages WHERE id = ?
	`, id)
	return scanMessageSQLite(row)
}

// UpdateReactions replaces the reaction mapping of a message.
func (s *SQLiteStore) UpdateReactions(ctx context.Context, id string, reactions map[string][]string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chat_messages SET reactions = ? WHERE id = ?
	`, encodeJSON(reactions), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCandidate inserts a candidate profile.
func (s *SQLiteStore) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO candidates (id, name, email, phone, skills, experience_level, salary_expectation,
			location, niche, bio, soft_skills, languages, video_pitch_url, culture_preferences, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID.String(), c.Name, c.Email, c.Phone, encodeJSON(c.Skills), string(c.ExperienceLevel),
		c.SalaryExpectation, c.Location, string(c.Niche), c.Bio, encodeJSON(c.SoftSkills),
		encodeJSON(c.Languages), c.VideoPitchURL, encodeJSON(c.CulturePreferences), c.CreatedAt, c.UpdatedAt)
	return err
}

func scanCandidateSQLite(row interface{ Scan(...any) error }) (*models.Candidate, error) {
	c := &models.Candidate{}
	var id, skills, level, niche, softSkills, languages, culture string
	err := row.Scan(
		&id, &c.Name, &c.Email, &c.Phone, &skills, &level, &c.SalaryExpectation,
		&c.Location, &niche, &c.Bio, &softSkills, &languages, &c.VideoPitchURL,
		&culture, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	c.Skills = decodeStrings(skills)
	c.ExperienceLevel = models.ExperienceLevel(level)
	c.Niche = models.Niche(niche)
	c.SoftSkills = decodeStrings(softSkills)
	c.Languages = decodeStrings(languages)
	c.CulturePreferences = decodeStrings(culture)
	return c, nil
}

// GetCandidate retrieves a candidate by ID. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id.String())
	return scanCandidateSQLite(row)
}

// ListCandidates retrieves all candidates.
func (s *SQLiteStore) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	return s.queryCandidates(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY created_at DESC`)
}

// ListCandidatesByNiche retrieves candidates within a niche.
func (s *SQLiteStore) ListCandidatesByNiche(ctx context.Context, niche models.Niche) ([]models.Candidate, error) {
	return s.queryCandidates(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE niche = ?`, string(niche))
}

func (s *SQLiteStore) queryCandidates(ctx context.Context, query string, args ...any) ([]models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		c, err := scanCandidateSQLite(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

// CreateJob inserts a job posting.
func (s *SQLiteStore) CreateJob(ctx context.Context, j *models.Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, title, company, description, required_skills, experience_level,
			salary_range_min, salary_range_max, location, niche, company_culture, benefits,
			required_soft_skills, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID.String(), j.Title, j.Company, j.Description, encodeJSON(j.RequiredSkills),
		string(j.ExperienceLevel), j.SalaryRangeMin, j.SalaryRangeMax, j.Location, string(j.Niche),
		encodeJSON(j.CompanyCulture), encodeJSON(j.Benefits), encodeJSON(j.RequiredSoftSkills),
		j.Status, j.CreatedAt, j.UpdatedAt)
	return err
}

func scanJobSQLite(row interface{ Scan(...any) error }) (*models.Job, error) {
	j := &models.Job{}
	var id, skills, level, niche, culture, benefits, softSkills string
	err := row.Scan(
		&id, &j.Title, &j.Company, &j.Description, &skills, &level,
		&j.SalaryRangeMin, &j.SalaryRangeMax, &j.Location, &niche, &culture,
		&benefits, &softSkills, &j.Status, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	j.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	j.RequiredSkills = decodeStrings(skills)
	j.ExperienceLevel = models.ExperienceLevel(level)
	j.Niche = models.Niche(niche)
	j.CompanyCulture = decodeStrings(culture)
	j.Benefits = decodeStrings(benefits)
	j.RequiredSoftSkills = decodeStrings(softSkills)
	return j, nil
}

// GetJob retrieves a job by ID. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id.String())
	return scanJobSQLite(row)
}

// ListJobs retrieves all job postings.
func (s *SQLiteStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		j, err := scanJobSQLite(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// InsertMatch persists a scored match.
func (s *SQLiteStore) InsertMatch(ctx context.Context, m *models.Match) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (id, candidate_id, job_id, overall_score, skills_match, culture_match,
			salary_match, ai_analysis, match_reasons, gaps_identified, success_projection, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID.String(), m.CandidateID.String(), m.JobID.String(), m.OverallScore, m.SkillsMatch,
		m.CultureMatch, m.SalaryMatch, m.AIAnalysis, encodeJSON(m.MatchReasons),
		encodeJSON(m.GapsIdentified), m.SuccessProjection, m.CreatedAt)
	return err
}

func (s *SQLiteStore) queryMatches(ctx context.Context, query string, args ...any) ([]models.Match, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		var id, candidateID, jobID, reasons, gaps string
		err := rows.Scan(
			&id, &candidateID, &jobID, &m.OverallScore, &m.SkillsMatch, &m.CultureMatch,
			&m.SalaryMatch, &m.AIAnalysis, &reasons, &gaps, &m.SuccessProjection, &m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if m.CandidateID, err = uuid.Parse(candidateID); err != nil {
			return nil, err
		}
		if m.JobID, err = uuid.Parse(jobID); err != nil {
			return nil, err
		}
		m.MatchReasons = decodeStrings(reasons)
		m.GapsIdentified = decodeStrings(gaps)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListMatchesForJob retrieves a job's matches, best score first.
func (s *SQLiteStore) ListMatchesForJob(ctx context.Context, jobID uuid.UUID) ([]models.Match, error) {
	return s.queryMatches(ctx, `SELECT `+matchColumns+` FROM matches WHERE job_id = ? ORDER BY overall_score DESC`, jobID.String())
}

// ListMatchesForCandidate retrieves a candidate's matches, best score first.
func (s *SQLiteStore) ListMatchesForCandidate(ctx context.Context, candidateID uuid.UUID) ([]models.Match, error) {
	return s.queryMatches(ctx, `SELECT `+matchColumns+` FROM matches WHERE candidate_id = ? ORDER BY overall_score DESC`, candidateID.String())
}

// ChatAnalytics aggregates chat counters. OnlineUsers is left for the
// caller to fill from the connection hub.
func (s *SQLiteStore) ChatAnalytics(ctx context.Context) (*models.ChatAnalytics, error) {
	a := &models.ChatAnalytics{RoomsByKind: map[string]int64{}}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_rooms WHERE active = 1`).Scan(&a.ActiveRooms)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_messages`).Scan(&a.TotalMessages)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_messages WHERE ts > ?`, time.Now().Add(-24*time.Hour)).Scan(&a.Messages24h)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM chat_rooms WHERE active = 1 GROUP BY kind`)
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
func (s *SQLiteStore) DashboardAnalytics(ctx context.Context) (*models.DashboardAnalytics, error) {
	d := &models.DashboardAnalytics{NicheDistribution: map[string]models.NicheStats{}}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&d.TotalCandidates)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&d.TotalJobs)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(AVG(overall_score), 0) FROM matches`).Scan(&d.TotalMatches, &d.AvgMatchScore)
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
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidates WHERE niche = ?`, string(niche)).Scan(&stats.Candidates)
		if err != nil {
			return nil, err
		}
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE niche = ?`, string(niche)).Scan(&stats.Jobs)
		if err != nil {
			return nil, err
		}
		d.NicheDistribution[string(niche)] = stats
	}
	return d, nil
}
