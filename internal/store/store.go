package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

// ErrNotFound is returned by point updates whose target record is absent.
// Lookups return (nil, nil) for missing records instead.
var ErrNotFound = errors.New("store: not found")

// DataStore defines the durable storage interface.
// Both PostgresStore and SQLiteStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Rooms
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error)
	UpdateRoomPreview(ctx context.Context, id uuid.UUID, preview string, at time.Time) error
	SeedDefaultRooms(ctx context.Context) error

	// Participants
	UpsertParticipant(ctx context.Context, p *models.Participant) error
	RemoveParticipant(ctx context.Context, roomID uuid.UUID, userID string) error
	ListParticipants(ctx context.Context, roomID uuid.UUID) ([]models.Participant, error)
	ListUserRoomIDs(ctx context.Context, userID string) ([]uuid.UUID, error)
	SetPresence(ctx context.Context, roomID uuid.UUID, userID string, online bool, lastSeen time.Time) error

	// Messages
	AppendMessage(ctx context.Context, msg *models.Message) error
	PageMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.Message, error)
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	UpdateReactions(ctx context.Context, id string, reactions map[string][]string) error

	// Candidates
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
	ListCandidatesByNiche(ctx context.Context, niche models.Niche) ([]models.Candidate, error)

	// Jobs
	CreateJob(ctx context.Context, j *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context) ([]models.Job, error)

	// Matches
	InsertMatch(ctx context.Context, m *models.Match) error
	ListMatchesForJob(ctx context.Context, jobID uuid.UUID) ([]models.Match, error)
	ListMatchesForCandidate(ctx context.Context, candidateID uuid.UUID) ([]models.Match, error)

	// Analytics
	ChatAnalytics(ctx context.Context) (*models.ChatAnalytics, error)
	DashboardAnalytics(ctx context.Context) (*models.DashboardAnalytics, error)
}

// reverseMessages flips a newest-first page into chronological order.
// Pagination windows are computed against recency, but callers always
// receive oldest-first within the window.
func reverseMessages(msgs []models.Message) []models.Message {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs
}
