package models

// ChatAnalytics aggregates chat activity counts.
// OnlineUsers is filled from the connection hub, the rest from the store.
type ChatAnalytics struct {
	ActiveRooms   int64            `json:"active_rooms"`
	TotalMessages int64            `json:"total_messages"`
	OnlineUsers   int              `json:"online_users"`
	Messages24h   int64            `json:"messages_24h"`
	RoomsByKind   map[string]int64 `json:"rooms_by_type"`
}

// NicheStats counts candidates and jobs within one niche.
type NicheStats struct {
	Candidates int64 `json:"candidates"`
	Jobs       int64 `json:"jobs"`
}

// DashboardAnalytics aggregates platform-wide recruiting metrics.
type DashboardAnalytics struct {
	TotalCandidates   int64                 `json:"total_candidates"`
	TotalJobs         int64                 `json:"total_jobs"`
	TotalMatches      int64                 `json:"total_matches"`
	TopMatches        []Match               `json:"top_matches"`
	NicheDistribution map[string]NicheStats `json:"niche_distribution"`
	AvgMatchScore     float64               `json:"avg_match_score"`
}
