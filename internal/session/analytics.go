package session

import "time"

// Stats is a read-only aggregation over the current document snapshot.
// Recomputed on every call, nothing is cached.
type Stats struct {
	TotalSessions      int            `json:"total_sessions"`
	SessionsPerUser    map[string]int `json:"sessions_per_user"`
	AvgDurationSeconds float64        `json:"avg_duration_seconds"`
	ActiveLastWeek     int            `json:"active_last_week"`
}

func (m *Manager) Stats() Stats {
	recs := m.All()

	st := Stats{
		TotalSessions:   len(recs),
		SessionsPerUser: make(map[string]int),
	}

	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	var durSum int64
	var durCount int
	for _, r := range recs {
		st.SessionsPerUser[r.UserID]++
		if r.DurationSeconds != nil {
			durSum += *r.DurationSeconds
			durCount++
		}
		if r.LoginAt.After(weekAgo) {
			st.ActiveLastWeek++
		}
	}
	if durCount > 0 {
		st.AvgDurationSeconds = float64(durSum) / float64(durCount)
	}
	return st
}
