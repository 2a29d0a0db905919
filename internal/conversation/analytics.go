package conversation

import "time"

// Stats is a read-only aggregation over the current document snapshot,
// recomputed on every call.
type Stats struct {
	TotalConversations  int            `json:"total_conversations"`
	TotalMessages       int            `json:"total_messages"`
	ConversationsByUser map[string]int `json:"conversations_by_user"`
	AvgMessagesPerConv  float64        `json:"avg_messages_per_conversation"`
	ActiveLastWeek      int            `json:"active_last_week"`
}

func (m *Manager) Stats() Stats {
	convs := m.All()

	st := Stats{
		TotalConversations:  len(convs),
		ConversationsByUser: make(map[string]int),
	}

	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	for _, c := range convs {
		st.ConversationsByUser[c.UserID]++
		st.TotalMessages += c.MessageCount
		if c.LastMessageAt.After(weekAgo) {
			st.ActiveLastWeek++
		}
	}
	if len(convs) > 0 {
		st.AvgMessagesPerConv = float64(st.TotalMessages) / float64(len(convs))
	}
	return st
}
