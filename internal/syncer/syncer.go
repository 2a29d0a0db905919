package syncer

import (
	"context"
	"log"

	"github.com/matria-app/matria/internal/conversation"
	"github.com/matria-app/matria/internal/remote"
	"github.com/matria-app/matria/internal/session"
)

// Report aggregates one sync pass.
type Report struct {
	SyncedCount int `json:"synced_count"`
	FailedCount int `json:"failed_count"`
}

// Syncer pushes unsynced local records to the remote database, one way,
// best effort. No rollback: a conversation row can land while some of its
// messages do not, and that is an acceptable observable state.
type Syncer struct {
	repo     *remote.Repo
	sessions *session.Manager
	convs    *conversation.Manager
}

func New(repo *remote.Repo, sessions *session.Manager, convs *conversation.Manager) *Syncer {
	return &Syncer{repo: repo, sessions: sessions, convs: convs}
}

// SyncSessions pushes every unsynced session record. A missing remote table
// marks the record synced locally so it stops retrying; any other failure
// leaves it unsynced for the next pass.
func (s *Syncer) SyncSessions(ctx context.Context) Report {
	unsynced := s.sessions.Unsynced()
	if len(unsynced) == 0 {
		return Report{}
	}

	var rep Report
	for _, rec := range unsynced {
		err := s.repo.InsertUserSession(ctx, &remote.UserSession{
			ID:              rec.ID,
			UserID:          rec.UserID,
			UserAgent:       rec.UserAgent,
			LoginAt:         rec.LoginAt,
			LogoutAt:        rec.LogoutAt,
			DurationSeconds: rec.DurationSeconds,
			CreatedAt:       rec.CreatedAt,
			UpdatedAt:       rec.UpdatedAt,
		})
		switch Classify(err) {
		case Ok:
			if err := s.sessions.MarkSynced(rec.ID); err != nil {
				log.Printf("[Sync] mark session synced id=%s err=%v", rec.ID, err)
			}
			rep.SyncedCount++
		case SchemaMissing:
			// remote table absent: terminal, stop retrying this record
			if err := s.sessions.MarkSynced(rec.ID); err != nil {
				log.Printf("[Sync] mark session synced id=%s err=%v", rec.ID, err)
			}
			rep.SyncedCount++
		default:
			log.Printf("[Sync] session push failed id=%s outcome=%s err=%v", rec.ID, Classify(err), err)
			rep.FailedCount++
		}
	}
	return rep
}

// SyncConversations pushes every unsynced conversation and its messages.
func (s *Syncer) SyncConversations(ctx context.Context) Report {
	unsynced := s.convs.Unsynced()
	if len(unsynced) == 0 {
		return Report{}
	}

	var rep Report
	for _, conv := range unsynced {
		err := s.repo.InsertConversation(ctx, &remote.Conversation{
			ID:            conv.ID,
			UserID:        conv.UserID,
			Title:         conv.Title,
			MessageCount:  conv.MessageCount,
			CreatedAt:     conv.CreatedAt,
			UpdatedAt:     conv.UpdatedAt,
			LastMessageAt: conv.LastMessageAt,
		})

		switch Classify(err) {
		case Ok:
			s.pushMessages(ctx, conv)
		case SchemaMissing:
			// fall through to marking synced below
		default:
			log.Printf("[Sync] conversation push failed id=%s outcome=%s err=%v", conv.ID, Classify(err), err)
			rep.FailedCount++
			continue
		}

		if err := s.convs.MarkSynced(conv.ID); err != nil {
			log.Printf("[Sync] mark conversation synced id=%s err=%v", conv.ID, err)
		}
		rep.SyncedCount++
	}
	return rep
}

// pushMessages inserts the conversation's messages best effort. Failures
// are logged and skipped; the conversation still counts as synced.
func (s *Syncer) pushMessages(ctx context.Context, conv conversation.Conversation) {
	for _, msg := range conv.Messages {
		err := s.repo.InsertConversationMessage(ctx, &remote.ConversationMessage{
			ID:             msg.ID,
			ConversationID: msg.ConversationID,
			Text:           msg.Text,
			FromUser:       msg.FromUser,
			CreatedAt:      msg.CreatedAt,
		})
		if out := Classify(err); out != Ok && out != SchemaMissing {
			log.Printf("[Sync] message push failed conv=%s msg=%s outcome=%s err=%v", conv.ID, msg.ID, out, err)
		}
	}
}
