package conversation

import (
	"errors"
	"sort"
	"time"

	"github.com/matria-app/matria/internal/common"
	"github.com/matria-app/matria/internal/localstore"
)

const (
	storeKey      = "conversations"
	schemaVersion = "1"

	// caps and retention
	maxPerUser         = 50
	maxMessagesPerConv = 100
	retention          = 30 * 24 * time.Hour
)

var ErrNotFound = errors.New("conversation: record not found")

// Message is immutable once appended.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Text           string    `json:"text"`
	FromUser       bool      `json:"from_user"`
	CreatedAt      time.Time `json:"created_at"`
}

type Conversation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title,omitempty"`
	Messages      []Message `json:"messages"`
	MessageCount  int       `json:"message_count"`
	Synced        bool      `json:"synced"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// NewMessage is the input shape for appending a message.
type NewMessage struct {
	Text     string
	FromUser bool
}

// Manager owns the conversations document and is its only mutator.
type Manager struct {
	store *localstore.Store
}

func NewManager(store *localstore.Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) readDoc() localstore.Document[Conversation] {
	return localstore.ReadDoc[Conversation](m.store, storeKey, schemaVersion)
}

func (m *Manager) writeDoc(doc localstore.Document[Conversation]) error {
	return localstore.WriteDoc(m.store, storeKey, schemaVersion, doc)
}

// Create starts a conversation, optionally seeded with a first message.
// A user-authored first message also sets the title. When the owner goes
// over the per-user cap, only that user's oldest conversations are dropped.
func (m *Manager) Create(userID string, first *NewMessage) (*Conversation, error) {
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	conv := Conversation{
		ID:        id,
		UserID:    userID,
		Messages:  []Message{},
		Synced:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if first != nil {
		msgID, err := common.NewULID()
		if err != nil {
			return nil, err
		}
		msg := Message{
			ID:             msgID,
			ConversationID: id,
			Text:           first.Text,
			FromUser:       first.FromUser,
			CreatedAt:      now,
		}
		conv.Messages = append(conv.Messages, msg)
		conv.MessageCount = 1
		conv.LastMessageAt = now
		if first.FromUser {
			conv.Title = deriveTitle(first.Text)
		}
	}

	doc := m.readDoc()
	doc.Records = append(doc.Records, conv)
	trimUserExcess(&doc, userID)

	if err := m.writeDoc(doc); err != nil {
		return nil, err
	}
	return &conv, nil
}

// trimUserExcess removes the owner's oldest conversations beyond the cap.
// Other users' conversations are never touched.
func trimUserExcess(doc *localstore.Document[Conversation], userID string) {
	var owned []int
	for i, c := range doc.Records {
		if c.UserID == userID {
			owned = append(owned, i)
		}
	}
	excess := len(owned) - maxPerUser
	if excess <= 0 {
		return
	}

	// oldest first by creation time
	sort.Slice(owned, func(a, b int) bool {
		return doc.Records[owned[a]].CreatedAt.Before(doc.Records[owned[b]].CreatedAt)
	})
	drop := make(map[string]bool, excess)
	for _, idx := range owned[:excess] {
		drop[doc.Records[idx].ID] = true
	}

	kept := doc.Records[:0:0]
	for _, c := range doc.Records {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	doc.Records = kept
}

// AddMessage appends a message, recounts, stamps the activity timestamps
// and retains only the most recent messages when over the cap. The title is
// assigned once, from the first user-authored message.
func (m *Manager) AddMessage(conversationID string, nm NewMessage) (*Conversation, error) {
	doc := m.readDoc()
	for i := range doc.Records {
		c := &doc.Records[i]
		if c.ID != conversationID {
			continue
		}

		msgID, err := common.NewULID()
		if err != nil {
			return nil, err
		}
		now := time.Now()
		c.Messages = append(c.Messages, Message{
			ID:             msgID,
			ConversationID: conversationID,
			Text:           nm.Text,
			FromUser:       nm.FromUser,
			CreatedAt:      now,
		})
		if len(c.Messages) > maxMessagesPerConv {
			c.Messages = c.Messages[len(c.Messages)-maxMessagesPerConv:]
		}
		c.MessageCount = len(c.Messages)
		c.LastMessageAt = now
		c.UpdatedAt = now
		if c.Title == "" && nm.FromUser {
			c.Title = deriveTitle(nm.Text)
		}

		if err := m.writeDoc(doc); err != nil {
			return nil, err
		}
		out := *c
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *Manager) Get(id string) (*Conversation, error) {
	doc := m.readDoc()
	for _, c := range doc.Records {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ForUser returns the user's conversations, most recently updated first.
func (m *Manager) ForUser(userID string) []Conversation {
	doc := m.readDoc()
	out := make([]Conversation, 0)
	for _, c := range doc.Records {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].UpdatedAt.After(out[b].UpdatedAt)
	})
	return out
}

func (m *Manager) All() []Conversation {
	return m.readDoc().Records
}

func (m *Manager) Unsynced() []Conversation {
	doc := m.readDoc()
	out := make([]Conversation, 0)
	for _, c := range doc.Records {
		if !c.Synced {
			out = append(out, c)
		}
	}
	return out
}

func (m *Manager) MarkSynced(id string) error {
	doc := m.readDoc()
	for i := range doc.Records {
		if doc.Records[i].ID != id {
			continue
		}
		doc.Records[i].Synced = true
		doc.Records[i].UpdatedAt = time.Now()
		return m.writeDoc(doc)
	}
	return ErrNotFound
}

func (m *Manager) Delete(id string) error {
	doc := m.readDoc()
	for i := range doc.Records {
		if doc.Records[i].ID != id {
			continue
		}
		doc.Records = append(doc.Records[:i], doc.Records[i+1:]...)
		return m.writeDoc(doc)
	}
	return ErrNotFound
}

// CleanupOld drops conversations created before the retention window.
func (m *Manager) CleanupOld() (int, error) {
	doc := m.readDoc()
	cutoff := time.Now().Add(-retention)

	kept := doc.Records[:0:0]
	for _, c := range doc.Records {
		if c.CreatedAt.After(cutoff) {
			kept = append(kept, c)
		}
	}

	removed := len(doc.Records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	doc.Records = kept
	if err := m.writeDoc(doc); err != nil {
		return 0, err
	}
	return removed, nil
}

func (m *Manager) ClearAll() error {
	return m.store.Clear(storeKey)
}
