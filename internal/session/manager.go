package session

import (
	"errors"
	"time"

	"github.com/matria-app/matria/internal/common"
	"github.com/matria-app/matria/internal/localstore"
)

const (
	storeKey      = "user_sessions"
	schemaVersion = "1"

	// caps and retention
	maxRecords = 1000
	retention  = 30 * 24 * time.Hour
)

var ErrNotFound = errors.New("session: record not found")

// Record is one login/logout event for a user.
type Record struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	UserAgent       string     `json:"user_agent"`
	LoginAt         time.Time  `json:"login_at"`
	LogoutAt        *time.Time `json:"logout_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
	Synced          bool       `json:"synced"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Update carries the fields a session mutation may set. Nil means "leave as is".
type Update struct {
	LogoutAt        *time.Time
	DurationSeconds *int64
	Synced          *bool
}

// Manager owns the user_sessions document. It is the only mutator of that
// key; records are kept most-recent-first.
type Manager struct {
	store *localstore.Store
}

func NewManager(store *localstore.Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) readDoc() localstore.Document[Record] {
	return localstore.ReadDoc[Record](m.store, storeKey, schemaVersion)
}

func (m *Manager) writeDoc(doc localstore.Document[Record]) error {
	return localstore.WriteDoc(m.store, storeKey, schemaVersion, doc)
}

// Add records a login. The new record goes to the front; when the document
// exceeds the cap the oldest tail entries are dropped.
func (m *Manager) Add(userID, userAgent string, loginAt time.Time) (*Record, error) {
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec := Record{
		ID:        id,
		UserID:    userID,
		UserAgent: userAgent,
		LoginAt:   loginAt,
		Synced:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc := m.readDoc()
	doc.Records = append([]Record{rec}, doc.Records...)
	if len(doc.Records) > maxRecords {
		doc.Records = doc.Records[:maxRecords]
	}

	if err := m.writeDoc(doc); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update merges the given fields into the record and stamps UpdatedAt.
func (m *Manager) Update(id string, upd Update) error {
	doc := m.readDoc()
	for i := range doc.Records {
		if doc.Records[i].ID != id {
			continue
		}
		r := &doc.Records[i]
		if upd.LogoutAt != nil {
			r.LogoutAt = upd.LogoutAt
		}
		if upd.DurationSeconds != nil {
			r.DurationSeconds = upd.DurationSeconds
		}
		if upd.Synced != nil {
			r.Synced = *upd.Synced
		}
		r.UpdatedAt = time.Now()
		return m.writeDoc(doc)
	}
	return ErrNotFound
}

// RecordLogout closes the session: sets the logout timestamp and derives
// the duration from the login timestamp.
func (m *Manager) RecordLogout(id string, logoutAt time.Time) error {
	doc := m.readDoc()
	for i := range doc.Records {
		if doc.Records[i].ID != id {
			continue
		}
		r := &doc.Records[i]
		dur := int64(logoutAt.Sub(r.LoginAt) / time.Second)
		r.LogoutAt = &logoutAt
		r.DurationSeconds = &dur
		r.UpdatedAt = time.Now()
		return m.writeDoc(doc)
	}
	return ErrNotFound
}

func (m *Manager) MarkSynced(id string) error {
	synced := true
	return m.Update(id, Update{Synced: &synced})
}

// CleanupOld drops records created before the retention window. The
// document is rewritten only when something was removed.
func (m *Manager) CleanupOld() (int, error) {
	doc := m.readDoc()
	cutoff := time.Now().Add(-retention)

	kept := doc.Records[:0:0]
	for _, r := range doc.Records {
		if r.CreatedAt.After(cutoff) {
			kept = append(kept, r)
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

func (m *Manager) ForUser(userID string) []Record {
	doc := m.readDoc()
	out := make([]Record, 0)
	for _, r := range doc.Records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (m *Manager) All() []Record {
	return m.readDoc().Records
}

// Unsynced returns the records not yet mirrored to the remote database.
func (m *Manager) Unsynced() []Record {
	doc := m.readDoc()
	out := make([]Record, 0)
	for _, r := range doc.Records {
		if !r.Synced {
			out = append(out, r)
		}
	}
	return out
}

func (m *Manager) ClearAll() error {
	return m.store.Clear(storeKey)
}
