package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/matria-app/matria/internal/localstore"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	s, err := localstore.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return NewManager(s)
}

func TestAdd_FrontInsert(t *testing.T) {
	m := newTestManager(t)

	first, err := m.Add("user-1", "ua/1", time.Now())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := m.Add("user-1", "ua/2", time.Now())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.Synced || second.Synced {
		t.Fatalf("new records must start unsynced")
	}

	all := m.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].ID != second.ID {
		t.Fatalf("expected most recent record first, got %s", all[0].ID)
	}
}

func TestAdd_CapKeepsMostRecent(t *testing.T) {
	m := newTestManager(t)

	var lastID string
	for i := 0; i < maxRecords+25; i++ {
		r, err := m.Add("user-1", "ua", time.Now())
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		lastID = r.ID
	}

	all := m.All()
	if len(all) != maxRecords {
		t.Fatalf("expected exactly %d records, got %d", maxRecords, len(all))
	}
	if all[0].ID != lastID {
		t.Fatalf("expected newest record to survive the cap")
	}
}

func TestRecordLogout_SetsDuration(t *testing.T) {
	m := newTestManager(t)

	login := time.Now().Add(-90 * time.Second)
	r, err := m.Add("user-1", "ua", login)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	logout := login.Add(90 * time.Second)
	if err := m.RecordLogout(r.ID, logout); err != nil {
		t.Fatalf("logout: %v", err)
	}

	got := m.ForUser("user-1")
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].LogoutAt == nil || !got[0].LogoutAt.Equal(logout) {
		t.Fatalf("logout timestamp not set")
	}
	if got[0].DurationSeconds == nil || *got[0].DurationSeconds != 90 {
		t.Fatalf("expected duration 90s, got %v", got[0].DurationSeconds)
	}
}

func TestMarkSynced_NotFoundLeavesDocUnchanged(t *testing.T) {
	m := newTestManager(t)

	r, err := m.Add("user-1", "ua", time.Now())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := m.MarkSynced("no-such-id"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	all := m.All()
	if len(all) != 1 || all[0].ID != r.ID || all[0].Synced {
		t.Fatalf("document changed by failed MarkSynced: %+v", all)
	}

	if err := m.MarkSynced(r.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if got := m.Unsynced(); len(got) != 0 {
		t.Fatalf("expected no unsynced records, got %d", len(got))
	}
}

func TestCleanupOld_RetentionBoundary(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Add("user-1", "ua", time.Now()); err != nil {
		t.Fatalf("add: %v", err)
	}
	oldRec, err := m.Add("user-1", "ua", time.Now())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// age one record past the retention window
	doc := localstore.ReadDoc[Record](m.store, storeKey, schemaVersion)
	for i := range doc.Records {
		if doc.Records[i].ID == oldRec.ID {
			doc.Records[i].CreatedAt = time.Now().Add(-31 * 24 * time.Hour)
		}
	}
	if err := localstore.WriteDoc(m.store, storeKey, schemaVersion, doc); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	removed, err := m.CleanupOld()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if got := m.All(); len(got) != 1 || got[0].ID == oldRec.ID {
		t.Fatalf("wrong record pruned: %+v", got)
	}

	// second pass removes nothing
	removed, err = m.CleanupOld()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
}

func TestStats(t *testing.T) {
	m := newTestManager(t)

	a, _ := m.Add("user-1", "ua", time.Now())
	if _, err := m.Add("user-2", "ua", time.Now()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.RecordLogout(a.ID, a.LoginAt.Add(60*time.Second)); err != nil {
		t.Fatalf("logout: %v", err)
	}

	st := m.Stats()
	if st.TotalSessions != 2 {
		t.Fatalf("expected 2 sessions, got %d", st.TotalSessions)
	}
	if st.SessionsPerUser["user-1"] != 1 || st.SessionsPerUser["user-2"] != 1 {
		t.Fatalf("unexpected per-user counts: %+v", st.SessionsPerUser)
	}
	if st.AvgDurationSeconds != 60 {
		t.Fatalf("expected avg duration 60s, got %v", st.AvgDurationSeconds)
	}
	if st.ActiveLastWeek != 2 {
		t.Fatalf("expected 2 active last week, got %d", st.ActiveLastWeek)
	}
}
