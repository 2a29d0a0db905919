package conversation

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matria-app/matria/internal/localstore"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	s, err := localstore.Open(filepath.Join(t.TempDir(), "conversations.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return NewManager(s)
}

func TestDeriveTitle_ShortVerbatim(t *testing.T) {
	if got := deriveTitle("Hola"); got != "Hola" {
		t.Fatalf("expected verbatim title, got %q", got)
	}
	if got := deriveTitle("  Hola  "); got != "Hola" {
		t.Fatalf("expected trimmed title, got %q", got)
	}
}

func TestDeriveTitle_LongCutsAtWordBoundary(t *testing.T) {
	sentence := "una pregunta bastante larga sobre el cuidado durante el tercer trimestre del embarazo"
	if len([]rune(sentence)) <= titleMaxLen {
		t.Fatalf("test input too short")
	}

	got := deriveTitle(sentence)
	if !strings.HasSuffix(got, titleEllipsis) {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if n := len([]rune(got)); n > titleMaxLen+1 {
		t.Fatalf("title too long: %d runes (%q)", n, got)
	}
	body := strings.TrimSuffix(got, titleEllipsis)
	if strings.HasSuffix(body, " ") {
		t.Fatalf("title ends mid-boundary: %q", got)
	}
	if !strings.HasPrefix(sentence, body) {
		t.Fatalf("title %q is not a prefix of the message", got)
	}
}

func TestDeriveTitle_NoSpacesHardTruncates(t *testing.T) {
	got := deriveTitle(strings.Repeat("a", 80))
	want := strings.Repeat("a", titleMaxLen) + titleEllipsis
	if got != want {
		t.Fatalf("expected hard truncation, got %q", got)
	}
}

func TestCreate_WithFirstUserMessage(t *testing.T) {
	m := newTestManager(t)

	conv, err := m.Create("user-1", &NewMessage{Text: "¿Qué comer en el embarazo?", FromUser: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.Title == "" {
		t.Fatalf("expected a derived title")
	}
	if conv.MessageCount != 1 || len(conv.Messages) != 1 {
		t.Fatalf("expected 1 message, got count=%d len=%d", conv.MessageCount, len(conv.Messages))
	}
	if conv.Synced {
		t.Fatalf("new conversation must start unsynced")
	}

	before := conv.LastMessageAt
	got, err := m.AddMessage(conv.ID, NewMessage{Text: "Durante el embarazo conviene una dieta variada.", FromUser: false})
	if err != nil {
		t.Fatalf("add message: %v", err)
	}
	if got.MessageCount != 2 {
		t.Fatalf("expected message count 2, got %d", got.MessageCount)
	}
	if !got.LastMessageAt.After(before) && !got.LastMessageAt.Equal(before) {
		t.Fatalf("LastMessageAt not updated")
	}
	if got.Title != conv.Title {
		t.Fatalf("assistant message must not change the title")
	}
}

func TestCreate_AssistantFirstMessageSetsNoTitle(t *testing.T) {
	m := newTestManager(t)

	conv, err := m.Create("user-1", &NewMessage{Text: "Hola, soy tu asistente.", FromUser: false})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.Title != "" {
		t.Fatalf("assistant message must not set a title, got %q", conv.Title)
	}

	// first user message claims the title
	got, err := m.AddMessage(conv.ID, NewMessage{Text: "Hola", FromUser: true})
	if err != nil {
		t.Fatalf("add message: %v", err)
	}
	if got.Title != "Hola" {
		t.Fatalf("expected title from first user message, got %q", got.Title)
	}
}

func TestPerUserCap_LeavesOtherUsersAlone(t *testing.T) {
	m := newTestManager(t)

	other, err := m.Create("user-2", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var ids []string
	for i := 0; i < maxPerUser+3; i++ {
		c, err := m.Create("user-1", &NewMessage{Text: fmt.Sprintf("pregunta %d", i), FromUser: true})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		ids = append(ids, c.ID)
	}

	mine := m.ForUser("user-1")
	if len(mine) != maxPerUser {
		t.Fatalf("expected exactly %d conversations, got %d", maxPerUser, len(mine))
	}
	for _, c := range mine {
		if c.ID == ids[0] || c.ID == ids[1] || c.ID == ids[2] {
			t.Fatalf("oldest conversation survived the cap: %s", c.ID)
		}
	}

	if got := m.ForUser("user-2"); len(got) != 1 || got[0].ID != other.ID {
		t.Fatalf("other user's conversations were touched: %+v", got)
	}
}

func TestMessageCap_KeepsMostRecentInOrder(t *testing.T) {
	m := newTestManager(t)

	conv, err := m.Create("user-1", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	total := maxMessagesPerConv + 10
	for i := 0; i < total; i++ {
		if _, err := m.AddMessage(conv.ID, NewMessage{Text: fmt.Sprintf("m%d", i), FromUser: i%2 == 0}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	got, err := m.Get(conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MessageCount != maxMessagesPerConv || len(got.Messages) != maxMessagesPerConv {
		t.Fatalf("expected %d messages, got %d", maxMessagesPerConv, len(got.Messages))
	}
	if got.Messages[0].Text != fmt.Sprintf("m%d", total-maxMessagesPerConv) {
		t.Fatalf("oldest retained message wrong: %q", got.Messages[0].Text)
	}
	if got.Messages[len(got.Messages)-1].Text != fmt.Sprintf("m%d", total-1) {
		t.Fatalf("newest message wrong: %q", got.Messages[len(got.Messages)-1].Text)
	}
}

func TestForUser_MostRecentlyUpdatedFirst(t *testing.T) {
	m := newTestManager(t)

	a, _ := m.Create("user-1", nil)
	b, _ := m.Create("user-1", nil)

	// touch the first one so it becomes the most recently updated
	time.Sleep(5 * time.Millisecond)
	if _, err := m.AddMessage(a.ID, NewMessage{Text: "hola", FromUser: true}); err != nil {
		t.Fatalf("add message: %v", err)
	}

	got := m.ForUser("user-1")
	if len(got) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(got))
	}
	if got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatalf("wrong order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestDelete(t *testing.T) {
	m := newTestManager(t)

	conv, err := m.Create("user-1", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := m.Delete("no-such-id"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.Delete(conv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(conv.ID); err != ErrNotFound {
		t.Fatalf("expected conversation gone, got %v", err)
	}
}

func TestCleanupOld_RetentionBoundary(t *testing.T) {
	m := newTestManager(t)

	fresh, _ := m.Create("user-1", nil)
	old, _ := m.Create("user-1", nil)

	doc := localstore.ReadDoc[Conversation](m.store, storeKey, schemaVersion)
	for i := range doc.Records {
		if doc.Records[i].ID == old.ID {
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
	if _, err := m.Get(fresh.ID); err != nil {
		t.Fatalf("fresh conversation pruned: %v", err)
	}
	if _, err := m.Get(old.ID); err != ErrNotFound {
		t.Fatalf("old conversation survived: %v", err)
	}
}

func TestStats(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Create("user-1", &NewMessage{Text: "Hola", FromUser: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	conv, err := m.Create("user-2", &NewMessage{Text: "Buenas", FromUser: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.AddMessage(conv.ID, NewMessage{Text: "Hola, ¿en qué puedo ayudarte?", FromUser: false}); err != nil {
		t.Fatalf("add message: %v", err)
	}

	st := m.Stats()
	if st.TotalConversations != 2 || st.TotalMessages != 3 {
		t.Fatalf("unexpected totals: %+v", st)
	}
	if st.ConversationsByUser["user-1"] != 1 || st.ConversationsByUser["user-2"] != 1 {
		t.Fatalf("unexpected per-user counts: %+v", st.ConversationsByUser)
	}
	if st.AvgMessagesPerConv != 1.5 {
		t.Fatalf("expected avg 1.5, got %v", st.AvgMessagesPerConv)
	}
	if st.ActiveLastWeek != 2 {
		t.Fatalf("expected 2 active, got %d", st.ActiveLastWeek)
	}
}
