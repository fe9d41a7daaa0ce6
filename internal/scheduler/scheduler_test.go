package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"studentpress/internal/model"
	"studentpress/internal/reconcile"
	"studentpress/internal/storage"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type mockSender struct {
	mu       sync.Mutex
	messages []sentMessage
}

func (m *mockSender) SendMessage(chatID int64, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Text: text})
}

func (m *mockSender) getMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]sentMessage, len(m.messages))
	copy(cp, m.messages)
	return cp
}

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *storage.SQLite) {
	t.Helper()
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := s.CreateUser(ctx, &model.User{ID: "u1"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	d := model.Draft{ID: "d1", AuthorID: "u1", PostType: model.PostTypeArticle, Title: "Night Shift", Content: "It was late.", UpdatedAt: t0}
	if err := s.CreateDraft(ctx, &d); err != nil {
		t.Fatalf("create draft: %v", err)
	}
	sub := model.Submission{
		ID: "s1", AuthorID: "u1", PostType: model.PostTypeArticle, Title: "night shift", Content: "It was  late.",
		Status: model.StatusPending, CreatedAt: t0.Add(3 * time.Minute),
	}
	if err := s.CreateSubmission(ctx, &sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}
}

func remaining(t *testing.T, s *storage.SQLite) int {
	t.Helper()
	drafts, err := s.FindDrafts(context.Background(), storage.DraftFilter{})
	if err != nil {
		t.Fatalf("find drafts: %v", err)
	}
	return len(drafts)
}

func newRunner(s *storage.SQLite) *reconcile.Runner {
	return reconcile.NewRunner(s, reconcile.NewApplier(s, discardLog), discardLog)
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name          string
		apply         bool
		wantRemaining int
		wantText      string
	}{
		{
			name:          "dry run reports only",
			wantRemaining: 1,
			wantText:      "[reconcile, dry run]\n1 drafts, 1 pending submissions, 1 matches",
		},
		{
			name:          "apply deletes",
			apply:         true,
			wantRemaining: 0,
			wantText:      "[reconcile, applied]\n1 drafts, 1 pending submissions, 1 matches\nDeleted 1, skipped 0, failed 0.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			seed(t, store)
			sender := &mockSender{}

			req := reconcile.Request{Options: reconcile.DefaultOptions(), Apply: tt.apply}
			sched := New(newRunner(store), sender, 42, req, discardLog)
			sched.runOnce(context.Background())

			want := []sentMessage{{ChatID: 42, Text: tt.wantText}}
			if diff := cmp.Diff(want, sender.getMessages()); diff != "" {
				t.Errorf("messages mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRemaining, remaining(t, store)); diff != "" {
				t.Errorf("remaining drafts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunOnceQuietWithoutMatches(t *testing.T) {
	store := newTestStore(t)
	sender := &mockSender{}

	sched := New(newRunner(store), sender, 42, reconcile.Request{Options: reconcile.DefaultOptions()}, discardLog)
	sched.runOnce(context.Background())

	if diff := cmp.Diff(0, len(sender.getMessages())); diff != "" {
		t.Errorf("message count mismatch (-want +got):\n%s", diff)
	}
}

type brokenStore struct{ *storage.SQLite }

func (brokenStore) FindDrafts(context.Context, storage.DraftFilter) ([]model.Draft, error) {
	return nil, errors.New("database is locked")
}

func TestRunOnceReportsFailure(t *testing.T) {
	store := brokenStore{newTestStore(t)}
	sender := &mockSender{}
	runner := reconcile.NewRunner(store, reconcile.NewApplier(store, discardLog), discardLog)

	sched := New(runner, sender, 42, reconcile.Request{Options: reconcile.DefaultOptions()}, discardLog)
	sched.runOnce(context.Background())

	msgs := sender.getMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected one failure message, got %d", len(msgs))
	}
	if diff := cmp.Diff("[reconcile] failed: snapshot drafts: database is locked", msgs[0].Text); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	sender := &mockSender{}

	sched := New(newRunner(store), sender, 0, reconcile.Request{Options: reconcile.DefaultOptions()}, discardLog)
	sched.SetTickInterval(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}

	// chatID 0 disables notifications.
	if diff := cmp.Diff(0, len(sender.getMessages())); diff != "" {
		t.Errorf("message count mismatch (-want +got):\n%s", diff)
	}
}
