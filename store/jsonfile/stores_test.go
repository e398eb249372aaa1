package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-studio/core"
)

func TestTaskStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewTaskStore(dir, nil)
	ctx := context.Background()

	task := core.Task{ID: "t-1", Title: "Draft essay", Type: core.TaskTypeWriting, Status: core.TaskStatusOpen}
	if err := store.Insert(ctx, task); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}

	// Reopen from disk to prove nothing lives only in memory.
	reopened := NewTaskStore(dir, nil)
	got, err := reopened.Get(ctx, "t-1")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if got.Title != "Draft essay" || got.Type != core.TaskTypeWriting {
		t.Fatalf("unexpected round-trip value: %+v", got)
	}

	got.Status = core.TaskStatusDone
	if err := reopened.Update(ctx, got); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if err := reopened.Delete(ctx, "t-1"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if _, err := reopened.Get(ctx, "t-1"); !core.IsNotFound(err) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}

func TestTaskStore_MissingFileReadsAsEmpty(t *testing.T) {
	store := NewTaskStore(t.TempDir(), nil)
	tasks, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty collection, got %d", len(tasks))
	}
}

func TestTaskStore_CorruptFileReadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("{nonsense"), 0o644); err != nil {
		t.Fatalf("unexpected setup error: %v", err)
	}
	store := NewTaskStore(dir, nil)

	tasks, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("corrupt file must not error reads, got %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty collection, got %d", len(tasks))
	}

	// The next mutation heals the file.
	if err := store.Insert(context.Background(), core.Task{ID: "t-1", Title: "x", Type: core.TaskTypeTech}); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	tasks, _ = store.List(context.Background())
	if len(tasks) != 1 {
		t.Fatalf("expected healed collection with one task, got %d", len(tasks))
	}
}

func TestProtocolStore_SeedOnlyWhenMissing(t *testing.T) {
	dir := t.TempDir()
	store := NewProtocolStore(dir, nil)
	ctx := context.Background()

	seed := []core.Protocol{{ID: 1, Name: "Scales", Status: core.ProtocolStatusNotStarted}}
	if err := store.Seed(seed); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}

	updated := core.Protocol{ID: 1, Name: "Scales", Status: core.ProtocolStatusInProgress, Progress: 0.5}
	if err := store.Save(ctx, updated); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	// Re-seeding after data exists must not clobber progress.
	if err := store.Seed(seed); err != nil {
		t.Fatalf("unexpected reseed error: %v", err)
	}
	got, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if got.Status != core.ProtocolStatusInProgress || got.Progress != 0.5 {
		t.Fatalf("seed overwrote existing data: %+v", got)
	}
}

func TestSessionStore_AppendIsDurableAndOrdered(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStore(dir, nil)
	ctx := context.Background()

	for i, score := range []int{3, 4, 5} {
		session := core.ProtocolSession{
			ID:         "s-" + string(rune('a'+i)),
			ProtocolID: 7,
			Date:       "2025-06-01",
			Score:      score,
			Duration:   30,
		}
		if err := store.Append(ctx, session); err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
	}
	if err := store.Append(ctx, core.ProtocolSession{ID: "s-x", ProtocolID: 9}); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	reopened := NewSessionStore(dir, nil)
	sessions, err := reopened.ListByProtocol(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions for protocol 7, got %d", len(sessions))
	}
	for i, want := range []int{3, 4, 5} {
		if sessions[i].Score != want {
			t.Fatalf("append order lost: index %d has score %d, want %d", i, sessions[i].Score, want)
		}
	}
}
