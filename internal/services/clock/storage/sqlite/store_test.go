package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hostcarioca/timeclock/internal/services/clock/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clock.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestAppendActionAndListInOrder(t *testing.T) {
	store := openTempStore(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	appendAt := func(kind string, at time.Time, state string) {
		t.Helper()
		err := store.AppendAction(context.Background(), storage.ActionRecord{
			OwnerID: "user-1",
			Kind:    kind,
			At:      at,
		}, storage.SnapshotRecord{
			OwnerID:   "user-1",
			State:     state,
			StartedAt: now,
			UpdatedAt: at,
		})
		if err != nil {
			t.Fatalf("append %s: %v", kind, err)
		}
	}

	appendAt("start", now, "pausable")
	appendAt("pause", now.Add(10*time.Minute), "resumable")
	appendAt("resume", now.Add(15*time.Minute), "pausable")
	appendAt("finalize", now.Add(30*time.Minute), "finalized")

	actions, err := store.ListActionsByOwner(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(actions) != 4 {
		t.Fatalf("actions len = %d, want 4", len(actions))
	}
	wantKinds := []string{"start", "pause", "resume", "finalize"}
	for i, kind := range wantKinds {
		if actions[i].Kind != kind {
			t.Fatalf("actions[%d].Kind = %q, want %q", i, actions[i].Kind, kind)
		}
	}
	if !actions[3].At.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("finalize at = %v, want %v", actions[3].At, now.Add(30*time.Minute))
	}

	snapshot, err := store.GetSnapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if snapshot.State != "finalized" {
		t.Fatalf("snapshot state = %q, want finalized", snapshot.State)
	}
}

func TestAppendActionRejectsOwnerMismatch(t *testing.T) {
	store := openTempStore(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	err := store.AppendAction(context.Background(), storage.ActionRecord{
		OwnerID: "user-1",
		Kind:    "start",
		At:      now,
	}, storage.SnapshotRecord{
		OwnerID:   "user-2",
		State:     "pausable",
		StartedAt: now,
		UpdatedAt: now,
	})
	if err == nil {
		t.Fatal("expected owner mismatch error")
	}
	// The rejected append must not leave a partial write behind.
	if _, err := store.GetSnapshot(context.Background(), "user-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("snapshot err = %v, want ErrNotFound", err)
	}
	actions, err := store.ListActionsByOwner(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("actions len = %d, want 0", len(actions))
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	store := openTempStore(t)

	if _, err := store.GetSnapshot(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListOpenSnapshots(t *testing.T) {
	store := openTempStore(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	put := func(owner, state string) {
		t.Helper()
		if err := store.PutSnapshot(context.Background(), storage.SnapshotRecord{
			OwnerID:   owner,
			State:     state,
			StartedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("put snapshot %s: %v", owner, err)
		}
	}

	put("user-1", "pausable")
	put("user-2", "finalized")
	put("user-3", "resumable")

	open, err := store.ListOpenSnapshots(context.Background())
	if err != nil {
		t.Fatalf("list open snapshots: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open snapshots = %d, want 2", len(open))
	}
	if open[0].OwnerID != "user-1" || open[1].OwnerID != "user-3" {
		t.Fatalf("unexpected open snapshot owners: %+v", open)
	}
}

func TestPutSnapshotUpserts(t *testing.T) {
	store := openTempStore(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	base := storage.SnapshotRecord{
		OwnerID:   "user-1",
		State:     "pausable",
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutSnapshot(context.Background(), base); err != nil {
		t.Fatalf("put snapshot: %v", err)
	}
	base.State = "resumable"
	base.DisplayRef = "msg-42"
	base.UpdatedAt = now.Add(time.Minute)
	if err := store.PutSnapshot(context.Background(), base); err != nil {
		t.Fatalf("update snapshot: %v", err)
	}

	got, err := store.GetSnapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if got.State != "resumable" || got.DisplayRef != "msg-42" {
		t.Fatalf("snapshot = %+v, want updated state and display ref", got)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
