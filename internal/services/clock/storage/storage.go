// Package storage declares the durable records and store contracts for the
// clock service.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ActionRecord is one durable clock event row, append-only per owner.
type ActionRecord struct {
	ID      int64
	OwnerID string
	Kind    string
	At      time.Time
}

// SnapshotRecord is the current-state row for one owner, kept for O(1)
// "is there a live session" checks without scanning the action log.
type SnapshotRecord struct {
	OwnerID    string
	State      string
	DisplayRef string
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// ActionStore persists the append-only action log.
//
// AppendAction writes the action and the owner's snapshot in one atomic unit:
// a partial write must never be observable by a subsequent read.
type ActionStore interface {
	AppendAction(ctx context.Context, action ActionRecord, snapshot SnapshotRecord) error
	ListActionsByOwner(ctx context.Context, ownerID string) ([]ActionRecord, error)
}

// SnapshotStore persists per-owner session snapshots.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, ownerID string) (SnapshotRecord, error)
	PutSnapshot(ctx context.Context, snapshot SnapshotRecord) error
	ListOpenSnapshots(ctx context.Context) ([]SnapshotRecord, error)
}
