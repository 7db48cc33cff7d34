// Package coordinator owns the table of live clock sessions. It routes
// commands through the session state machine, persists every transition
// before applying it, and runs one presence watchdog per open session.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hostcarioca/timeclock/internal/services/clock/domain"
	"github.com/hostcarioca/timeclock/internal/services/clock/storage"
)

var (
	// ErrSessionAlreadyOpen indicates a start request while an un-finalized
	// session exists for the same owner.
	ErrSessionAlreadyOpen = errors.New("session already open")
	// ErrNoActiveSession indicates an action request with no live session.
	ErrNoActiveSession = errors.New("no active session")
)

const (
	defaultPresenceInterval = time.Minute
	defaultHistoryLimit     = 5
)

// Store is the durable record store transitions write through. Appends are
// atomic with the snapshot update.
type Store interface {
	AppendAction(ctx context.Context, action storage.ActionRecord, snapshot storage.SnapshotRecord) error
	ListActionsByOwner(ctx context.Context, ownerID string) ([]storage.ActionRecord, error)
	GetSnapshot(ctx context.Context, ownerID string) (storage.SnapshotRecord, error)
	PutSnapshot(ctx context.Context, snapshot storage.SnapshotRecord) error
	ListOpenSnapshots(ctx context.Context) ([]storage.SnapshotRecord, error)
}

// Cause describes why a session closed.
type Cause string

const (
	// CauseExplicit marks closure by the owner or the override authority.
	CauseExplicit Cause = "explicit"
	// CauseTimeout marks closure after a missed presence confirmation.
	CauseTimeout Cause = "timeout"
	// CauseDisplayRemoved marks closure after the session display message
	// was deleted.
	CauseDisplayRemoved Cause = "display_removed"
)

// Closure describes one finished session for reporting.
type Closure struct {
	OwnerID    string
	DisplayRef string
	History    []domain.Action
	Duration   time.Duration
	Complete   bool
	Cause      Cause
}

// Summary is one finalized history segment with its computed duration.
type Summary struct {
	Actions     []domain.Action
	Duration    time.Duration
	Complete    bool
	FinalizedAt time.Time
}

// Notifier receives session lifecycle notifications. Delivery failures are
// logged and never block a transition.
type Notifier interface {
	SessionStarted(ctx context.Context, ownerID string, grace time.Duration) error
	PresenceReminder(ctx context.Context, ownerID string, grace time.Duration) error
	SessionClosed(ctx context.Context, closure Closure) error
}

// Config carries coordinator tunables.
type Config struct {
	// PresenceInterval is both the watchdog cycle length and the grace
	// window quoted in reminders.
	PresenceInterval time.Duration
	// OverrideAuthorityID names the identity allowed to finalize sessions
	// it does not own. Empty disables override finalization.
	OverrideAuthorityID string
	// HistoryLimit caps the number of finalized segments a history query
	// returns.
	HistoryLimit int
}

type liveSession struct {
	mu         sync.Mutex
	session    domain.Session
	displayRef string
	cancel     context.CancelFunc
	// removed is set once the record left the live table; later lock
	// holders must not act on it.
	removed bool
}

// Coordinator wires the state machine, the store, and the watchdogs
// together. Per-owner exclusion runs through each live record's own mutex;
// the coordinator mutex guards only the table itself.
type Coordinator struct {
	store    Store
	notifier Notifier
	cfg      Config
	clock    func() time.Time

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup

	mu sync.Mutex
	// live maps owner identity to its open session record.
	live map[string]*liveSession
	// displays maps display reference to owner identity.
	displays map[string]string
}

// New builds a Coordinator around the given store and notifier.
func New(store Store, notifier Notifier, cfg Config) *Coordinator {
	if cfg.PresenceInterval <= 0 {
		cfg.PresenceInterval = defaultPresenceInterval
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	cfg.OverrideAuthorityID = strings.TrimSpace(cfg.OverrideAuthorityID)
	rootCtx, rootCancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:      store,
		notifier:   notifier,
		cfg:        cfg,
		clock:      time.Now,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		live:       make(map[string]*liveSession),
		displays:   make(map[string]string),
	}
}

// Close cancels every watchdog and waits for them to stop. Sessions stay
// open in durable storage and are re-armed by Restore on the next boot.
func (c *Coordinator) Close() {
	c.rootCancel()
	c.wg.Wait()
}

// StartSession opens a session for ownerID and arms its presence watchdog.
// displayRef optionally names the chat message displaying the session.
func (c *Coordinator) StartSession(ctx context.Context, ownerID, displayRef string) error {
	session, action, err := domain.StartSession(ownerID, c.clock())
	if err != nil {
		return err
	}
	ownerID = session.OwnerID
	displayRef = strings.TrimSpace(displayRef)

	c.mu.Lock()
	if _, ok := c.live[ownerID]; ok {
		c.mu.Unlock()
		return ErrSessionAlreadyOpen
	}
	ls := &liveSession{}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	c.live[ownerID] = ls
	c.mu.Unlock()

	if err := c.ensureNoOpenSnapshot(ctx, ownerID); err != nil {
		c.drop(ls, ownerID, "")
		return err
	}
	if err := c.persist(ctx, session, action, displayRef); err != nil {
		c.drop(ls, ownerID, "")
		return fmt.Errorf("start session: %w", err)
	}
	ls.session = session
	ls.displayRef = displayRef
	c.index(ownerID, displayRef)
	c.arm(ownerID, ls)

	if err := c.notifier.SessionStarted(ctx, ownerID, c.cfg.PresenceInterval); err != nil {
		log.Printf("msg=%q owner=%s err=%v", "session started notification failed", ownerID, err)
	}
	return nil
}

// Pause suspends time accrual for ownerID's session.
func (c *Coordinator) Pause(ctx context.Context, callerID, ownerID string) error {
	return c.transition(ctx, ownerID, func(s domain.Session) (domain.Session, domain.Action, error) {
		return s.Pause(domain.TransitionInput{CallerID: callerID, At: c.clock()})
	})
}

// Resume restarts time accrual for ownerID's session.
func (c *Coordinator) Resume(ctx context.Context, callerID, ownerID string) error {
	return c.transition(ctx, ownerID, func(s domain.Session) (domain.Session, domain.Action, error) {
		return s.Resume(domain.TransitionInput{CallerID: callerID, At: c.clock()})
	})
}

// ConfirmPresence answers the current watchdog cycle's presence challenge.
// The flag is in-memory only; it is not persisted.
func (c *Coordinator) ConfirmPresence(ctx context.Context, callerID, ownerID string) error {
	ls, err := c.lookup(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if err := ls.gone(); err != nil {
		return err
	}
	next, err := ls.session.ConfirmPresence(callerID)
	if err != nil {
		return err
	}
	ls.session = next
	return nil
}

// Finalize closes ownerID's session on behalf of callerID and emits the
// closure report. The owner and the configured override authority may
// finalize.
func (c *Coordinator) Finalize(ctx context.Context, callerID, ownerID string) error {
	input := domain.TransitionInput{
		CallerID:            callerID,
		OverrideAuthorityID: c.cfg.OverrideAuthorityID,
		At:                  c.clock(),
	}
	return c.finalize(ctx, strings.TrimSpace(ownerID), input, CauseExplicit)
}

// AttachDisplay records the chat message currently displaying ownerID's
// session, so its removal can be mapped back to the session.
func (c *Coordinator) AttachDisplay(ctx context.Context, ownerID, displayRef string) error {
	ownerID = strings.TrimSpace(ownerID)
	displayRef = strings.TrimSpace(displayRef)
	ls, err := c.lookup(ctx, ownerID)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if err := ls.gone(); err != nil {
		return err
	}
	previous := ls.displayRef
	if err := c.store.PutSnapshot(ctx, snapshotRecord(ls.session, displayRef)); err != nil {
		return fmt.Errorf("attach display: %w", err)
	}
	ls.displayRef = displayRef
	c.mu.Lock()
	if previous != "" {
		delete(c.displays, previous)
	}
	c.mu.Unlock()
	c.index(ownerID, displayRef)
	return nil
}

// HandleDisplayRemoved closes the live session whose display message was
// deleted, if any. Removal of an unknown message is a no-op.
func (c *Coordinator) HandleDisplayRemoved(ctx context.Context, displayRef string) error {
	displayRef = strings.TrimSpace(displayRef)
	if displayRef == "" {
		return nil
	}
	c.mu.Lock()
	ownerID, ok := c.displays[displayRef]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	input := domain.TransitionInput{Forced: true, At: c.clock()}
	err := c.finalize(ctx, ownerID, input, CauseDisplayRemoved)
	if errors.Is(err, domain.ErrAlreadyFinalized) || errors.Is(err, ErrNoActiveSession) {
		return nil
	}
	return err
}

// History returns the owner's most recent finalized segments, newest last,
// without mutating state.
func (c *Coordinator) History(ctx context.Context, ownerID string) ([]Summary, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.ErrOwnerIDRequired
	}
	records, err := c.store.ListActionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	history, err := parseActions(records)
	if err != nil {
		return nil, err
	}
	segments := domain.FinalizedSegments(history)
	if len(segments) > c.cfg.HistoryLimit {
		segments = segments[len(segments)-c.cfg.HistoryLimit:]
	}
	summaries := make([]Summary, 0, len(segments))
	for _, segment := range segments {
		total, complete, err := domain.ComputeActiveDuration(segment)
		if err != nil {
			return nil, fmt.Errorf("history for %s: %w", ownerID, err)
		}
		summaries = append(summaries, Summary{
			Actions:     segment,
			Duration:    total,
			Complete:    complete,
			FinalizedAt: segment[len(segment)-1].At,
		})
	}
	return summaries, nil
}

// Restore re-arms watchdogs for sessions found open in durable storage,
// returning how many were brought back. Sessions whose stored history fails
// validation are left frozen: logged, skipped, and never repaired.
func (c *Coordinator) Restore(ctx context.Context) (int, error) {
	snapshots, err := c.store.ListOpenSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("list open snapshots: %w", err)
	}
	restored := 0
	for _, snapshot := range snapshots {
		records, err := c.store.ListActionsByOwner(ctx, snapshot.OwnerID)
		if err != nil {
			return restored, fmt.Errorf("list actions for %s: %w", snapshot.OwnerID, err)
		}
		history, err := parseActions(records)
		if err == nil {
			var session domain.Session
			session, err = domain.Replay(snapshot.OwnerID, history)
			if err == nil && !session.State.Open() {
				err = fmt.Errorf("snapshot open but history finalized: %w", domain.ErrInconsistentHistory)
			}
			if err == nil {
				c.install(session, snapshot.DisplayRef)
				restored++
				continue
			}
		}
		log.Printf("msg=%q owner=%s err=%v", "session frozen", snapshot.OwnerID, err)
	}
	return restored, nil
}

func (c *Coordinator) transition(ctx context.Context, ownerID string, step func(domain.Session) (domain.Session, domain.Action, error)) error {
	ls, err := c.lookup(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if err := ls.gone(); err != nil {
		return err
	}
	next, action, err := step(ls.session)
	if err != nil {
		return err
	}
	if err := c.persist(ctx, next, action, ls.displayRef); err != nil {
		return fmt.Errorf("persist transition: %w", err)
	}
	ls.session = next
	return nil
}

func (c *Coordinator) finalize(ctx context.Context, ownerID string, input domain.TransitionInput, cause Cause) error {
	ls, err := c.lookup(ctx, ownerID)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	if err := ls.gone(); err != nil {
		ls.mu.Unlock()
		return err
	}
	next, action, err := ls.session.Finalize(input)
	if err != nil {
		ls.mu.Unlock()
		return err
	}
	if err := c.persist(ctx, next, action, ls.displayRef); err != nil {
		ls.mu.Unlock()
		return fmt.Errorf("finalize session: %w", err)
	}
	ls.session = next
	closure := c.closure(ls, cause)
	c.drop(ls, ownerID, ls.displayRef)
	ls.mu.Unlock()

	c.report(ctx, closure)
	return nil
}

// lookup resolves a live record, classifying misses through the snapshot
// store so callers can tell a finished session from a missing one.
func (c *Coordinator) lookup(ctx context.Context, ownerID string) (*liveSession, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerIDRequired
	}
	c.mu.Lock()
	ls, ok := c.live[ownerID]
	c.mu.Unlock()
	if ok {
		return ls, nil
	}
	snapshot, err := c.store.GetSnapshot(ctx, ownerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if domain.ParseSessionState(snapshot.State) == domain.StateFinalized {
		return nil, domain.ErrAlreadyFinalized
	}
	return nil, ErrNoActiveSession
}

func (c *Coordinator) ensureNoOpenSnapshot(ctx context.Context, ownerID string) error {
	snapshot, err := c.store.GetSnapshot(ctx, ownerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("check open session: %w", err)
	}
	if domain.ParseSessionState(snapshot.State).Open() {
		return ErrSessionAlreadyOpen
	}
	return nil
}

// install registers a restored session and arms its watchdog.
func (c *Coordinator) install(session domain.Session, displayRef string) {
	displayRef = strings.TrimSpace(displayRef)
	ls := &liveSession{session: session, displayRef: displayRef}
	c.mu.Lock()
	c.live[session.OwnerID] = ls
	c.mu.Unlock()
	c.index(session.OwnerID, displayRef)
	c.arm(session.OwnerID, ls)
}

// arm starts the presence watchdog for a live record. Callers must already
// hold ls.mu or otherwise own the record exclusively.
func (c *Coordinator) arm(ownerID string, ls *liveSession) {
	watchCtx, cancel := context.WithCancel(c.rootCtx)
	ls.cancel = cancel
	c.wg.Add(1)
	go c.watch(watchCtx, ownerID, ls)
}

// drop removes a record from the live table. Callers must hold ls.mu.
func (c *Coordinator) drop(ls *liveSession, ownerID, displayRef string) {
	ls.removed = true
	if ls.cancel != nil {
		ls.cancel()
	}
	c.mu.Lock()
	delete(c.live, ownerID)
	if displayRef != "" {
		delete(c.displays, displayRef)
	}
	c.mu.Unlock()
}

func (c *Coordinator) index(ownerID, displayRef string) {
	if displayRef == "" {
		return
	}
	c.mu.Lock()
	c.displays[displayRef] = ownerID
	c.mu.Unlock()
}

// closure snapshots reporting data for a finalized record. Callers must hold
// ls.mu.
func (c *Coordinator) closure(ls *liveSession, cause Cause) Closure {
	total, complete, err := domain.ComputeActiveDuration(ls.session.History)
	if err != nil {
		log.Printf("msg=%q owner=%s err=%v", "duration computation failed", ls.session.OwnerID, err)
	}
	return Closure{
		OwnerID:    ls.session.OwnerID,
		DisplayRef: ls.displayRef,
		History:    slices.Clone(ls.session.History),
		Duration:   total,
		Complete:   complete,
		Cause:      cause,
	}
}

func (c *Coordinator) report(ctx context.Context, closure Closure) {
	if err := c.notifier.SessionClosed(ctx, closure); err != nil {
		log.Printf("msg=%q owner=%s cause=%s err=%v", "session closed notification failed", closure.OwnerID, closure.Cause, err)
	}
}

func (c *Coordinator) persist(ctx context.Context, session domain.Session, action domain.Action, displayRef string) error {
	return c.store.AppendAction(ctx, storage.ActionRecord{
		OwnerID: session.OwnerID,
		Kind:    string(action.Kind),
		At:      action.At,
	}, snapshotRecord(session, displayRef))
}

func snapshotRecord(session domain.Session, displayRef string) storage.SnapshotRecord {
	return storage.SnapshotRecord{
		OwnerID:    session.OwnerID,
		State:      session.State.String(),
		DisplayRef: displayRef,
		StartedAt:  session.StartedAt,
		UpdatedAt:  session.UpdatedAt,
	}
}

func parseActions(records []storage.ActionRecord) ([]domain.Action, error) {
	history := make([]domain.Action, 0, len(records))
	for _, record := range records {
		kind, err := domain.ParseActionKind(record.Kind)
		if err != nil {
			return nil, fmt.Errorf("stored action %d: %w", record.ID, domain.ErrInconsistentHistory)
		}
		history = append(history, domain.Action{Kind: kind, At: record.At})
	}
	return history, nil
}

// gone classifies operations on a record that already left the live table.
func (ls *liveSession) gone() error {
	if !ls.removed {
		return nil
	}
	if ls.session.State == domain.StateFinalized {
		return domain.ErrAlreadyFinalized
	}
	return ErrNoActiveSession
}
