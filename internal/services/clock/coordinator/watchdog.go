package coordinator

import (
	"context"
	"log"
	"time"

	"github.com/hostcarioca/timeclock/internal/services/clock/domain"
)

// watch runs one presence cycle per interval for a live session: clear the
// confirmation flag, wait out the window, then either re-arm with a reminder
// or auto-finalize. A one-shot timer per cycle keeps the wait from being
// re-armed before the flag is evaluated, so at most one finalize decision
// falls on each interval boundary.
func (c *Coordinator) watch(ctx context.Context, ownerID string, ls *liveSession) {
	defer c.wg.Done()
	for {
		ls.mu.Lock()
		if ls.removed || ls.session.State == domain.StateFinalized {
			ls.mu.Unlock()
			return
		}
		ls.session = ls.session.ResetPresence()
		ls.mu.Unlock()

		timer := time.NewTimer(c.cfg.PresenceInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if c.evaluate(ctx, ownerID, ls) {
			return
		}
	}
}

// evaluate inspects the confirmation flag at the end of one cycle. It
// reports true when the watchdog is done with the session.
func (c *Coordinator) evaluate(ctx context.Context, ownerID string, ls *liveSession) bool {
	ls.mu.Lock()
	if ls.removed || ls.session.State == domain.StateFinalized {
		ls.mu.Unlock()
		return true
	}
	if ls.session.PresenceConfirmed {
		ls.mu.Unlock()
		if err := c.notifier.PresenceReminder(ctx, ownerID, c.cfg.PresenceInterval); err != nil {
			log.Printf("msg=%q owner=%s err=%v", "presence reminder failed", ownerID, err)
		}
		return false
	}

	next, action, err := ls.session.Finalize(domain.TransitionInput{Forced: true, At: c.clock()})
	if err != nil {
		// Another path finalized between the checks above.
		ls.mu.Unlock()
		return true
	}
	if err := c.persist(ctx, next, action, ls.displayRef); err != nil {
		// State must not advance ahead of storage; run another cycle.
		log.Printf("msg=%q owner=%s err=%v", "timeout persistence failed", ownerID, err)
		ls.mu.Unlock()
		return false
	}
	ls.session = next
	closure := c.closure(ls, CauseTimeout)
	c.drop(ls, ownerID, ls.displayRef)
	ls.mu.Unlock()

	c.report(context.WithoutCancel(ctx), closure)
	return true
}
