package main

import "time"

// brushPhase enumerates the selection controller's states.
type brushPhase uint8

const (
	brushUninitialized brushPhase = iota
	brushFullRange
	brushDragging
	brushSettled
	brushRestoring
)

func (p brushPhase) String() string {
	switch p {
	case brushUninitialized:
		return "uninitialized"
	case brushFullRange:
		return "full range"
	case brushDragging:
		return "dragging"
	case brushSettled:
		return "settled"
	case brushRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}

const (
	// labelRefreshInterval throttles display label recomputation during a
	// drag. Selection bounds always update synchronously; only the label
	// text waits.
	labelRefreshInterval = 16 * time.Millisecond
	// restoreGuardWindow is how long after a programmatic selection move
	// that drag releases are treated as internal echoes rather than user
	// gestures.
	restoreGuardWindow = 50 * time.Millisecond
)

// brush owns the logical selection in time-instant space. Pixel positions
// are derived views of it; nothing here touches geometry, so the selection
// survives resizes and data refreshes that keep the same extent.
type brush struct {
	phase  brushPhase
	domain timeRange
	sel    timeRange

	anchorNS int64

	labelNext  time.Time
	labelDirty bool

	guardUntil time.Time
}

// resetFull adopts a new domain and selects all of it. Used on first load
// and whenever the data extent changes.
func (b *brush) resetFull(domain timeRange) {
	b.domain = domain
	b.sel = domain
	b.phase = brushFullRange
	b.labelDirty = false
	b.labelNext = time.Time{}
}

// dragStart anchors a new selection at the pressed instant.
func (b *brush) dragStart(atNS int64, now time.Time) {
	if b.phase == brushUninitialized {
		return
	}
	at := b.domain.clamp(atNS)
	b.anchorNS = at
	b.sel = timeRange{start: at, end: at}
	b.phase = brushDragging
	b.markLabel(now)
}

// dragMove extends the selection between the anchor and the dragged
// instant, clamped to the domain. The bounds update synchronously; the
// returned flag reports whether the display label may also refresh now, or
// must wait for the debounce deadline.
func (b *brush) dragMove(atNS int64, now time.Time) (refreshLabel bool) {
	if b.phase != brushDragging {
		return false
	}
	at := b.domain.clamp(atNS)
	if at < b.anchorNS {
		b.sel = timeRange{start: at, end: b.anchorNS}
	} else {
		b.sel = timeRange{start: b.anchorNS, end: at}
	}
	return b.markLabel(now)
}

// markLabel rate-limits label refreshes: at most one per interval, with
// pending work replaced rather than queued.
func (b *brush) markLabel(now time.Time) (refreshLabel bool) {
	if now.Before(b.labelNext) {
		b.labelDirty = true
		return false
	}
	b.labelNext = now.Add(labelRefreshInterval)
	b.labelDirty = false
	return true
}

// labelDue reports whether a deferred label refresh is ready to flush.
func (b *brush) labelDue(now time.Time) bool {
	return b.labelDirty && !now.Before(b.labelNext)
}

func (b *brush) flushLabel() {
	b.labelDirty = false
}

// dragEnd settles the selection. The returned flag is true only for
// genuine user releases: a release inside the restore guard window is an
// internal echo of a programmatic move and must not reach the filter
// emitter. A zero-width selection snaps back to the full domain before
// settling.
func (b *brush) dragEnd(now time.Time) (emit bool) {
	if b.phase != brushDragging {
		return false
	}
	if b.sel.start == b.sel.end {
		b.sel = b.domain
	}
	b.phase = brushSettled
	b.labelDirty = false
	b.labelNext = time.Time{}
	return !now.Before(b.guardUntil)
}

// cancelDrag abandons an in-flight drag, keeping whatever bounds it
// reached without emitting.
func (b *brush) cancelDrag() {
	if b.phase != brushDragging {
		return
	}
	b.phase = brushSettled
	b.labelDirty = false
}

// restore repositions the selection after a geometry change. The logical
// instants are untouched, so there is nothing to recompute; the phase
// change opens the guard window so that any release event provoked by the
// move stays internal. During an active drag this is a no-op: the gesture
// in progress keeps its user-driven character.
func (b *brush) restore(now time.Time) {
	if b.phase == brushUninitialized || b.phase == brushDragging {
		return
	}
	b.phase = brushRestoring
	b.guardUntil = now.Add(restoreGuardWindow)
}

// advance performs time-driven transitions: once the guard window closes,
// a restoring brush settles.
func (b *brush) advance(now time.Time) {
	if b.phase == brushRestoring && !now.Before(b.guardUntil) {
		b.phase = brushSettled
	}
}

func (b *brush) initialized() bool {
	return b.phase != brushUninitialized
}
