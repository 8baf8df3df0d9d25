package main

import (
	"testing"
	"time"
)

func TestBrushDragClampsToDomain(t *testing.T) {
	var b brush
	b.resetFull(timeRange{start: 1000, end: 2000})
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.dragStart(500, at)
	if b.phase != brushDragging {
		t.Fatalf("expected phase %v, got %v", brushDragging, b.phase)
	}
	if b.sel != (timeRange{start: 1000, end: 1000}) {
		t.Errorf("expected anchor clamped to the domain start, got %+v", b.sel)
	}
	b.dragMove(3000, at.Add(20*time.Millisecond))
	if b.sel != (timeRange{start: 1000, end: 2000}) {
		t.Errorf("expected selection clamped to the domain, got %+v", b.sel)
	}
}

func TestBrushAnchorOrdering(t *testing.T) {
	var b brush
	b.resetFull(timeRange{start: 0, end: 10_000})
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.dragStart(6000, at)
	b.dragMove(2000, at.Add(20*time.Millisecond))
	if b.sel != (timeRange{start: 2000, end: 6000}) {
		t.Errorf("expected a leftward drag to order around the anchor, got %+v", b.sel)
	}
	b.dragMove(9000, at.Add(40*time.Millisecond))
	if b.sel != (timeRange{start: 6000, end: 9000}) {
		t.Errorf("expected a rightward drag to order around the anchor, got %+v", b.sel)
	}
}

func TestBrushLabelDebounce(t *testing.T) {
	var b brush
	b.resetFull(timeRange{start: 0, end: 10_000})
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.dragStart(1000, at)
	if b.dragMove(2000, at.Add(5*time.Millisecond)) {
		t.Errorf("expected a label refresh within the debounce interval to be deferred")
	}
	if !b.labelDirty {
		t.Errorf("expected the deferred refresh to be marked dirty")
	}
	// The bounds still track every move even while the label waits.
	if b.sel != (timeRange{start: 1000, end: 2000}) {
		t.Errorf("expected bounds to update synchronously, got %+v", b.sel)
	}
	if b.labelDue(at.Add(10 * time.Millisecond)) {
		t.Errorf("expected the deferred refresh not to be due before the interval")
	}
	if !b.labelDue(at.Add(labelRefreshInterval)) {
		t.Errorf("expected the deferred refresh to come due at the interval")
	}
	b.flushLabel()
	if b.labelDirty {
		t.Errorf("expected flushing to clear the deferred refresh")
	}
	if !b.dragMove(3000, at.Add(30*time.Millisecond)) {
		t.Errorf("expected a label refresh after the interval to proceed")
	}
}

func TestBrushZeroWidthReleaseSelectsAll(t *testing.T) {
	var b brush
	domain := timeRange{start: 1000, end: 2000}
	b.resetFull(domain)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.dragStart(1500, at)
	emit := b.dragEnd(at.Add(10 * time.Millisecond))
	if !emit {
		t.Errorf("expected a zero-width release to emit")
	}
	if b.sel != domain {
		t.Errorf("expected a zero-width release to snap to the full domain, got %+v", b.sel)
	}
	if b.phase != brushSettled {
		t.Errorf("expected phase %v, got %v", brushSettled, b.phase)
	}
}

func TestBrushGuardSuppressesRelease(t *testing.T) {
	var b brush
	b.resetFull(timeRange{start: 0, end: 10_000})
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.restore(at)
	if b.phase != brushRestoring {
		t.Fatalf("expected phase %v, got %v", brushRestoring, b.phase)
	}
	b.dragStart(2000, at.Add(10*time.Millisecond))
	b.dragMove(4000, at.Add(15*time.Millisecond))
	if emit := b.dragEnd(at.Add(20 * time.Millisecond)); emit {
		t.Errorf("expected a release within the guard window to be suppressed")
	}
	if b.phase != brushSettled {
		t.Errorf("expected a suppressed release to settle anyway, got phase %v", b.phase)
	}
	b.dragStart(2000, at.Add(60*time.Millisecond))
	b.dragMove(4000, at.Add(65*time.Millisecond))
	if emit := b.dragEnd(at.Add(70 * time.Millisecond)); !emit {
		t.Errorf("expected a release after the guard window to emit")
	}
}

func TestBrushRestoreDuringDragIsNoop(t *testing.T) {
	var b brush
	b.resetFull(timeRange{start: 0, end: 10_000})
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.dragStart(2000, at)
	b.restore(at.Add(5 * time.Millisecond))
	if b.phase != brushDragging {
		t.Errorf("expected an in-flight drag to keep dragging, got phase %v", b.phase)
	}
	b.dragMove(4000, at.Add(20*time.Millisecond))
	if emit := b.dragEnd(at.Add(30 * time.Millisecond)); !emit {
		t.Errorf("expected the user's own release to emit")
	}
}

func TestBrushRestoreBeforeDataIsNoop(t *testing.T) {
	var b brush
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.restore(at)
	if b.phase != brushUninitialized {
		t.Errorf("expected an uninitialized brush to stay uninitialized, got phase %v", b.phase)
	}
	b.dragStart(1000, at)
	if b.phase != brushUninitialized {
		t.Errorf("expected drags before data to be ignored, got phase %v", b.phase)
	}
	if b.dragEnd(at) {
		t.Errorf("expected no emission before initialization")
	}
}

func TestBrushAdvanceSettlesAfterGuard(t *testing.T) {
	var b brush
	b.resetFull(timeRange{start: 0, end: 10_000})
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.restore(at)
	b.advance(at.Add(10 * time.Millisecond))
	if b.phase != brushRestoring {
		t.Errorf("expected the brush to keep restoring within the guard window, got phase %v", b.phase)
	}
	b.advance(at.Add(restoreGuardWindow))
	if b.phase != brushSettled {
		t.Errorf("expected the brush to settle once the guard expires, got phase %v", b.phase)
	}
}

func TestBrushCancelKeepsBounds(t *testing.T) {
	var b brush
	b.resetFull(timeRange{start: 0, end: 10_000})
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.dragStart(2000, at)
	b.dragMove(6000, at.Add(20*time.Millisecond))
	b.cancelDrag()
	if b.phase != brushSettled {
		t.Errorf("expected a cancelled drag to settle, got phase %v", b.phase)
	}
	if b.sel != (timeRange{start: 2000, end: 6000}) {
		t.Errorf("expected the cancelled bounds to survive, got %+v", b.sel)
	}
	if b.dragEnd(at.Add(30 * time.Millisecond)) {
		t.Errorf("expected a release after cancellation to be inert")
	}
}

func TestBrushResetAdoptsNewDomain(t *testing.T) {
	var b brush
	b.resetFull(timeRange{start: 0, end: 10_000})
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.dragStart(2000, at)
	b.dragMove(6000, at.Add(20*time.Millisecond))
	b.dragEnd(at.Add(30 * time.Millisecond))
	next := timeRange{start: 5000, end: 50_000}
	b.resetFull(next)
	if b.sel != next {
		t.Errorf("expected the reset selection to cover the new domain, got %+v", b.sel)
	}
	if b.phase != brushFullRange {
		t.Errorf("expected phase %v, got %v", brushFullRange, b.phase)
	}
}
