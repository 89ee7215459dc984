package mode

import (
	"strings"
	"testing"
)

func TestOverlayRenderOrder(t *testing.T) {
	o := NewOverlay("base")
	o.Prepend("first", false)
	o.Prepend("second", false)
	o.Append("tail", false)
	o.SetSection("rules", "no side effects", false)
	o.SetSection("tone", "terse", false)

	got := o.Render()
	want := "first\n\nsecond\n\nbase\n\ntail\n\n## rules\n\nno side effects\n\n## tone\n\nterse"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestOverlayEmptyBase(t *testing.T) {
	o := NewOverlay("")
	o.Append("only part", false)
	if got := o.Render(); got != "only part" {
		t.Errorf("Render() = %q, empty base should not leave a gap", got)
	}
}

func TestOverlaySectionReplaceAndRemove(t *testing.T) {
	o := NewOverlay("base")
	o.SetSection("rules", "v1", false)
	o.SetSection("rules", "v2", false)
	if got := o.Render(); !strings.Contains(got, "v2") || strings.Contains(got, "v1") {
		t.Errorf("Render() = %q, want the replaced section content only", got)
	}

	o.RemoveSection("rules")
	if got := o.Render(); got != "base" {
		t.Errorf("Render() after removal = %q, want just the base", got)
	}
	// Removing again is harmless.
	o.RemoveSection("rules")
}

func TestSnapshotRestoreRevertsChanges(t *testing.T) {
	o := NewOverlay("base")
	o.Append("permanent fixture", false)
	snap := o.Snapshot()

	o.Prepend("mode banner", false)
	o.Append("mode extra", false)
	o.SetSection("scratch", "temporary", false)
	o.SetBase("hijacked")

	o.Restore(snap)
	if got := o.Render(); got != "base\n\npermanent fixture" {
		t.Errorf("Render() after restore = %q, want the snapshot state", got)
	}
}

func TestSnapshotRestoreIsIdempotent(t *testing.T) {
	o := NewOverlay("base")
	snap := o.Snapshot()
	o.Append("added later", false)

	o.Restore(snap)
	first := o.Render()
	o.Restore(snap)
	second := o.Render()
	if first != second {
		t.Errorf("second restore changed state: %q vs %q", first, second)
	}
	if first != "base" {
		t.Errorf("restored state = %q, want base", first)
	}
}

func TestPersistSurvivesRestore(t *testing.T) {
	o := NewOverlay("base")
	snap := o.Snapshot()

	o.Append("fleeting", false)
	o.Append("lesson learned", true)
	o.SetSection("memo", "keep me", true)

	o.Restore(snap)
	got := o.Render()
	if strings.Contains(got, "fleeting") {
		t.Errorf("Render() = %q, non-persistent entry should be gone", got)
	}
	if !strings.Contains(got, "lesson learned") {
		t.Errorf("Render() = %q, persistent append should survive", got)
	}
	if !strings.Contains(got, "keep me") {
		t.Errorf("Render() = %q, persistent section should survive", got)
	}
}

func TestPersistAppliedOnceAcrossNestedRestores(t *testing.T) {
	o := NewOverlay("base")
	outerSnap := o.Snapshot()

	innerSnap := o.Snapshot()
	o.Append("nested insight", true)
	o.Restore(innerSnap)
	if got := o.Render(); !strings.Contains(got, "nested insight") {
		t.Fatalf("Render() = %q, persistent entry should survive the inner restore", got)
	}

	o.Restore(outerSnap)
	if got := o.Render(); strings.Contains(got, "nested insight") {
		t.Errorf("Render() = %q, entry should not survive a second boundary", got)
	}
}

func TestRestoreNilSnapshot(t *testing.T) {
	o := NewOverlay("base")
	o.Restore(nil)
	if got := o.Render(); got != "base" {
		t.Errorf("Render() = %q, nil restore should be a no-op", got)
	}
}
