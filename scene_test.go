package main

import (
	"image/color"
	"testing"

	"gioui.org/f32"
)

var (
	sceneTS       = timeScale{domain: timeRange{start: 0, end: 1000}, width: 100}
	sceneScale    = valueScale{min: 0, max: 8, height: 100}
	sceneDefaults = sceneStyle{
		lineWidth:     2,
		areaAlpha:     128,
		anomalyRadius: 3,
		markerAlpha:   200,
	}
)

func allEnabled(int) bool { return true }

func TestBuildSceneAreas(t *testing.T) {
	m := &Model{Series: []Series{{Name: "load", Points: []DataPoint{
		{TimeNS: 0, Value: 2},
		{TimeNS: 250, Value: 4},
		{TimeNS: 500, Absent: true},
		{TimeNS: 750, Value: 6},
		{TimeNS: 1000, Value: 8},
	}}}}
	sc := buildScene(m, sceneTS, []valueScale{sceneScale}, sceneDefaults, allEnabled)
	// Pairs touching the absent point contribute nothing, leaving one quad
	// on each side of the gap.
	if len(sc.areas) != 2 {
		t.Fatalf("expected 2 area segments, got %d", len(sc.areas))
	}
	expected := [4]f32.Point{{X: 0, Y: 75}, {X: 25, Y: 50}, {X: 25, Y: 100}, {X: 0, Y: 100}}
	if sc.areas[0].pts != expected {
		t.Errorf("expected first quad %v, got %v", expected, sc.areas[0].pts)
	}
	wantFill := seriesColor(0, false)
	wantFill.A = 128
	if sc.areas[0].fill != wantFill {
		t.Errorf("expected fill %v, got %v", wantFill, sc.areas[0].fill)
	}
}

func TestBuildSceneAreaOverride(t *testing.T) {
	green := color.NRGBA{G: 0xff, A: 0xff}
	m := &Model{Series: []Series{{Name: "load", Points: []DataPoint{
		{TimeNS: 0, Value: 2},
		{TimeNS: 250, Value: 4, AreaColor: green, HasAreaColor: true},
	}}}}
	sc := buildScene(m, sceneTS, []valueScale{sceneScale}, sceneDefaults, allEnabled)
	if len(sc.areas) != 1 {
		t.Fatalf("expected 1 area segment, got %d", len(sc.areas))
	}
	// The override supplies the hue; the style still owns the opacity.
	want := color.NRGBA{G: 0xff, A: 128}
	if sc.areas[0].fill != want {
		t.Errorf("expected overridden fill %v, got %v", want, sc.areas[0].fill)
	}
}

func TestBuildSceneLineGapSplit(t *testing.T) {
	m := &Model{Series: []Series{{Name: "load", Points: []DataPoint{
		{TimeNS: 0, Value: 2},
		{TimeNS: 250, Value: 4},
		{TimeNS: 500, Absent: true},
		{TimeNS: 750, Value: 6},
		{TimeNS: 1000, Value: 8},
	}}}}
	sc := buildScene(m, sceneTS, []valueScale{sceneScale}, sceneDefaults, allEnabled)
	if len(sc.lines) != 2 {
		t.Fatalf("expected the gap to split the line into 2 runs, got %d", len(sc.lines))
	}
	first := []f32.Point{{X: 0, Y: 75}, {X: 25, Y: 50}}
	second := []f32.Point{{X: 75, Y: 25}, {X: 100, Y: 0}}
	for i, want := range [][]f32.Point{first, second} {
		got := sc.lines[i].pts
		if len(got) != len(want) {
			t.Fatalf("run %d: expected %d points, got %d", i, len(want), len(got))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("run %d point %d: expected %v, got %v", i, j, want[j], got[j])
			}
		}
	}
	if base := seriesColor(0, false); sc.lines[0].stroke != base {
		t.Errorf("expected stroke %v, got %v", base, sc.lines[0].stroke)
	}
}

func TestBuildSceneLineColorChange(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	m := &Model{Series: []Series{{Name: "load", Points: []DataPoint{
		{TimeNS: 0, Value: 2},
		{TimeNS: 250, Value: 4},
		{TimeNS: 500, Value: 6, LineColor: red, HasLineColor: true},
		{TimeNS: 750, Value: 8},
	}}}}
	sc := buildScene(m, sceneTS, []valueScale{sceneScale}, sceneDefaults, allEnabled)
	// Each color change ends the run and the next one re-begins from the
	// junction point, so the path stays connected.
	if len(sc.lines) != 3 {
		t.Fatalf("expected 3 runs across 2 color changes, got %d", len(sc.lines))
	}
	base := seriesColor(0, false)
	junction1 := f32.Point{X: 25, Y: 50}
	junction2 := f32.Point{X: 50, Y: 25}
	if sc.lines[0].stroke != base || sc.lines[0].pts[1] != junction1 {
		t.Errorf("expected first run to end at %v in the base color, got %+v", junction1, sc.lines[0])
	}
	if sc.lines[1].stroke != red || sc.lines[1].pts[0] != junction1 || sc.lines[1].pts[1] != junction2 {
		t.Errorf("expected red run to bridge from %v to %v, got %+v", junction1, junction2, sc.lines[1])
	}
	if sc.lines[2].stroke != base || sc.lines[2].pts[0] != junction2 {
		t.Errorf("expected final run to bridge from %v in the base color, got %+v", junction2, sc.lines[2])
	}
}

func TestBuildSceneDropsShortRuns(t *testing.T) {
	m := &Model{Series: []Series{{Name: "load", Points: []DataPoint{
		{TimeNS: 0, Value: 2},
		{TimeNS: 250, Value: 4},
		{TimeNS: 500, Absent: true},
		{TimeNS: 750, Value: 6},
		{TimeNS: 1000, Absent: true},
	}}}}
	sc := buildScene(m, sceneTS, []valueScale{sceneScale}, sceneDefaults, allEnabled)
	// The stranded point at 750 cannot form a stroke on its own.
	if len(sc.lines) != 1 {
		t.Fatalf("expected the stranded point to be dropped, got %d runs", len(sc.lines))
	}
	single := &Model{Series: []Series{{Name: "load", Points: []DataPoint{
		{TimeNS: 0, Value: 2},
	}}}}
	sc = buildScene(single, sceneTS, []valueScale{sceneScale}, sceneDefaults, allEnabled)
	if len(sc.lines) != 0 {
		t.Errorf("expected a one-point series to draw no lines, got %d runs", len(sc.lines))
	}
}

func TestBuildSceneSkipsDisabledSeries(t *testing.T) {
	m := &Model{Series: []Series{
		{Name: "a", Points: []DataPoint{{TimeNS: 0, Value: 2}, {TimeNS: 500, Value: 4}}},
		{Name: "b", Points: []DataPoint{{TimeNS: 0, Value: 6}, {TimeNS: 500, Value: 8}}},
	}}
	scales := []valueScale{sceneScale, sceneScale}
	sc := buildScene(m, sceneTS, scales, sceneDefaults, func(i int) bool { return i == 1 })
	for _, seg := range sc.areas {
		if seg.series != 1 {
			t.Errorf("expected only series 1 geometry, got area for series %d", seg.series)
		}
	}
	if len(sc.lines) != 1 || sc.lines[0].series != 1 {
		t.Errorf("expected a single run for series 1, got %+v", sc.lines)
	}
}

func TestBuildSceneAnomalies(t *testing.T) {
	m := &Model{Series: []Series{{Name: "load", Points: []DataPoint{
		{TimeNS: 0, Value: 2, Anomaly: 8, HasAnomaly: true},
		{TimeNS: 500, Absent: true, Anomaly: 4, HasAnomaly: true},
		{TimeNS: 1000, Value: 6},
	}}}}
	sc := buildScene(m, sceneTS, []valueScale{sceneScale}, sceneDefaults, allEnabled)
	// Anomalies plot even where the measure itself is absent.
	if len(sc.anomalies) != 2 {
		t.Fatalf("expected 2 anomaly marks, got %d", len(sc.anomalies))
	}
	if want := (f32.Point{X: 0, Y: 0}); sc.anomalies[0].at != want {
		t.Errorf("expected first mark at %v, got %v", want, sc.anomalies[0].at)
	}
	if want := (f32.Point{X: 50, Y: 50}); sc.anomalies[1].at != want {
		t.Errorf("expected second mark at %v, got %v", want, sc.anomalies[1].at)
	}
	if sc.anomalies[0].fill != anomalyTint(false) {
		t.Errorf("expected anomaly tint %v, got %v", anomalyTint(false), sc.anomalies[0].fill)
	}
}

func TestBuildSceneMarkers(t *testing.T) {
	m := &Model{
		Series:  []Series{{Name: "load", Points: []DataPoint{{TimeNS: 0, Value: 2}}}},
		Markers: []Marker{{TimeNS: 250, Label: "deploy 1"}, {TimeNS: 750, Label: ""}},
	}
	sc := buildScene(m, sceneTS, []valueScale{sceneScale}, sceneDefaults, allEnabled)
	if len(sc.markers) != 2 {
		t.Fatalf("expected 2 marker lines, got %d", len(sc.markers))
	}
	if sc.markers[0].x != 25 || sc.markers[0].label != "deploy 1" {
		t.Errorf("expected marker at pixel 25 labelled %q, got %+v", "deploy 1", sc.markers[0])
	}
	if sc.markers[1].x != 75 || sc.markers[1].label != "" {
		t.Errorf("expected unlabelled marker at pixel 75, got %+v", sc.markers[1])
	}
}

func TestParseHexColor(t *testing.T) {
	type scenario struct {
		cell     string
		expected color.NRGBA
		ok       bool
	}
	for _, s := range []scenario{
		{cell: "#fff", expected: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, ok: true},
		{cell: "#2b7fa8", expected: color.NRGBA{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff}, ok: true},
		{cell: "#00FF0080", expected: color.NRGBA{G: 0xff, A: 0x80}, ok: true},
		{cell: " #0f0 ", expected: color.NRGBA{G: 0xff, A: 0xff}, ok: true},
		{cell: "fff", ok: false},
		{cell: "#12", ok: false},
		{cell: "#xyzxyz", ok: false},
		{cell: "", ok: false},
	} {
		got, ok := parseHexColor(s.cell)
		if ok != s.ok {
			t.Errorf("cell %q: expected ok %v, got %v", s.cell, s.ok, ok)
			continue
		}
		if ok && got != s.expected {
			t.Errorf("cell %q: expected %v, got %v", s.cell, s.expected, got)
		}
	}
}

func TestSeriesColorCycles(t *testing.T) {
	if len(seriesPalette) != len(highContrastPalette) {
		t.Errorf("expected palettes of equal length, got %d and %d", len(seriesPalette), len(highContrastPalette))
	}
	if seriesColor(0, false) != seriesPalette[0] {
		t.Errorf("expected series 0 to take the first palette entry")
	}
	if seriesColor(len(seriesPalette), false) != seriesPalette[0] {
		t.Errorf("expected palette indexes to wrap around")
	}
	if seriesColor(1, true) != highContrastPalette[1] {
		t.Errorf("expected high contrast mode to switch palettes")
	}
}
