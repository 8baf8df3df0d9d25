package main

import (
	"image"
	"image/color"

	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"
)

// sceneStyle is the pixel-resolved subset of Style that geometry depends
// on.
type sceneStyle struct {
	lineWidth     float32
	areaAlpha     uint8
	anomalyRadius float32
	markerAlpha   uint8
	highContrast  bool
}

// areaSegment is one filled quad dropped from a consecutive non-absent
// pair of points down to the bottom of the plot.
type areaSegment struct {
	series int
	pts    [4]f32.Point
	fill   color.NRGBA
}

// lineRun is a maximal run of consecutive points sharing one resolved
// stroke color.
type lineRun struct {
	series int
	pts    []f32.Point
	stroke color.NRGBA
}

// anomalyMark is an independently plotted anomaly dot.
type anomalyMark struct {
	series int
	at     f32.Point
	fill   color.NRGBA
}

// markerLine is one deduplicated timeline marker.
type markerLine struct {
	x     float32
	label string
}

type scene struct {
	areas     []areaSegment
	lines     []lineRun
	anomalies []anomalyMark
	markers   []markerLine
}

// buildScene converts the model into inert pixel geometry. It is a pure
// function of its inputs; painting happens separately so that geometry can
// be inspected without a frame.
func buildScene(m *Model, ts timeScale, vs []valueScale, style sceneStyle, enabled func(int) bool) scene {
	var sc scene
	for si := range m.Series {
		if !enabled(si) {
			continue
		}
		base := seriesColor(si, style.highContrast)
		points := m.Series[si].Points
		scale := vs[si]

		// Areas render as one quad per consecutive non-absent pair so
		// that a per-row override colors only its own segment.
		for i := 1; i < len(points); i++ {
			prev, cur := points[i-1], points[i]
			if prev.Absent || cur.Absent {
				continue
			}
			fill := base
			if cur.HasAreaColor {
				fill = cur.AreaColor
			}
			fill.A = style.areaAlpha
			x0, y0 := ts.pxOf(prev.TimeNS), scale.pxOf(prev.Value)
			x1, y1 := ts.pxOf(cur.TimeNS), scale.pxOf(cur.Value)
			sc.areas = append(sc.areas, areaSegment{
				series: si,
				pts: [4]f32.Point{
					{X: x0, Y: y0},
					{X: x1, Y: y1},
					{X: x1, Y: scale.height},
					{X: x0, Y: scale.height},
				},
				fill: fill,
			})
		}

		// Lines collapse consecutive same-color points into one path. A
		// gap or a color change ends the run; a color change also bridges
		// from the junction point so the path stays visually connected.
		// Runs shorter than two points are not drawn.
		var run lineRun
		run.series = si
		var lastPx f32.Point
		flush := func() {
			if len(run.pts) >= 2 {
				sc.lines = append(sc.lines, run)
			}
			run = lineRun{series: si}
		}
		for _, pt := range points {
			if pt.Absent {
				flush()
				continue
			}
			stroke := base
			if pt.HasLineColor {
				stroke = pt.LineColor
			}
			px := f32.Point{X: ts.pxOf(pt.TimeNS), Y: scale.pxOf(pt.Value)}
			switch {
			case len(run.pts) == 0:
				run.stroke = stroke
			case stroke != run.stroke:
				junction := lastPx
				flush()
				run.stroke = stroke
				run.pts = append(run.pts, junction)
			}
			run.pts = append(run.pts, px)
			lastPx = px
		}
		flush()

		// Anomalies are an independent overlay plotted on the owning
		// series' scale, absent values notwithstanding.
		for _, pt := range points {
			if !pt.HasAnomaly {
				continue
			}
			sc.anomalies = append(sc.anomalies, anomalyMark{
				series: si,
				at:     f32.Point{X: ts.pxOf(pt.TimeNS), Y: scale.pxOf(pt.Anomaly)},
				fill:   anomalyTint(style.highContrast),
			})
		}
	}

	// Markers are already global and deduplicated by instant in the model.
	for _, mk := range m.Markers {
		sc.markers = append(sc.markers, markerLine{
			x:     ts.pxOf(mk.TimeNS),
			label: mk.Label,
		})
	}
	return sc
}

// paintScene replays built geometry into the frame's ops: areas first,
// then lines over them, then anomaly dots, then markers on top.
func paintScene(gtx C, th *material.Theme, sc scene, style sceneStyle) {
	for _, seg := range sc.areas {
		var p clip.Path
		p.Begin(gtx.Ops)
		p.MoveTo(seg.pts[0])
		p.LineTo(seg.pts[1])
		p.LineTo(seg.pts[2])
		p.LineTo(seg.pts[3])
		p.Close()
		paint.FillShape(gtx.Ops, seg.fill, clip.Outline{Path: p.End()}.Op())
	}
	for _, run := range sc.lines {
		var p clip.Path
		p.Begin(gtx.Ops)
		p.MoveTo(run.pts[0])
		for _, pt := range run.pts[1:] {
			p.LineTo(pt)
		}
		paint.FillShape(gtx.Ops, run.stroke, clip.Stroke{
			Path:  p.End(),
			Width: style.lineWidth,
		}.Op())
	}
	for _, mark := range sc.anomalies {
		r := style.anomalyRadius
		bounds := image.Rect(
			int(mark.at.X-r), int(mark.at.Y-r),
			int(mark.at.X+r), int(mark.at.Y+r),
		)
		paint.FillShape(gtx.Ops, mark.fill, clip.Ellipse(bounds).Op(gtx.Ops))
	}
	markerColor := markerTint(style.highContrast)
	markerColor.A = style.markerAlpha
	maxY := gtx.Constraints.Max.Y
	for _, mk := range sc.markers {
		x := int(mk.x)
		paint.FillShape(gtx.Ops, markerColor, clip.Rect{
			Min: image.Pt(x, 0),
			Max: image.Pt(x+gtx.Dp(1), maxY),
		}.Op())
		if mk.label == "" {
			continue
		}
		func() {
			defer op.Offset(image.Pt(x+gtx.Dp(2), gtx.Dp(2))).Push(gtx.Ops).Pop()
			labelGtx := gtx
			labelGtx.Constraints.Min = image.Point{}
			label := material.Caption(th, mk.label)
			label.Color = markerTint(style.highContrast)
			label.Layout(labelGtx)
		}()
	}
}
