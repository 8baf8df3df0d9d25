package main

import (
	"image"
	"image/color"
	"log"
	"slices"
	"sort"
	"strconv"
	"time"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/timeslice/backend"
)

var resetIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.ContentUndo)
	return icon
}()

// Minimum useful plot geometry in dp; anything smaller renders the
// placeholder instead of an unreadably cramped chart.
const (
	minPlotWidthDp  = 100
	minPlotHeightDp = 50
)

// Slicer is the brush slicer widget. It owns the current model, the
// selection state, and a style snapshot, and re-derives scales and scene
// geometry from them on every frame.
type Slicer struct {
	sink backend.FilterSink

	model Model
	style Style
	brush brush
	memo  formatterCache

	extent    timeRange
	hasExtent bool

	plotSize   image.Point
	rangeLabel string

	Enabled  []*widget.Bool
	resetBtn widget.Clickable
	keyTable component.GridState

	// hover gesture state
	pos       f32.Point
	isHovered bool
}

func NewSlicer(sink backend.FilterSink) *Slicer {
	return &Slicer{
		sink:  sink,
		style: defaultStyle(),
		memo:  formatterCache{},
	}
}

// SetData rebuilds the model from a fresh table snapshot. When the overall
// time extent differs from the previous build, the prior selection is
// discarded in favor of the full new range; otherwise the selection
// survives the rebuild untouched.
func (s *Slicer) SetData(view backend.TableView) {
	s.model = BuildModel(view)
	extent, ok := s.model.Extent()
	if !ok {
		s.extent = timeRange{}
		s.hasExtent = false
		s.brush = brush{}
		s.rangeLabel = ""
		return
	}
	if !s.hasExtent || extent != s.extent {
		s.extent = extent
		s.hasExtent = true
		s.brush.resetFull(extent)
		s.refreshLabel()
	}
}

// SetStyle swaps in a new style snapshot. The model and selection are
// untouched; only composition and formatting change.
func (s *Slicer) SetStyle(style Style) {
	s.style = style
	if s.brush.initialized() {
		s.refreshLabel()
	}
}

// CurrentRange reports the outbound form of the current selection, or the
// empty string before any data loads.
func (s *Slicer) CurrentRange() string {
	if !s.brush.initialized() {
		return ""
	}
	return rangeString(s.brush.sel, s.style, s.memo)
}

func (s *Slicer) refreshLabel() {
	s.rangeLabel = displayString(s.brush.sel, s.style, s.memo)
}

// noteViewport records the plot geometry for this frame. A size change
// with a live selection triggers a programmatic restore: the logical
// instants stay put and the guard window opens so that no filter is
// emitted on account of geometry.
func (s *Slicer) noteViewport(size image.Point, now time.Time) {
	if size == s.plotSize {
		return
	}
	resized := s.plotSize != image.Point{}
	s.plotSize = size
	if resized {
		s.brush.restore(now)
	}
}

func (s *Slicer) timeScaleNow() timeScale {
	return timeScale{domain: s.extent, width: float32(s.plotSize.X)}
}

func (s *Slicer) pointerPress(x float32, now time.Time) {
	if !s.hasExtent {
		return
	}
	s.brush.dragStart(s.timeScaleNow().nsOf(x), now)
	s.refreshLabel()
}

func (s *Slicer) pointerDrag(x float32, now time.Time) {
	if s.brush.dragMove(s.timeScaleNow().nsOf(x), now) {
		s.refreshLabel()
	}
}

func (s *Slicer) pointerRelease(now time.Time) {
	emit := s.brush.dragEnd(now)
	if !s.brush.initialized() {
		return
	}
	s.refreshLabel()
	if emit {
		s.emitSelection()
	}
}

func (s *Slicer) pointerCancel() {
	s.brush.cancelDrag()
}

// emitSelection submits the settled selection as an equality filter
// against the resolved target column. Failures are logged and absorbed;
// the selection state never depends on the submission outcome.
func (s *Slicer) emitSelection() {
	if !s.model.HasTarget {
		return
	}
	operand := rangeString(s.brush.sel, s.style, s.memo)
	if err := s.sink.SubmitEqualityFilter(s.model.Target, operand); err != nil {
		log.Printf("failed submitting range filter: %v", err)
	}
}

func (s *Slicer) seriesEnabled(i int) bool {
	if i >= len(s.Enabled) {
		return true
	}
	return s.Enabled[i].Value
}

// Update processes control and pointer events for this frame.
func (s *Slicer) Update(gtx C) {
	for len(s.Enabled) < len(s.model.Series) {
		s.Enabled = append(s.Enabled, &widget.Bool{Value: true})
	}
	if s.resetBtn.Clicked(gtx) && s.hasExtent {
		// A reset is a programmatic placement, not a user drag, so it
		// reuses the full-range path and emits nothing.
		s.brush.resetFull(s.extent)
		s.refreshLabel()
	}
	s.brush.advance(gtx.Now)
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: s,
			Kinds:  pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel | pointer.Enter | pointer.Leave | pointer.Move,
		})
		if !ok {
			break
		}
		switch ev := ev.(type) {
		case pointer.Event:
			switch ev.Kind {
			case pointer.Press:
				s.pos = ev.Position
				s.pointerPress(ev.Position.X, gtx.Now)
			case pointer.Drag:
				s.pos = ev.Position
				s.pointerDrag(ev.Position.X, gtx.Now)
			case pointer.Release:
				s.pointerRelease(gtx.Now)
			case pointer.Cancel:
				s.pointerCancel()
				s.isHovered = false
			case pointer.Enter:
				s.isHovered = true
				s.pos = ev.Position
			case pointer.Leave:
				s.isHovered = false
			case pointer.Move:
				s.pos = ev.Position
			}
		}
	}
	if s.brush.labelDue(gtx.Now) {
		s.brush.flushLabel()
		s.refreshLabel()
	}
}

// placeholderFor decides whether a placeholder renders instead of the
// plot, and with which message.
func placeholderFor(size, minSize image.Point, empty bool) (string, bool) {
	if size.X < minSize.X || size.Y < minSize.Y {
		return "Viewport too small to plot.", true
	}
	if empty {
		return "No plottable rows loaded.", true
	}
	return "", false
}

func rec(gtx C, w layout.Widget) (D, op.CallOp) {
	macro := op.Record(gtx.Ops)
	dims := w(gtx)
	call := macro.Stop()
	return dims, call
}

// Layout renders the widget: plot with brush overlay, axis strip beneath
// it, and the series key table at the bottom.
func (s *Slicer) Layout(gtx C, th *material.Theme) D {
	s.Update(gtx)
	minSize := image.Pt(gtx.Dp(minPlotWidthDp), gtx.Dp(minPlotHeightDp))
	if msg, bail := placeholderFor(gtx.Constraints.Max, minSize, s.model.Empty()); bail {
		return s.layoutPlaceholder(gtx, th, msg)
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Flexed(1, func(gtx C) D {
			s.noteViewport(gtx.Constraints.Max, gtx.Now)
			return s.layoutPlot(gtx, th)
		}),
		layout.Rigid(func(gtx C) D {
			return s.layoutAxisStrip(gtx, th)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, gtx.Dp(140))
			return s.layoutKey(gtx, th)
		}),
	)
}

func (s *Slicer) layoutPlaceholder(gtx C, th *material.Theme, msg string) D {
	gtx.Constraints.Min = gtx.Constraints.Max
	return layout.Center.Layout(gtx, material.Body1(th, msg).Layout)
}

func (s *Slicer) sceneStyleFor(gtx C) sceneStyle {
	return sceneStyle{
		lineWidth:     gtx.Metric.PxPerDp * float32(s.style.LineWidth),
		areaAlpha:     uint8(s.style.AreaOpacity * 255),
		anomalyRadius: gtx.Metric.PxPerDp * float32(s.style.AnomalySize),
		markerAlpha:   uint8(s.style.MarkerOpacity * 255),
		highContrast:  s.style.HighContrast,
	}
}

func (s *Slicer) layoutPlot(gtx C, th *material.Theme) D {
	size := gtx.Constraints.Max
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, s)

	ts := s.timeScaleNow()
	vscales := deriveValueScales(&s.model, s.style, float32(size.Y))
	style := s.sceneStyleFor(gtx)

	s.paintGrid(gtx, vscales, th)
	sc := buildScene(&s.model, ts, vscales, style, s.seriesEnabled)
	paintScene(gtx, th, sc, style)
	s.paintBrush(gtx, ts)
	if s.isHovered && s.brush.phase != brushDragging {
		s.layoutHover(gtx, th, ts)
	}

	// Deferred work wakes the frame loop rather than busy-redrawing: the
	// pending label refresh at its debounce deadline, and the restore
	// guard at its expiry.
	if s.brush.labelDirty {
		gtx.Execute(op.InvalidateCmd{At: s.brush.labelNext})
	}
	if s.brush.phase == brushRestoring {
		gtx.Execute(op.InvalidateCmd{At: s.brush.guardUntil})
	}
	return D{Size: size}
}

// paintGrid draws horizontal value gridlines for the first enabled series.
// With several series sharing the plot each has its own scale, so the grid
// is a reading aid rather than a shared ruler.
func (s *Slicer) paintGrid(gtx C, vscales []valueScale, th *material.Theme) {
	gridSeries := -1
	for i := range s.model.Series {
		if s.seriesEnabled(i) {
			gridSeries = i
			break
		}
	}
	if gridSeries < 0 {
		return
	}
	scale := vscales[gridSeries]
	lineColor := th.Fg
	lineColor.A = 50
	oneDp := gtx.Dp(1)
	for _, v := range gridValues(scale) {
		y := int(scale.pxOf(v))
		paint.FillShape(gtx.Ops, lineColor, clip.Rect{
			Min: image.Pt(0, y),
			Max: image.Pt(gtx.Constraints.Max.X, y+oneDp),
		}.Op())
		func() {
			defer op.Offset(image.Pt(gtx.Dp(2), y+oneDp)).Push(gtx.Ops).Pop()
			labelGtx := gtx
			labelGtx.Constraints.Min = image.Point{}
			label := material.Caption(th, strconv.FormatFloat(v, 'f', -1, 64))
			label.Color = th.Fg
			label.Color.A = 150
			label.Layout(labelGtx)
		}()
	}
}

// paintBrush draws the selection overlay: a translucent region between the
// selection edges plus solid edge handles, all derived from the logical
// selection at this frame's scale.
func (s *Slicer) paintBrush(gtx C, ts timeScale) {
	if !s.brush.initialized() {
		return
	}
	xL := int(ts.pxOf(s.brush.sel.start))
	xR := int(ts.pxOf(s.brush.sel.end))
	maxY := gtx.Constraints.Max.Y
	fill := brushTint(s.style.HighContrast)
	fill.A = uint8(s.style.BrushOpacity * 255)
	paint.FillShape(gtx.Ops, fill, clip.Rect{
		Min: image.Pt(xL, 0),
		Max: image.Pt(xR, maxY),
	}.Op())
	handle := brushTint(s.style.HighContrast)
	halfWidth := gtx.Dp(1)
	for _, x := range [2]int{xL, xR} {
		paint.FillShape(gtx.Ops, handle, clip.Rect{
			Min: image.Pt(x-halfWidth, 0),
			Max: image.Pt(x+halfWidth, maxY),
		}.Op())
	}
}

// layoutHover draws a crosshair at the pointer with the instant and the
// nearest value of each enabled series, sorted descending so the readout
// matches the vertical order of the lines.
func (s *Slicer) layoutHover(gtx C, th *material.Theme, ts timeScale) {
	xR := ceil(s.pos.X)
	xL := xR - float32(gtx.Dp(1))
	hoverNS := ts.nsOf(s.pos.X)
	children := []layout.FlexChild{}
	values := []float64{}
	for i := range s.model.Series {
		i := i
		if !s.seriesEnabled(i) {
			continue
		}
		pt, ok := nearestPoint(s.model.Series[i].Points, hoverNS)
		if !ok {
			continue
		}
		value := pt.Value
		insertIdx, _ := slices.BinarySearch(values, value)
		values = slices.Insert(values, insertIdx, value)
		children = slices.Insert(children, len(children)-insertIdx, layout.Rigid(func(gtx C) D {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(material.Body2(th, strconv.FormatFloat(value, 'f', 3, 64)).Layout),
				layout.Rigid(layout.Spacer{Width: 8}.Layout),
				layout.Rigid(func(gtx C) D {
					size := image.Pt(gtx.Dp(8), gtx.Dp(8))
					paint.FillShape(gtx.Ops, seriesColor(i, s.style.HighContrast), clip.Ellipse{Max: size}.Op(gtx.Ops))
					return D{Size: size}
				}),
			)
		}))
	}
	instant := formatTokens(s.memo.compiled(s.style.DisplayFormat), hoverNS)
	children = slices.Insert(children, 0, layout.Rigid(material.Body2(th, instant).Layout))

	origConstraints := gtx.Constraints
	gtx.Constraints.Min = image.Point{}
	hoverInfoDims, hoverInfoCall := rec(gtx, func(gtx C) D {
		return layout.Background{}.Layout(gtx,
			func(gtx C) D {
				paint.FillShape(gtx.Ops, color.NRGBA{R: 255, G: 255, B: 255, A: 150}, clip.Rect{Max: gtx.Constraints.Min}.Op())
				return D{Size: gtx.Constraints.Min}
			},
			func(gtx C) D {
				return layout.UniformInset(10).Layout(gtx, func(gtx C) D {
					return layout.Flex{
						Axis:      layout.Vertical,
						Alignment: layout.End,
					}.Layout(gtx, children...)
				})
			},
		)
	})
	gtx.Constraints = origConstraints

	pos := image.Point{}
	if int(xL) > gtx.Constraints.Max.X-int(xR) {
		pos.X = max(int(xL)-hoverInfoDims.Size.X, 0)
	} else {
		pos.X = min(int(xR), gtx.Constraints.Max.X-hoverInfoDims.Size.X)
	}
	if offscreenY := gtx.Constraints.Max.Y - (int(s.pos.Y) + hoverInfoDims.Size.Y); offscreenY < 0 {
		pos.Y = int(s.pos.Y) + offscreenY
	} else {
		pos.Y = int(s.pos.Y)
	}
	paint.FillShape(gtx.Ops, color.NRGBA{A: 255}, clip.Rect{
		Min: image.Point{X: int(xL)},
		Max: image.Point{X: int(xR), Y: gtx.Constraints.Max.Y},
	}.Op())
	transform := op.Offset(pos).Push(gtx.Ops)
	hoverInfoCall.Add(gtx.Ops)
	transform.Pop()
}

// nearestPoint finds the non-absent point closest to an instant.
func nearestPoint(points []DataPoint, ns int64) (DataPoint, bool) {
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].TimeNS >= ns
	})
	best := DataPoint{}
	found := false
	consider := func(i int) {
		if i < 0 || i >= len(points) || points[i].Absent {
			return
		}
		if !found || abs64(points[i].TimeNS-ns) < abs64(best.TimeNS-ns) {
			best = points[i]
			found = true
		}
	}
	consider(idx - 1)
	consider(idx)
	return best, found
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// layoutAxisStrip renders the domain endpoints, the live range label, and
// the reset control under the plot.
func (s *Slicer) layoutAxisStrip(gtx C, th *material.Theme) D {
	tokens := s.memo.compiled(s.style.DisplayFormat)
	start := formatTokens(tokens, s.extent.start)
	end := formatTokens(tokens, s.extent.end)
	return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
		return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(material.Body2(th, start).Layout),
			layout.Flexed(1, func(gtx C) D {
				gtx.Constraints.Min.X = gtx.Constraints.Max.X
				label := material.Body1(th, s.rangeLabel)
				label.Alignment = text.Middle
				return label.Layout(gtx)
			}),
			layout.Rigid(material.Body2(th, end).Layout),
			layout.Rigid(layout.Spacer{Width: 8}.Layout),
			layout.Rigid(func(gtx C) D {
				return material.Clickable(gtx, &s.resetBtn, func(gtx C) D {
					side := gtx.Dp(20)
					gtx.Constraints = layout.Exact(image.Pt(side, side))
					return layout.Center.Layout(gtx, func(gtx C) D {
						return resetIcon.Layout(gtx, th.Fg)
					})
				})
			}),
		)
	})
}

// layoutKey renders the series key table: visibility toggle with color
// swatch, name, and per-series sample statistics.
func (s *Slicer) layoutKey(gtx C, th *material.Theme) D {
	table := component.Table(th, &s.keyTable)
	table.HScrollbarStyle.Indicator.MinorWidth = 0
	table.HScrollbarStyle.Track.MinorPadding = 0
	table.VScrollbarStyle.Indicator.MinorWidth = 0
	table.VScrollbarStyle.Track.MinorPadding = 0
	colorColWidth := gtx.Dp(50)
	statColWidth := gtx.Dp(100)
	nameColWidth := gtx.Constraints.Max.X - colorColWidth - 3*statColWidth - gtx.Dp(table.VScrollbarStyle.Width())
	rowHeight := gtx.Sp(20)
	const (
		colorCol = iota
		seriesNameCol
		samplesCol
		minCol
		maxCol
		numCols
	)
	return table.Layout(gtx, len(s.model.Series), numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			var size int
			switch index {
			case colorCol:
				size = colorColWidth
			case seriesNameCol:
				size = nameColWidth
			case samplesCol, minCol, maxCol:
				size = statColWidth
			}
			return min(size, constraint)
		},
		func(gtx C, index int) D {
			var l material.LabelStyle
			switch index {
			case colorCol:
				l = material.Body1(th, "Show")
			case seriesNameCol:
				l = material.Body1(th, "Series")
				l.Alignment = text.Middle
			case samplesCol:
				l = material.Body1(th, "Samples")
				l.Alignment = text.End
			case minCol:
				l = material.Body1(th, "Min")
				l.Alignment = text.End
			case maxCol:
				l = material.Body1(th, "Max")
				l.Alignment = text.End
			default:
				l = material.Body1(th, "???")
			}
			l.Color = th.ContrastFg
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				}, func(gtx C) D {
					return l.Layout(gtx)
				},
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			dims = layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				if row >= len(s.model.Series) || row >= len(s.Enabled) {
					return D{Size: gtx.Constraints.Min}
				}
				s.Enabled[row].Update(gtx)
				enabled := s.Enabled[row].Value
				disabledAlpha := uint8(100)
				series := s.model.Series[row]
				switch col {
				case colorCol:
					return s.Enabled[row].Layout(gtx, func(gtx C) D {
						return layout.Center.Layout(gtx, func(gtx C) D {
							sideLen := gtx.Dp(10)
							sz := image.Pt(sideLen, sideLen)
							fullColor := seriesColor(row, s.style.HighContrast)
							if !enabled {
								fullColor.A = disabledAlpha
							}
							paint.FillShape(gtx.Ops, fullColor, clip.Rect{Max: sz}.Op())
							return D{Size: sz}
						})
					})
				case seriesNameCol:
					l := material.Body2(th, series.Name)
					if !enabled {
						l.Color.A = disabledAlpha
					}
					return l.Layout(gtx)
				case samplesCol, minCol, maxCol:
					lo, hi, ok := valueBounds(series.Points)
					var content string
					switch col {
					case samplesCol:
						count := 0
						for _, pt := range series.Points {
							if !pt.Absent {
								count++
							}
						}
						content = strconv.Itoa(count)
					case minCol:
						content = "-"
						if ok {
							content = strconv.FormatFloat(lo, 'f', 2, 64)
						}
					case maxCol:
						content = "-"
						if ok {
							content = strconv.FormatFloat(hi, 'f', 2, 64)
						}
					}
					l := material.Body2(th, content)
					if !enabled {
						l.Color.A = disabledAlpha
					}
					l.Alignment = text.End
					return l.Layout(gtx)
				default:
					return D{Size: gtx.Constraints.Max}
				}
			})
			if row&1 != 0 {
				tint := seriesColor(row, s.style.HighContrast)
				tint.A = 50
				paint.FillShape(gtx.Ops, tint, clip.Rect{Max: gtx.Constraints.Max}.Op())
			}
			return dims
		})
}
