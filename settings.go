package main

import (
	"strconv"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"git.sr.ht/~gioverse/skel/stream"
	"git.sr.ht/~whereswaldon/timeslice/backend"
)

// Controls is the property sheet for the slicer plus the log of filters it
// has emitted. Edits take effect when applied, at which point a complete
// new style snapshot replaces the slicer's current one.
type Controls struct {
	ws     backend.WindowState
	slicer *Slicer

	delimEditor   component.TextField
	formatEditor  component.TextField
	displayEditor component.TextField
	widthEditor   component.TextField
	axisMinEditor component.TextField
	axisMaxEditor component.TextField
	isoBox        widget.Bool
	contrastBox   widget.Bool
	applyBtn      widget.Clickable

	logStream *stream.Stream[backend.FilterLog]
	filterLog backend.FilterLog
	table     component.GridState
}

func NewControls(ws backend.WindowState, slicer *Slicer) *Controls {
	c := &Controls{
		ws:        ws,
		slicer:    slicer,
		logStream: stream.New(ws.Controller, ws.Bundle.Filters.Log),
	}
	seed := defaultStyle()
	c.isoBox.Value = seed.UseISO8601
	c.contrastBox.Value = seed.HighContrast
	c.delimEditor.SetText(seed.Delimiter)
	c.formatEditor.SetText(seed.CustomFormat)
	c.displayEditor.SetText(seed.DisplayFormat)
	c.widthEditor.SetText(strconv.FormatFloat(float64(seed.LineWidth), 'f', -1, 32))
	return c
}

func (c *Controls) Update(gtx C, th *material.Theme) {
	c.delimEditor.Update(gtx, th, "Range delimiter")
	c.formatEditor.Update(gtx, th, "Custom range format")
	c.displayEditor.Update(gtx, th, "Display format")
	c.widthEditor.Update(gtx, th, "Line width (dp)")
	c.axisMinEditor.Update(gtx, th, "Axis min")
	c.axisMaxEditor.Update(gtx, th, "Axis max")
	c.isoBox.Update(gtx)
	c.contrastBox.Update(gtx)
	c.logStream.ReadInto(gtx, &c.filterLog, backend.FilterLog{})
	if c.applyBtn.Clicked(gtx) {
		c.slicer.SetStyle(c.styleFromFields())
	}
}

// styleFromFields assembles a fresh style snapshot from the sheet's
// fields. Blank or unparseable fields keep their defaults.
func (c *Controls) styleFromFields() Style {
	style := defaultStyle()
	style.UseISO8601 = c.isoBox.Value
	style.HighContrast = c.contrastBox.Value
	if d := c.delimEditor.Text(); d != "" {
		style.Delimiter = d
	}
	if f := c.formatEditor.Text(); f != "" {
		style.CustomFormat = f
	}
	if f := c.displayEditor.Text(); f != "" {
		style.DisplayFormat = f
	}
	style.AxisMin = c.axisMinEditor.Text()
	style.AxisMax = c.axisMaxEditor.Text()
	if w, err := strconv.ParseFloat(c.widthEditor.Text(), 32); err == nil && w > 0 {
		style.LineWidth = unit.Dp(w)
	}
	return style
}

func (c *Controls) Layout(gtx C, th *material.Theme) D {
	inset := layout.UniformInset(2)
	c.Update(gtx, th)
	return layout.Flex{
		Axis: layout.Vertical,
	}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return inset.Layout(gtx, material.Body1(th, "Current range: "+c.slicer.CurrentRange()).Layout)
		}),
		layout.Rigid(func(gtx C) D {
			return layout.Flex{
				Alignment: layout.Baseline,
			}.Layout(gtx,
				layout.Flexed(1, func(gtx C) D {
					return inset.Layout(gtx, func(gtx C) D {
						return c.delimEditor.Layout(gtx, th, "Range delimiter")
					})
				}),
				layout.Flexed(1, func(gtx C) D {
					return inset.Layout(gtx, func(gtx C) D {
						return c.widthEditor.Layout(gtx, th, "Line width (dp)")
					})
				}),
			)
		}),
		layout.Rigid(func(gtx C) D {
			return layout.Flex{
				Alignment: layout.Baseline,
			}.Layout(gtx,
				layout.Flexed(1, func(gtx C) D {
					return inset.Layout(gtx, func(gtx C) D {
						return c.formatEditor.Layout(gtx, th, "Custom range format")
					})
				}),
				layout.Flexed(1, func(gtx C) D {
					return inset.Layout(gtx, func(gtx C) D {
						return c.displayEditor.Layout(gtx, th, "Display format")
					})
				}),
			)
		}),
		layout.Rigid(func(gtx C) D {
			return layout.Flex{
				Alignment: layout.Baseline,
			}.Layout(gtx,
				layout.Flexed(1, func(gtx C) D {
					return inset.Layout(gtx, func(gtx C) D {
						return c.axisMinEditor.Layout(gtx, th, "Axis min")
					})
				}),
				layout.Flexed(1, func(gtx C) D {
					return inset.Layout(gtx, func(gtx C) D {
						return c.axisMaxEditor.Layout(gtx, th, "Axis max")
					})
				}),
			)
		}),
		layout.Rigid(func(gtx C) D {
			return layout.Flex{
				Alignment: layout.Middle,
			}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					return inset.Layout(gtx, material.CheckBox(th, &c.isoBox, "ISO-8601 range output").Layout)
				}),
				layout.Rigid(func(gtx C) D {
					return inset.Layout(gtx, material.CheckBox(th, &c.contrastBox, "High contrast").Layout)
				}),
				layout.Flexed(1, func(gtx C) D {
					return inset.Layout(gtx, material.Button(th, &c.applyBtn, "Apply").Layout)
				}),
			)
		}),
		layout.Rigid(func(gtx C) D {
			return inset.Layout(gtx, material.Body1(th, "Emitted filters").Layout)
		}),
		layout.Flexed(1, func(gtx C) D {
			return c.layoutFilterLog(gtx, th)
		}),
	)
}

// layoutFilterLog renders the accepted filter submissions, newest rows at
// the bottom.
func (c *Controls) layoutFilterLog(gtx C, th *material.Theme) D {
	tbl := component.Table(th, &c.table)
	tbl.HScrollbarStyle.Indicator.MinorWidth = 0
	tbl.HScrollbarStyle.Track.MinorPadding = 0
	tbl.VScrollbarStyle.Indicator.MinorWidth = 0
	tbl.VScrollbarStyle.Track.MinorPadding = 0
	timeColWidth := gtx.Dp(90)
	columnColWidth := gtx.Dp(140)
	operandColWidth := gtx.Constraints.Max.X - timeColWidth - columnColWidth - gtx.Dp(tbl.VScrollbarStyle.Width())
	rowHeight := gtx.Sp(20)
	const (
		timeCol = iota
		columnCol
		operandCol
		numCols
	)
	return tbl.Layout(gtx, len(c.filterLog.Records), numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			var size int
			switch index {
			case timeCol:
				size = timeColWidth
			case columnCol:
				size = columnColWidth
			case operandCol:
				size = operandColWidth
			}
			return min(size, constraint)
		},
		func(gtx C, index int) D {
			var l material.LabelStyle
			switch index {
			case timeCol:
				l = material.Body1(th, "Time")
			case columnCol:
				l = material.Body1(th, "Column")
			case operandCol:
				l = material.Body1(th, "Operand")
			default:
				l = material.Body1(th, "???")
			}
			l.MaxLines = 1
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
			if row >= len(c.filterLog.Records) {
				return D{Size: gtx.Constraints.Min}
			}
			record := c.filterLog.Records[row]
			dims = layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				var l material.LabelStyle
				switch col {
				case timeCol:
					l = material.Body2(th, record.At.Format("15:04:05"))
				case columnCol:
					l = material.Body2(th, record.Target.Column)
				case operandCol:
					l = material.Body2(th, record.Operand)
					l.Alignment = text.Start
				default:
					return D{Size: gtx.Constraints.Max}
				}
				l.MaxLines = 1
				return l.Layout(gtx)
			})
			if row&1 != 0 {
				tint := th.Fg
				tint.A = 25
				paint.FillShape(gtx.Ops, tint, clip.Rect{Max: gtx.Constraints.Max}.Op())
			}
			return dims
		})
}
