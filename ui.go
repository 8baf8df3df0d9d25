package main

import (
	"image"
	"image/color"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"git.sr.ht/~whereswaldon/timeslice/backend"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

const (
	tabSlicer   = "slicer"
	tabControls = "controls"
)

// UI is responsible for holding the state of and drawing the top-level UI.
type UI struct {
	ws   backend.WindowState
	expl *explorer.Explorer

	slicer   *Slicer
	controls *Controls
	tab      widget.Enum

	feedBtn   widget.Clickable
	openBtn   widget.Clickable
	launching bool
	loadErr   string

	th            *material.Theme
	sessionStream *stream.Stream[backend.Session]
	session       backend.Session
	haveSession   bool
}

func NewUI(ws backend.WindowState, expl *explorer.Explorer) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	ui := &UI{
		ws:            ws,
		th:            th,
		expl:          expl,
		tab:           widget.Enum{Value: tabSlicer},
		sessionStream: stream.New(ws.Controller, ws.Bundle.Datasource.CurrentSessionStream),
	}
	ui.slicer = NewSlicer(ws.Bundle.Filters)
	ui.controls = NewControls(ws, ui.slicer)
	return ui
}

// Update the state of the UI and ingest session changes. Must be called
// once per frame before laying anything out.
func (ui *UI) Update(gtx C) {
	session, isNew := ui.sessionStream.ReadNew(gtx)
	if isNew {
		ui.session = session
		ui.haveSession = true
		ui.launching = false
		if session.Err != nil {
			ui.loadErr = session.Err.Error()
		} else {
			ui.loadErr = ""
		}
		ui.slicer.SetData(session.Table)
	}
	ui.tab.Update(gtx)
	if !ui.launching && ui.feedBtn.Clicked(gtx) {
		ui.launching = true
		if _, err := ui.ws.Bundle.Datasource.LaunchFeed(); err != nil {
			ui.loadErr = err.Error()
			ui.launching = false
		}
	}
	if ui.openBtn.Clicked(gtx) {
		if _, err := ui.ws.Bundle.Datasource.LoadFromFile(ui.expl); err != nil {
			ui.loadErr = err.Error()
		}
	}
}

type TabStyle struct {
	state  *widget.Enum
	label  material.LabelStyle
	border widget.Border
	inset  layout.Inset
	value  string
	fill   color.NRGBA
}

func Tab(th *material.Theme, state *widget.Enum, value, display string) TabStyle {
	selected := state.Value == value
	ts := TabStyle{
		state: state,
		label: material.Body1(th, display),
		inset: layout.UniformInset(2),
		border: widget.Border{
			Width: 2,
			Color: th.ContrastBg,
		},
		value: value,
	}
	ts.label.Alignment = text.Middle
	if selected {
		ts.label.Color = th.ContrastFg
		ts.fill = th.ContrastBg
	}
	return ts
}

func (t TabStyle) Layout(gtx C) D {
	return t.inset.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return t.border.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return t.inset.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return t.state.Layout(gtx, t.value, func(gtx layout.Context) layout.Dimensions {
					return layout.Background{}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
						paint.FillShape(gtx.Ops, t.fill, clip.Rect{Max: gtx.Constraints.Min}.Op())
						return D{Size: gtx.Constraints.Min}
					}, t.label.Layout)
				})
			})
		})
	})
}

func (ui *UI) layoutMainArea(gtx C) D {
	return layout.Flex{
		Axis: layout.Vertical,
	}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{}.Layout(gtx,
				layout.Flexed(1, Tab(ui.th, &ui.tab, tabSlicer, "Slicer").Layout),
				layout.Flexed(1, Tab(ui.th, &ui.tab, tabControls, "Controls").Layout),
			)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if len(ui.loadErr) == 0 {
				return D{}
			}
			l := material.Body1(ui.th, ui.loadErr)
			l.Color = color.NRGBA{R: 150, A: 255}
			return l.Layout(gtx)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			if ui.tab.Value == tabSlicer {
				return ui.slicer.Layout(gtx, ui.th)
			} else {
				return ui.controls.Layout(gtx, ui.th)
			}
		}),
	)
}

func (ui *UI) layoutStartScreen(gtx C) D {
	l := material.Body1(ui.th, "No data yet.")
	return layout.Flex{
		Axis:      layout.Vertical,
		Alignment: layout.Middle,
		Spacing:   layout.SpaceAround,
	}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min = image.Point{}
			return l.Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			if ui.launching {
				gtx = gtx.Disabled()
			}
			return material.Button(ui.th, &ui.feedBtn, "Launch Demo Feed").Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Button(ui.th, &ui.openBtn, "Open Data File").Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Body2(ui.th, ui.loadErr).Layout(gtx)
		}),
	)
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	if ui.haveSession && len(ui.session.Table.Columns) > 0 {
		return ui.layoutMainArea(gtx)
	}
	return ui.layoutStartScreen(gtx)
}
