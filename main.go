package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"git.sr.ht/~whereswaldon/timeslice/backend"
)

func main() {
	dataFile := flag.String("file", "", "CSV data file to open at startup")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mutator := stream.NewMutator(ctx, time.Second)
	bundle := backend.NewBundle(ctx, mutator)
	if *dataFile != "" {
		if _, err := bundle.Datasource.OpenPath(*dataFile); err != nil {
			log.Fatalf("failed opening %q: %v", *dataFile, err)
		}
	}

	go func() {
		w := app.NewWindow(
			app.Title("Timeslice"),
			app.Size(unit.Dp(800), unit.Dp(600)),
		)
		ws := backend.NewWindowState(ctx, bundle, w)
		expl := explorer.NewExplorer(w)
		ui := NewUI(ws, expl)
		if err := loop(w, expl, ui); err != nil {
			log.Fatal(err)
		}
		cancel()
		os.Exit(0)
	}()

	app.Main()
}

func loop(w *app.Window, expl *explorer.Explorer, ui *UI) error {
	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}
