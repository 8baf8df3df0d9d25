package backend

import (
	"context"

	"gioui.org/app"
	"git.sr.ht/~gioverse/skel/stream"
)

// WindowState bundles everything a single window needs to talk to the
// backend.
type WindowState struct {
	Bundle
	Controller *stream.Controller
}

func NewWindowState(ctx context.Context, bundle Bundle, win *app.Window) WindowState {
	return WindowState{
		Bundle:     bundle,
		Controller: stream.NewController(ctx, win.Invalidate),
	}
}

// Bundle is the set of backend services shared by all windows.
type Bundle struct {
	Datasource *Datasource
	Filters    *Filters
}

func NewBundle(appCtx context.Context, mutator *stream.Mutator) Bundle {
	return Bundle{
		Datasource: NewDatasource(appCtx, mutator),
		Filters:    NewFilters(mutator),
	}
}
