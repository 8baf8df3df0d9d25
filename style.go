package main

import "gioui.org/unit"

// Style is one complete snapshot of the user-adjustable appearance and
// formatting parameters. Widgets never mutate a Style in place; settings
// changes swap in a whole new value.
type Style struct {
	LineWidth    unit.Dp
	AreaOpacity  float32
	BrushOpacity float32

	// UseISO8601 selects the fixed millisecond-precision UTC output form
	// for emitted ranges; when false, CustomFormat renders them instead.
	UseISO8601    bool
	Delimiter     string
	CustomFormat  string
	DisplayFormat string

	// AxisMin and AxisMax override the computed value bounds when set to
	// parseable numbers and exactly one series is plotted.
	AxisMin string
	AxisMax string

	AnomalySize   unit.Dp
	MarkerOpacity float32

	HighContrast bool
}

func defaultStyle() Style {
	return Style{
		LineWidth:     1.5,
		AreaOpacity:   0.5,
		BrushOpacity:  0.3,
		UseISO8601:    true,
		Delimiter:     "|",
		CustomFormat:  "yyyy-MM-dd HH:mm:ss",
		DisplayFormat: "MMM d, yyyy HH:mm:ss",
		AnomalySize:   3,
		MarkerOpacity: 0.8,
	}
}
