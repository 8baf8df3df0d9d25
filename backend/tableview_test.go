package backend

import (
	"testing"
)

func TestDetectRoles(t *testing.T) {
	type scenario struct {
		headings []string
		expected []Role
	}
	for _, s := range []scenario{
		{
			headings: []string{
				"time (ts)", "load (value)", "host (series)", "spike (anomaly)",
				"deploy (marker)", "region (filter)", "stroke (line)", "shade (area)",
			},
			expected: []Role{
				RoleTimestamp, RoleValues, RoleSeries, RoleAnomalies,
				RoleTimelineMarkers, RoleFilterField, RoleLineColor, RoleAreaColor,
			},
		},
		{
			// Untagged headings mentioning time claim the timestamp role,
			// and the first leftover column becomes the measure.
			headings: []string{"timestamp", "cpu"},
			expected: []Role{RoleTimestamp, RoleValues},
		},
		{
			headings: []string{"Creation Date", "a", "b"},
			expected: []Role{RoleTimestamp, RoleValues, RoleNone},
		},
		{
			// A repeated tag loses to the first claimant and falls through
			// to the leftover pass.
			headings: []string{"x (ts)", "y (ts)", "z"},
			expected: []Role{RoleTimestamp, RoleValues, RoleNone},
		},
		{
			// Nothing time-like at all still yields a measure column.
			headings: []string{"a", "b"},
			expected: []Role{RoleValues, RoleNone},
		},
		{
			// Tag matching is case-insensitive and positional within the
			// heading text.
			headings: []string{"WHEN (TS)", "reading (VALUE)"},
			expected: []Role{RoleTimestamp, RoleValues},
		},
		{
			headings: nil,
			expected: []Role{},
		},
	} {
		roles := DetectRoles(s.headings)
		if len(roles) != len(s.expected) {
			t.Errorf("headings %v: expected %d roles, got %d", s.headings, len(s.expected), len(roles))
			continue
		}
		for i := range roles {
			if roles[i] != s.expected[i] {
				t.Errorf("headings %v: column %d expected role %v, got %v", s.headings, i, s.expected[i], roles[i])
			}
		}
	}
}

func TestNewTableView(t *testing.T) {
	view := NewTableView("metrics", []string{"time (ts)", "load (value)"})
	if view.Name != "metrics" {
		t.Errorf("expected view name %q, got %q", "metrics", view.Name)
	}
	if len(view.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(view.Columns))
	}
	if view.Columns[0].Role != RoleTimestamp {
		t.Errorf("expected first column role %v, got %v", RoleTimestamp, view.Columns[0].Role)
	}
	if view.Columns[1].Heading != "load (value)" {
		t.Errorf("expected heading retained, got %q", view.Columns[1].Heading)
	}
	if view.Rows() != 0 {
		t.Errorf("expected new view to have no rows, got %d", view.Rows())
	}
}

func TestAppendRowPads(t *testing.T) {
	view := NewTableView("metrics", []string{"time (ts)", "load (value)", "host (series)"})
	view.AppendRow([]string{"1000"})
	view.AppendRow([]string{"2000", "1.5", "web", "surplus"})
	if view.Rows() != 2 {
		t.Fatalf("expected 2 rows, got %d", view.Rows())
	}
	if got := view.Columns[1].Cells[0]; got != "" {
		t.Errorf("expected short row to pad with empty cell, got %q", got)
	}
	if got := view.Columns[2].Cells[0]; got != "" {
		t.Errorf("expected short row to pad with empty cell, got %q", got)
	}
	if got := view.Columns[2].Cells[1]; got != "web" {
		t.Errorf("expected cell %q, got %q", "web", got)
	}
	for _, col := range view.Columns {
		if len(col.Cells) != 2 {
			t.Errorf("expected every column to hold 2 cells, column %q holds %d", col.Heading, len(col.Cells))
		}
	}
}

func TestCloneIsolation(t *testing.T) {
	view := NewTableView("metrics", []string{"time (ts)", "load (value)"})
	view.AppendRow([]string{"1000", "1.5"})
	clone := view.Clone()
	view.AppendRow([]string{"2000", "2.5"})
	if clone.Rows() != 1 {
		t.Errorf("expected clone to keep 1 row after original grows, got %d", clone.Rows())
	}
	clone.Columns[1].Cells[0] = "overwritten"
	if got := view.Columns[1].Cells[0]; got != "1.5" {
		t.Errorf("expected original cell untouched by clone mutation, got %q", got)
	}
}

func TestResolveFilterTarget(t *testing.T) {
	type scenario struct {
		headings []string
		column   string
		ok       bool
	}
	for _, s := range []scenario{
		{
			headings: []string{"time (ts)", "load (value)", "region (filter)"},
			column:   "region (filter)",
			ok:       true,
		},
		{
			// Without an explicit filter tag the first non-timestamp column
			// serves.
			headings: []string{"time (ts)", "load (value)"},
			column:   "load (value)",
			ok:       true,
		},
		{
			// A lone timestamp column is better than nothing.
			headings: []string{"time (ts)"},
			column:   "time (ts)",
			ok:       true,
		},
		{
			headings: nil,
			ok:       false,
		},
	} {
		view := NewTableView("metrics", s.headings)
		target, ok := view.ResolveFilterTarget()
		if ok != s.ok {
			t.Errorf("headings %v: expected ok %v, got %v", s.headings, s.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if target.Table != "metrics" {
			t.Errorf("headings %v: expected table %q, got %q", s.headings, "metrics", target.Table)
		}
		if target.Column != s.column {
			t.Errorf("headings %v: expected column %q, got %q", s.headings, s.column, target.Column)
		}
	}
}
