package backend

import "strings"

// Role identifies how a column participates in the visualization.
type Role uint8

const (
	RoleNone Role = iota
	RoleTimestamp
	RoleValues
	RoleSeries
	RoleAnomalies
	RoleTimelineMarkers
	RoleFilterField
	RoleLineColor
	RoleAreaColor
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleTimestamp:
		return "timestamp"
	case RoleValues:
		return "values"
	case RoleSeries:
		return "series"
	case RoleAnomalies:
		return "anomalies"
	case RoleTimelineMarkers:
		return "timelineMarkers"
	case RoleFilterField:
		return "filterField"
	case RoleLineColor:
		return "lineColor"
	case RoleAreaColor:
		return "areaColor"
	default:
		return "unknown"
	}
}

// Column is one role-tagged column of raw cells.
type Column struct {
	Heading string
	Role    Role
	Cells   []string
}

// TableView is a column-oriented snapshot of tabular data. The Name
// identifies the table for filter targets.
type TableView struct {
	Name    string
	Columns []Column
}

// FilterTarget identifies the column that emitted range filters apply
// against.
type FilterTarget struct {
	Table  string
	Column string
}

// FilterSink is the host capability for applying an equality filter of
// column = operand.
type FilterSink interface {
	SubmitEqualityFilter(target FilterTarget, operand string) error
}

// NewTableView builds an empty view whose columns carry the roles detected
// from the headings.
func NewTableView(name string, headings []string) TableView {
	view := TableView{Name: name}
	roles := DetectRoles(headings)
	for i, heading := range headings {
		view.Columns = append(view.Columns, Column{
			Heading: heading,
			Role:    roles[i],
		})
	}
	return view
}

// roleTags maps heading tags to the role they claim. Tags appear anywhere
// in a heading, as in "host (series)" or "spike (anomaly)".
var roleTags = []struct {
	tag  string
	role Role
}{
	{"(ts)", RoleTimestamp},
	{"(value)", RoleValues},
	{"(series)", RoleSeries},
	{"(anomaly)", RoleAnomalies},
	{"(marker)", RoleTimelineMarkers},
	{"(filter)", RoleFilterField},
	{"(line)", RoleLineColor},
	{"(area)", RoleAreaColor},
}

// DetectRoles maps headings to column roles. Parenthesized tags claim roles
// explicitly; an untagged heading mentioning time or date claims the
// timestamp role; the first column still unclaimed afterward becomes the
// measure. Each role binds at most once, first claim wins.
func DetectRoles(headings []string) []Role {
	roles := make([]Role, len(headings))
	claimed := make(map[Role]bool)
	claim := func(i int, r Role) bool {
		if claimed[r] {
			return false
		}
		claimed[r] = true
		roles[i] = r
		return true
	}
	for i, heading := range headings {
		lower := strings.ToLower(heading)
		for _, rt := range roleTags {
			if strings.Contains(lower, rt.tag) {
				claim(i, rt.role)
				break
			}
		}
	}
	for i, heading := range headings {
		if roles[i] != RoleNone {
			continue
		}
		lower := strings.ToLower(heading)
		if strings.Contains(lower, "time") || strings.Contains(lower, "date") {
			claim(i, RoleTimestamp)
		}
	}
	for i := range headings {
		if roles[i] != RoleNone {
			continue
		}
		if claim(i, RoleValues) {
			break
		}
	}
	return roles
}

// ColumnWithRole reports the index of the first column bound to the role.
func (t *TableView) ColumnWithRole(role Role) (int, bool) {
	for i, col := range t.Columns {
		if col.Role == role {
			return i, true
		}
	}
	return 0, false
}

// Rows reports the number of complete rows in the view.
func (t *TableView) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// AppendRow adds one row of cells, padding short rows so that every column
// stays the same length.
func (t *TableView) AppendRow(cells []string) {
	for i := range t.Columns {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		t.Columns[i].Cells = append(t.Columns[i].Cells, cell)
	}
}

// Clone returns a deep copy safe to hand to another goroutine while this
// view keeps growing.
func (t *TableView) Clone() TableView {
	out := TableView{Name: t.Name, Columns: make([]Column, len(t.Columns))}
	for i, col := range t.Columns {
		out.Columns[i] = Column{
			Heading: col.Heading,
			Role:    col.Role,
			Cells:   append([]string(nil), col.Cells...),
		}
	}
	return out
}

// ResolveFilterTarget picks the column emitted filters apply against: the
// filterField-tagged column when present, otherwise the first non-timestamp
// column, otherwise the timestamp column itself.
func (t *TableView) ResolveFilterTarget() (FilterTarget, bool) {
	if len(t.Columns) == 0 {
		return FilterTarget{}, false
	}
	if idx, ok := t.ColumnWithRole(RoleFilterField); ok {
		return FilterTarget{Table: t.Name, Column: t.Columns[idx].Heading}, true
	}
	for _, col := range t.Columns {
		if col.Role != RoleTimestamp {
			return FilterTarget{Table: t.Name, Column: col.Heading}, true
		}
	}
	if idx, ok := t.ColumnWithRole(RoleTimestamp); ok {
		return FilterTarget{Table: t.Name, Column: t.Columns[idx].Heading}, true
	}
	return FilterTarget{}, false
}
