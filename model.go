package main

import (
	"image/color"
	"sort"
	"strconv"
	"time"

	"git.sr.ht/~whereswaldon/timeslice/backend"
)

// DataPoint is one observation within a series. Absent marks a continuity
// break: the point contributes no value and is never interpolated across.
type DataPoint struct {
	TimeNS int64
	Value  float64
	Absent bool

	Anomaly    float64
	HasAnomaly bool

	Marker    string
	HasMarker bool

	LineColor    color.NRGBA
	HasLineColor bool
	AreaColor    color.NRGBA
	HasAreaColor bool
}

// Series is a named, strictly time-ordered sequence of points with gap
// points already inserted.
type Series struct {
	Name   string
	Points []DataPoint
}

// Marker labels a single instant shared by every series.
type Marker struct {
	TimeNS int64
	Label  string
}

// MergedPoint pairs a point with its series index and original row
// ordinal.
type MergedPoint struct {
	DataPoint
	Series int
	Row    int
}

// Model is the gap-annotated, multi-series form of one table snapshot.
// BuildModel is the only writer; everything downstream treats it as
// read-only.
type Model struct {
	Series  []Series
	Merged  []MergedPoint
	Markers []Marker

	Target    backend.FilterTarget
	HasTarget bool
}

// Empty reports whether the model has nothing to plot.
func (m *Model) Empty() bool {
	return len(m.Merged) == 0
}

// Extent reports the full time range covered by the merged sequence.
func (m *Model) Extent() (timeRange, bool) {
	if len(m.Merged) == 0 {
		return timeRange{}, false
	}
	return timeRange{
		start: m.Merged[0].TimeNS,
		end:   m.Merged[len(m.Merged)-1].TimeNS,
	}, true
}

// BuildModel interprets a table snapshot. Rows with unparseable timestamps
// are dropped entirely; rows with unparseable values become absent points.
// Markers are global: a marker on any row labels that instant for every
// series, and the first label per instant wins.
func BuildModel(view backend.TableView) Model {
	var m Model
	m.Target, m.HasTarget = view.ResolveFilterTarget()
	tsIdx, hasTS := view.ColumnWithRole(backend.RoleTimestamp)
	valIdx, hasVal := view.ColumnWithRole(backend.RoleValues)
	if !hasTS || !hasVal {
		return m
	}
	serIdx, hasSeries := view.ColumnWithRole(backend.RoleSeries)
	anomIdx, hasAnom := view.ColumnWithRole(backend.RoleAnomalies)
	markIdx, hasMark := view.ColumnWithRole(backend.RoleTimelineMarkers)
	lineIdx, hasLine := view.ColumnWithRole(backend.RoleLineColor)
	areaIdx, hasArea := view.ColumnWithRole(backend.RoleAreaColor)

	cell := func(col, row int) string {
		return view.Columns[col].Cells[row]
	}

	type rawRow struct {
		row int
		ts  int64
	}
	rowCount := view.Rows()
	parsed := make([]rawRow, 0, rowCount)
	markersAt := map[int64]string{}
	for row := 0; row < rowCount; row++ {
		ts, ok := parseInstant(cell(tsIdx, row))
		if !ok {
			continue
		}
		parsed = append(parsed, rawRow{row: row, ts: ts})
		if hasMark {
			if label := cell(markIdx, row); label != "" {
				if _, exists := markersAt[ts]; !exists {
					markersAt[ts] = label
				}
			}
		}
	}

	seriesIdx := map[string]int{}
	var work [][]MergedPoint
	for _, raw := range parsed {
		name := view.Columns[valIdx].Heading
		if hasSeries {
			name = cell(serIdx, raw.row)
		}
		sIdx, ok := seriesIdx[name]
		if !ok {
			sIdx = len(m.Series)
			seriesIdx[name] = sIdx
			m.Series = append(m.Series, Series{Name: name})
			work = append(work, nil)
		}
		pt := DataPoint{TimeNS: raw.ts}
		if v, ok := parseValue(cell(valIdx, raw.row)); ok {
			pt.Value = v
		} else {
			pt.Absent = true
		}
		if hasAnom {
			if v, ok := parseValue(cell(anomIdx, raw.row)); ok {
				pt.Anomaly = v
				pt.HasAnomaly = true
			}
		}
		if label, ok := markersAt[raw.ts]; ok {
			pt.Marker = label
			pt.HasMarker = true
		}
		if hasLine {
			if c, ok := parseHexColor(cell(lineIdx, raw.row)); ok {
				pt.LineColor = c
				pt.HasLineColor = true
			}
		}
		if hasArea {
			if c, ok := parseHexColor(cell(areaIdx, raw.row)); ok {
				pt.AreaColor = c
				pt.HasAreaColor = true
			}
		}
		work[sIdx] = append(work[sIdx], MergedPoint{
			DataPoint: pt,
			Series:    sIdx,
			Row:       raw.row,
		})
	}

	var merged []MergedPoint
	for sIdx := range work {
		sort.SliceStable(work[sIdx], func(i, j int) bool {
			return work[sIdx][i].TimeNS < work[sIdx][j].TimeNS
		})
		work[sIdx] = dedupeInstants(work[sIdx])
		work[sIdx] = insertGaps(work[sIdx])
		points := make([]DataPoint, len(work[sIdx]))
		for i, mp := range work[sIdx] {
			points[i] = mp.DataPoint
		}
		m.Series[sIdx].Points = points
		merged = append(merged, work[sIdx]...)
	}
	// Order the merged sequence by time, breaking ties by original row
	// ordinal so that equal instants keep their input order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Row < merged[j].Row
	})
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TimeNS < merged[j].TimeNS
	})
	m.Merged = merged

	for ts, label := range markersAt {
		m.Markers = append(m.Markers, Marker{TimeNS: ts, Label: label})
	}
	sort.Slice(m.Markers, func(i, j int) bool {
		return m.Markers[i].TimeNS < m.Markers[j].TimeNS
	})
	return m
}

// dedupeInstants keeps the first observation for any instant repeated
// within a single series, preserving strict time ordering.
func dedupeInstants(points []MergedPoint) []MergedPoint {
	if len(points) < 2 {
		return points
	}
	out := points[:1]
	for _, pt := range points[1:] {
		if pt.TimeNS == out[len(out)-1].TimeNS {
			continue
		}
		out = append(out, pt)
	}
	return out
}

// insertGaps adds a synthetic absent point just after the earlier point of
// any consecutive pair spaced more than three times the series' median
// positive delta. Series with fewer than two points are exempt.
func insertGaps(points []MergedPoint) []MergedPoint {
	if len(points) < 2 {
		return points
	}
	deltas := make([]int64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		if d := points[i].TimeNS - points[i-1].TimeNS; d > 0 {
			deltas = append(deltas, d)
		}
	}
	if len(deltas) == 0 {
		return points
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i] < deltas[j] })
	threshold := 3 * deltas[(len(deltas)-1)/2]
	out := make([]MergedPoint, 0, len(points)+1)
	for i, pt := range points {
		out = append(out, pt)
		if i == len(points)-1 {
			break
		}
		if points[i+1].TimeNS-pt.TimeNS > threshold {
			out = append(out, MergedPoint{
				DataPoint: DataPoint{TimeNS: pt.TimeNS + 1, Absent: true},
				Series:    pt.Series,
				Row:       pt.Row,
			})
		}
	}
	return out
}

// instantLayouts are the accepted string timestamp forms, tried in order.
// All are interpreted as UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseInstant interprets a timestamp cell. Integer cells are nanoseconds
// since the Unix epoch.
func parseInstant(cell string) (int64, bool) {
	if cell == "" {
		return 0, false
	}
	if ns, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return ns, true
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, cell, time.UTC); err == nil {
			return t.UnixNano(), true
		}
	}
	return 0, false
}

func parseValue(cell string) (float64, bool) {
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
