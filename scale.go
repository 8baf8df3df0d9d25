package main

import (
	"math"
	"strconv"

	"golang.org/x/exp/constraints"
)

// timeRange is a closed interval of instants in nanoseconds since the Unix
// epoch.
type timeRange struct {
	start, end int64
}

func (t timeRange) span() int64 {
	return t.end - t.start
}

func (t timeRange) clamp(ns int64) int64 {
	if ns < t.start {
		return t.start
	}
	if ns > t.end {
		return t.end
	}
	return ns
}

func (t timeRange) contains(other timeRange) bool {
	return other.start >= t.start && other.end <= t.end
}

// timeScale maps the shared time domain onto horizontal pixels.
type timeScale struct {
	domain timeRange
	width  float32
}

func (s timeScale) pxOf(ns int64) float32 {
	span := s.domain.span()
	if span == 0 {
		return 0
	}
	return float32(float64(ns-s.domain.start)/float64(span)) * s.width
}

func (s timeScale) nsOf(x float32) int64 {
	if s.width == 0 {
		return s.domain.start
	}
	frac := float64(x) / float64(s.width)
	ns := s.domain.start + int64(math.Round(frac*float64(s.domain.span())))
	return s.domain.clamp(ns)
}

// valueScale maps one series' value domain onto vertical pixels, with y
// growing downward from the top of the plot.
type valueScale struct {
	min, max float64
	height   float32
}

func (s valueScale) pxOf(v float64) float32 {
	interval := s.max - s.min
	if interval == 0 {
		interval = 1
	}
	return s.height - float32((v-s.min)/interval)*s.height
}

// deriveValueScales computes one value mapping per series. A degenerate
// domain (all values equal) expands by one unit on each side; otherwise
// both ends pad by 10% of the spread. Manual axis bounds apply only when
// exactly one series is present, and only when they describe a non-empty
// interval.
func deriveValueScales(m *Model, style Style, height float32) []valueScale {
	scales := make([]valueScale, len(m.Series))
	manualMin, hasManualMin := parseBound(style.AxisMin)
	manualMax, hasManualMax := parseBound(style.AxisMax)
	applyManual := len(m.Series) == 1 && (hasManualMin || hasManualMax)
	for i, series := range m.Series {
		lo, hi, ok := valueBounds(series.Points)
		if !ok {
			scales[i] = valueScale{min: 0, max: 1, height: height}
			continue
		}
		if lo == hi {
			lo--
			hi++
		} else {
			pad := (hi - lo) * 0.1
			lo -= pad
			hi += pad
		}
		if applyManual {
			candLo, candHi := lo, hi
			if hasManualMin {
				candLo = manualMin
			}
			if hasManualMax {
				candHi = manualMax
			}
			if candLo < candHi {
				lo, hi = candLo, candHi
			}
		}
		scales[i] = valueScale{min: lo, max: hi, height: height}
	}
	return scales
}

// valueBounds reports the min and max of the non-absent values.
func valueBounds(points []DataPoint) (lo, hi float64, ok bool) {
	for _, pt := range points {
		if pt.Absent {
			continue
		}
		if !ok {
			lo, hi = pt.Value, pt.Value
			ok = true
			continue
		}
		lo = min(lo, pt.Value)
		hi = max(hi, pt.Value)
	}
	return lo, hi, ok
}

// parseBound interprets a manual axis bound field. Empty or unparseable
// fields report no bound.
func parseBound(field string) (float64, bool) {
	if field == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// niceStep rounds a raw gridline step up to the nearest 1, 2, or 5 times a
// power of ten.
func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 1
	}
	mag := math.Pow(10, floor(math.Log10(raw)))
	switch norm := raw / mag; {
	case norm <= 1:
		return mag
	case norm <= 2:
		return 2 * mag
	case norm <= 5:
		return 5 * mag
	}
	return 10 * mag
}

// gridValues lists the nice gridline values within a scale's domain.
func gridValues(scale valueScale) []float64 {
	step := niceStep((scale.max - scale.min) / 4)
	var values []float64
	for v := ceil(scale.min/step) * step; v <= scale.max; v += step {
		values = append(values, v)
	}
	return values
}

func ceil[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Ceil(float64(a)))
}

func floor[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Floor(float64(a)))
}
