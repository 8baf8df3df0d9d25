package main

import (
	"strconv"
	"strings"
	"time"
)

// isoLayout is the fixed millisecond-precision form used when ISO output
// is enabled. Instants are rendered in UTC, where Z07:00 collapses to a
// literal Z.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

func formatISO(ns int64) string {
	return time.Unix(0, ns).UTC().Format(isoLayout)
}

// parseISO is the inverse of formatISO at millisecond precision.
func parseISO(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	return t.UnixNano(), nil
}

// fmtToken is one compiled element of a custom date format: either a named
// field or a literal run.
type fmtToken struct {
	field   string
	literal string
}

// fmtFields lists the recognized field tokens, longest first so that
// scanning never splits a long token into shorter ones.
var fmtFields = []string{
	"yyyy",
	"MMM", "fff",
	"yy", "MM", "dd", "HH", "hh", "mm", "ss", "tt",
	"M", "d", "H", "h", "m", "s",
}

// compileFormat scans a format string into tokens. Unrecognized characters
// pass through as literals.
func compileFormat(format string) []fmtToken {
	var tokens []fmtToken
	var literal strings.Builder
	flushLiteral := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, fmtToken{literal: literal.String()})
			literal.Reset()
		}
	}
	for i := 0; i < len(format); {
		matched := ""
		for _, field := range fmtFields {
			if strings.HasPrefix(format[i:], field) {
				matched = field
				break
			}
		}
		if matched == "" {
			literal.WriteByte(format[i])
			i++
			continue
		}
		flushLiteral()
		tokens = append(tokens, fmtToken{field: matched})
		i += len(matched)
	}
	flushLiteral()
	return tokens
}

// formatterCache memoizes compiled formats by their format string so that
// repeated renders skip rescanning.
type formatterCache map[string][]fmtToken

func (c formatterCache) compiled(format string) []fmtToken {
	if tokens, ok := c[format]; ok {
		return tokens
	}
	tokens := compileFormat(format)
	c[format] = tokens
	return tokens
}

// formatTokens renders an instant through a compiled format. All fields
// are in UTC.
func formatTokens(tokens []fmtToken, ns int64) string {
	t := time.Unix(0, ns).UTC()
	var out strings.Builder
	for _, tok := range tokens {
		if tok.field == "" {
			out.WriteString(tok.literal)
			continue
		}
		switch tok.field {
		case "yyyy":
			out.WriteString(pad(t.Year(), 4))
		case "yy":
			out.WriteString(pad(t.Year()%100, 2))
		case "MMM":
			out.WriteString(t.Month().String()[:3])
		case "MM":
			out.WriteString(pad(int(t.Month()), 2))
		case "M":
			out.WriteString(strconv.Itoa(int(t.Month())))
		case "dd":
			out.WriteString(pad(t.Day(), 2))
		case "d":
			out.WriteString(strconv.Itoa(t.Day()))
		case "HH":
			out.WriteString(pad(t.Hour(), 2))
		case "H":
			out.WriteString(strconv.Itoa(t.Hour()))
		case "hh", "h":
			hour := t.Hour() % 12
			if hour == 0 {
				hour = 12
			}
			if tok.field == "hh" {
				out.WriteString(pad(hour, 2))
			} else {
				out.WriteString(strconv.Itoa(hour))
			}
		case "mm":
			out.WriteString(pad(t.Minute(), 2))
		case "m":
			out.WriteString(strconv.Itoa(t.Minute()))
		case "ss":
			out.WriteString(pad(t.Second(), 2))
		case "s":
			out.WriteString(strconv.Itoa(t.Second()))
		case "fff":
			out.WriteString(pad(t.Nanosecond()/1_000_000, 3))
		case "tt":
			if t.Hour() < 12 {
				out.WriteString("AM")
			} else {
				out.WriteString("PM")
			}
		}
	}
	return out.String()
}

func pad(v, width int) string {
	s := strconv.Itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// formatInstant renders one instant per the style's outbound format
// configuration.
func formatInstant(ns int64, style Style, memo formatterCache) string {
	if style.UseISO8601 {
		return formatISO(ns)
	}
	return formatTokens(memo.compiled(style.CustomFormat), ns)
}

// rangeString assembles the outbound "<start><delimiter><end>" form of a
// selection.
func rangeString(sel timeRange, style Style, memo formatterCache) string {
	return formatInstant(sel.start, style, memo) +
		style.Delimiter +
		formatInstant(sel.end, style, memo)
}

// displayString renders the on-screen range label, which always uses the
// display format rather than the outbound one.
func displayString(sel timeRange, style Style, memo formatterCache) string {
	tokens := memo.compiled(style.DisplayFormat)
	return formatTokens(tokens, sel.start) + " to " + formatTokens(tokens, sel.end)
}
