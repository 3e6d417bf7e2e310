package imagepkg

import (
	"strings"
	"unicode/utf8"
)

// MeasureFunc returns the rendered width of s in pixels.
type MeasureFunc func(s string) float64

// WrapLines breaks text greedily on single spaces. A line is closed as soon
// as appending the next word would exceed maxWidth; the first word always
// starts the first line even when it is too wide on its own.
func WrapLines(text string, maxWidth float64, measure MeasureFunc) []string {
	if text == "" {
		return nil
	}
	words := strings.Split(text, " ")
	var lines []string
	line := ""
	for n, w := range words {
		test := line + w + " "
		if measure(test) > maxWidth && n > 0 {
			lines = append(lines, strings.TrimRight(line, " "))
			line = w + " "
		} else {
			line = test
		}
	}
	return append(lines, strings.TrimRight(line, " "))
}

// BreakLongWords splits every word wider than maxWidth into chunks that fit,
// so that WrapLines can place text without spaces such as URLs.
func BreakLongWords(text string, maxWidth float64, measure MeasureFunc) string {
	words := strings.Split(text, " ")
	out := make([]string, 0, len(words))
	for _, w := range words {
		if measure(w+" ") <= maxWidth {
			out = append(out, w)
			continue
		}
		chunk := ""
		for _, r := range w {
			next := chunk + string(r)
			if chunk != "" && measure(next+" ") > maxWidth {
				out = append(out, chunk)
				next = string(r)
			}
			chunk = next
		}
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return strings.Join(out, " ")
}

const ellipsis = "…"

// Ellipsize shortens s rune by rune until it fits maxWidth with a trailing
// ellipsis.
func Ellipsize(s string, maxWidth float64, measure MeasureFunc) string {
	if measure(s) <= maxWidth {
		return s
	}
	for s != "" {
		_, size := utf8.DecodeLastRuneInString(s)
		s = strings.TrimRight(s[:len(s)-size], " ")
		if measure(s+ellipsis) <= maxWidth {
			return s + ellipsis
		}
	}
	return ""
}

// LimitLines keeps at most max lines, ellipsizing the last kept line when
// lines were dropped.
func LimitLines(lines []string, max int, maxWidth float64, measure MeasureFunc) []string {
	if max <= 0 || len(lines) <= max {
		return lines
	}
	kept := append([]string(nil), lines[:max]...)
	last := kept[max-1] + " " + lines[max]
	kept[max-1] = Ellipsize(last+ellipsis, maxWidth, measure)
	return kept
}
