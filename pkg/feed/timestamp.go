package feed

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-pkgz/lgr"
)

// DefaultTimezoneFixups returns abbreviations Go's time parser can't resolve to an offset,
// mapped to the offset they stand for. Each call returns a fresh map.
func DefaultTimezoneFixups() map[string]string {
	return map[string]string{
		"PST": "-0800",
		"PDT": "-0700",
		"MST": "-0700",
		"MDT": "-0600",
		"CST": "-0600",
		"CDT": "-0500",
		"EST": "-0500",
		"EDT": "-0400",
	}
}

var layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05 -0700",
}

// zone names that really mean offset 0
var zeroZones = map[string]bool{"": true, "UTC": true, "GMT": true, "UT": true, "Z": true}

// TimeNormalizer turns published strings from feeds into UTC times
type TimeNormalizer struct {
	fixups  map[string]string
	pattern *regexp.Regexp
}

// NewTimeNormalizer makes a normalizer with the default fixups plus extra ones, extra wins on conflict
func NewTimeNormalizer(extra map[string]string) *TimeNormalizer {
	fixups := DefaultTimezoneFixups()
	for k, v := range extra {
		fixups[strings.ToUpper(k)] = v
	}

	abbrs := make([]string, 0, len(fixups))
	for k := range fixups {
		abbrs = append(abbrs, regexp.QuoteMeta(k))
	}
	sort.Strings(abbrs)

	res := &TimeNormalizer{fixups: fixups}
	if len(abbrs) > 0 {
		res.pattern = regexp.MustCompile(`\b(` + strings.Join(abbrs, "|") + `)\b`)
	}
	return res
}

// Normalize parses raw into a UTC time
func (n *TimeNormalizer) Normalize(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if n.pattern != nil {
		s = n.pattern.ReplaceAllStringFunc(s, func(m string) string { return n.fixups[m] })
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			if zone, off := t.Zone(); off == 0 && !zeroZones[zone] {
				// time.Parse takes an abbreviation it doesn't know as offset 0
				lgr.Printf("[DEBUG] unknown timezone %q in %q taken as UTC, add a timezone fixup if it's wrong", zone, raw)
			}
			return t.UTC(), nil
		}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}
