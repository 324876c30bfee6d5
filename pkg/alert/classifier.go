package alert

import (
	"strings"

	"github.com/umputun/rssalert/pkg/domain"
)

// DefaultGoodKeywords mark an entry as resolved
var DefaultGoodKeywords = []string{"Completed", "Resolved"}

// DefaultWarningKeywords mark an entry as in progress
var DefaultWarningKeywords = []string{"Identified", "Monitoring", "Update", "Mitigated", "Scheduled"}

// Classifier guesses entry severity from keywords, case-insensitive.
// Good keywords are checked first, then warning ones, anything else is an alert.
type Classifier struct {
	good    []string
	warning []string
}

// NewClassifier makes a classifier, empty keyword sets fall back to the defaults
func NewClassifier(good, warning []string) *Classifier {
	if len(good) == 0 {
		good = DefaultGoodKeywords
	}
	if len(warning) == 0 {
		warning = DefaultWarningKeywords
	}
	return &Classifier{good: lower(good), warning: lower(warning)}
}

// Classify returns the severity of text
func (c *Classifier) Classify(text string) domain.Severity {
	t := strings.ToLower(text)
	if containsAny(t, c.good) {
		return domain.SeverityGood
	}
	if containsAny(t, c.warning) {
		return domain.SeverityWarning
	}
	return domain.SeverityAlert
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func lower(ss []string) []string {
	res := make([]string, len(ss))
	for i, s := range ss {
		res[i] = strings.ToLower(s)
	}
	return res
}
