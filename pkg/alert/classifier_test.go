package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umputun/rssalert/pkg/domain"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(nil, nil)
	tests := []struct {
		text string
		want domain.Severity
	}{
		{"[Resolved] Elevated API errors", domain.SeverityGood},
		{"maintenance COMPLETED", domain.SeverityGood},
		{"Issue identified with S3", domain.SeverityWarning},
		{"We are monitoring the fix", domain.SeverityWarning},
		{"Scheduled maintenance", domain.SeverityWarning},
		{"Service outage in us-east-1", domain.SeverityAlert},
		{"", domain.SeverityAlert},
		{"Update: issue resolved", domain.SeverityGood},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text))
		})
	}

	t.Run("custom keywords", func(t *testing.T) {
		c := NewClassifier([]string{"fixed"}, []string{"investigating"})
		assert.Equal(t, domain.SeverityGood, c.Classify("Bug FIXED"))
		assert.Equal(t, domain.SeverityWarning, c.Classify("Investigating latency"))
		assert.Equal(t, domain.SeverityAlert, c.Classify("Resolved"), "defaults replaced")
	})

	t.Run("defaults not mutated", func(t *testing.T) {
		_ = NewClassifier(nil, nil)
		assert.Equal(t, []string{"Completed", "Resolved"}, DefaultGoodKeywords)
	})
}
