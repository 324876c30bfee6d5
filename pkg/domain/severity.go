package domain

// Severity is the alert level of an entry, used by chat renderers
type Severity string

// enum of severities
const (
	SeverityGood    Severity = "good"
	SeverityWarning Severity = "warning"
	SeverityAlert   Severity = "alert"
)

// ParseSeverity converts a configured level name to Severity.
// "danger" is accepted as an alias of alert.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "good":
		return SeverityGood, true
	case "warning":
		return SeverityWarning, true
	case "alert", "danger":
		return SeverityAlert, true
	}
	return "", false
}
