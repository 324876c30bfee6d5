package domain

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"time"
)

// Entry represents a single feed item as seen in one fetch
type Entry struct {
	GUID         string
	Link         string
	Title        string
	Description  string    // may contain html
	PublishedRaw string    // published string as supplied by the source
	Published    time.Time // normalized to UTC
	DateString   string    // published time formatted for humans, in the display timezone
}

// EventID returns the content fingerprint of the entry, md5 over title and description.
// It identifies an event independently of its published time.
func (e Entry) EventID() string {
	sum := md5.Sum([]byte(e.Title + e.Description)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}
