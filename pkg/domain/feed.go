package domain

import "fmt"

// FeedRef identifies a feed inside its group
type FeedRef struct {
	Group string
	Name  string
	URL   string
}

// Key returns the composite feed key used for persisted state, "{group}-{name}"
func (f FeedRef) Key() string {
	return fmt.Sprintf("%s-%s", f.Group, f.Name)
}

// EventKey returns the persisted key of an event record for this feed
func (f FeedRef) EventKey(eventID string) string {
	return fmt.Sprintf("%s-%s", f.Key(), eventID)
}
