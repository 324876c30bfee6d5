package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/rssalert/pkg/config"
	"github.com/umputun/rssalert/pkg/domain"
	"github.com/umputun/rssalert/pkg/feed"
	"github.com/umputun/rssalert/pkg/storage"
)

// cursorWindow is how far back a fresh or long dormant feed looks for entries
const cursorWindow = 24 * time.Hour

// FeedProcessor runs fetch-process-alert cycles for a single feed.
//
// Past-dated entries are deduplicated by the feed cursor alone, the latest published time
// alerted on. Future-dated entries (scheduled notices, skewed clocks) don't move the cursor,
// they get an event record keyed by content and are re-alerted once per re-alert interval
// until they arrive in the past, at which point they alert once more and the record is dropped.
type FeedProcessor struct {
	ref            domain.FeedRef
	username       string
	password       string
	alertOnFailure bool
	outputs        config.Outputs
	timeout        time.Duration
	reAlert        time.Duration
	location       *time.Location

	storage    Storage
	fetcher    Fetcher
	notifier   Notifier
	normalizer Normalizer
	now        func() time.Time
}

// FeedProcessorParams holds everything needed to build a FeedProcessor
type FeedProcessorParams struct {
	Group    config.Group
	Feed     config.Feed
	Global   config.Outputs
	NoNotify bool           // kill switch for email and chat
	Timeout  time.Duration  // fetch timeout
	ReAlert  time.Duration  // re-alert interval for future-dated entries, 24h if not set
	Location *time.Location // display timezone for DateString, local if not set

	Storage    Storage
	Fetcher    Fetcher
	Notifier   Notifier
	Normalizer Normalizer
	Now        func() time.Time // clock, time.Now if not set
}

// Result reports a single Process cycle
type Result struct {
	Feed         string    `json:"feed"`
	Entries      int       `json:"entries"`
	Alerts       int       `json:"alerts"`
	CursorBefore time.Time `json:"cursor_before"`
	CursorAfter  time.Time `json:"cursor_after"`
	Started      time.Time `json:"started"`
	Finished     time.Time `json:"finished"`
	Error        string    `json:"error,omitempty"`
}

// NewFeedProcessor merges outputs global → group → feed, applies the kill switch and disables
// channels missing required fields. It fails only on missing group name, feed name or url.
func NewFeedProcessor(p FeedProcessorParams) (*FeedProcessor, error) {
	if p.Group.Name == "" {
		return nil, errors.New("group name is required")
	}
	if p.Feed.Name == "" {
		return nil, fmt.Errorf("feed name is required in group %s", p.Group.Name)
	}
	if p.Feed.URL == "" {
		return nil, fmt.Errorf("feed %s-%s: url is required", p.Group.Name, p.Feed.Name)
	}

	res := &FeedProcessor{
		ref:            domain.FeedRef{Group: p.Group.Name, Name: p.Feed.Name, URL: p.Feed.URL},
		username:       p.Group.Username,
		password:       p.Group.Password,
		alertOnFailure: p.Group.AlertOnFailure,
		timeout:        p.Timeout,
		reAlert:        p.ReAlert,
		location:       p.Location,
		storage:        p.Storage,
		fetcher:        p.Fetcher,
		notifier:       p.Notifier,
		normalizer:     p.Normalizer,
		now:            p.Now,
	}
	if p.Feed.Username != "" {
		res.username, res.password = p.Feed.Username, p.Feed.Password
	}
	if p.Feed.AlertOnFailure != nil {
		res.alertOnFailure = *p.Feed.AlertOnFailure
	}
	if res.reAlert <= 0 {
		res.reAlert = 24 * time.Hour
	}
	if res.location == nil {
		res.location = time.Local
	}
	if res.now == nil {
		res.now = time.Now
	}

	outputs := p.Global.Merge(p.Group.Outputs).Merge(p.Feed.Outputs)
	if outputs.Email.From != "" {
		outputs.Email.From = fmt.Sprintf("%s Feeds <%s>", p.Group.Name, outputs.Email.From)
	}
	if p.NoNotify {
		lgr.Printf("[DEBUG] feed %s: notifications disabled", res.ref.Key())
		outputs.Email.Enabled = config.Bool(false)
		outputs.Slack.Enabled = config.Bool(false)
	}
	if outputs.Slack.IsEnabled() {
		if missing := outputs.Slack.Missing(); len(missing) > 0 {
			for _, field := range missing {
				lgr.Printf("[ERROR] feed %s: slack enabled but %s not set", res.ref.Key(), field)
			}
			outputs.Slack.Enabled = config.Bool(false)
		}
	}
	if outputs.Email.IsEnabled() {
		if missing := outputs.Email.Missing(); len(missing) > 0 {
			for _, field := range missing {
				lgr.Printf("[ERROR] feed %s: email enabled but %s not set", res.ref.Key(), field)
			}
			outputs.Email.Enabled = config.Bool(false)
		}
	}
	res.outputs = outputs

	return res, nil
}

// Key returns the feed cursor key, "{group}-{feed}"
func (p *FeedProcessor) Key() string { return p.ref.Key() }

// Ref returns the feed identity
func (p *FeedProcessor) Ref() domain.FeedRef { return p.ref }

// Outputs returns the effective output settings after merge and validation
func (p *FeedProcessor) Outputs() config.Outputs { return p.outputs }

// PreviousDate returns the feed cursor, clamped to no earlier than 24h before now
func (p *FeedProcessor) PreviousDate(ctx context.Context, now time.Time) (time.Time, error) {
	_, cursor, err := p.cursor(ctx, now)
	return cursor, err
}

// cursor returns the stored cursor (zero if missing) and its clamped value
func (p *FeedProcessor) cursor(ctx context.Context, now time.Time) (stored, clamped time.Time, err error) {
	floor := now.UTC().Add(-cursorWindow)
	ts, err := p.storage.Read(ctx, p.Key())
	if errors.Is(err, storage.ErrNotFound) {
		return time.Time{}, floor, nil
	}
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("read cursor %s: %w", p.Key(), err)
	}
	if ts.Before(floor) {
		return ts.UTC(), floor, nil
	}
	return ts.UTC(), ts.UTC(), nil
}

// FetchAndParse fetches the feed. On failure it logs, alerts a synthetic entry if alert_on_failure
// is set and returns no entries.
func (p *FeedProcessor) FetchAndParse(ctx context.Context) []domain.Entry {
	lgr.Printf("[DEBUG] fetching %s", p.ref.URL)
	entries, err := p.fetcher.Fetch(ctx, feed.Request{
		URL:      p.ref.URL,
		Name:     p.ref.Name,
		Username: p.username,
		Password: p.password,
		Timeout:  p.timeout,
	})
	if err == nil {
		return entries
	}

	var statusErr *feed.StatusError
	var title, description string
	switch {
	case errors.As(err, &statusErr):
		lgr.Printf("[ERROR] HTTP error %d fetching feed %s", statusErr.Code, p.ref.URL)
		title, description = "no data", fmt.Sprintf("HTTP error %d", statusErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		lgr.Printf("[ERROR] timeout fetching feed %s", p.ref.URL)
		title, description = "Timeout", "Timeout while fetching feed"
	default:
		lgr.Printf("[ERROR] error fetching feed %s: %v", p.ref.URL, err)
		title, description = "Exception", fmt.Sprintf("%T fetching feed: %v", rootCause(err), err)
	}

	if p.alertOnFailure {
		now := p.now().UTC()
		p.alert(ctx, domain.Entry{
			Title:        title,
			Description:  description,
			PublishedRaw: now.Format(time.RFC1123Z),
			Published:    now,
			DateString:   now.In(p.location).Format(time.RFC1123),
		})
	}
	return nil
}

// Process runs one cycle: fetch, decide per entry, alert and update storage. A storage error
// aborts the rest of the batch and leaves the cursor as it was.
func (p *FeedProcessor) Process(ctx context.Context) (res Result, err error) {
	now := p.now().UTC()
	res = Result{Feed: p.Key(), Started: now}
	defer func() {
		res.Finished = p.now().UTC()
		if err != nil {
			res.Error = err.Error()
		}
	}()

	stored, cursor, err := p.cursor(ctx, now)
	if err != nil {
		return res, err
	}
	res.CursorBefore, res.CursorAfter = cursor, cursor
	lgr.Printf("[INFO] begin processing feed %s, previous date %s", p.Key(), cursor.Format(time.RFC3339))

	entries := p.FetchAndParse(ctx)
	res.Entries = len(entries)

	newCursor := cursor
	for _, entry := range entries {
		published, nerr := p.normalizer.Normalize(entry.PublishedRaw)
		if nerr != nil {
			lgr.Printf("[WARN] feed %s: skipping entry %q, %v", p.Key(), entry.Title, nerr)
			continue
		}
		entry.Published = published
		entry.DateString = published.In(p.location).Format(time.RFC1123)

		eventKey := p.ref.EventKey(entry.EventID())
		if !published.After(cursor) {
			if published.After(stored) {
				// fell behind the 24h floor unpolled, a future-dated event record may be left over
				if derr := p.dropRecord(ctx, eventKey); derr != nil {
					return res, derr
				}
			}
			continue // seen in an earlier cycle
		}
		lgr.Printf("[DEBUG] feed %s: found new entry %s", p.Key(), published.Format(time.RFC3339))

		recorded, found, rerr := p.readRecord(ctx, eventKey)
		if rerr != nil {
			return res, rerr
		}

		if published.After(now) {
			if found && now.Sub(recorded) < p.reAlert {
				continue // alerted recently
			}
			p.alert(ctx, entry)
			res.Alerts++
			if werr := p.storage.Write(ctx, eventKey, now); werr != nil {
				return res, fmt.Errorf("write event record %s: %w", eventKey, werr)
			}
			continue
		}

		if published.After(newCursor) {
			newCursor = published
		}
		p.alert(ctx, entry)
		res.Alerts++
		if found {
			if derr := p.storage.Delete(ctx, eventKey); derr != nil {
				return res, fmt.Errorf("delete event record %s: %w", eventKey, derr)
			}
		}
	}

	if newCursor.After(cursor) {
		if werr := p.storage.Write(ctx, p.Key(), newCursor); werr != nil {
			return res, fmt.Errorf("write cursor %s: %w", p.Key(), werr)
		}
		res.CursorAfter = newCursor
	}
	lgr.Printf("[INFO] end processing feed %s, previous date %s", p.Key(), res.CursorAfter.Format(time.RFC3339))
	return res, nil
}

// alert sends the entry to every enabled channel, each channel handles its own failures
func (p *FeedProcessor) alert(ctx context.Context, entry domain.Entry) {
	if p.outputs.Log.IsEnabled() {
		p.notifier.Log(ctx, p.ref, p.outputs.Log, entry)
	}
	if p.outputs.Email.IsEnabled() {
		p.notifier.Email(ctx, p.ref, p.outputs.Email, entry)
	}
	if p.outputs.Slack.IsEnabled() {
		p.notifier.Chat(ctx, p.ref, p.outputs.Slack, entry)
	}
}

func (p *FeedProcessor) readRecord(ctx context.Context, key string) (time.Time, bool, error) {
	ts, err := p.storage.Read(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read event record %s: %w", key, err)
	}
	return ts, true, nil
}

// dropRecord deletes the event record under key if there is one
func (p *FeedProcessor) dropRecord(ctx context.Context, key string) error {
	_, found, err := p.readRecord(ctx, key)
	if err != nil || !found {
		return err
	}
	lgr.Printf("[DEBUG] feed %s: dropping stale event record %s", p.Key(), key)
	if derr := p.storage.Delete(ctx, key); derr != nil {
		return fmt.Errorf("delete event record %s: %w", key, derr)
	}
	return nil
}

// rootCause returns the innermost wrapped error
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
