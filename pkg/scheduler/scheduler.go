package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/rssalert/pkg/config"
	"github.com/umputun/rssalert/pkg/domain"
	"github.com/umputun/rssalert/pkg/feed"
	"github.com/umputun/rssalert/pkg/locker"
)

//go:generate moq -out mocks/storage.go -pkg mocks -skip-ensure -fmt goimports . Storage
//go:generate moq -out mocks/locker.go -pkg mocks -skip-ensure -fmt goimports . Locker
//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier
//go:generate moq -out mocks/normalizer.go -pkg mocks -skip-ensure -fmt goimports . Normalizer

// Storage keeps feed cursors and event records
type Storage interface {
	Read(ctx context.Context, key string) (time.Time, error)
	Write(ctx context.Context, key string, ts time.Time) error
	Delete(ctx context.Context, key string) error
}

// Locker grants the global run lock
type Locker interface {
	Acquire(ctx context.Context, name, owner string, lease time.Duration) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

// Fetcher fetches and parses a feed
type Fetcher interface {
	Fetch(ctx context.Context, req feed.Request) ([]domain.Entry, error)
}

// Notifier delivers an alert to a single channel, handling its own failures
type Notifier interface {
	Log(ctx context.Context, feed domain.FeedRef, cfg config.LogOutput, entry domain.Entry)
	Email(ctx context.Context, feed domain.FeedRef, cfg config.EmailOutput, entry domain.Entry)
	Chat(ctx context.Context, feed domain.FeedRef, cfg config.SlackOutput, entry domain.Entry)
}

// Normalizer turns a raw published string into a UTC time
type Normalizer interface {
	Normalize(raw string) (time.Time, error)
}

// Scheduler runs all configured feeds under the global lock, once or periodically
type Scheduler struct {
	cfg        *config.Config
	storage    Storage
	locker     Locker
	fetcher    Fetcher
	notifier   Notifier
	normalizer Normalizer
	now        func() time.Time
	lockOpts   locker.Options
	location   *time.Location

	runMu sync.Mutex // serializes runs in this process

	statusMu sync.RWMutex
	status   Status
}

// Params holds scheduler dependencies
type Params struct {
	Config     *config.Config
	Storage    Storage
	Locker     Locker
	Fetcher    Fetcher
	Notifier   Notifier
	Normalizer Normalizer
	Owner      string           // lock owner id, "{hostname};{pid}" if not set
	Now        func() time.Time // clock, time.Now if not set
}

// Status is a snapshot of the latest run
type Status struct {
	LastRun    time.Time         `json:"last_run"`
	LastError  string            `json:"last_error,omitempty"`
	Runs       int               `json:"runs"`
	Skipped    int               `json:"skipped"`
	FeedsTotal int               `json:"feeds_total"`
	Feeds      map[string]Result `json:"feeds"`
}

// New makes a scheduler for the feeds of cfg
func New(p Params) *Scheduler {
	owner := p.Owner
	if owner == "" {
		owner = DefaultOwner()
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	loc, err := p.Config.Location()
	if err != nil {
		lgr.Printf("[WARN] %v, using local time", err)
		loc = time.Local
	}

	lockName := p.Config.Locking.Name
	if lockName == "" {
		lockName = "rssalert-main"
	}
	lease := p.Config.Locking.Lease
	if lease <= 0 {
		lease = time.Hour
	}

	return &Scheduler{
		cfg:        p.Config,
		storage:    p.Storage,
		locker:     p.Locker,
		fetcher:    p.Fetcher,
		notifier:   p.Notifier,
		normalizer: p.Normalizer,
		now:        now,
		location:   loc,
		lockOpts: locker.Options{
			Name:     lockName,
			Owner:    owner,
			Lease:    lease,
			Attempts: p.Config.Locking.Attempts,
			Wait:     p.Config.Locking.Wait,
		},
		status: Status{FeedsTotal: p.Config.FeedCount(), Feeds: map[string]Result{}},
	}
}

// DefaultOwner returns the lock owner id of this process, "{hostname};{pid}"
func DefaultOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s;%d", host, os.Getpid())
}

// RunOnce processes every feed once under the global lock. Returns locker.ErrNotAcquired,
// without touching storage, if another run holds the lock. Per-feed errors are logged only.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	started := s.now().UTC()
	err := locker.WithLock(ctx, s.locker, s.lockOpts, s.processAll)
	if errors.Is(err, locker.ErrNotAcquired) {
		lgr.Printf("[WARN] lock not acquired, skipping this run")
	}

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.LastRun = started
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	if errors.Is(err, locker.ErrNotAcquired) {
		s.status.Skipped++
	} else {
		s.status.Runs++
	}
	return err
}

// Run processes all feeds right away and then every interval until ctx is canceled.
// Failed runs, including lock misses, are logged and the loop goes on.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %v", interval)
	}
	lgr.Printf("[INFO] scheduler started, interval %v, %d feeds", interval, s.cfg.FeedCount())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.RunOnce(ctx); err != nil && !errors.Is(err, locker.ErrNotAcquired) {
			lgr.Printf("[WARN] run failed: %v", err)
		}
		select {
		case <-ctx.Done():
			lgr.Printf("[INFO] scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Status returns a copy of the latest run status
func (s *Scheduler) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	res := s.status
	res.Feeds = make(map[string]Result, len(s.status.Feeds))
	for k, v := range s.status.Feeds {
		res.Feeds[k] = v
	}
	return res
}

// processAll builds a processor per feed and runs them concurrently, waiting for all of them
func (s *Scheduler) processAll(ctx context.Context) error {
	processors := s.processors()
	lgr.Printf("[DEBUG] processing %d feeds", len(processors))

	g := new(errgroup.Group)
	if s.cfg.MaxWorkers > 0 {
		g.SetLimit(s.cfg.MaxWorkers)
	}
	for _, fp := range processors {
		g.Go(func() error {
			res, err := fp.Process(ctx)
			if err != nil {
				lgr.Printf("[ERROR] feed %s failed: %v", fp.Key(), err)
			}
			s.statusMu.Lock()
			s.status.Feeds[fp.Key()] = res
			s.statusMu.Unlock()
			return nil // a failed feed doesn't fail the run
		})
	}
	return g.Wait()
}

func (s *Scheduler) processors() []*FeedProcessor {
	res := make([]*FeedProcessor, 0, s.cfg.FeedCount())
	for _, group := range s.cfg.FeedGroups {
		for _, f := range group.Feeds {
			fp, err := NewFeedProcessor(FeedProcessorParams{
				Group:      group,
				Feed:       f,
				Global:     s.cfg.Outputs,
				NoNotify:   s.cfg.NoNotify,
				Timeout:    s.cfg.Timeout,
				ReAlert:    s.cfg.ReAlert,
				Location:   s.location,
				Storage:    s.storage,
				Fetcher:    s.fetcher,
				Notifier:   s.notifier,
				Normalizer: s.normalizer,
				Now:        s.now,
			})
			if err != nil {
				lgr.Printf("[ERROR] skipping feed: %v", err)
				continue
			}
			res = append(res, fp)
		}
	}
	return res
}
