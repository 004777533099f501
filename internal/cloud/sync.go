package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daybook-app/daybook/internal/model"
	"github.com/daybook-app/daybook/internal/store"
)

// Status is a snapshot of the sync service state.
type Status struct {
	Account   AccountStatus `json:"account"`
	Syncing   bool          `json:"syncing"`
	LastSync  time.Time     `json:"lastSync"`
	LastError string        `json:"lastError,omitempty"`
}

// Result holds counters for one sync run.
type Result struct {
	Fetched int `json:"fetched"` // blobs pulled from the cloud
	Applied int `json:"applied"` // days inserted or replaced locally
	Skipped int `json:"skipped"` // days where the local copy won
	Pushed  int `json:"pushed"`  // days uploaded
	Errors  int `json:"errors"`  // records that failed individually
}

// Service coordinates the local store with a cloud BlobStore. Pushes
// ride on store change events and never touch the mutation path; pulls
// go through the store's merge, so repeated or reordered syncs are
// safe. When the cloud is unreachable the store simply stays local.
type Service struct {
	store  *store.Store
	blobs  BlobStore
	logger *logrus.Logger

	mu     sync.Mutex
	status Status

	unsub func()
	done  chan struct{}
}

// NewService creates a sync service for the given store and cloud.
func NewService(st *store.Store, blobs BlobStore, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store:  st,
		blobs:  blobs,
		logger: logger,
		status: Status{Account: StatusIndeterminate},
	}
}

// Status returns a copy of the current sync state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Service) recordError(err error) {
	s.logger.WithError(err).Warn("sync: continuing local-only")
	s.mu.Lock()
	s.status.LastError = err.Error()
	s.mu.Unlock()
}

// SyncNow runs one full pull-merge-push cycle.
func (s *Service) SyncNow(ctx context.Context) (Result, error) {
	var res Result

	s.mu.Lock()
	if s.status.Syncing {
		s.mu.Unlock()
		return res, errors.New("sync already in progress")
	}
	s.status.Syncing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.status.Syncing = false
		s.mu.Unlock()
	}()

	account := s.blobs.AccountStatus(ctx)
	s.mu.Lock()
	s.status.Account = account
	s.mu.Unlock()
	if account != StatusSignedIn {
		err := fmt.Errorf("cloud account %s", account)
		s.recordError(err)
		return res, err
	}

	blobs, err := s.blobs.FetchAll(ctx)
	if err != nil {
		err = fmt.Errorf("fetching cloud records: %w", err)
		s.recordError(err)
		return res, err
	}
	res.Fetched = len(blobs)

	remote := make([]model.DayRecord, 0, len(blobs))
	for _, b := range blobs {
		var day model.DayRecord
		if err := json.Unmarshal(b.Data, &day); err != nil {
			// One bad record must not poison the batch.
			s.logger.WithError(err).WithField("key", b.Key).Warn("sync: skipping undecodable cloud record")
			res.Errors++
			continue
		}
		remote = append(remote, day)
	}

	stats, err := s.store.Merge(remote)
	if err != nil {
		// The merge landed in memory; report the save and keep going.
		s.recordError(fmt.Errorf("persisting merged records: %w", err))
	}
	res.Applied = stats.Added + stats.Updated
	res.Skipped = stats.Skipped

	// Push every local day. Upserts are create-or-replace, so days the
	// cloud already has are harmless to resend.
	for _, key := range s.store.Keys() {
		day, ok := s.store.Day(key)
		if !ok {
			continue
		}
		if err := s.pushDay(ctx, day); err != nil {
			s.logger.WithError(err).WithField("day", key).Warn("sync: push failed")
			res.Errors++
			continue
		}
		res.Pushed++
	}

	s.mu.Lock()
	s.status.LastSync = time.Now().UTC()
	if res.Errors == 0 {
		s.status.LastError = ""
	}
	s.mu.Unlock()
	return res, nil
}

func (s *Service) pushDay(ctx context.Context, day model.DayRecord) error {
	data, err := json.Marshal(day)
	if err != nil {
		return fmt.Errorf("encoding day record: %w", err)
	}
	return s.blobs.Upsert(ctx, day.ID, data)
}

// Watch subscribes to store changes and mirrors local mutations to the
// cloud in the background: upserts for changed days, deletes for
// removed ones. Merge- and reload-sourced events are not echoed back.
func (s *Service) Watch() {
	if s.done != nil {
		return
	}
	s.done = make(chan struct{})
	events, unsub := s.store.Subscribe()
	s.unsub = unsub

	go func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Source != store.SourceLocal {
					continue
				}
				s.mirrorChanges(ev.Changes)
			case <-s.done:
				return
			}
		}
	}()
}

func (s *Service) mirrorChanges(changes []store.Change) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, c := range changes {
		if c.Deleted {
			if err := s.blobs.Delete(ctx, c.DayID); err != nil {
				s.recordError(fmt.Errorf("deleting cloud record %s: %w", c.DayID, err))
			}
			continue
		}
		day, ok := s.store.Day(c.DateKey)
		if !ok {
			continue
		}
		if err := s.pushDay(ctx, day); err != nil {
			s.recordError(fmt.Errorf("pushing %s: %w", c.DateKey, err))
		}
	}
}

// Stop ends background watching started by Watch.
func (s *Service) Stop() {
	if s.done == nil {
		return
	}
	close(s.done)
	s.done = nil
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}
