package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daybook-app/daybook/internal/dateutil"
	"github.com/daybook-app/daybook/internal/model"
)

// RecordsFileName is the store document inside the data directory.
const RecordsFileName = "records.json"

var errCorrupt = errors.New("corrupt store document")

// BaseDir returns the root data directory (~/.daybook).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".daybook"), nil
}

// DefaultPath returns the default store document path (~/.daybook/records.json).
func DefaultPath() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, RecordsFileName), nil
}

// Store holds every day record in memory and mirrors the full set into a
// single JSON document on each mutation. One Store instance owns its
// document; all methods are safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	path   string
	days   map[string]*model.DayRecord
	logger *logrus.Logger

	subMu   sync.RWMutex
	subs    map[int]chan Event
	nextSub int
}

// Open loads the store document at path. A missing file yields an empty
// store; a malformed one is backed up with a .corrupt suffix and the
// store starts empty.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Store{
		path:   path,
		logger: logger,
		subs:   map[int]chan Event{},
	}
	days, err := s.readDocument()
	if errors.Is(err, errCorrupt) {
		days = map[string]*model.DayRecord{}
	} else if err != nil {
		return nil, err
	}
	s.days = days
	return s, nil
}

// Path returns the backing document path.
func (s *Store) Path() string { return s.path }

// readDocument reads and decodes the store document. A missing file
// yields an empty map. A corrupt file is renamed aside and reported as
// errCorrupt. Invalid or empty day entries are dropped.
func (s *Store) readDocument() (map[string]*model.DayRecord, error) {
	days := map[string]*model.DayRecord{}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return days, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading %s: %w", s.path, err)
	}

	var raw map[string]*model.DayRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		// Back up the broken document for inspection.
		backup := s.path + ".corrupt"
		_ = os.Rename(s.path, backup)
		s.logger.WithError(err).Warnf("store: corrupt document backed up to %s", backup)
		return nil, errCorrupt
	}

	for key, day := range raw {
		if day == nil || day.ID == "" || len(day.Records) == 0 {
			s.logger.Warnf("store: dropping invalid day %q from document", key)
			continue
		}
		if _, err := dateutil.ParseDayKey(key); err != nil {
			s.logger.Warnf("store: dropping day with invalid key %q", key)
			continue
		}
		days[key] = day
	}
	return days, nil
}

// save writes the full document atomically: marshal, write to a temp
// file, rename over the real one. Callers hold s.mu.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("store: creating directories: %w", err)
	}
	data, err := json.MarshalIndent(s.days, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshalling document: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("store: writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("store: renaming temp file: %w", err)
	}
	return nil
}

// Day returns a copy of the record for the given day key.
func (s *Store) Day(key string) (model.DayRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[key]
	if !ok {
		return model.DayRecord{}, false
	}
	return d.Clone(), true
}

// Has reports whether the day exists and holds at least one non-blank note.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[key]
	return ok && d.HasRecords()
}

// Count returns the number of notes on the given day, 0 when absent.
func (s *Store) Count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.days[key]; ok {
		return len(d.Records)
	}
	return 0
}

// Len returns the number of days in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.days)
}

// Keys returns all day keys in ascending date order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.days))
	for k := range s.days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range returns copies of all day records whose calendar day falls in
// [from, to], ordered by date.
func (s *Store) Range(from, to time.Time) []model.DayRecord {
	fromKey := dateutil.DayKey(from)
	toKey := dateutil.DayKey(to)

	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.days {
		if k >= fromKey && k <= toKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]model.DayRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.days[k].Clone())
	}
	return out
}

// FindItem locates a note by full ID or unique ID prefix across all
// days. An ambiguous prefix matches nothing.
func (s *Store) FindItem(id string) (string, model.RecordItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		foundKey string
		found    model.RecordItem
		matches  int
	)
	for key, day := range s.days {
		for _, r := range day.Records {
			if r.ID == id {
				return key, r, true
			}
			if strings.HasPrefix(r.ID, id) {
				foundKey, found = key, r
				matches++
			}
		}
	}
	if matches == 1 {
		return foundKey, found, true
	}
	return "", model.RecordItem{}, false
}

// Add appends a note to the given day, creating the aggregate on its
// first note. Blank content is accepted at this layer; rejecting it is
// the caller's concern. On save failure the in-memory change is kept
// and the error returned.
func (s *Store) Add(date time.Time, content string) (model.RecordItem, error) {
	key := dateutil.DayKey(date)

	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.days[key]
	if !ok {
		day = model.NewDayRecord(dateutil.StartOfDay(date))
		s.days[key] = day
	}
	item := model.NewRecordItem(content)
	day.Records = append(day.Records, item)
	day.UpdatedAt = item.UpdatedAt

	err := s.save()
	s.publish(Event{Source: SourceLocal, Changes: []Change{{DateKey: key, DayID: day.ID}}})
	return item, err
}

// Update replaces the content of one note. Returns false when the day
// or the note does not exist; that case is a no-op, not an error.
func (s *Store) Update(key, itemID, content string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.days[key]
	if !ok {
		return false, nil
	}
	i := day.FindRecord(itemID)
	if i < 0 {
		return false, nil
	}
	now := time.Now().UTC()
	day.Records[i].Content = content
	day.Records[i].UpdatedAt = now
	day.UpdatedAt = now

	err := s.save()
	s.publish(Event{Source: SourceLocal, Changes: []Change{{DateKey: key, DayID: day.ID}}})
	return true, err
}

// DeleteItem removes one note. Removing the last note removes the whole
// day; an empty aggregate is never kept.
func (s *Store) DeleteItem(key, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.days[key]
	if !ok {
		return false, nil
	}
	i := day.FindRecord(itemID)
	if i < 0 {
		return false, nil
	}
	day.Records = append(day.Records[:i], day.Records[i+1:]...)
	change := Change{DateKey: key, DayID: day.ID}
	if len(day.Records) == 0 {
		delete(s.days, key)
		change.Deleted = true
	} else {
		day.UpdatedAt = time.Now().UTC()
	}

	err := s.save()
	s.publish(Event{Source: SourceLocal, Changes: []Change{change}})
	return true, err
}

// DeleteDay removes a whole day aggregate.
func (s *Store) DeleteDay(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.days[key]
	if !ok {
		return false, nil
	}
	delete(s.days, key)

	err := s.save()
	s.publish(Event{Source: SourceLocal, Changes: []Change{{DateKey: key, DayID: day.ID, Deleted: true}}})
	return true, err
}

// MergeStats summarizes one merge batch.
type MergeStats struct {
	Added   int
	Updated int
	Skipped int
}

// Merge applies remote day records using last-write-wins on the
// aggregate updatedAt: a remote day missing locally is inserted, a
// strictly newer remote replaces the local day, anything else is
// skipped. Ties keep the local copy, so merging is idempotent and
// the order of batches does not matter. The whole batch persists with
// one save and publishes one event; an empty batch changes nothing.
func (s *Store) Merge(remote []model.DayRecord) (MergeStats, error) {
	var stats MergeStats
	var changes []Change

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range remote {
		if r.ID == "" || len(r.Records) == 0 {
			stats.Skipped++
			continue
		}
		key := dateutil.DayKey(r.Date)
		local, ok := s.days[key]
		if ok && !r.UpdatedAt.After(local.UpdatedAt) {
			stats.Skipped++
			continue
		}
		day := r.Clone()
		s.days[key] = &day
		if ok {
			stats.Updated++
		} else {
			stats.Added++
		}
		changes = append(changes, Change{DateKey: key, DayID: day.ID})
	}

	if len(changes) == 0 {
		return stats, nil
	}
	err := s.save()
	s.publish(Event{Source: SourceMerge, Changes: changes})
	return stats, err
}

// Reload re-reads the document from disk, replacing the in-memory set,
// and publishes the difference. A reload that changes nothing publishes
// nothing; an unreadable or corrupt document keeps the current state.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.readDocument()
	if err != nil {
		return err
	}

	var changes []Change
	for key, day := range days {
		prev, ok := s.days[key]
		if !ok || !prev.UpdatedAt.Equal(day.UpdatedAt) || len(prev.Records) != len(day.Records) {
			changes = append(changes, Change{DateKey: key, DayID: day.ID})
		}
	}
	for key, day := range s.days {
		if _, ok := days[key]; !ok {
			changes = append(changes, Change{DateKey: key, DayID: day.ID, Deleted: true})
		}
	}

	s.days = days
	if len(changes) > 0 {
		s.publish(Event{Source: SourceReload, Changes: changes})
	}
	return nil
}
