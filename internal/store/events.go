package store

// Source identifies what caused a change event.
type Source string

const (
	// SourceLocal marks changes made through local mutations.
	SourceLocal Source = "local"
	// SourceMerge marks changes applied from the cloud.
	SourceMerge Source = "merge"
	// SourceReload marks changes picked up from the document on disk.
	SourceReload Source = "reload"
)

// Change identifies one affected day.
type Change struct {
	DateKey string `json:"date"`
	DayID   string `json:"dayId"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Event is published after every successful mutation, once per merge
// batch, and once per reload diff.
type Event struct {
	Source  Source   `json:"source"`
	Changes []Change `json:"changes"`
}

const subscriberBuffer = 16

// Subscribe registers a change listener and returns the event channel
// together with an unsubscribe function. Delivery is best-effort: a
// subscriber that falls behind misses events instead of blocking
// writers.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, subscriberBuffer)
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
		s.subMu.Unlock()
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Debugf("store: subscriber %d lagging, event dropped", id)
		}
	}
}
