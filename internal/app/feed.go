package app

import (
	"sync"

	"codequest-service/internal/domain"
)

// Feed fans achievement events out to per-user subscribers. Delivery is
// best-effort: a slow consumer has its oldest buffered event dropped
// rather than blocking the submission pipeline.
type Feed struct {
	mu   sync.RWMutex
	subs map[string]map[chan domain.AchievementEvent]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[chan domain.AchievementEvent]struct{})}
}

// Subscribe returns a channel of events for one user. The caller must
// invoke the returned cancel function to avoid leaks.
func (f *Feed) Subscribe(userID string) (<-chan domain.AchievementEvent, func()) {
	ch := make(chan domain.AchievementEvent, 8)

	f.mu.Lock()
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[chan domain.AchievementEvent]struct{})
	}
	f.subs[userID][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subs[userID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subs, userID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the user.
func (f *Feed) Publish(userID string, event domain.AchievementEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subs[userID] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
