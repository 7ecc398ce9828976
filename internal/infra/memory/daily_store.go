package memory

import (
	"context"
	"sync"
)

// DailyStore pins one question per date; the first writer wins.
type DailyStore struct {
	mu    sync.Mutex
	picks map[string]string
}

func NewDailyStore() *DailyStore {
	return &DailyStore{picks: make(map[string]string)}
}

func (s *DailyStore) PinDaily(_ context.Context, date, questionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if winner, ok := s.picks[date]; ok {
		return winner, nil
	}
	s.picks[date] = questionID
	return questionID, nil
}
