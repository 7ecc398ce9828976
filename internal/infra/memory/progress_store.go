package memory

import (
	"context"
	"sync"

	"codequest-service/internal/app"
	"codequest-service/internal/domain"
)

// ProgressStore keeps the attempt ledger in a mutex-guarded map. The
// completion transition happens under the lock, giving the same
// at-most-once guarantee the Postgres store gets from its conditional
// UPDATE.
type ProgressStore struct {
	mu      sync.Mutex
	records map[progressKey]*domain.Progress
}

type progressKey struct {
	userID     string
	questionID string
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{records: make(map[progressKey]*domain.Progress)}
}

func (s *ProgressStore) RecordAttempt(_ context.Context, attempt app.Attempt) (domain.Progress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := progressKey{userID: attempt.UserID, questionID: attempt.QuestionID}
	record, ok := s.records[key]
	if !ok {
		record = &domain.Progress{
			UserID:     attempt.UserID,
			QuestionID: attempt.QuestionID,
			LanguageID: attempt.LanguageID,
			Difficulty: attempt.Difficulty,
			Type:       attempt.Type,
			Status:     domain.StatusInProgress,
		}
		s.records[key] = record
	}

	record.Attempts++
	record.LastAttempted = attempt.At
	record.SelectedOption = attempt.SelectedOption
	record.CodeSolution = attempt.Code
	record.IsCorrect = attempt.IsCorrect

	newlyCompleted := false
	if attempt.IsCorrect && record.Status != domain.StatusCompleted {
		at := attempt.At
		record.Status = domain.StatusCompleted
		record.CompletedAt = &at
		record.PointsEarned = attempt.Points
		newlyCompleted = true
	}
	return *record, newlyCompleted, nil
}

func (s *ProgressStore) CountCompleted(_ context.Context, userID, languageID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, r := range s.records {
		if r.UserID == userID && r.LanguageID == languageID && r.Status == domain.StatusCompleted && r.IsCorrect {
			count++
		}
	}
	return count, nil
}

func (s *ProgressStore) ListByUser(_ context.Context, userID string) ([]domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []domain.Progress
	for _, r := range s.records {
		if r.UserID == userID {
			records = append(records, *r)
		}
	}
	return records, nil
}
