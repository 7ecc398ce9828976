package memory

import (
	"context"
	"math/rand"
	"sync"

	"codequest-service/internal/domain"
)

// QuestionStore serves question and language content from in-memory maps.
// Used for tests and for running the service without Postgres.
type QuestionStore struct {
	mu        sync.RWMutex
	questions map[string]domain.Question
	languages map[string]domain.Language
}

func NewQuestionStore(languages []domain.Language, questions []domain.Question) *QuestionStore {
	s := &QuestionStore{
		questions: make(map[string]domain.Question, len(questions)),
		languages: make(map[string]domain.Language, len(languages)),
	}
	for _, l := range languages {
		s.languages[l.ID] = l
	}
	for _, q := range questions {
		s.questions[q.ID] = q
	}
	return s
}

func (s *QuestionStore) GetQuestion(_ context.Context, questionID string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.questions[questionID]; ok {
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *QuestionStore) GetLanguage(_ context.Context, languageID string) (domain.Language, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.languages[languageID]; ok {
		return l, nil
	}
	return domain.Language{}, domain.ErrLanguageNotFound
}

func (s *QuestionStore) TotalQuestions(_ context.Context, languageID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, q := range s.questions {
		if q.LanguageID == languageID {
			count++
		}
	}
	return count, nil
}

func (s *QuestionStore) RandomQuestion(_ context.Context) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.questions) == 0 {
		return domain.Question{}, domain.ErrNoQuestions
	}
	ids := make([]string, 0, len(s.questions))
	for id := range s.questions {
		ids = append(ids, id)
	}
	return s.questions[ids[rand.Intn(len(ids))]], nil
}
