package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codequest-service/internal/domain"
)

// UserStore keeps user achievement state in memory. Badge and
// certificate inserts are conditional under the lock, mirroring the
// unique-index guarantees of the Postgres store.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func NewUserStore(users ...domain.User) *UserStore {
	s := &UserStore{users: make(map[string]*domain.User, len(users))}
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
	}
	return s
}

func (s *UserStore) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	copied := *user
	copied.Badges = append([]domain.Badge(nil), user.Badges...)
	copied.Certificates = append([]domain.Certificate(nil), user.Certificates...)
	return copied, nil
}

func (s *UserStore) UpdateStreak(_ context.Context, userID string, current, longest int, lastActive time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.CurrentStreak = current
	user.LongestStreak = longest
	user.LastActiveDate = &lastActive
	return nil
}

func (s *UserStore) AddBadge(_ context.Context, userID string, badge domain.Badge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	for _, existing := range user.Badges {
		if existing.LanguageID == badge.LanguageID && existing.Level == badge.Level {
			return false, nil
		}
	}
	user.Badges = append(user.Badges, badge)
	return true, nil
}

func (s *UserStore) AddCertificate(_ context.Context, userID string, cert domain.Certificate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	for _, existing := range user.Certificates {
		if existing.LanguageID == cert.LanguageID {
			return false, nil
		}
	}
	user.Certificates = append(user.Certificates, cert)
	return true, nil
}

// ArtifactStore stores uploaded artifacts in memory and serves fake
// public URLs; tests assert against its contents.
type ArtifactStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{objects: make(map[string][]byte)}
}

func (s *ArtifactStore) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return fmt.Sprintf("https://artifacts.local/%s", key), nil
}

// Object returns the stored bytes for a key.
func (s *ArtifactStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// Len reports how many objects are stored.
func (s *ArtifactStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
