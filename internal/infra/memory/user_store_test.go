package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"codequest-service/internal/domain"
	"codequest-service/internal/infra/memory"
)

func TestAddBadgeIsConditional(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUserStore(domain.User{ID: "u1", Roles: []domain.Role{domain.RoleUser}})

	badge := domain.Badge{LanguageID: "lang-js", Level: "Bronze Learner", EarnedAt: time.Now()}

	var wg sync.WaitGroup
	added := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.AddBadge(ctx, "u1", badge)
			if err != nil {
				t.Errorf("add badge: %v", err)
				return
			}
			added <- ok
		}()
	}
	wg.Wait()
	close(added)

	wins := 0
	for ok := range added {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected one insert to win, got %d", wins)
	}

	user, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(user.Badges) != 1 {
		t.Fatalf("expected a single badge, got %+v", user.Badges)
	}

	// A different rung for the same language still inserts.
	ok, err := store.AddBadge(ctx, "u1", domain.Badge{LanguageID: "lang-js", Level: "Silver Coder"})
	if err != nil || !ok {
		t.Fatalf("expected next rung to insert, got ok=%v err=%v", ok, err)
	}
}

func TestAddCertificatePerLanguage(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUserStore(domain.User{ID: "u1"})

	if ok, _ := store.AddCertificate(ctx, "u1", domain.Certificate{LanguageID: "lang-js", URL: "u"}); !ok {
		t.Fatal("first certificate should insert")
	}
	if ok, _ := store.AddCertificate(ctx, "u1", domain.Certificate{LanguageID: "lang-js", URL: "other"}); ok {
		t.Fatal("duplicate certificate must not insert")
	}
	if ok, _ := store.AddCertificate(ctx, "u1", domain.Certificate{LanguageID: "lang-py", URL: "u"}); !ok {
		t.Fatal("certificate for another language should insert")
	}
}

func TestGetUserReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUserStore(domain.User{ID: "u1", Badges: []domain.Badge{{LanguageID: "lang-js", Level: "Bronze Learner"}}})

	user, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	user.Badges[0].Level = "mutated"

	again, _ := store.GetUser(ctx, "u1")
	if again.Badges[0].Level != "Bronze Learner" {
		t.Fatalf("store state leaked through returned slice: %+v", again.Badges)
	}
}

func TestGetUserUnknown(t *testing.T) {
	store := memory.NewUserStore()
	if _, err := store.GetUser(context.Background(), "ghost"); err != domain.ErrUserNotFound {
		t.Fatalf("expected user not found, got %v", err)
	}
}
