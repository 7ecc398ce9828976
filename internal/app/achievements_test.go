package app_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"codequest-service/internal/app"
	"codequest-service/internal/domain"
)

func TestNextBadgeFollowsLadderPosition(t *testing.T) {
	ladder := app.DefaultLadder()

	cases := []struct {
		name       string
		earned     []string
		percentage int
		wantLevel  string
		wantOK     bool
	}{
		{name: "below first rung", percentage: 19, wantOK: false},
		{name: "first rung reached", percentage: 20, wantLevel: "Bronze Learner", wantOK: true},
		{name: "jump straight to full completion", percentage: 100, wantLevel: "Bronze Learner", wantOK: true},
		{name: "second rung after first", earned: []string{"Bronze Learner"}, percentage: 45, wantLevel: "Silver Coder", wantOK: true},
		{name: "position beats percentage after a gap", earned: []string{"Silver Coder"}, percentage: 60, wantLevel: "Gold Developer", wantOK: true},
		{name: "all rungs held", earned: []string{"Bronze Learner", "Silver Coder", "Gold Developer", "Platinum Master"}, percentage: 100, wantOK: false},
		{name: "threshold not reached for next rung", earned: []string{"Bronze Learner"}, percentage: 25, wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry, ok := app.NextBadge(ladder, tc.earned, tc.percentage)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v (%+v)", tc.wantOK, ok, entry)
			}
			if ok && entry.Level != tc.wantLevel {
				t.Fatalf("expected %q, got %q", tc.wantLevel, entry.Level)
			}
		})
	}
}

func TestBadgeLadderProgression(t *testing.T) {
	ctx := context.Background()
	questions := make([]domain.Question, 0, 5)
	for i := 1; i <= 5; i++ {
		questions = append(questions, mcq(fmt.Sprintf("q%d", i), domain.DifficultyEasy))
	}
	f := newFixture(questions...)

	wantLevels := []string{"Bronze Learner", "Silver Coder", "Gold Developer", "Platinum Master", "Platinum Master"}
	for i := 1; i <= 5; i++ {
		if _, err := f.service.Submit(ctx, learner(), fmt.Sprintf("q%d", i), app.SubmitRequest{SelectedOption: intPtr(1)}); err != nil {
			t.Fatalf("submit q%d: %v", i, err)
		}
		user, err := f.users.GetUser(ctx, "user-1")
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		if len(user.Badges) != min(i, 4) {
			t.Fatalf("after %d completions expected %d badges, got %+v", i, min(i, 4), user.Badges)
		}
		if top := user.Badges[len(user.Badges)-1].Level; top != wantLevels[i-1] {
			t.Fatalf("after %d completions expected top badge %q, got %q", i, wantLevels[i-1], top)
		}
	}

	user, _ := f.users.GetUser(ctx, "user-1")
	if len(user.Certificates) != 1 {
		t.Fatalf("expected certificate at full completion, got %+v", user.Certificates)
	}
	if !strings.Contains(user.Certificates[0].URL, "user-1_javascript_certificate.pdf") {
		t.Fatalf("unexpected certificate URL %q", user.Certificates[0].URL)
	}
	if f.notifier.certCount() != 1 {
		t.Fatalf("expected one certificate notification, got %d", f.notifier.certCount())
	}
}

func TestNoCertificateBeforeFullCompletion(t *testing.T) {
	ctx := context.Background()
	questions := make([]domain.Question, 0, 5)
	for i := 1; i <= 5; i++ {
		questions = append(questions, mcq(fmt.Sprintf("q%d", i), domain.DifficultyEasy))
	}
	f := newFixture(questions...)

	for i := 1; i <= 4; i++ {
		if _, err := f.service.Submit(ctx, learner(), fmt.Sprintf("q%d", i), app.SubmitRequest{SelectedOption: intPtr(1)}); err != nil {
			t.Fatalf("submit q%d: %v", i, err)
		}
	}

	user, _ := f.users.GetUser(ctx, "user-1")
	if len(user.Certificates) != 0 || f.artifacts.Len() != 0 {
		t.Fatalf("certificate must wait for 100%%, got %+v", user.Certificates)
	}
}

func TestSingleBadgePerCompletionEvenAfterJump(t *testing.T) {
	ctx := context.Background()
	// Two questions: the first completion lands at 50%, past two rungs.
	f := newFixture(mcq("q1", domain.DifficultyEasy), mcq("q2", domain.DifficultyEasy))

	if _, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{SelectedOption: intPtr(1)}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	user, _ := f.users.GetUser(ctx, "user-1")
	if len(user.Badges) != 1 || user.Badges[0].Level != "Bronze Learner" {
		t.Fatalf("expected only the first rung, got %+v", user.Badges)
	}
}

func TestCustomLadderFromOptions(t *testing.T) {
	ladder := []app.LadderEntry{{Percent: 50, Level: "Halfway"}, {Percent: 100, Level: "Done"}}
	if entry, ok := app.NextBadge(ladder, nil, 50); !ok || entry.Level != "Halfway" {
		t.Fatalf("expected Halfway at 50%%, got %+v ok=%v", entry, ok)
	}
	if entry, ok := app.NextBadge(ladder, []string{"Halfway"}, 100); !ok || entry.Level != "Done" {
		t.Fatalf("expected Done at 100%%, got %+v ok=%v", entry, ok)
	}
}

