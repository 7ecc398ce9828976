package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codequest-service/internal/app"
	"codequest-service/internal/cert"
	"codequest-service/internal/domain"
	"codequest-service/internal/infra/memory"
)

func TestSubmitMCQCorrectAwardsPoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(mcq("q1", domain.DifficultyEasy))

	result, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{SelectedOption: intPtr(1)})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.IsCorrect || result.PointsEarned != 10 {
		t.Fatalf("expected correct answer worth 10 points, got %+v", result)
	}
	if result.Status != domain.StatusCompleted || result.Attempts != 1 {
		t.Fatalf("expected completed after 1 attempt, got %+v", result)
	}

	user, err := f.users.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.CurrentStreak != 1 || user.LongestStreak != 1 {
		t.Fatalf("expected streak started, got current=%d longest=%d", user.CurrentStreak, user.LongestStreak)
	}
}

func TestSubmitMCQWrongThenCorrect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(mcq("q1", domain.DifficultyMedium))

	result, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{SelectedOption: intPtr(0)})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.IsCorrect || result.PointsEarned != 0 || result.Status != domain.StatusInProgress {
		t.Fatalf("expected wrong answer to stay in progress, got %+v", result)
	}

	result, err = f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{SelectedOption: intPtr(1)})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.IsCorrect || result.PointsEarned != 20 || result.Attempts != 2 {
		t.Fatalf("expected 20 points on second attempt, got %+v", result)
	}
}

func TestResubmitAfterCompletionKeepsFirstAward(t *testing.T) {
	ctx := context.Background()
	f := newFixture(mcq("q1", domain.DifficultyEasy))

	if _, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{SelectedOption: intPtr(1)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	result, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{SelectedOption: intPtr(1)})
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if result.PointsEarned != 10 || result.Attempts != 2 || result.Status != domain.StatusCompleted {
		t.Fatalf("expected original award to survive resubmission, got %+v", result)
	}
	if got := f.notifier.badgeCount(); got != 1 {
		t.Fatalf("expected one badge notification, got %d", got)
	}
}

func TestWrongResubmitAfterCompletionKeepsStoredAward(t *testing.T) {
	ctx := context.Background()
	f := newFixture(mcq("q1", domain.DifficultyEasy))

	if _, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{SelectedOption: intPtr(1)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	result, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{SelectedOption: intPtr(0)})
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if result.IsCorrect || result.PointsEarned != 0 {
		t.Fatalf("wrong resubmission must report incorrect, got %+v", result)
	}
	if result.Status != domain.StatusCompleted {
		t.Fatalf("completion must not regress, got %+v", result)
	}

	records, _ := f.service.UserProgress(ctx, "user-1")
	if len(records) != 1 || records[0].PointsEarned != 10 || records[0].Status != domain.StatusCompleted {
		t.Fatalf("stored award must survive a wrong resubmission, got %+v", records)
	}
}

func TestSubmitMissingAnswer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(mcq("q1", domain.DifficultyEasy), coding("q2", domain.DifficultyHard))

	if _, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{}); !errors.Is(err, domain.ErrMissingAnswer) {
		t.Fatalf("expected missing answer error, got %v", err)
	}
	if _, err := f.service.Submit(ctx, learner(), "q2", app.SubmitRequest{Code: "   "}); !errors.Is(err, domain.ErrMissingAnswer) {
		t.Fatalf("expected missing code error, got %v", err)
	}
	records, err := f.service.UserProgress(ctx, "user-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("rejected submissions must not touch the ledger, got %d records", len(records))
	}
}

func TestSubmitUnknownQuestion(t *testing.T) {
	f := newFixture(mcq("q1", domain.DifficultyEasy))
	_, err := f.service.Submit(context.Background(), learner(), "nope", app.SubmitRequest{SelectedOption: intPtr(1)})
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func TestSubmitCodingRunsSandbox(t *testing.T) {
	ctx := context.Background()
	f := newFixture(coding("q1", domain.DifficultyHard))
	f.executor.outcome = domain.ExecutionOutcome{AllPassed: true}

	result, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{Code: "print(1)"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.IsCorrect || result.PointsEarned != 30 {
		t.Fatalf("expected passing run worth 30 points, got %+v", result)
	}
}

func TestSubmitCodingFailingCasesStayInProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(coding("q1", domain.DifficultyHard))
	f.executor.outcome = domain.ExecutionOutcome{
		AllPassed: false,
		Cases:     []domain.CaseResult{{Passed: true}, {Passed: false}},
	}

	result, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{Code: "print(1)"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.IsCorrect || result.PointsEarned != 0 || result.Status != domain.StatusInProgress {
		t.Fatalf("expected failing verdict without points, got %+v", result)
	}
}

func TestSubmitCodingSandboxOutageLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(coding("q1", domain.DifficultyHard))
	f.executor.err = domain.ErrExecutionTimeout

	_, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{Code: "print(1)"})
	if !errors.Is(err, domain.ErrExecutionTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	records, _ := f.service.UserProgress(ctx, "user-1")
	if len(records) != 0 {
		t.Fatalf("sandbox outage must not count as an attempt, got %d records", len(records))
	}
}

func TestSubmitCodingUnsupportedLanguage(t *testing.T) {
	f := newFixture(coding("q1", domain.DifficultyHard))
	f.executor.runtimes = map[string]int{}

	_, err := f.service.Submit(context.Background(), learner(), "q1", app.SubmitRequest{Code: "print(1)"})
	if !errors.Is(err, domain.ErrUnsupportedLanguage) {
		t.Fatalf("expected unsupported language, got %v", err)
	}
}

func TestConcurrentSubmitAwardsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(mcq("q1", domain.DifficultyEasy))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{SelectedOption: intPtr(1)}); err != nil {
				t.Errorf("submit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	records, err := f.service.UserProgress(ctx, "user-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(records) != 1 || records[0].Attempts != 8 || records[0].PointsEarned != 10 {
		t.Fatalf("expected one record with 8 attempts and a single 10 point award, got %+v", records)
	}

	user, _ := f.users.GetUser(ctx, "user-1")
	if len(user.Badges) != 1 {
		t.Fatalf("expected exactly one badge under contention, got %+v", user.Badges)
	}
	if f.artifacts.Len() != 1 {
		t.Fatalf("expected exactly one certificate artifact, got %d", f.artifacts.Len())
	}
}

func TestAdminCompletionSkipsRewards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(mcq("q1", domain.DifficultyEasy))

	admin := domain.Principal{ID: "admin-1", Roles: []domain.Role{domain.RoleAdmin}}
	result, err := f.service.Submit(ctx, admin, "q1", app.SubmitRequest{SelectedOption: intPtr(1)})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.IsCorrect || result.Status != domain.StatusCompleted {
		t.Fatalf("admins still complete questions, got %+v", result)
	}

	user, _ := f.users.GetUser(ctx, "admin-1")
	if user.CurrentStreak != 0 || len(user.Badges) != 0 || len(user.Certificates) != 0 {
		t.Fatalf("admins must not collect rewards, got %+v", user)
	}
}

func TestUserProgressMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(mcq("q1", domain.DifficultyEasy), mcq("q2", domain.DifficultyEasy))

	if _, err := f.service.Submit(ctx, learner(), "q1", app.SubmitRequest{SelectedOption: intPtr(0)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	f.clock.Advance(time.Hour)
	if _, err := f.service.Submit(ctx, learner(), "q2", app.SubmitRequest{SelectedOption: intPtr(0)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	records, err := f.service.UserProgress(ctx, "user-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(records) != 2 || records[0].QuestionID != "q2" {
		t.Fatalf("expected q2 first, got %+v", records)
	}
}

func TestDailyQuestionStableWithinDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(mcq("q1", domain.DifficultyEasy), mcq("q2", domain.DifficultyEasy), coding("q3", domain.DifficultyHard))

	first, err := f.service.DailyQuestion(ctx)
	if err != nil {
		t.Fatalf("daily question: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := f.service.DailyQuestion(ctx)
		if err != nil {
			t.Fatalf("daily question: %v", err)
		}
		if again.ID != first.ID {
			t.Fatalf("daily pick changed within the same day: %s then %s", first.ID, again.ID)
		}
	}

	f.clock.Advance(24 * time.Hour)
	if _, err := f.service.DailyQuestion(ctx); err != nil {
		t.Fatalf("daily question next day: %v", err)
	}
}

// --- fixture ---

type fixture struct {
	service   *app.SubmissionService
	users     *memory.UserStore
	progress  *memory.ProgressStore
	artifacts *memory.ArtifactStore
	executor  *stubExecutor
	notifier  *recordingNotifier
	feed      *app.Feed
	clock     *fakeClock
}

func newFixture(questions ...domain.Question) *fixture {
	f := &fixture{
		users: memory.NewUserStore(
			domain.User{ID: "user-1", Username: "ada", Email: "ada@example.com", Roles: []domain.Role{domain.RoleUser}},
			domain.User{ID: "admin-1", Username: "ops", Email: "ops@example.com", Roles: []domain.Role{domain.RoleAdmin}},
		),
		progress:  memory.NewProgressStore(),
		artifacts: memory.NewArtifactStore(),
		executor:  &stubExecutor{runtimes: map[string]int{"JavaScript": 63}},
		notifier:  &recordingNotifier{},
		feed:      app.NewFeed(),
		clock:     &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)},
	}
	f.service = app.NewSubmissionService(app.Options{
		Questions: memory.NewQuestionStore([]domain.Language{{ID: "lang-js", Name: "JavaScript"}}, questions),
		Progress:  f.progress,
		Users:     f.users,
		Daily:     memory.NewDailyStore(),
		Executor:  f.executor,
		Certs:     cert.NewIssuer(f.artifacts, nil),
		Notifier:  f.notifier,
		Feed:      f.feed,
	}).WithClock(f.clock.Now)
	return f
}

func learner() domain.Principal {
	return domain.Principal{ID: "user-1", Roles: []domain.Role{domain.RoleUser}}
}

func mcq(id string, difficulty domain.Difficulty) domain.Question {
	return domain.Question{
		ID:            id,
		LanguageID:    "lang-js",
		Title:         "Pick the right option",
		Difficulty:    difficulty,
		Type:          domain.QuestionMCQ,
		Options:       []string{"wrong", "right", "also wrong"},
		CorrectOption: 1,
	}
}

func coding(id string, difficulty domain.Difficulty) domain.Question {
	return domain.Question{
		ID:         id,
		LanguageID: "lang-js",
		Title:      "Write some code",
		Difficulty: difficulty,
		Type:       domain.QuestionCoding,
		TestCases:  []domain.TestCase{{Input: "1 2", ExpectedOutput: "3"}},
	}
}

func intPtr(v int) *int { return &v }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubExecutor struct {
	runtimes map[string]int
	outcome  domain.ExecutionOutcome
	err      error
}

func (s *stubExecutor) RuntimeFor(name string) (int, bool) {
	id, ok := s.runtimes[name]
	return id, ok
}

func (s *stubExecutor) Execute(context.Context, string, int, []domain.TestCase) (domain.ExecutionOutcome, error) {
	if s.err != nil {
		return domain.ExecutionOutcome{}, s.err
	}
	return s.outcome, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	badges []domain.BadgeEarned
	certs  []domain.CertificateEarned
}

func (n *recordingNotifier) SendBadgeEarned(_ context.Context, event domain.BadgeEarned) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.badges = append(n.badges, event)
	return nil
}

func (n *recordingNotifier) SendCertificateEarned(_ context.Context, event domain.CertificateEarned) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.certs = append(n.certs, event)
	return nil
}

func (n *recordingNotifier) badgeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.badges)
}

func (n *recordingNotifier) certCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.certs)
}
