package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"codequest-service/internal/domain"
	"codequest-service/internal/logging"
)

// QuestionStore supplies question and language content. It is read-only
// from the pipeline's perspective.
type QuestionStore interface {
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
	GetLanguage(ctx context.Context, languageID string) (domain.Language, error)
	TotalQuestions(ctx context.Context, languageID string) (int, error)
	RandomQuestion(ctx context.Context) (domain.Question, error)
}

// ProgressStore owns the per-(user, question) attempt ledger. The
// completion transition must be a storage-level compare-and-set so that
// points are awarded at most once under concurrent submissions.
type ProgressStore interface {
	// RecordAttempt upserts the attempt and reports whether this call won
	// the first-success transition to COMPLETED.
	RecordAttempt(ctx context.Context, attempt Attempt) (domain.Progress, bool, error)
	CountCompleted(ctx context.Context, userID, languageID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Progress, error)
}

// Attempt carries one submission's write to the progress ledger.
type Attempt struct {
	UserID         string
	QuestionID     string
	LanguageID     string
	Difficulty     domain.Difficulty
	Type           domain.QuestionType
	SelectedOption *int
	Code           string
	IsCorrect      bool
	Points         int
	At             time.Time
}

// UserStore owns user achievement state. AddBadge and AddCertificate are
// atomic conditional inserts: they return false when the row already
// exists instead of failing.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	UpdateStreak(ctx context.Context, userID string, current, longest int, lastActive time.Time) error
	AddBadge(ctx context.Context, userID string, badge domain.Badge) (bool, error)
	AddCertificate(ctx context.Context, userID string, cert domain.Certificate) (bool, error)
}

// DailyPickStore pins one question per calendar date. PinDaily is an
// atomic insert-if-absent; it returns the question ID that won the pin.
type DailyPickStore interface {
	PinDaily(ctx context.Context, date, questionID string) (string, error)
}

// Executor runs source code against test cases in the remote sandbox.
type Executor interface {
	RuntimeFor(languageName string) (int, bool)
	Execute(ctx context.Context, source string, runtimeID int, cases []domain.TestCase) (domain.ExecutionOutcome, error)
}

// CertificateIssuer renders and persists the certificate artifact,
// returning its public URL.
type CertificateIssuer interface {
	Issue(ctx context.Context, holderName, languageName, userID string) (string, error)
}

// Notifier sends best-effort achievement mail. One method per event
// variant keeps payloads strongly typed.
type Notifier interface {
	SendBadgeEarned(ctx context.Context, event domain.BadgeEarned) error
	SendCertificateEarned(ctx context.Context, event domain.CertificateEarned) error
}

// SubmissionService is the submission-evaluation and reward-progression
// pipeline: evaluate, record, then drive streaks, badges, certificates.
type SubmissionService struct {
	questions QuestionStore
	progress  ProgressStore
	users     UserStore
	daily     DailyPickStore
	exec      Executor
	certs     CertificateIssuer
	notifier  Notifier
	feed      *Feed
	ladder    []LadderEntry
	log       *logging.Logger
	now       func() time.Time
}

// Options bundles the pipeline's collaborators.
type Options struct {
	Questions QuestionStore
	Progress  ProgressStore
	Users     UserStore
	Daily     DailyPickStore
	Executor  Executor
	Certs     CertificateIssuer
	Notifier  Notifier
	Feed      *Feed
	Ladder    []LadderEntry
	Log       *logging.Logger
}

func NewSubmissionService(opts Options) *SubmissionService {
	ladder := opts.Ladder
	if len(ladder) == 0 {
		ladder = DefaultLadder()
	}
	log := opts.Log
	if log == nil {
		log = logging.NewNop()
	}
	return &SubmissionService{
		questions: opts.Questions,
		progress:  opts.Progress,
		users:     opts.Users,
		daily:     opts.Daily,
		exec:      opts.Executor,
		certs:     opts.Certs,
		notifier:  opts.Notifier,
		feed:      opts.Feed,
		ladder:    ladder,
		log:       log,
		now:       time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}

// SubmitRequest is the answer payload; exactly one field applies
// depending on the question type.
type SubmitRequest struct {
	SelectedOption *int
	Code           string
}

// SubmitResult mirrors the response of the submit operation.
type SubmitResult struct {
	IsCorrect    bool                  `json:"isCorrect"`
	PointsEarned int                   `json:"pointsEarned"`
	Attempts     int                   `json:"attempts"`
	Status       domain.ProgressStatus `json:"status"`
}

// Submit runs the full pipeline for one answer. Evaluation and scoring
// errors are returned; downstream achievement failures are logged and
// absorbed so the response always reflects the evaluation outcome.
func (s *SubmissionService) Submit(ctx context.Context, principal domain.Principal, questionID string, req SubmitRequest) (SubmitResult, error) {
	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return SubmitResult{}, err
	}

	isCorrect, err := s.evaluate(ctx, question, req)
	if err != nil {
		// No ledger write happened yet: execution and validation errors
		// leave progress untouched for this attempt.
		return SubmitResult{}, err
	}

	points := 0
	if isCorrect {
		points = pointsFor(question.Difficulty)
	}

	record, newlyCompleted, err := s.progress.RecordAttempt(ctx, Attempt{
		UserID:         principal.ID,
		QuestionID:     question.ID,
		LanguageID:     question.LanguageID,
		Difficulty:     question.Difficulty,
		Type:           question.Type,
		SelectedOption: req.SelectedOption,
		Code:           req.Code,
		IsCorrect:      isCorrect,
		Points:         points,
		At:             s.now(),
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("record attempt: %w", err)
	}

	if newlyCompleted {
		s.afterCompletion(ctx, principal, question)
	}

	earned := 0
	if isCorrect {
		earned = record.PointsEarned
	}
	return SubmitResult{
		IsCorrect:    isCorrect,
		PointsEarned: earned,
		Attempts:     record.Attempts,
		Status:       record.Status,
	}, nil
}

// afterCompletion runs the reward progression for a newly completed
// question. Failures here never fail the submission: they are logged and
// retried naturally on the user's next completion.
func (s *SubmissionService) afterCompletion(ctx context.Context, principal domain.Principal, question domain.Question) {
	user, err := s.users.GetUser(ctx, principal.ID)
	if err != nil {
		s.log.Error("load user for rewards", "user", principal.ID, "err", err)
		return
	}
	if !user.IsLearner() {
		return
	}

	user, err = s.touchStreak(ctx, user)
	if err != nil {
		s.log.Error("update streak", "user", user.ID, "err", err)
	}

	if err := s.reconcileAchievements(ctx, user, question.LanguageID); err != nil {
		s.log.Error("reconcile achievements", "user", user.ID, "language", question.LanguageID, "err", err)
	}
}

// UserProgress returns the caller's ledger entries, most recently
// attempted first.
func (s *SubmissionService) UserProgress(ctx context.Context, userID string) ([]domain.Progress, error) {
	records, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LastAttempted.After(records[j].LastAttempted)
	})
	return records, nil
}

// StreakInfo is the read model for the streak endpoint.
type StreakInfo struct {
	CurrentStreak  int        `json:"currentStreak"`
	LongestStreak  int        `json:"longestStreak"`
	LastActiveDate *time.Time `json:"lastActiveDate,omitempty"`
}

func (s *SubmissionService) Streak(ctx context.Context, userID string) (StreakInfo, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return StreakInfo{}, err
	}
	return StreakInfo{
		CurrentStreak:  user.CurrentStreak,
		LongestStreak:  user.LongestStreak,
		LastActiveDate: user.LastActiveDate,
	}, nil
}

// DailyQuestion returns today's pinned question, picking one at random
// on the first request of the day. The pin is first-writer-wins so
// concurrent first requests agree on the same question.
func (s *SubmissionService) DailyQuestion(ctx context.Context) (domain.QuestionView, error) {
	date := s.now().UTC().Format("2006-01-02")
	candidate, err := s.questions.RandomQuestion(ctx)
	if err != nil {
		return domain.QuestionView{}, err
	}
	winnerID, err := s.daily.PinDaily(ctx, date, candidate.ID)
	if err != nil {
		return domain.QuestionView{}, fmt.Errorf("pin daily question: %w", err)
	}
	winner := candidate
	if winnerID != candidate.ID {
		if winner, err = s.questions.GetQuestion(ctx, winnerID); err != nil {
			return domain.QuestionView{}, err
		}
	}
	return winner.View(), nil
}

// pointsFor is the difficulty tariff; unknown difficulties earn nothing.
func pointsFor(d domain.Difficulty) int {
	switch d {
	case domain.DifficultyEasy:
		return 10
	case domain.DifficultyMedium:
		return 20
	case domain.DifficultyHard:
		return 30
	default:
		return 0
	}
}
