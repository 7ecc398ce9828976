package domain

import (
	"strings"
	"time"
)

// Difficulty buckets drive the points tariff for a completed question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// QuestionType is fixed at question creation.
type QuestionType string

const (
	QuestionMCQ    QuestionType = "MCQ"
	QuestionCoding QuestionType = "CODING"
)

// ProgressStatus tracks the lifecycle of a (user, question) ledger entry.
type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "NOT_STARTED"
	StatusInProgress ProgressStatus = "IN_PROGRESS"
	StatusCompleted  ProgressStatus = "COMPLETED"
	StatusSkipped    ProgressStatus = "SKIPPED"
)

// Role gates gamification: only learners collect streaks, badges, certificates.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// TestCase pairs sandbox stdin with the expected trimmed stdout.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// Question holds both the public payload and the privileged answer data.
// Correct answers and test cases must never leave privileged read paths.
type Question struct {
	ID          string       `json:"id"`
	LanguageID  string       `json:"languageId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Difficulty  Difficulty   `json:"difficulty"`
	Type        QuestionType `json:"type"`

	// MCQ payload.
	Options       []string `json:"options,omitempty"`
	CorrectOption int      `json:"correctOption,omitempty"`

	// CODING payload.
	TestCases []TestCase `json:"testCases,omitempty"`
}

// QuestionView is the sanitized shape served to learners.
type QuestionView struct {
	ID          string       `json:"id"`
	LanguageID  string       `json:"languageId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Difficulty  Difficulty   `json:"difficulty"`
	Type        QuestionType `json:"type"`
	Options     []string     `json:"options,omitempty"`
}

// View strips the correct option index and test case expectations.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:          q.ID,
		LanguageID:  q.LanguageID,
		Title:       q.Title,
		Description: q.Description,
		Difficulty:  q.Difficulty,
		Type:        q.Type,
		Options:     q.Options,
	}
}

// Language is read-only from this service's perspective.
type Language struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Progress is the per-(user, question) attempt/completion ledger entry.
// CompletedAt and PointsEarned are written exactly once, by the first
// successful attempt; later attempts only touch the bookkeeping fields.
type Progress struct {
	UserID        string         `json:"userId"`
	QuestionID    string         `json:"questionId"`
	LanguageID    string         `json:"languageId"`
	Difficulty    Difficulty     `json:"difficulty"`
	Type          QuestionType   `json:"type"`
	Status        ProgressStatus `json:"status"`
	Attempts      int            `json:"attempts"`
	LastAttempted time.Time      `json:"lastAttempted"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	SelectedOption *int          `json:"selectedOption,omitempty"`
	CodeSolution  string         `json:"codeSolution,omitempty"`
	IsCorrect     bool           `json:"isCorrect"`
	PointsEarned  int            `json:"pointsEarned"`
}

// Badge is a permanent, ordered achievement marker per (user, language).
type Badge struct {
	LanguageID string    `json:"languageId"`
	Level      string    `json:"level"`
	EarnedAt   time.Time `json:"earnedAt"`
}

// Certificate is the terminal achievement artifact for a language.
type Certificate struct {
	LanguageID string    `json:"languageId"`
	URL        string    `json:"url"`
	EarnedAt   time.Time `json:"earnedAt"`
}

// User carries the achievement state mutated by the submission pipeline.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Roles     []Role `json:"roles"`

	CurrentStreak  int           `json:"currentStreak"`
	LongestStreak  int           `json:"longestStreak"`
	LastActiveDate *time.Time    `json:"lastActiveDate,omitempty"`
	Badges         []Badge       `json:"badges"`
	Certificates   []Certificate `json:"certificates"`
}

// IsLearner reports whether gamification applies to this user.
func (u User) IsLearner() bool {
	for _, r := range u.Roles {
		if r == RoleUser {
			return true
		}
	}
	return false
}

// DisplayName picks the certificate holder name: first+last, then
// username, then a generic label.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return "CodeQuest Champion"
}

// Principal is the authenticated identity supplied by the gateway.
type Principal struct {
	ID    string
	Roles []Role
}

// CaseResult is the judged outcome of one sandbox test case.
type CaseResult struct {
	Passed   bool   `json:"passed"`
	StatusID int    `json:"statusId"`
	Status   string `json:"status"`
	Stdout   string `json:"stdout,omitempty"`
}

// ExecutionOutcome aggregates all test case results; AllPassed is the
// logical AND across cases.
type ExecutionOutcome struct {
	AllPassed bool         `json:"allPassed"`
	Cases     []CaseResult `json:"cases"`
}
