package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"codequest-service/internal/config"
	"codequest-service/internal/domain"
	"codequest-service/internal/logging"
)

// NewSeedCmd loads the sample catalog into Postgres. Useful for demos
// and local development against a real database.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample languages, questions and users",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			log, err := logging.New(cfg.Server.Mode)
			if err != nil {
				return err
			}
			defer log.Sync()
			return seedPostgres(cmd.Context(), cfg.Postgres.URL, log)
		},
	}
}

func seedPostgres(ctx context.Context, dsn string, log *logging.Logger) error {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	for _, lang := range sampleLanguages() {
		if _, err := pool.Exec(ctx,
			`INSERT INTO languages (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			lang.ID, lang.Name); err != nil {
			return fmt.Errorf("seed language %s: %w", lang.ID, err)
		}
	}

	for _, q := range sampleQuestions() {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		cases, err := json.Marshal(q.TestCases)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO questions (id, language_id, title, description, difficulty, question_type, options, correct_option, test_cases)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO NOTHING`,
			q.ID, q.LanguageID, q.Title, q.Description, q.Difficulty, q.Type, options, q.CorrectOption, cases); err != nil {
			return fmt.Errorf("seed question %s: %w", q.ID, err)
		}
	}

	for _, u := range sampleUsers() {
		roles := make([]string, len(u.Roles))
		for i, r := range u.Roles {
			roles[i] = string(r)
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO users (id, username, email, first_name, last_name, roles)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Username, u.Email, u.FirstName, u.LastName, roles); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	log.Info("sample data seeded")
	return nil
}

// Sample catalog used by the seed command and the in-memory fallback.

func sampleLanguages() []domain.Language {
	return []domain.Language{
		{ID: "lang-js", Name: "JavaScript"},
		{ID: "lang-py", Name: "Python"},
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:          "q-js-1",
			LanguageID:  "lang-js",
			Title:       "Array literals",
			Description: "Which expression creates an empty array?",
			Difficulty:  domain.DifficultyEasy,
			Type:        domain.QuestionMCQ,
			Options:     []string{"array()", "[]", "{}", "new List()"},
			CorrectOption: 1,
		},
		{
			ID:          "q-js-2",
			LanguageID:  "lang-js",
			Title:       "Sum of two numbers",
			Description: "Read two integers from stdin (space separated) and print their sum.",
			Difficulty:  domain.DifficultyMedium,
			Type:        domain.QuestionCoding,
			TestCases: []domain.TestCase{
				{Input: "1 2", ExpectedOutput: "3"},
				{Input: "10 -4", ExpectedOutput: "6"},
			},
		},
		{
			ID:          "q-py-1",
			LanguageID:  "lang-py",
			Title:       "String reversal",
			Description: "Read a line from stdin and print it reversed.",
			Difficulty:  domain.DifficultyHard,
			Type:        domain.QuestionCoding,
			TestCases: []domain.TestCase{
				{Input: "abc", ExpectedOutput: "cba"},
			},
		},
	}
}

func sampleUsers() []domain.User {
	return []domain.User{
		{
			ID:       "user-1",
			Username: "ada",
			Email:    "ada@example.com",
			Roles:    []domain.Role{domain.RoleUser},
		},
		{
			ID:       "user-2",
			Username: "ops",
			Email:    "ops@example.com",
			Roles:    []domain.Role{domain.RoleAdmin},
		},
	}
}
