package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"codequest-service/internal/domain"
)

// QuestionStore reads question and language content from Postgres.
// MCQ options and coding test cases are stored as JSONB.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const questionColumns = `id, language_id, title, description, difficulty, question_type, options, correct_option, test_cases`

func (s *QuestionStore) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, questionID)
	return scanQuestion(row)
}

func (s *QuestionStore) RandomQuestion(ctx context.Context) (domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT ` + questionColumns + ` FROM questions ORDER BY random() LIMIT 1`)
	q, err := scanQuestion(row)
	if errors.Is(err, domain.ErrQuestionNotFound) {
		return domain.Question{}, domain.ErrNoQuestions
	}
	return q, err
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q             domain.Question
		options       []byte
		correctOption *int
		testCases     []byte
	)
	err := row.Scan(&q.ID, &q.LanguageID, &q.Title, &q.Description, &q.Difficulty, &q.Type, &options, &correctOption, &testCases)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return domain.Question{}, fmt.Errorf("unmarshal options: %w", err)
		}
	}
	if correctOption != nil {
		q.CorrectOption = *correctOption
	}
	if len(testCases) > 0 {
		if err := json.Unmarshal(testCases, &q.TestCases); err != nil {
			return domain.Question{}, fmt.Errorf("unmarshal test cases: %w", err)
		}
	}
	return q, nil
}

func (s *QuestionStore) GetLanguage(ctx context.Context, languageID string) (domain.Language, error) {
	var l domain.Language
	err := s.pool.QueryRow(ctx,
		`SELECT id, name FROM languages WHERE id = $1`, languageID).Scan(&l.ID, &l.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Language{}, domain.ErrLanguageNotFound
	}
	if err != nil {
		return domain.Language{}, fmt.Errorf("load language: %w", err)
	}
	return l, nil
}

func (s *QuestionStore) TotalQuestions(ctx context.Context, languageID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM questions WHERE language_id = $1`, languageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}
