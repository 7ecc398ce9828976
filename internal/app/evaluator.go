package app

import (
	"context"
	"fmt"
	"strings"

	"codequest-service/internal/domain"
)

// evaluate determines correctness for one submission, polymorphic on the
// question type. MCQ evaluation is pure; CODING delegates every test
// case to the sandbox executor.
func (s *SubmissionService) evaluate(ctx context.Context, question domain.Question, req SubmitRequest) (bool, error) {
	switch question.Type {
	case domain.QuestionMCQ:
		if req.SelectedOption == nil {
			return false, fmt.Errorf("%w: selectedAnswer", domain.ErrMissingAnswer)
		}
		return *req.SelectedOption == question.CorrectOption, nil

	case domain.QuestionCoding:
		if strings.TrimSpace(req.Code) == "" {
			return false, fmt.Errorf("%w: code", domain.ErrMissingAnswer)
		}
		language, err := s.questions.GetLanguage(ctx, question.LanguageID)
		if err != nil {
			return false, err
		}
		runtimeID, ok := s.exec.RuntimeFor(language.Name)
		if !ok {
			return false, fmt.Errorf("%w: %s", domain.ErrUnsupportedLanguage, language.Name)
		}
		outcome, err := s.exec.Execute(ctx, req.Code, runtimeID, question.TestCases)
		if err != nil {
			return false, err
		}
		return outcome.AllPassed, nil

	default:
		return false, fmt.Errorf("unknown question type %q", question.Type)
	}
}
