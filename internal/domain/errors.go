package domain

import "errors"

var (
	// ErrQuestionNotFound indicates the submitted question ID is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrLanguageNotFound indicates the question references a missing language.
	ErrLanguageNotFound = errors.New("language not found")
	// ErrUserNotFound indicates the principal has no stored user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrMissingAnswer is returned when a submission carries no answer payload.
	ErrMissingAnswer = errors.New("answer is required")
	// ErrUnsupportedLanguage means the question's language has no execution runtime.
	ErrUnsupportedLanguage = errors.New("language not supported for execution")
	// ErrExecutionTimeout means the sandbox exhausted its poll budget.
	// Distinct from a failing verdict: the user's code was never judged.
	ErrExecutionTimeout = errors.New("timed out waiting for execution result")
	// ErrExecutionService wraps sandbox transport and protocol failures.
	ErrExecutionService = errors.New("execution service unavailable")
	// ErrRenderFailed means the certificate document could not be produced.
	ErrRenderFailed = errors.New("certificate render failed")
	// ErrNoQuestions indicates the question pool is empty.
	ErrNoQuestions = errors.New("no questions available")
)
