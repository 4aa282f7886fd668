package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when no live attempt exists for the key.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAlreadyStarted is returned when start is called on a non-fresh attempt.
	ErrAlreadyStarted = errors.New("attempt already started")
	// ErrNotInProgress is returned when an operation requires a running attempt.
	ErrNotInProgress = errors.New("attempt not in progress")
	// ErrQuestionIndexOutOfRange indicates a caller-supplied question index
	// that does not address an existing question.
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
	// ErrOptionIndexOutOfRange indicates a caller-supplied option index that
	// does not address an option of the target question.
	ErrOptionIndexOutOfRange = errors.New("option index out of range")
	// ErrAuthExpired indicates the bearer token was missing or invalid when
	// a submission was attempted.
	ErrAuthExpired = errors.New("auth token missing or expired")

	// Quiz document validation failures.
	ErrNoQuestions            = errors.New("quiz has no questions")
	ErrTooFewOptions          = errors.New("question has fewer than two options")
	ErrCorrectIndexOutOfRange = errors.New("correct option index out of range")
)
