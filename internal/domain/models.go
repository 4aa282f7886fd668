package domain

import "time"

// AttemptStatus enumerates the states of a quiz attempt. Transitions only
// move forward: NotStarted -> InProgress -> Completed.
type AttemptStatus string

const (
	StatusNotStarted AttemptStatus = "NOT_STARTED"
	StatusInProgress AttemptStatus = "IN_PROGRESS"
	StatusCompleted  AttemptStatus = "COMPLETED"
)

// DefaultTimeLimitMinutes applies when a quiz document omits its time limit.
const DefaultTimeLimitMinutes = 20

// Question models an MCQ question with exactly one correct option, addressed
// by its position in the quiz.
type Question struct {
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Quiz is the immutable quiz definition supplied by the content store.
type Quiz struct {
	ID               string     `json:"_id"`
	Title            string     `json:"title"`
	Subject          string     `json:"subject,omitempty"`
	Description      string     `json:"description,omitempty"`
	TimeLimitMinutes int        `json:"timeLimit"`
	Questions        []Question `json:"questions"`
}

// TimeLimitSeconds returns the attempt budget in seconds, applying the
// default when the document carries no limit.
func (q Quiz) TimeLimitSeconds() int {
	minutes := q.TimeLimitMinutes
	if minutes <= 0 {
		minutes = DefaultTimeLimitMinutes
	}
	return minutes * 60
}

// Validate rejects quiz documents that would corrupt an attempt: no
// questions, fewer than two options, or a correct index outside its own
// option list.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return ErrNoQuestions
	}
	for _, question := range q.Questions {
		if len(question.Options) < 2 {
			return ErrTooFewOptions
		}
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
			return ErrCorrectIndexOutOfRange
		}
	}
	return nil
}

// QuestionResult is the per-question line of a finalized result.
// SelectedOptionIndex is nil when the question was left unanswered.
type QuestionResult struct {
	QuestionIndex       int  `json:"questionIndex"`
	SelectedOptionIndex *int `json:"selectedOptionIndex"`
	CorrectOptionIndex  int  `json:"correctOptionIndex"`
	IsCorrect           bool `json:"isCorrect"`
}

// Result is the outcome of a completed attempt. It is created exactly once,
// when the attempt completes, and never mutated afterwards.
type Result struct {
	QuizID           string           `json:"quizId"`
	ScorePercent     int              `json:"scorePercent"`
	CorrectCount     int              `json:"correctCount"`
	TotalQuestions   int              `json:"totalQuestions"`
	PerQuestion      []QuestionResult `json:"perQuestion"`
	TimeSpentSeconds int              `json:"timeSpentSeconds"`
	CompletedAt      time.Time        `json:"completedAt"`
}
