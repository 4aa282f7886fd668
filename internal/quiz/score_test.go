package quiz

import (
	"reflect"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func fourQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:               "quiz-1",
		Title:            "Fractions",
		TimeLimitMinutes: 20,
		Questions: []domain.Question{
			{Text: "Q1", Options: []string{"a", "b", "c"}, CorrectIndex: 1},
			{Text: "Q2", Options: []string{"a", "b", "c"}, CorrectIndex: 0},
			{Text: "Q3", Options: []string{"a", "b", "c"}, CorrectIndex: 2},
			{Text: "Q4", Options: []string{"a", "b", "c"}, CorrectIndex: 1},
		},
	}
}

func TestScorePartialAnswers(t *testing.T) {
	// Answers {0:1, 1:2, 3:1}; question 2 unanswered.
	answers := map[int]int{0: 1, 1: 2, 3: 1}
	completedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	result := Score(fourQuestionQuiz(), answers, 200, completedAt)

	if result.CorrectCount != 2 {
		t.Fatalf("expected 2 correct, got %d", result.CorrectCount)
	}
	if result.ScorePercent != 50 {
		t.Fatalf("expected 50%%, got %d", result.ScorePercent)
	}
	if result.TotalQuestions != 4 {
		t.Fatalf("expected 4 questions, got %d", result.TotalQuestions)
	}
	if result.TimeSpentSeconds != 200 {
		t.Fatalf("expected 200s spent, got %d", result.TimeSpentSeconds)
	}
	unanswered := result.PerQuestion[2]
	if unanswered.IsCorrect || unanswered.SelectedOptionIndex != nil {
		t.Fatalf("expected question 2 unanswered and wrong, got %+v", unanswered)
	}
	wrong := result.PerQuestion[1]
	if wrong.IsCorrect || wrong.SelectedOptionIndex == nil || *wrong.SelectedOptionIndex != 2 {
		t.Fatalf("expected question 1 answered 2 and wrong, got %+v", wrong)
	}
}

func TestScoreAllCorrect(t *testing.T) {
	quiz := fourQuestionQuiz()
	answers := make(map[int]int)
	for i, q := range quiz.Questions {
		answers[i] = q.CorrectIndex
	}

	result := Score(quiz, answers, 0, time.Now())
	if result.ScorePercent != 100 || result.CorrectCount != result.TotalQuestions {
		t.Fatalf("expected a perfect score, got %d%% (%d/%d)",
			result.ScorePercent, result.CorrectCount, result.TotalQuestions)
	}
}

func TestScoreNoAnswers(t *testing.T) {
	result := Score(fourQuestionQuiz(), map[int]int{}, 10, time.Now())
	if result.ScorePercent != 0 || result.CorrectCount != 0 {
		t.Fatalf("expected zero score, got %d%% (%d correct)", result.ScorePercent, result.CorrectCount)
	}
}

func TestScoreZeroQuestions(t *testing.T) {
	result := Score(domain.Quiz{ID: "empty"}, map[int]int{}, 0, time.Now())
	if result.ScorePercent != 0 {
		t.Fatalf("expected 0%% for empty quiz, got %d", result.ScorePercent)
	}
}

func TestScoreRoundsHalfUp(t *testing.T) {
	quiz := domain.Quiz{
		ID: "quiz-8",
		Questions: []domain.Question{
			{Options: []string{"a", "b"}, CorrectIndex: 0},
			{Options: []string{"a", "b"}, CorrectIndex: 0},
			{Options: []string{"a", "b"}, CorrectIndex: 0},
			{Options: []string{"a", "b"}, CorrectIndex: 0},
			{Options: []string{"a", "b"}, CorrectIndex: 0},
			{Options: []string{"a", "b"}, CorrectIndex: 0},
			{Options: []string{"a", "b"}, CorrectIndex: 0},
			{Options: []string{"a", "b"}, CorrectIndex: 0},
		},
	}

	// 1/8 = 12.5% rounds up to 13.
	result := Score(quiz, map[int]int{0: 0}, 0, time.Now())
	if result.ScorePercent != 13 {
		t.Fatalf("expected 13%%, got %d", result.ScorePercent)
	}

	// 1/3 = 33.33% rounds down to 33.
	third := quiz
	third.Questions = third.Questions[:3]
	result = Score(third, map[int]int{0: 0}, 0, time.Now())
	if result.ScorePercent != 33 {
		t.Fatalf("expected 33%%, got %d", result.ScorePercent)
	}
}

func TestScoreDeterministic(t *testing.T) {
	answers := map[int]int{0: 1, 2: 2}
	completedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := Score(fourQuestionQuiz(), answers, 42, completedAt)
	second := Score(fourQuestionQuiz(), answers, 42, completedAt)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v vs %+v", first, second)
	}
}
