package quiz

import (
	"math"
	"time"

	"quiz-attempt-service/internal/domain"
)

// Score grades an attempt against its quiz. It is pure and synchronous:
// identical inputs always produce an identical Result, which is what makes
// historical-attempt replay possible. An absent answer is never correct.
// A quiz with zero questions scores 0% rather than dividing by zero.
func Score(q domain.Quiz, answers map[int]int, timeSpentSeconds int, completedAt time.Time) domain.Result {
	total := len(q.Questions)
	perQuestion := make([]domain.QuestionResult, total)
	correct := 0

	for i, question := range q.Questions {
		line := domain.QuestionResult{
			QuestionIndex:      i,
			CorrectOptionIndex: question.CorrectIndex,
		}
		if selected, ok := answers[i]; ok {
			selected := selected
			line.SelectedOptionIndex = &selected
			line.IsCorrect = selected == question.CorrectIndex
		}
		if line.IsCorrect {
			correct++
		}
		perQuestion[i] = line
	}

	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return domain.Result{
		QuizID:           q.ID,
		ScorePercent:     percent,
		CorrectCount:     correct,
		TotalQuestions:   total,
		PerQuestion:      perQuestion,
		TimeSpentSeconds: timeSpentSeconds,
		CompletedAt:      completedAt,
	}
}
