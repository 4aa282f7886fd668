package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"quiz-attempt-service/internal/domain"
)

// TokenSource supplies the bearer token for outbound submissions. An empty
// token is treated as expired auth.
type TokenSource interface {
	Token() (string, error)
}

// StaticTokenSource returns a fixed token, typically read from config.
type StaticTokenSource string

func (s StaticTokenSource) Token() (string, error) {
	return string(s), nil
}

type submissionAnswer struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedAnswer *int `json:"selectedAnswer"`
	CorrectAnswer  int  `json:"correctAnswer"`
}

type submissionRequest struct {
	Answers          []submissionAnswer `json:"answers"`
	TimeSpentSeconds int                `json:"timeSpentSeconds"`
}

type submissionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// HTTPGateway posts finalized results to the remote progress service.
// It is strictly best-effort: the caller has already exposed the local
// Result before this runs, and every failure terminates here.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
}

func NewHTTPGateway(baseURL string, tokens TokenSource, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// Submit fires a single POST /quizzes/{quizID}/submissions. No retry, no
// queue; guaranteed delivery has to be layered on externally.
func (g *HTTPGateway) Submit(ctx context.Context, quizID string, result domain.Result) error {
	token, err := g.tokens.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthExpired, err)
	}
	if token == "" {
		return domain.ErrAuthExpired
	}

	answers := make([]submissionAnswer, len(result.PerQuestion))
	for i, line := range result.PerQuestion {
		answers[i] = submissionAnswer{
			QuestionIndex:  line.QuestionIndex,
			SelectedAnswer: line.SelectedOptionIndex,
			CorrectAnswer:  line.CorrectOptionIndex,
		}
	}
	body, err := json.Marshal(submissionRequest{
		Answers:          answers,
		TimeSpentSeconds: result.TimeSpentSeconds,
	})
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	url := fmt.Sprintf("%s/quizzes/%s/submissions", g.baseURL, quizID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.ErrAuthExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("submission rejected with status %d", resp.StatusCode)
	}

	var decoded submissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode submission response: %w", err)
	}
	if !decoded.Success {
		return fmt.Errorf("submission refused: %s", decoded.Error)
	}
	return nil
}

// LogGateway records results to the process log instead of a remote service;
// the fallback wiring when no submission endpoint is configured.
type LogGateway struct{}

func (LogGateway) Submit(_ context.Context, quizID string, result domain.Result) error {
	log.Printf("quiz %s scored %d%% (%d/%d) in %ds; no submission endpoint configured",
		quizID, result.ScorePercent, result.CorrectCount, result.TotalQuestions, result.TimeSpentSeconds)
	return nil
}
