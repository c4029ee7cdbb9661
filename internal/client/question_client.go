package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"duel-service/internal/constants"
	"duel-service/internal/models"
)

// QuestionClient talks to the quiz content service. The contract is strict:
// the response must carry exactly the requested number of questions, each with
// exactly 3 options, the correct answer among them, and a point value in
// [1,5]. Anything else is treated as an upstream failure, never as a shorter
// game.
type QuestionClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewQuestionClient(baseURL string, timeout time.Duration) *QuestionClient {
	return &QuestionClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type generateRequest struct {
	Topic        string   `json:"topic"`
	Difficulty   string   `json:"difficulty"`
	Count        int      `json:"count"`
	ExcludeTexts []string `json:"exclude_texts,omitempty"`
}

type generateResponse struct {
	Questions []models.Question `json:"questions"`
}

func (c *QuestionClient) FetchQuestions(ctx context.Context, topic, difficulty string, count int, excludeTexts []string) ([]models.Question, error) {
	reqBody, err := json.Marshal(generateRequest{
		Topic:        topic,
		Difficulty:   difficulty,
		Count:        count,
		ExcludeTexts: excludeTexts,
	})
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/internal/questions/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("question bank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("question bank returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("question bank returned malformed response: %w", err)
	}

	if err := validateBatch(parsed.Questions, count); err != nil {
		return nil, err
	}
	return parsed.Questions, nil
}

func validateBatch(questions []models.Question, want int) error {
	if len(questions) != want {
		return fmt.Errorf("question bank returned %d questions, expected %d", len(questions), want)
	}
	for i, q := range questions {
		if q.Text == "" {
			return fmt.Errorf("question %d has empty text", i)
		}
		if len(q.Options) != constants.OptionsPerQuestion {
			return fmt.Errorf("question %d has %d options, expected %d", i, len(q.Options), constants.OptionsPerQuestion)
		}
		if q.Points < constants.MinPoints || q.Points > constants.MaxPoints {
			return fmt.Errorf("question %d has point value %d outside [%d,%d]", i, q.Points, constants.MinPoints, constants.MaxPoints)
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("question %d correct answer is not among its options", i)
		}
	}
	return nil
}
