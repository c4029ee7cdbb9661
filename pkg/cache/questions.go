package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"duel-service/internal/models"
)

const questionCacheTTL = 24 * time.Hour

// QuestionCache keeps a session's immutable question batch in redis so the
// hot answer path does not depend on decoding the full session row. The
// session record remains the source of truth; callers fall back to it on a
// miss.
type QuestionCache struct {
	redis *RedisClient
}

func NewQuestionCache(redis *RedisClient) *QuestionCache {
	return &QuestionCache{redis: redis}
}

func (c *QuestionCache) Put(ctx context.Context, sessionID string, questions []models.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, questionKey(sessionID), string(data), questionCacheTTL)
}

func (c *QuestionCache) Get(ctx context.Context, sessionID string) ([]models.Question, error) {
	data, err := c.redis.Get(ctx, questionKey(sessionID))
	if err != nil {
		return nil, err
	}
	var questions []models.Question
	if err := json.Unmarshal([]byte(data), &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *QuestionCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.redis.Delete(ctx, questionKey(sessionID))
}

func questionKey(sessionID string) string {
	return fmt.Sprintf("duel:%s:questions", sessionID)
}
