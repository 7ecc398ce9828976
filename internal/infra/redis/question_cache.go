// Package redis provides a cache-aside layer over the question store so
// hot question and language content skips Postgres.
package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"codequest-service/internal/app"
	"codequest-service/internal/domain"
)

// QuestionCache wraps a backing app.QuestionStore. Cached payloads
// include answers and test cases, so keys must never be exposed to
// clients directly. Random question picks always go to the backing
// store.
type QuestionCache struct {
	client  *redis.Client
	backing app.QuestionStore
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
}

func NewQuestionCache(client *redis.Client, backing app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	key := "question:" + questionID
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err == nil {
			return q, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var q domain.Question
			if err := json.Unmarshal(raw, &q); err == nil {
				return q, nil
			}
		}
		q, err := c.backing.GetQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}
		c.set(ctx, key, q)
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) GetLanguage(ctx context.Context, languageID string) (domain.Language, error) {
	key := "language:" + languageID
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var l domain.Language
		if err := json.Unmarshal(raw, &l); err == nil {
			return l, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		l, err := c.backing.GetLanguage(ctx, languageID)
		if err != nil {
			return domain.Language{}, err
		}
		c.set(ctx, key, l)
		return l, nil
	})
	if err != nil {
		return domain.Language{}, err
	}
	return result.(domain.Language), nil
}

func (c *QuestionCache) TotalQuestions(ctx context.Context, languageID string) (int, error) {
	key := "language:" + languageID + ":qcount"
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		if count, err := strconv.Atoi(raw); err == nil {
			return count, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		count, err := c.backing.TotalQuestions(ctx, languageID)
		if err != nil {
			return 0, err
		}
		_ = c.client.Set(ctx, key, strconv.Itoa(count), c.ttlWithJitter()).Err()
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (c *QuestionCache) RandomQuestion(ctx context.Context) (domain.Question, error) {
	return c.backing.RandomQuestion(ctx)
}

func (c *QuestionCache) set(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
}

// ttlWithJitter adds up to 10% jitter to spread expirations.
func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
