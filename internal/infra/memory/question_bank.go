package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"home-trivia-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the full question catalog from a backing store
// (JSON file, Postgres, a Redis cache over either).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.Question, error)
}

// QuestionBank caches the catalog with a TTL to avoid repeated loads and
// draws one random question per round, filtered by difficulty and by the
// already-played set.
type QuestionBank struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.Mutex
	rnd       *rand.Rand
	cached    []domain.Question
	expiresAt time.Time
}

func NewQuestionBank(loader CatalogLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Draw picks a random question at the given difficulty that is not in the
// played set. Returns domain.ErrQuestionsExhausted when no candidate is left.
func (b *QuestionBank) Draw(ctx context.Context, level domain.Difficulty, played map[int]struct{}) (domain.Question, error) {
	questions, err := b.catalog(ctx)
	if err != nil {
		return domain.Question{}, err
	}

	candidates := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.DifficultyLevel != level {
			continue
		}
		if _, done := played[q.ID]; done {
			continue
		}
		candidates = append(candidates, q)
	}
	if len(candidates) == 0 {
		return domain.Question{}, domain.ErrQuestionsExhausted
	}

	b.mu.Lock()
	pick := candidates[b.rnd.Intn(len(candidates))]
	b.mu.Unlock()
	return pick, nil
}

func (b *QuestionBank) catalog(ctx context.Context) ([]domain.Question, error) {
	now := b.clock()

	b.mu.Lock()
	if b.cached != nil && b.expiresAt.After(now) {
		cached := b.cached
		b.mu.Unlock()
		return cached, nil
	}
	b.mu.Unlock()

	result, err, _ := b.sf.Do("catalog", func() (interface{}, error) {
		now := b.clock()
		b.mu.Lock()
		if b.cached != nil && b.expiresAt.After(now) {
			cached := b.cached
			b.mu.Unlock()
			return cached, nil
		}
		b.mu.Unlock()

		questions, err := b.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
		}

		b.mu.Lock()
		b.cached = questions
		b.expiresAt = now.Add(b.ttlWithJitter())
		b.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
