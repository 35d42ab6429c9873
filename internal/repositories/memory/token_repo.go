package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/utils"
)

type TokenRepo struct {
	mu      sync.Mutex
	byValue map[string]*models.ReviewToken
}

func NewTokenRepo() *TokenRepo {
	return &TokenRepo{byValue: make(map[string]*models.ReviewToken)}
}

func (r *TokenRepo) Create(ctx context.Context, t *models.ReviewToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	cp := *t
	r.byValue[t.Value] = &cp
	return nil
}

func (r *TokenRepo) GetByValue(ctx context.Context, value string) (*models.ReviewToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byValue[value]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for v, t := range r.byValue {
		if t.Expired(now) {
			delete(r.byValue, v)
			n++
		}
	}
	return n, nil
}
