// Package memory holds in-memory repository implementations used by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/utils"
)

type CandidateRepo struct {
	mu    sync.Mutex
	byID  map[string]*models.Candidate
	// FailUpdate forces the next Update call to fail, for degraded-path tests.
	FailUpdate error
}

func NewCandidateRepo() *CandidateRepo {
	return &CandidateRepo{byID: make(map[string]*models.Candidate)}
}

func (r *CandidateRepo) Create(ctx context.Context, c *models.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == c.Email {
			return utils.ErrDuplicate
		}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *CandidateRepo) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *CandidateRepo) GetByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	e := utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.Email == e {
			cp := *c
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *CandidateRepo) GetByAnyEmail(ctx context.Context, email string) (*models.Candidate, error) {
	e := utils.NormalizeEmail(email)
	if e == "" {
		return nil, utils.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if matchesEmail(c.Email, e) ||
			matchesEmail(c.Member1.Email, e) ||
			matchesEmail(c.Member2.Email, e) ||
			matchesEmail(c.AdditionalMember.Email, e) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

// matchesEmail compares a stored address against a normalized lookup value.
// Unset addresses never match, mirroring the omitempty-tagged fields that
// the document store drops entirely.
func matchesEmail(stored, normalized string) bool {
	s := utils.NormalizeEmail(stored)
	return s != "" && s == normalized
}

func (r *CandidateRepo) FindAll(ctx context.Context) ([]models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Candidate, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func (r *CandidateRepo) Update(ctx context.Context, id string, patch *models.CandidatePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailUpdate != nil {
		err := r.FailUpdate
		r.FailUpdate = nil
		return err
	}
	c, ok := r.byID[id]
	if !ok {
		return utils.ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range r.byID {
			if otherID != id && other.Email == *patch.Email {
				return utils.ErrDuplicate
			}
		}
	}
	patch.Apply(c)
	return nil
}

func (r *CandidateRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *CandidateRepo) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]*models.Candidate)
	return nil
}
