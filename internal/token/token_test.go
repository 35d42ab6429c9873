package token

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/repositories/memory"
	"github.com/nboulif/doctrack/internal/utils"
)

func seedCandidate(t *testing.T, repo *memory.CandidateRepo) *models.Candidate {
	t.Helper()
	c := &models.Candidate{
		ID:         uuid.NewString(),
		ExternalID: "D-2026-042",
		Email:      "jane.doe@x.edu",
		FirstName:  "Jane",
		LastName:   "Doe",
		Member1:    models.CommitteeMember{Name: "Alan Ref", Email: "alan.ref@lab.fr"},
		Member2:    models.CommitteeMember{Name: "Brigitte Ref", Email: "brigitte.ref@lab.fr"},
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func newIssuer(repo *memory.CandidateRepo) *Issuer {
	return NewIssuer(repo, memory.NewTokenRepo(), "test-secret", 0, nil)
}

func TestIssueResolveRoundTrip(t *testing.T) {
	repo := memory.NewCandidateRepo()
	cand := seedCandidate(t, repo)
	iss := newIssuer(repo)
	ctx := context.Background()

	// issuing against any bound email yields the candidate's own record
	for _, email := range []string{cand.Email, "Alan.Ref@lab.fr", "brigitte.ref@lab.fr "} {
		raw, err := iss.Issue(ctx, email)
		require.NoError(t, err, "issue via %q", email)

		resolved, err := iss.Resolve(ctx, raw)
		require.NoError(t, err)
		require.NotNil(t, resolved, "resolve via %q", email)
		assert.Equal(t, cand.ID, resolved.ID)
	}
}

func TestIssueUnknownEmail(t *testing.T) {
	iss := newIssuer(memory.NewCandidateRepo())
	_, err := iss.Issue(context.Background(), "nobody@nowhere.edu")
	assert.Error(t, err)
}

func TestIssueRejectsBlankEmail(t *testing.T) {
	repo := memory.NewCandidateRepo()
	// a record with no additional member must never match a blank lookup
	cand := seedCandidate(t, repo)
	require.Empty(t, cand.AdditionalMember.Email)
	iss := newIssuer(repo)

	for _, email := range []string{"", "   ", "​\n"} {
		_, err := iss.Issue(context.Background(), email)
		require.Error(t, err, "email=%q", email)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument), "email=%q", email)
	}
}

func TestIssueMintsDistinctTokens(t *testing.T) {
	repo := memory.NewCandidateRepo()
	cand := seedCandidate(t, repo)
	iss := newIssuer(repo)
	ctx := context.Background()

	// same bound email, same second: the jti still separates them
	first, err := iss.Issue(ctx, cand.Member1.Email)
	require.NoError(t, err)
	second, err := iss.Issue(ctx, cand.Member1.Email)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	a, ok := iss.Verify(first)
	require.True(t, ok)
	b, ok := iss.Verify(second)
	require.True(t, ok)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenRoleDependsOnBoundEmail(t *testing.T) {
	repo := memory.NewCandidateRepo()
	cand := seedCandidate(t, repo)
	iss := newIssuer(repo)
	ctx := context.Background()

	own, err := iss.Issue(ctx, cand.Email)
	require.NoError(t, err)
	claims, ok := iss.Verify(own)
	require.True(t, ok)
	assert.Equal(t, models.TokenRoleCandidate, claims.Role)

	ref, err := iss.Issue(ctx, cand.Member1.Email)
	require.NoError(t, err)
	claims, ok = iss.Verify(ref)
	require.True(t, ok)
	assert.Equal(t, models.TokenRoleReferent, claims.Role)
	// the payload still binds the candidate's primary email
	assert.Equal(t, cand.Email, claims.Email)
}

func TestVerifyRejectsExpired(t *testing.T) {
	repo := memory.NewCandidateRepo()
	cand := seedCandidate(t, repo)
	iss := newIssuer(repo)

	raw, err := iss.Issue(context.Background(), cand.Email)
	require.NoError(t, err)

	// jump the clock past expiry; signature is still valid
	iss.now = func() time.Time { return time.Now().Add(DefaultTTL + time.Hour) }
	_, ok := iss.Verify(raw)
	assert.False(t, ok)

	resolved, err := iss.Resolve(context.Background(), raw)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestVerifyRejectsTampered(t *testing.T) {
	repo := memory.NewCandidateRepo()
	cand := seedCandidate(t, repo)
	iss := newIssuer(repo)

	raw, err := iss.Issue(context.Background(), cand.Email)
	require.NoError(t, err)

	other := NewIssuer(repo, memory.NewTokenRepo(), "other-secret", 0, nil)
	_, ok := other.Verify(raw)
	assert.False(t, ok)

	_, ok = iss.Verify(raw + "x")
	assert.False(t, ok)

	_, ok = iss.Verify("not-a-jwt")
	assert.False(t, ok)
}

func TestResolveTrimsInvisibleRunes(t *testing.T) {
	repo := memory.NewCandidateRepo()
	cand := seedCandidate(t, repo)
	iss := newIssuer(repo)
	ctx := context.Background()

	raw, err := iss.Issue(ctx, cand.Email)
	require.NoError(t, err)

	// zero-width space and surrounding whitespace from a pasted link
	resolved, err := iss.Resolve(ctx, " "+raw+"\u200b\n")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, cand.ID, resolved.ID)
}

func TestResolveCandidateDeleted(t *testing.T) {
	repo := memory.NewCandidateRepo()
	cand := seedCandidate(t, repo)
	iss := newIssuer(repo)
	ctx := context.Background()

	raw, err := iss.Issue(ctx, cand.Email)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, cand.ID))

	resolved, err := iss.Resolve(ctx, raw)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestResolveRequiresStoredRecord(t *testing.T) {
	repo := memory.NewCandidateRepo()
	cand := seedCandidate(t, repo)
	iss := newIssuer(repo)
	ctx := context.Background()

	raw, err := iss.Issue(ctx, cand.Email)
	require.NoError(t, err)

	// well-signed but absent from the token store, e.g. after revocation
	other := NewIssuer(repo, memory.NewTokenRepo(), "test-secret", 0, nil)
	resolved, err := other.Resolve(ctx, raw)
	require.NoError(t, err)
	assert.Nil(t, resolved)

	resolved, err = iss.Resolve(ctx, raw)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, cand.ID, resolved.ID)
}
