package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/repositories/memory"
	"github.com/nboulif/doctrack/internal/storage"
)

func testCandidate() *models.Candidate {
	c := &models.Candidate{
		ID:              uuid.NewString(),
		ExternalID:      "D-2026-007",
		Email:           "marc.petit@x.edu",
		FirstName:       "Marc",
		LastName:        "Petit",
		ThesisYear:      "2025-2026",
		ThesisTitle:     "Modelisation numérique des écoulements turbulents",
		Department:      models.DepartmentMECA,
		SupervisorName:  "Prof. Dupont",
		SupervisorEmail: "dupont@x.edu",
		Member1:         models.CommitteeMember{Name: "A. Ref", Email: "a.ref@lab.fr"},
		Member2:         models.CommitteeMember{Name: "B. Ref", Email: "b.ref@lab.fr"},
		Publications:    strings.Repeat("Petit M. et al., Journal of Fluid Mechanics. ", 5),
		TrainingHours:   models.TrainingHours{Scientific: 20, CrossDisciplinary: 10, ProfessionalIntegration: 5, Total: 35},
	}
	return c
}

func newTestBuilder(t *testing.T) (*Builder, *memory.CandidateRepo, *storage.LocalStore) {
	t.Helper()
	repo := memory.NewCandidateRepo()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return NewBuilder(repo, store, nil), repo, store
}

func pageCount(t *testing.T, pdf []byte) int {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, os.WriteFile(tmp, pdf, 0o600))
	n, err := api.PageCountFile(tmp)
	require.NoError(t, err)
	return n
}

func TestBuildPersistsReportSlot(t *testing.T) {
	b, repo, store := newTestBuilder(t)
	ctx := context.Background()
	cand := testCandidate()
	require.NoError(t, repo.Create(ctx, cand))

	out, err := b.Build(ctx, cand.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	slot := SlotPath(cand.ExternalID)
	ok, err := store.Exists(ctx, slot)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.GetByID(ctx, cand.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.GeneratedReport)
	assert.Equal(t, slot, stored.GeneratedReport.StoragePath)

	// rebuilding overwrites the slot, same path
	_, err = b.Build(ctx, cand.ID)
	require.NoError(t, err)
	stored, err = repo.GetByID(ctx, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, slot, stored.GeneratedReport.StoragePath)
}

func TestBuildUnknownCandidate(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	_, err := b.Build(context.Background(), "missing-id")
	assert.Error(t, err)
}

func TestBuildSkipsBadAttachments(t *testing.T) {
	b, repo, store := newTestBuilder(t)
	ctx := context.Background()
	cand := testCandidate()

	// a real single-page pdf attachment
	attDoc := newDoc()
	attDoc.paragraph("annexe fournie par le doctorant")
	attBytes, err := attDoc.bytes()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "uploads/D-2026-007/annexe.pdf", bytes.NewReader(attBytes)))

	// a non-pdf upload
	require.NoError(t, store.Save(ctx, "uploads/D-2026-007/notes.txt", strings.NewReader("pas un pdf")))

	cand.UploadedFiles = []models.StoredFile{
		{OriginalName: "annexe.pdf", StoragePath: "uploads/D-2026-007/annexe.pdf"},
		{OriginalName: "notes.txt", StoragePath: "uploads/D-2026-007/notes.txt"},
		{OriginalName: "disparu.pdf", StoragePath: "uploads/D-2026-007/disparu.pdf"},
	}
	require.NoError(t, repo.Create(ctx, cand))

	// baseline without attachments
	plain := testCandidate()
	plain.ID = uuid.NewString()
	plain.Email = "other@x.edu"
	plain.ExternalID = "D-2026-008"
	require.NoError(t, repo.Create(ctx, plain))
	base, err := b.Build(ctx, plain.ID)
	require.NoError(t, err)

	out, err := b.Build(ctx, cand.ID)
	require.NoError(t, err)

	// exactly one attachment page was appended; the bad entries were skipped
	assert.Equal(t, pageCount(t, base)+1, pageCount(t, out))
}

func TestBuildEvaluationAfterAttachmentsOnFreshPage(t *testing.T) {
	b, repo, store := newTestBuilder(t)
	ctx := context.Background()
	cand := testCandidate()

	attDoc := newDoc()
	attDoc.paragraph("annexe")
	attBytes, err := attDoc.bytes()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "uploads/D-2026-007/annexe.pdf", bytes.NewReader(attBytes)))
	cand.UploadedFiles = []models.StoredFile{{OriginalName: "annexe.pdf", StoragePath: "uploads/D-2026-007/annexe.pdf"}}

	cand.Evaluation[0] = models.Answer{Rating: models.RatingPositive, Comment: "bon avancement"}
	cand.Conclusion = "Le comite est satisfait."
	cand.Recommendation = models.RecommendationApprove
	require.NoError(t, repo.Create(ctx, cand))

	out, err := b.Build(ctx, cand.ID)
	require.NoError(t, err)
	// main page + attachment page + evaluation page
	assert.GreaterOrEqual(t, pageCount(t, out), 3)
}

func TestBuildReturnsBytesWhenPersistFails(t *testing.T) {
	b, repo, _ := newTestBuilder(t)
	ctx := context.Background()
	cand := testCandidate()
	require.NoError(t, repo.Create(ctx, cand))

	repo.FailUpdate = errors.New("store write refused")
	out, err := b.Build(ctx, cand.ID)
	assert.Error(t, err)
	// degraded success: the caller still gets the rendered bytes
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestBuildOmitsUnansweredQuestions(t *testing.T) {
	b, repo, _ := newTestBuilder(t)
	ctx := context.Background()

	answered := testCandidate()
	answered.Evaluation[2] = models.Answer{Rating: models.RatingMixed, Comment: "publications en retard"}
	require.NoError(t, repo.Create(ctx, answered))

	blank := testCandidate()
	blank.ID = uuid.NewString()
	blank.Email = "blank@x.edu"
	blank.ExternalID = "D-2026-009"
	require.NoError(t, repo.Create(ctx, blank))

	withEval, err := b.Build(ctx, answered.ID)
	require.NoError(t, err)
	withoutEval, err := b.Build(ctx, blank.ID)
	require.NoError(t, err)

	// a single answered question renders one evaluation entry, not 17 blanks
	assert.LessOrEqual(t, pageCount(t, withEval), pageCount(t, withoutEval)+1)
}
