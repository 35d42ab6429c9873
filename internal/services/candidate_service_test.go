package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/repositories/memory"
	"github.com/nboulif/doctrack/internal/storage"
	"github.com/nboulif/doctrack/internal/utils"
)

type candidateFixture struct {
	svc        CandidateService
	candidates *memory.CandidateRepo
	store      *storage.LocalStore
}

func newCandidateFixture(t *testing.T) *candidateFixture {
	t.Helper()
	candidates := memory.NewCandidateRepo()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return &candidateFixture{
		svc:        NewCandidateService(candidates, store, quietLogger()),
		candidates: candidates,
		store:      store,
	}
}

func (f *candidateFixture) seed(t *testing.T) *models.Candidate {
	t.Helper()
	c, err := f.svc.Create(context.Background(), &models.Candidate{
		ExternalID: "D2026-007",
		Email:      "Lucie.Bernard@Univ.fr ",
		FirstName:  "Lucie",
		LastName:   "Bernard",
	})
	require.NoError(t, err)
	return c
}

func completeEvaluation() models.Evaluation {
	var ev models.Evaluation
	for i := range ev {
		ev[i] = models.Answer{Rating: models.RatingPositive}
	}
	ev[3] = models.Answer{Rating: models.RatingMixed, Comment: "Publications a renforcer."}
	return ev
}

func TestCreateNormalizesAndAssignsID(t *testing.T) {
	f := newCandidateFixture(t)

	c := f.seed(t)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "lucie.bernard@univ.fr", c.Email)

	// lookup works with the normalized form
	got, err := f.candidates.GetByEmail(context.Background(), "lucie.bernard@univ.fr")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestCreateRejectsMissingFields(t *testing.T) {
	f := newCandidateFixture(t)

	_, err := f.svc.Create(context.Background(), &models.Candidate{ExternalID: "D1"})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = f.svc.Create(context.Background(), &models.Candidate{Email: "a@b.fr"})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	f := newCandidateFixture(t)
	f.seed(t)

	_, err := f.svc.Create(context.Background(), &models.Candidate{
		ExternalID: "D2026-008",
		Email:      "LUCIE.BERNARD@univ.fr",
	})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestUpdateRecomputesHourTotal(t *testing.T) {
	f := newCandidateFixture(t)
	c := f.seed(t)

	hours := models.TrainingHours{Scientific: 12, CrossDisciplinary: 4, ProfessionalIntegration: 6, Total: 999}
	got, err := f.svc.Update(context.Background(), c.ID, &models.CandidatePatch{TrainingHours: &hours})
	require.NoError(t, err)
	assert.Equal(t, 22, got.TrainingHours.Total)
	require.NotNil(t, got.UpdatedAt)
}

func TestUpdateNormalizesPatchEmails(t *testing.T) {
	f := newCandidateFixture(t)
	c := f.seed(t)

	m1 := models.CommitteeMember{Name: "A. Petit", Email: " Alice.Petit@Univ.fr"}
	got, err := f.svc.Update(context.Background(), c.ID, &models.CandidatePatch{Member1: &m1})
	require.NoError(t, err)
	assert.Equal(t, "alice.petit@univ.fr", got.Member1.Email)

	empty := ""
	_, err = f.svc.Update(context.Background(), c.ID, &models.CandidatePatch{Email: &empty})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestUpdateToTakenEmailConflicts(t *testing.T) {
	f := newCandidateFixture(t)
	f.seed(t)
	other, err := f.svc.Create(context.Background(), &models.Candidate{
		ExternalID: "D2026-008",
		Email:      "paul.martin@univ.fr",
	})
	require.NoError(t, err)

	taken := "LUCIE.BERNARD@univ.fr"
	_, err = f.svc.Update(context.Background(), other.ID, &models.CandidatePatch{Email: &taken})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))

	// the record is untouched
	got, err := f.svc.Get(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, "paul.martin@univ.fr", got.Email)
}

func TestSubmitCandidateForm(t *testing.T) {
	f := newCandidateFixture(t)
	c := f.seed(t)

	got, err := f.svc.SubmitCandidateForm(context.Background(), c.ID, CandidateForm{
		Publications:                 "Un article en revue.",
		ScientificHours:              10,
		CrossDisciplinaryHours:       5,
		ProfessionalIntegrationHours: 3,
	})
	require.NoError(t, err)
	assert.True(t, got.Workflow.CandidateValidated)
	assert.Equal(t, 18, got.TrainingHours.Total)

	// negative hours are rejected without touching the record
	_, err = f.svc.SubmitCandidateForm(context.Background(), c.ID, CandidateForm{ScientificHours: -1})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	// resubmission keeps the flag set
	got, err = f.svc.SubmitCandidateForm(context.Background(), c.ID, CandidateForm{ScientificHours: 1})
	require.NoError(t, err)
	assert.True(t, got.Workflow.CandidateValidated)
	assert.Equal(t, 1, got.TrainingHours.Total)
}

func TestSubmitCommitteeReviewValidation(t *testing.T) {
	f := newCandidateFixture(t)
	c := f.seed(t)

	// an incomplete evaluation is rejected
	partial := completeEvaluation()
	partial[10] = models.Answer{}
	_, err := f.svc.SubmitCommitteeReview(context.Background(), c.ID, CommitteeReview{
		Evaluation:     partial,
		Recommendation: models.RecommendationApprove,
	})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	// so is a missing recommendation
	_, err = f.svc.SubmitCommitteeReview(context.Background(), c.ID, CommitteeReview{
		Evaluation: completeEvaluation(),
	})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	got, err := f.svc.SubmitCommitteeReview(context.Background(), c.ID, CommitteeReview{
		Evaluation:     completeEvaluation(),
		Conclusion:     "Avis tres favorable.",
		Recommendation: models.RecommendationApprove,
	})
	require.NoError(t, err)
	assert.True(t, got.Workflow.ReferentValidated)
	assert.Equal(t, models.RecommendationApprove, got.Recommendation)
	assert.Equal(t, models.RatingMixed, got.Evaluation[3].Rating)
}

func TestAttachFileKeepsTwoMostRecent(t *testing.T) {
	f := newCandidateFixture(t)
	c := f.seed(t)
	ctx := context.Background()

	for _, name := range []string{"annexe-1.pdf", "annexe-2.pdf", "annexe-3.pdf"} {
		_, err := f.svc.AttachFile(ctx, c.ID, name, strings.NewReader("contenu "+name))
		require.NoError(t, err)
	}

	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.UploadedFiles, 2)
	assert.Equal(t, "annexe-2.pdf", got.UploadedFiles[0].OriginalName)
	assert.Equal(t, "annexe-3.pdf", got.UploadedFiles[1].OriginalName)

	// surviving files are on disk, the evicted one is gone
	for _, sf := range got.UploadedFiles {
		ok, err := f.store.Exists(ctx, sf.StoragePath)
		require.NoError(t, err)
		assert.True(t, ok, sf.StoragePath)
	}
}

func TestAttachFileSanitizesName(t *testing.T) {
	f := newCandidateFixture(t)
	c := f.seed(t)
	ctx := context.Background()

	got, err := f.svc.AttachFile(ctx, c.ID, `..\..\rapport du comite.pdf`, strings.NewReader("x"))
	require.NoError(t, err)
	require.Len(t, got.UploadedFiles, 1)
	assert.Contains(t, got.UploadedFiles[0].StoragePath, "rapport_du_comite.pdf")
	assert.NotContains(t, got.UploadedFiles[0].StoragePath, "..")

	_, err = f.svc.AttachFile(ctx, c.ID, "...", strings.NewReader("x"))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestAttachReportSingleSlot(t *testing.T) {
	f := newCandidateFixture(t)
	c := f.seed(t)
	ctx := context.Background()

	first, err := f.svc.AttachReport(ctx, c.ID, "signe-v1.pdf", strings.NewReader("version 1"))
	require.NoError(t, err)
	require.NotNil(t, first.UploadedReport)

	second, err := f.svc.AttachReport(ctx, c.ID, "signe-v2.pdf", strings.NewReader("version deux"))
	require.NoError(t, err)
	require.NotNil(t, second.UploadedReport)

	// same deterministic path, latest content wins
	assert.Equal(t, first.UploadedReport.StoragePath, second.UploadedReport.StoragePath)
	assert.Equal(t, "signe-v2.pdf", second.UploadedReport.OriginalName)

	rc, err := f.store.Open(ctx, second.UploadedReport.StoragePath)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "version deux", string(data))
}

func TestDeleteAndNotFound(t *testing.T) {
	f := newCandidateFixture(t)
	c := f.seed(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, c.ID))

	err := f.svc.Delete(ctx, c.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = f.svc.Get(ctx, c.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
