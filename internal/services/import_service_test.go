package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nboulif/doctrack/internal/repositories/memory"
	"github.com/nboulif/doctrack/internal/storage"
	"github.com/nboulif/doctrack/internal/utils"
)

func newImportFixture(t *testing.T) (ImportService, *memory.CandidateRepo) {
	t.Helper()
	candidates := memory.NewCandidateRepo()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	log := quietLogger()
	return NewImportService(NewCandidateService(candidates, store, log), log), candidates
}

func TestImportCSV(t *testing.T) {
	svc, candidates := newImportFixture(t)

	csvData := strings.Join([]string{
		"externalId,firstName,lastName,email,department,member1Name,member1Email",
		"D2026-001,Jeanne,Moreau,Jeanne.Moreau@Univ.fr,MECA,Alice Petit,alice.petit@univ.fr",
		"D2026-002,Lucie,Bernard,lucie.bernard@univ.fr,INFO,,",
		",Paul,Sans-Matricule,paul@univ.fr,BIO,,",          // missing externalId
		"D2026-003,Marc,Sans-Adresse,,CHIM,,",             // missing email
		"D2026-004,Jeanne,Bis,jeanne.moreau@univ.fr,MECA,,", // in-file duplicate
	}, "\n")

	summary, err := svc.ImportCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 3, summary.Skipped)
	require.Len(t, summary.Errors, 3)
	assert.Equal(t, 4, summary.Errors[0].Line)
	assert.Equal(t, "duplicate of line 2", summary.Errors[2].Reason)

	got, err := candidates.GetByEmail(context.Background(), "jeanne.moreau@univ.fr")
	require.NoError(t, err)
	assert.Equal(t, "D2026-001", got.ExternalID)
	assert.Equal(t, "alice.petit@univ.fr", got.Member1.Email)
}

func TestImportCSVSkipsAlreadyRegistered(t *testing.T) {
	svc, candidates := newImportFixture(t)

	first := "externalId,email\nD2026-001,jeanne.moreau@univ.fr\n"
	_, err := svc.ImportCSV(context.Background(), strings.NewReader(first))
	require.NoError(t, err)

	again := "externalId,email\nD2026-099,JEANNE.MOREAU@univ.fr\nD2026-100,nouveau@univ.fr\n"
	summary, err := svc.ImportCSV(context.Background(), strings.NewReader(again))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "email already registered", summary.Errors[0].Reason)

	all, err := candidates.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestImportCSVRejectsBadHeader(t *testing.T) {
	svc, _ := newImportFixture(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("firstName,lastName\nJeanne,Moreau\n"))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
