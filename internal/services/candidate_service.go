package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nboulif/doctrack/internal/models"
	mongorepo "github.com/nboulif/doctrack/internal/repositories/mongo"
	"github.com/nboulif/doctrack/internal/storage"
	"github.com/nboulif/doctrack/internal/utils"
)

// maxGeneralUploads bounds the general upload channel; older files are
// evicted and deleted from storage.
const maxGeneralUploads = 2

// CandidateForm is the self-service payload a doctorant submits through an
// access link.
type CandidateForm struct {
	Missions             string `json:"missions"`
	Publications         string `json:"publications"`
	Conferences          string `json:"conferences"`
	Posters              string `json:"posters"`
	PublicCommunications string `json:"public_communications"`
	AdditionalInfo       string `json:"additional_info"`

	ScientificHours              int `json:"scientific_hours"`
	CrossDisciplinaryHours       int `json:"cross_disciplinary_hours"`
	ProfessionalIntegrationHours int `json:"professional_integration_hours"`
}

// CommitteeReview is the committee-side payload. All 17 questions must be
// rated and a recommendation given before it is accepted.
type CommitteeReview struct {
	Evaluation            models.Evaluation     `json:"evaluation"`
	Conclusion            string                `json:"conclusion"`
	Recommendation        models.Recommendation `json:"recommendation"`
	RecommendationComment string                `json:"recommendation_comment"`
}

type CandidateService interface {
	Create(ctx context.Context, c *models.Candidate) (*models.Candidate, error)
	Get(ctx context.Context, id string) (*models.Candidate, error)
	List(ctx context.Context) ([]models.Candidate, error)
	Update(ctx context.Context, id string, patch *models.CandidatePatch) (*models.Candidate, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error

	SubmitCandidateForm(ctx context.Context, id string, form CandidateForm) (*models.Candidate, error)
	SubmitCommitteeReview(ctx context.Context, id string, review CommitteeReview) (*models.Candidate, error)

	AttachFile(ctx context.Context, id, originalName string, r io.Reader) (*models.Candidate, error)
	AttachReport(ctx context.Context, id, originalName string, r io.Reader) (*models.Candidate, error)
}

type candidateService struct {
	candidates mongorepo.CandidateRepository
	store      storage.Store
	log        *logrus.Logger
}

func NewCandidateService(candidates mongorepo.CandidateRepository, store storage.Store, log *logrus.Logger) CandidateService {
	if log == nil {
		log = logrus.New()
	}
	return &candidateService{candidates: candidates, store: store, log: log}
}

func (s *candidateService) Create(ctx context.Context, c *models.Candidate) (*models.Candidate, error) {
	const op = "CandidateService.Create"

	c.Email = utils.NormalizeEmail(c.Email)
	if c.Email == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email is required", nil)
	}
	if c.ExternalID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "external id is required", nil)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	normalizeCandidateEmails(c)
	c.TrainingHours.Recompute()
	c.CreatedAt = time.Now().UTC()

	if err := s.candidates.Create(ctx, c); err != nil {
		if err == utils.ErrDuplicate {
			return nil, utils.E(utils.CodeConflict, op, "a candidate with this email already exists", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create candidate", err)
	}
	return c, nil
}

func (s *candidateService) Get(ctx context.Context, id string) (*models.Candidate, error) {
	const op = "CandidateService.Get"
	c, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		if err == utils.ErrNotFound {
			return nil, utils.E(utils.CodeNotFound, op, "candidate not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get candidate", err)
	}
	return c, nil
}

func (s *candidateService) List(ctx context.Context) ([]models.Candidate, error) {
	const op = "CandidateService.List"
	out, err := s.candidates.FindAll(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list candidates", err)
	}
	return out, nil
}

func (s *candidateService) Update(ctx context.Context, id string, patch *models.CandidatePatch) (*models.Candidate, error) {
	const op = "CandidateService.Update"

	if patch.Email != nil {
		e := utils.NormalizeEmail(*patch.Email)
		if e == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "email cannot be emptied", nil)
		}
		patch.Email = &e
	}
	if patch.SupervisorEmail != nil {
		e := utils.NormalizeEmail(*patch.SupervisorEmail)
		patch.SupervisorEmail = &e
	}
	for _, m := range []*models.CommitteeMember{patch.Member1, patch.Member2, patch.AdditionalMember} {
		if m != nil {
			m.Email = utils.NormalizeEmail(m.Email)
		}
	}
	// the hour total is derived, never client-settable
	if patch.TrainingHours != nil {
		patch.TrainingHours.Recompute()
	}
	now := time.Now().UTC()
	patch.UpdatedAt = &now

	if err := s.candidates.Update(ctx, id, patch); err != nil {
		if err == utils.ErrNotFound {
			return nil, utils.E(utils.CodeNotFound, op, "candidate not found", err)
		}
		if err == utils.ErrDuplicate {
			return nil, utils.E(utils.CodeConflict, op, "a candidate with this email already exists", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update candidate", err)
	}
	return s.Get(ctx, id)
}

func (s *candidateService) Delete(ctx context.Context, id string) error {
	const op = "CandidateService.Delete"
	if err := s.candidates.Delete(ctx, id); err != nil {
		if err == utils.ErrNotFound {
			return utils.E(utils.CodeNotFound, op, "candidate not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete candidate", err)
	}
	return nil
}

func (s *candidateService) DeleteAll(ctx context.Context) error {
	const op = "CandidateService.DeleteAll"
	if err := s.candidates.DeleteAll(ctx); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete candidates", err)
	}
	return nil
}

// SubmitCandidateForm applies the doctorant's self-service edits and marks
// the candidate step as validated. The flag is monotonic: resubmitting
// updates the content but never clears it.
func (s *candidateService) SubmitCandidateForm(ctx context.Context, id string, form CandidateForm) (*models.Candidate, error) {
	const op = "CandidateService.SubmitCandidateForm"

	cand, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if form.ScientificHours < 0 || form.CrossDisciplinaryHours < 0 || form.ProfessionalIntegrationHours < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "training hours must be non-negative", nil)
	}

	hours := models.TrainingHours{
		Scientific:              form.ScientificHours,
		CrossDisciplinary:       form.CrossDisciplinaryHours,
		ProfessionalIntegration: form.ProfessionalIntegrationHours,
	}
	hours.Recompute()

	wf := cand.Workflow
	wf.CandidateValidated = true
	now := time.Now().UTC()

	patch := &models.CandidatePatch{
		Missions:             &form.Missions,
		Publications:         &form.Publications,
		Conferences:          &form.Conferences,
		Posters:              &form.Posters,
		PublicCommunications: &form.PublicCommunications,
		AdditionalInfo:       &form.AdditionalInfo,
		TrainingHours:        &hours,
		Workflow:             &wf,
		UpdatedAt:            &now,
	}
	if err := s.candidates.Update(ctx, id, patch); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save form", err)
	}
	return s.Get(ctx, id)
}

// SubmitCommitteeReview stores the committee evaluation and marks the
// referent step as validated.
//
// Nothing here prevents a second committee member from overwriting a prior
// submission: tokens bind the candidate, not the referent, so the server
// cannot attribute submissions. At-most-once is left to the client-side
// confirmation dialog.
func (s *candidateService) SubmitCommitteeReview(ctx context.Context, id string, review CommitteeReview) (*models.Candidate, error) {
	const op = "CandidateService.SubmitCommitteeReview"

	cand, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.Evaluation.Complete() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "all 17 evaluation questions must carry a rating", nil)
	}
	if !review.Recommendation.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "a recommendation is required", nil)
	}

	wf := cand.Workflow
	wf.ReferentValidated = true
	now := time.Now().UTC()

	patch := &models.CandidatePatch{
		Evaluation:            &review.Evaluation,
		Conclusion:            &review.Conclusion,
		Recommendation:        &review.Recommendation,
		RecommendationComment: &review.RecommendationComment,
		Workflow:              &wf,
		UpdatedAt:             &now,
	}
	if err := s.candidates.Update(ctx, id, patch); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save review", err)
	}
	return s.Get(ctx, id)
}

// AttachFile stores an upload on the general channel, keeping only the two
// most recent files.
func (s *candidateService) AttachFile(ctx context.Context, id, originalName string, r io.Reader) (*models.Candidate, error) {
	const op = "CandidateService.AttachFile"

	cand, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := safeFilename(originalName)
	if name == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "a file name is required", nil)
	}

	storagePath := path.Join("uploads", cand.ExternalID, fmt.Sprintf("%d_%s", time.Now().UnixNano(), name))
	if err := s.store.Save(ctx, storagePath, r); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store upload", err)
	}

	files := append(cand.UploadedFiles, models.StoredFile{OriginalName: originalName, StoragePath: storagePath})
	for len(files) > maxGeneralUploads {
		evicted := files[0]
		files = files[1:]
		if err := s.store.Delete(ctx, evicted.StoragePath); err != nil {
			s.log.WithError(err).WithField("file", evicted.StoragePath).Warn("failed to delete evicted upload")
		}
	}

	now := time.Now().UTC()
	patch := &models.CandidatePatch{UploadedFiles: &files, UpdatedAt: &now}
	if err := s.candidates.Update(ctx, id, patch); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record upload", err)
	}
	return s.Get(ctx, id)
}

// AttachReport stores the uploaded (signed) report in its single slot,
// overwriting any previous file at the same deterministic path.
func (s *candidateService) AttachReport(ctx context.Context, id, originalName string, r io.Reader) (*models.Candidate, error) {
	const op = "CandidateService.AttachReport"

	cand, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	storagePath := path.Join("uploads", cand.ExternalID, fmt.Sprintf("rapport-signe_%s.pdf", cand.ExternalID))
	if err := s.store.Save(ctx, storagePath, r); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store report upload", err)
	}

	now := time.Now().UTC()
	ref := models.StoredFile{OriginalName: originalName, StoragePath: storagePath}
	patch := &models.CandidatePatch{UploadedReport: &ref, UpdatedAt: &now}
	if err := s.candidates.Update(ctx, id, patch); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record report upload", err)
	}
	return s.Get(ctx, id)
}

func normalizeCandidateEmails(c *models.Candidate) {
	c.Email = utils.NormalizeEmail(c.Email)
	c.SupervisorEmail = utils.NormalizeEmail(c.SupervisorEmail)
	c.Member1.Email = utils.NormalizeEmail(c.Member1.Email)
	c.Member2.Email = utils.NormalizeEmail(c.Member2.Email)
	c.AdditionalMember.Email = utils.NormalizeEmail(c.AdditionalMember.Email)
}

// safeFilename keeps the base name and replaces anything outside a
// conservative character set.
func safeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return ""
	}
	return out
}
