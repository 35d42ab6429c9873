// Package report renders a candidate's current record into a paginated PDF
// and maintains the single report slot per candidate.
package report

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nboulif/doctrack/internal/models"
	mongorepo "github.com/nboulif/doctrack/internal/repositories/mongo"
	"github.com/nboulif/doctrack/internal/storage"
	"github.com/nboulif/doctrack/internal/utils"
)

type Builder struct {
	candidates mongorepo.CandidateRepository
	store      storage.Store
	log        *logrus.Logger
}

func NewBuilder(candidates mongorepo.CandidateRepository, store storage.Store, log *logrus.Logger) *Builder {
	if log == nil {
		log = logrus.New()
	}
	return &Builder{candidates: candidates, store: store, log: log}
}

// SlotPath is the deterministic storage location of the generated report,
// overwritten in place on every build.
func SlotPath(externalID string) string {
	return path.Join("reports", externalID, fmt.Sprintf("rapport_%s.pdf", externalID))
}

// Build renders the candidate's report, persists it to the report slot and
// updates the record's generated-report reference.
//
// When rendering succeeds but persistence fails, the rendered bytes are
// returned together with an INTERNAL error: the caller may still use them
// once (e.g. as an HTTP response body) but must treat the stored state as
// stale and retry.
func (b *Builder) Build(ctx context.Context, candidateID string) ([]byte, error) {
	const op = "report.Builder.Build"

	cand, err := b.candidates.GetByID(ctx, candidateID)
	if err != nil {
		if err == utils.ErrNotFound {
			return nil, utils.E(utils.CodeNotFound, op, "candidate not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "candidate lookup failed", err)
	}

	attachments := b.usableAttachments(ctx, cand)

	main := newDoc()
	b.renderMain(main, cand, len(attachments) > 0)

	out, err := b.assemble(cand, main, attachments)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to assemble report", err)
	}

	slot := SlotPath(cand.ExternalID)
	ref := models.StoredFile{
		OriginalName: fmt.Sprintf("rapport_%s.pdf", cand.ExternalID),
		StoragePath:  slot,
	}
	if err := b.store.Save(ctx, slot, bytes.NewReader(out)); err != nil {
		return out, utils.E(utils.CodeInternal, op, "failed to write report slot", err)
	}
	now := time.Now().UTC()
	patch := &models.CandidatePatch{GeneratedReport: &ref, UpdatedAt: &now}
	if err := b.candidates.Update(ctx, cand.ID, patch); err != nil {
		return out, utils.E(utils.CodeInternal, op, "failed to update report reference", err)
	}
	return out, nil
}

// assemble flattens the rendered parts into the final document. With no
// attachments everything lives in a single canvas; otherwise the evaluation
// and conclusion are rendered into a separate canvas so the appended
// attachment pages sit between the banner and the evaluation, and the
// evaluation always starts on a fresh page.
func (b *Builder) assemble(cand *models.Candidate, main *doc, attachments []string) ([]byte, error) {
	if len(attachments) == 0 {
		b.renderEvaluation(main, cand, false)
		return main.bytes()
	}

	mainBytes, err := main.bytes()
	if err != nil {
		return nil, err
	}

	var tailBytes []byte
	if cand.Evaluation.Answered() || hasConclusion(cand) {
		tail := newDoc()
		b.renderEvaluation(tail, cand, true)
		if tailBytes, err = tail.bytes(); err != nil {
			return nil, err
		}
	}
	return mergeDocuments(mainBytes, attachments, tailBytes)
}

// usableAttachments filters the general-upload channel down to files that
// exist and carry a .pdf extension; anything else is skipped with a warning.
func (b *Builder) usableAttachments(ctx context.Context, cand *models.Candidate) []string {
	var out []string
	for _, f := range cand.UploadedFiles {
		log := b.log.WithFields(logrus.Fields{
			"candidate": cand.ExternalID,
			"file":      f.StoragePath,
		})
		if !strings.EqualFold(path.Ext(f.StoragePath), ".pdf") {
			log.Warn("skipping attachment: not a pdf")
			continue
		}
		ok, err := b.store.Exists(ctx, f.StoragePath)
		if err != nil || !ok {
			log.Warn("skipping attachment: file missing")
			continue
		}
		abs := b.store.Abs(f.StoragePath)
		if !validPDF(abs) {
			log.Warn("skipping attachment: unreadable pdf")
			continue
		}
		out = append(out, abs)
	}
	return out
}

func (b *Builder) renderMain(d *doc, c *models.Candidate, hasAttachments bool) {
	d.heading("Rapport annuel de suivi doctoral")
	if c.ThesisYear != "" {
		d.subTitle("Annee universitaire " + c.ThesisYear)
	}
	d.spacer(lineHeight)

	d.subTitle("Informations personnelles")
	d.labelValue("Nom", c.LastName)
	d.labelValue("Prenom", c.FirstName)
	d.labelValue("Email", c.Email)
	d.labelValue("Identifiant", c.ExternalID)
	d.spacer(lineHeight)

	d.subTitle("These et encadrement")
	d.labelValue("Titre de la these", c.ThesisTitle)
	d.labelValue("Financement", c.FundingType)
	d.labelValue("Premiere inscription", c.FirstRegistrationDate)
	d.labelValue("Departement", string(c.Department))
	d.labelValue("Directeur de these", joinNameEmail(c.SupervisorName, c.SupervisorEmail))
	if c.CoSupervisor != "" {
		d.labelValue("Co-encadrant", c.CoSupervisor)
	}
	d.spacer(lineHeight)

	d.subTitle("Unite de recherche")
	d.labelValue("Unite", c.ResearchUnitName)
	d.labelValue("Directeur d'unite", c.ResearchUnitDirector)
	d.labelValue("Equipe", c.TeamName)
	d.labelValue("Responsable d'equipe", c.TeamLeader)
	d.spacer(lineHeight)

	d.subTitle("Comite de suivi")
	d.labelValue("Membre 1", joinNameEmail(c.Member1.Name, c.Member1.Email))
	d.labelValue("Membre 2", joinNameEmail(c.Member2.Name, c.Member2.Email))
	if c.AdditionalMember.Name != "" || c.AdditionalMember.Email != "" {
		d.labelValue("Membre supplementaire", joinNameEmail(c.AdditionalMember.Name, c.AdditionalMember.Email))
	}
	d.spacer(lineHeight)

	d.subTitle("Activites scientifiques")
	d.labelValue("Missions", c.Missions)
	d.labelValue("Publications", c.Publications)
	d.labelValue("Conferences", c.Conferences)
	d.labelValue("Posters", c.Posters)
	d.labelValue("Communications grand public", c.PublicCommunications)
	d.spacer(lineHeight)

	d.subTitle("Formations doctorales")
	d.labelValue("Heures scientifiques", fmt.Sprintf("%d", c.TrainingHours.Scientific))
	d.labelValue("Heures transverses", fmt.Sprintf("%d", c.TrainingHours.CrossDisciplinary))
	d.labelValue("Heures insertion professionnelle", fmt.Sprintf("%d", c.TrainingHours.ProfessionalIntegration))
	d.labelValue("Total", fmt.Sprintf("%d", c.TrainingHours.Total))
	d.spacer(lineHeight)

	if c.AdditionalInfo != "" {
		d.subTitle("Informations complementaires")
		d.paragraph(c.AdditionalInfo)
		d.spacer(lineHeight)
	}

	if hasAttachments {
		d.paragraph("Documents joints par le doctorant : voir pages annexees.")
	}
}

// renderEvaluation appends the evaluation grid and the conclusion. With
// freshPage, content starts at the top of a new page (set when attachment
// pages precede this block).
func (b *Builder) renderEvaluation(d *doc, c *models.Candidate, freshPage bool) {
	if !c.Evaluation.Answered() && !hasConclusion(c) {
		return
	}
	if freshPage && d.y > marginTop {
		d.newPage()
	}

	if c.Evaluation.Answered() {
		d.heading("Evaluation")
		for i, a := range c.Evaluation {
			if a.Empty() {
				continue
			}
			d.subTitle(fmt.Sprintf("%d. %s", i+1, models.Questions[i]))
			if a.Rating != "" {
				d.labelValue("Evaluation", string(a.Rating))
			}
			if a.Comment != "" {
				d.paragraph(a.Comment)
			}
			d.spacer(lineHeight / 2)
		}
		d.spacer(lineHeight)
	}

	if hasConclusion(c) {
		d.heading("Conclusion et recommandations")
		if c.Conclusion != "" {
			d.paragraph(c.Conclusion)
		}
		if c.Recommendation != "" {
			d.labelValue("Avis", c.Recommendation.Sentence())
		}
		if c.RecommendationComment != "" {
			d.paragraph(c.RecommendationComment)
		}
	}
}

func hasConclusion(c *models.Candidate) bool {
	return c.Conclusion != "" || c.Recommendation != "" || c.RecommendationComment != ""
}

func joinNameEmail(name, email string) string {
	switch {
	case name != "" && email != "":
		return name + " - " + email
	case name != "":
		return name
	default:
		return email
	}
}
