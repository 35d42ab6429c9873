package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nboulif/doctrack/internal/mailer"
	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/notify"
	"github.com/nboulif/doctrack/internal/report"
	mongorepo "github.com/nboulif/doctrack/internal/repositories/mongo"
	"github.com/nboulif/doctrack/internal/token"
	"github.com/nboulif/doctrack/internal/utils"
)

type StepName string

const (
	StepInviteCandidate StepName = "invite_candidate"
	StepInviteReferents StepName = "invite_referents"
	StepNotifyDirector  StepName = "notify_director"
	StepFinalReport     StepName = "final_report"
)

type StepOptions struct {
	// Force skips the precondition guard, for administrative force-advance.
	Force bool
}

// SendResult reports one logical message of a step. Fan-out steps return one
// entry per recipient so callers can retry only the failed ones.
type SendResult struct {
	To    []string `json:"to"`
	CC    []string `json:"cc,omitempty"`
	Kind  string   `json:"kind"` // invite|ack|director|final
	OK    bool     `json:"ok"`
	Error string   `json:"error,omitempty"`
}

type StepOutcome struct {
	Step        StepName     `json:"step"`
	CandidateID string       `json:"candidate_id"`
	Sent        []SendResult `json:"sent"`
	Message     string       `json:"message"`
}

func (o *StepOutcome) failures() int {
	n := 0
	for _, r := range o.Sent {
		if !r.OK {
			n++
		}
	}
	return n
}

type WorkflowService interface {
	Run(ctx context.Context, step StepName, candidateID string, opts StepOptions) (*StepOutcome, error)
	InviteCandidate(ctx context.Context, candidateID string, opts StepOptions) (*StepOutcome, error)
	InviteReferents(ctx context.Context, candidateID string, opts StepOptions) (*StepOutcome, error)
	NotifyDirector(ctx context.Context, candidateID string, opts StepOptions) (*StepOutcome, error)
	SendFinalReport(ctx context.Context, candidateID string, opts StepOptions) (*StepOutcome, error)
}

type workflowService struct {
	candidates mongorepo.CandidateRepository
	issuer     *token.Issuer
	builder    *report.Builder
	sender     mailer.Sender
	directory  notify.Directory
	log        *logrus.Logger

	baseURL string
	// pause between fan-out sends, to go easy on the SMTP relay
	pause time.Duration
}

func NewWorkflowService(
	candidates mongorepo.CandidateRepository,
	issuer *token.Issuer,
	builder *report.Builder,
	sender mailer.Sender,
	directory notify.Directory,
	baseURL string,
	log *logrus.Logger,
) WorkflowService {
	if log == nil {
		log = logrus.New()
	}
	return &workflowService{
		candidates: candidates,
		issuer:     issuer,
		builder:    builder,
		sender:     sender,
		directory:  directory,
		log:        log,
		baseURL:    baseURL,
		pause:      50 * time.Millisecond,
	}
}

func (s *workflowService) Run(ctx context.Context, step StepName, candidateID string, opts StepOptions) (*StepOutcome, error) {
	switch step {
	case StepInviteCandidate:
		return s.InviteCandidate(ctx, candidateID, opts)
	case StepInviteReferents:
		return s.InviteReferents(ctx, candidateID, opts)
	case StepNotifyDirector:
		return s.NotifyDirector(ctx, candidateID, opts)
	case StepFinalReport:
		return s.SendFinalReport(ctx, candidateID, opts)
	default:
		return nil, utils.E(utils.CodeInvalidArgument, "WorkflowService.Run",
			fmt.Sprintf("unknown workflow step %q", step), nil)
	}
}

// InviteCandidate emails the doctorant a self-service link.
func (s *workflowService) InviteCandidate(ctx context.Context, candidateID string, opts StepOptions) (*StepOutcome, error) {
	const op = "WorkflowService.InviteCandidate"

	cand, _, err := s.prepare(ctx, op, candidateID)
	if err != nil {
		return nil, err
	}

	link, err := s.accessLink(ctx, op, cand.Email)
	if err != nil {
		return nil, err
	}
	subject, body := notify.RenderTemplate(notify.InviteCandidate, s.vars(cand, link))

	outcome := &StepOutcome{Step: StepInviteCandidate, CandidateID: cand.ID}
	s.send(ctx, outcome, "invite", &mailer.Message{
		To: []string{cand.Email}, Subject: subject, HTML: body,
	})

	if outcome.failures() == len(outcome.Sent) {
		return outcome, utils.E(utils.CodeUnavailable, op, "failed to send invitation", nil)
	}

	wf := cand.Workflow
	wf.SentToCandidate = true
	wf.SendCountToCandidate++
	if err := s.saveWorkflow(ctx, op, cand.ID, wf); err != nil {
		return outcome, err
	}
	outcome.Message = "invitation sent to candidate"
	return outcome, nil
}

// InviteReferents emails an evaluation link to every committee member, then
// acknowledges the candidate's submission (supervisor in copy).
func (s *workflowService) InviteReferents(ctx context.Context, candidateID string, opts StepOptions) (*StepOutcome, error) {
	const op = "WorkflowService.InviteReferents"

	cand, pdf, err := s.prepare(ctx, op, candidateID)
	if err != nil {
		return nil, err
	}
	if !opts.Force && !cand.Workflow.CandidateValidated {
		return nil, utils.E(utils.CodeConflict, op, "candidate has not submitted their form yet", nil)
	}
	if cand.Member1.Email == "" || cand.Member2.Email == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "both primary committee members need an email", nil)
	}

	attachment := s.reportAttachment(cand, pdf)
	outcome := &StepOutcome{Step: StepInviteReferents, CandidateID: cand.ID}

	referents := cand.ReferentEmails()
	for i, ref := range referents {
		if i > 0 {
			s.sleep(ctx)
		}
		link, err := s.accessLink(ctx, op, ref)
		if err != nil {
			// resolution failed for this referent only; record and move on
			outcome.Sent = append(outcome.Sent, SendResult{To: []string{ref}, Kind: "invite", Error: err.Error()})
			continue
		}
		subject, body := notify.RenderTemplate(notify.InviteReferent, s.vars(cand, link))
		s.send(ctx, outcome, "invite", &mailer.Message{
			To: []string{ref}, Subject: subject, HTML: body,
			Attachments: []mailer.Attachment{attachment},
		})
	}

	inviteFailures := outcome.failures()

	// acknowledgement to the candidate, supervisor in copy
	var cc []string
	if cand.SupervisorEmail != "" {
		cc = []string{cand.SupervisorEmail}
	}
	subject, body := notify.RenderTemplate(notify.AckCandidateSubmission, s.vars(cand, ""))
	s.send(ctx, outcome, "ack", &mailer.Message{
		To: []string{cand.Email}, CC: cc, Subject: subject, HTML: body,
	})

	if inviteFailures == len(referents) {
		return outcome, utils.E(utils.CodeUnavailable, op, "failed to reach any committee member", nil)
	}

	wf := cand.Workflow
	wf.SentToReferents = true
	wf.SendCountToReferents++
	if err := s.saveWorkflow(ctx, op, cand.ID, wf); err != nil {
		return outcome, err
	}
	outcome.Message = fmt.Sprintf("invitations sent to %d committee member(s)", len(referents)-inviteFailures)
	return outcome, nil
}

// NotifyDirector sends the committee report to the department direction and
// acknowledges each referent.
func (s *workflowService) NotifyDirector(ctx context.Context, candidateID string, opts StepOptions) (*StepOutcome, error) {
	const op = "WorkflowService.NotifyDirector"

	cand, pdf, err := s.prepare(ctx, op, candidateID)
	if err != nil {
		return nil, err
	}
	if !opts.Force && !cand.Workflow.ReferentValidated {
		return nil, utils.E(utils.CodeConflict, op, "the committee has not submitted its review yet", nil)
	}

	// recipient resolution happens before any send: an unconfigured
	// department aborts the whole step
	recipients, err := s.directory.Lookup(cand.Department)
	if err != nil {
		return nil, err
	}

	attachment := s.reportAttachment(cand, pdf)
	outcome := &StepOutcome{Step: StepNotifyDirector, CandidateID: cand.ID}

	subject, body := notify.RenderTemplate(notify.NotifyDirector, s.vars(cand, ""))
	s.send(ctx, outcome, "director", &mailer.Message{
		To: recipients.To, CC: recipients.CC, Subject: subject, HTML: body,
		Attachments: []mailer.Attachment{attachment},
	})
	directorOK := outcome.Sent[len(outcome.Sent)-1].OK

	// referent acknowledgements; zero referents is a valid no-op
	ackSubject, ackBody := notify.RenderTemplate(notify.AckReferent, s.vars(cand, ""))
	for i, ref := range cand.ReferentEmails() {
		if i > 0 {
			s.sleep(ctx)
		}
		s.send(ctx, outcome, "ack", &mailer.Message{
			To: []string{ref}, Subject: ackSubject, HTML: ackBody,
		})
	}

	if !directorOK {
		return outcome, utils.E(utils.CodeUnavailable, op, "failed to notify the department direction", nil)
	}

	wf := cand.Workflow
	wf.DirectorNotified = true
	if err := s.saveWorkflow(ctx, op, cand.ID, wf); err != nil {
		return outcome, err
	}
	outcome.Message = "department direction notified"
	return outcome, nil
}

// SendFinalReport emails the final report to the candidate, supervisor in
// copy.
func (s *workflowService) SendFinalReport(ctx context.Context, candidateID string, opts StepOptions) (*StepOutcome, error) {
	const op = "WorkflowService.SendFinalReport"

	cand, pdf, err := s.prepare(ctx, op, candidateID)
	if err != nil {
		return nil, err
	}
	if !opts.Force && !cand.Workflow.ReferentValidated {
		return nil, utils.E(utils.CodeConflict, op, "the committee has not submitted its review yet", nil)
	}

	var cc []string
	if cand.SupervisorEmail != "" {
		cc = []string{cand.SupervisorEmail}
	}
	subject, body := notify.RenderTemplate(notify.FinalReport, s.vars(cand, ""))

	outcome := &StepOutcome{Step: StepFinalReport, CandidateID: cand.ID}
	s.send(ctx, outcome, "final", &mailer.Message{
		To: []string{cand.Email}, CC: cc, Subject: subject, HTML: body,
		Attachments: []mailer.Attachment{s.reportAttachment(cand, pdf)},
	})

	if outcome.failures() == len(outcome.Sent) {
		return outcome, utils.E(utils.CodeUnavailable, op, "failed to send final report", nil)
	}

	wf := cand.Workflow
	wf.FinalSent = true
	wf.FinalSendCount++
	if err := s.saveWorkflow(ctx, op, cand.ID, wf); err != nil {
		return outcome, err
	}
	outcome.Message = "final report sent"
	return outcome, nil
}

func (s *workflowService) loadCandidate(ctx context.Context, op, candidateID string) (*models.Candidate, error) {
	cand, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		if err == utils.ErrNotFound {
			return nil, utils.E(utils.CodeNotFound, op, "candidate not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "candidate lookup failed", err)
	}
	return cand, nil
}

// prepare loads the candidate and regenerates the report so every step works
// against the latest stored data, even when that means redundant builds.
func (s *workflowService) prepare(ctx context.Context, op, candidateID string) (*models.Candidate, []byte, error) {
	cand, err := s.loadCandidate(ctx, op, candidateID)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.builder.Build(ctx, cand.ID)
	if err != nil {
		return nil, nil, err
	}
	return cand, pdf, nil
}

func (s *workflowService) accessLink(ctx context.Context, op, email string) (string, error) {
	raw, err := s.issuer.Issue(ctx, email)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/review?token=%s", s.baseURL, url.QueryEscape(raw)), nil
}

func (s *workflowService) vars(cand *models.Candidate, link string) map[string]string {
	return map[string]string{
		"firstName":  cand.FirstName,
		"lastName":   cand.LastName,
		"link":       link,
		"year":       cand.ThesisYear,
		"department": string(cand.Department),
	}
}

func (s *workflowService) reportAttachment(cand *models.Candidate, pdf []byte) mailer.Attachment {
	return mailer.Attachment{
		Filename: fmt.Sprintf("rapport_%s.pdf", cand.ExternalID),
		Content:  pdf,
		MimeType: "application/pdf",
	}
}

// send dispatches one logical message and records its result. A transport
// failure is logged and recorded but never aborts the caller's loop.
func (s *workflowService) send(ctx context.Context, outcome *StepOutcome, kind string, msg *mailer.Message) {
	res := SendResult{To: msg.To, CC: msg.CC, Kind: kind}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"step": outcome.Step, "candidate": outcome.CandidateID, "to": msg.To,
		}).Error("mail dispatch failed")
		res.Error = err.Error()
	} else {
		res.OK = true
	}
	outcome.Sent = append(outcome.Sent, res)
}

func (s *workflowService) saveWorkflow(ctx context.Context, op, id string, wf models.Workflow) error {
	now := time.Now().UTC()
	patch := &models.CandidatePatch{Workflow: &wf, UpdatedAt: &now}
	if err := s.candidates.Update(ctx, id, patch); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to persist workflow state", err)
	}
	return nil
}

func (s *workflowService) sleep(ctx context.Context) {
	if s.pause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.pause):
	}
}
