package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nboulif/doctrack/internal/services"
	"github.com/nboulif/doctrack/internal/token"
	"github.com/nboulif/doctrack/internal/utils"
)

// AccessHandler serves the token-gated self-service surface used by
// candidates and committee members reaching the app through mailed links.
type AccessHandler struct {
	issuer *token.Issuer
	svc    services.CandidateService
}

func NewAccessHandler(issuer *token.Issuer, svc services.CandidateService) *AccessHandler {
	return &AccessHandler{issuer: issuer, svc: svc}
}

type IssueTokenRequest struct {
	Email string `json:"email" binding:"required"`
}

type IssueTokenResponse struct {
	Token string `json:"token"`
}

// Issue mints an access token for any email bound to a candidate record.
// Administrative use: regular tokens travel inside workflow emails.
func (h *AccessHandler) Issue(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AccessHandler.Issue", "invalid request body", err))
		return
	}

	raw, err := h.issuer.Issue(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, IssueTokenResponse{Token: raw})
}

// Resolve returns the record behind a token, plus the role the token grants.
func (h *AccessHandler) Resolve(c *gin.Context) {
	cand, ok := requireCandidate(c)
	if !ok {
		return
	}
	role, _ := c.Get("access_role")
	c.JSON(http.StatusOK, gin.H{"role": role, "candidate": cand})
}

func (h *AccessHandler) SubmitForm(c *gin.Context) {
	cand, ok := requireCandidate(c)
	if !ok {
		return
	}

	var form services.CandidateForm
	if err := c.ShouldBindJSON(&form); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AccessHandler.SubmitForm", "invalid request body", err))
		return
	}

	updated, err := h.svc.SubmitCandidateForm(c.Request.Context(), cand.ID, form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *AccessHandler) SubmitReview(c *gin.Context) {
	cand, ok := requireCandidate(c)
	if !ok {
		return
	}

	var review services.CommitteeReview
	if err := c.ShouldBindJSON(&review); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AccessHandler.SubmitReview", "invalid request body", err))
		return
	}

	updated, err := h.svc.SubmitCommitteeReview(c.Request.Context(), cand.ID, review)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UploadFile receives an attachment through an access link.
func (h *AccessHandler) UploadFile(c *gin.Context) {
	cand, ok := requireCandidate(c)
	if !ok {
		return
	}

	fh, r, err := openPDFUpload(c, "AccessHandler.UploadFile")
	if err != nil {
		writeError(c, err)
		return
	}
	defer r.close()

	updated, err := h.svc.AttachFile(c.Request.Context(), cand.ID, fh.Filename, r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UploadReport receives the signed report into its single slot.
func (h *AccessHandler) UploadReport(c *gin.Context) {
	cand, ok := requireCandidate(c)
	if !ok {
		return
	}

	fh, r, err := openPDFUpload(c, "AccessHandler.UploadReport")
	if err != nil {
		writeError(c, err)
		return
	}
	defer r.close()

	updated, err := h.svc.AttachReport(c.Request.Context(), cand.ID, fh.Filename, r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
