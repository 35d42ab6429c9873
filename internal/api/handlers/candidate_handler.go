package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/services"
	"github.com/nboulif/doctrack/internal/utils"
)

type CandidateHandler struct {
	svc services.CandidateService
}

func NewCandidateHandler(svc services.CandidateService) *CandidateHandler {
	return &CandidateHandler{svc: svc}
}

type CreateCandidateRequest struct {
	ExternalID string `json:"external_id" binding:"required"`
	Email      string `json:"email" binding:"required"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`

	ThesisYear            string            `json:"thesis_year"`
	ThesisTitle           string            `json:"thesis_title"`
	FundingType           string            `json:"funding_type"`
	FirstRegistrationDate string            `json:"first_registration_date"`
	Department            models.Department `json:"department"`

	ResearchUnitName     string `json:"research_unit_name"`
	ResearchUnitDirector string `json:"research_unit_director"`
	TeamName             string `json:"team_name"`
	TeamLeader           string `json:"team_leader"`
	SupervisorName       string `json:"supervisor_name"`
	SupervisorEmail      string `json:"supervisor_email"`
	CoSupervisor         string `json:"co_supervisor"`

	Member1          models.CommitteeMember `json:"member1"`
	Member2          models.CommitteeMember `json:"member2"`
	AdditionalMember models.CommitteeMember `json:"additional_member"`
}

func (h *CandidateHandler) Create(c *gin.Context) {
	var req CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CandidateHandler.Create", "invalid request body", err))
		return
	}

	cand := &models.Candidate{
		ExternalID:            req.ExternalID,
		Email:                 req.Email,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		ThesisYear:            req.ThesisYear,
		ThesisTitle:           req.ThesisTitle,
		FundingType:           req.FundingType,
		FirstRegistrationDate: req.FirstRegistrationDate,
		Department:            req.Department,
		ResearchUnitName:      req.ResearchUnitName,
		ResearchUnitDirector:  req.ResearchUnitDirector,
		TeamName:              req.TeamName,
		TeamLeader:            req.TeamLeader,
		SupervisorName:        req.SupervisorName,
		SupervisorEmail:       req.SupervisorEmail,
		CoSupervisor:          req.CoSupervisor,
		Member1:               req.Member1,
		Member2:               req.Member2,
		AdditionalMember:      req.AdditionalMember,
	}

	created, err := h.svc.Create(c.Request.Context(), cand)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CandidateHandler) Get(c *gin.Context) {
	cand, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cand)
}

func (h *CandidateHandler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UpdateCandidateRequest exposes the administratively editable subset.
// Workflow flags, evaluation and file references are managed by their own
// endpoints and never bind here.
type UpdateCandidateRequest struct {
	ExternalID *string `json:"external_id,omitempty"`
	Email      *string `json:"email,omitempty"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`

	ThesisYear            *string            `json:"thesis_year,omitempty"`
	ThesisTitle           *string            `json:"thesis_title,omitempty"`
	FundingType           *string            `json:"funding_type,omitempty"`
	FirstRegistrationDate *string            `json:"first_registration_date,omitempty"`
	Department            *models.Department `json:"department,omitempty"`

	ResearchUnitName     *string `json:"research_unit_name,omitempty"`
	ResearchUnitDirector *string `json:"research_unit_director,omitempty"`
	TeamName             *string `json:"team_name,omitempty"`
	TeamLeader           *string `json:"team_leader,omitempty"`
	SupervisorName       *string `json:"supervisor_name,omitempty"`
	SupervisorEmail      *string `json:"supervisor_email,omitempty"`
	CoSupervisor         *string `json:"co_supervisor,omitempty"`

	Member1          *models.CommitteeMember `json:"member1,omitempty"`
	Member2          *models.CommitteeMember `json:"member2,omitempty"`
	AdditionalMember *models.CommitteeMember `json:"additional_member,omitempty"`

	Missions             *string `json:"missions,omitempty"`
	Publications         *string `json:"publications,omitempty"`
	Conferences          *string `json:"conferences,omitempty"`
	Posters              *string `json:"posters,omitempty"`
	PublicCommunications *string `json:"public_communications,omitempty"`
	AdditionalInfo       *string `json:"additional_info,omitempty"`

	TrainingHours *models.TrainingHours `json:"training_hours,omitempty"`
}

func (r *UpdateCandidateRequest) patch() *models.CandidatePatch {
	return &models.CandidatePatch{
		ExternalID:            r.ExternalID,
		Email:                 r.Email,
		FirstName:             r.FirstName,
		LastName:              r.LastName,
		ThesisYear:            r.ThesisYear,
		ThesisTitle:           r.ThesisTitle,
		FundingType:           r.FundingType,
		FirstRegistrationDate: r.FirstRegistrationDate,
		Department:            r.Department,
		ResearchUnitName:      r.ResearchUnitName,
		ResearchUnitDirector:  r.ResearchUnitDirector,
		TeamName:              r.TeamName,
		TeamLeader:            r.TeamLeader,
		SupervisorName:        r.SupervisorName,
		SupervisorEmail:       r.SupervisorEmail,
		CoSupervisor:          r.CoSupervisor,
		Member1:               r.Member1,
		Member2:               r.Member2,
		AdditionalMember:      r.AdditionalMember,
		Missions:              r.Missions,
		Publications:          r.Publications,
		Conferences:           r.Conferences,
		Posters:               r.Posters,
		PublicCommunications:  r.PublicCommunications,
		AdditionalInfo:        r.AdditionalInfo,
		TrainingHours:         r.TrainingHours,
	}
}

func (h *CandidateHandler) Update(c *gin.Context) {
	var req UpdateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CandidateHandler.Update", "invalid request body", err))
		return
	}

	cand, err := h.svc.Update(c.Request.Context(), c.Param("id"), req.patch())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cand)
}

func (h *CandidateHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CandidateHandler) DeleteAll(c *gin.Context) {
	if err := h.svc.DeleteAll(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadFile receives one attachment on the general channel.
func (h *CandidateHandler) UploadFile(c *gin.Context) {
	fh, r, err := openPDFUpload(c, "CandidateHandler.UploadFile")
	if err != nil {
		writeError(c, err)
		return
	}
	defer r.close()

	cand, err := h.svc.AttachFile(c.Request.Context(), c.Param("id"), fh.Filename, r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cand)
}
