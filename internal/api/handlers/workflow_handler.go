package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nboulif/doctrack/internal/report"
	"github.com/nboulif/doctrack/internal/services"
)

type WorkflowHandler struct {
	svc     services.WorkflowService
	builder *report.Builder
}

func NewWorkflowHandler(svc services.WorkflowService, builder *report.Builder) *WorkflowHandler {
	return &WorkflowHandler{svc: svc, builder: builder}
}

type RunStepRequest struct {
	Force bool `json:"force"`
}

// Run advances one workflow step for one candidate. The body is optional;
// an empty body means no force.
func (h *WorkflowHandler) Run(c *gin.Context) {
	var req RunStepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			req = RunStepRequest{}
		}
	}

	outcome, err := h.svc.Run(
		c.Request.Context(),
		services.StepName(c.Param("step")),
		c.Param("id"),
		services.StepOptions{Force: req.Force},
	)
	if err != nil {
		// partial outcomes still carry useful per-recipient detail
		if outcome != nil {
			c.JSON(http.StatusBadGateway, gin.H{"outcome": outcome, "error": err.Error()})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Report regenerates and streams the candidate's PDF.
func (h *WorkflowHandler) Report(c *gin.Context) {
	id := c.Param("id")

	pdf, err := h.builder.Build(c.Request.Context(), id)
	if err != nil && pdf == nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "rapport.pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
