package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/nboulif/doctrack/internal/api/handlers"
	"github.com/nboulif/doctrack/internal/api/middleware"
	"github.com/nboulif/doctrack/internal/token"
)

type Deps struct {
	Issuer    *token.Issuer
	Candidate *handlers.CandidateHandler
	Access    *handlers.AccessHandler
	Workflow  *handlers.WorkflowHandler
	Import    *handlers.ImportHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Administrative surface
	r.POST("/candidates", d.Candidate.Create)
	r.GET("/candidates", d.Candidate.List)
	r.GET("/candidates/:id", d.Candidate.Get)
	r.PUT("/candidates/:id", d.Candidate.Update)
	r.DELETE("/candidates/:id", d.Candidate.Delete)
	r.DELETE("/candidates", d.Candidate.DeleteAll)
	r.POST("/candidates/:id/files", d.Candidate.UploadFile)
	r.GET("/candidates/:id/report", d.Workflow.Report)
	r.POST("/candidates/import", d.Import.Import)

	r.POST("/workflow/:step/:id", d.Workflow.Run)

	r.POST("/access", d.Access.Issue)

	// Token-gated self-service surface
	access := r.Group("/access/:token")
	access.Use(middleware.AccessToken(d.Issuer))

	access.GET("", d.Access.Resolve)
	access.PUT("/form", d.Access.SubmitForm)
	access.PUT("/review", d.Access.SubmitReview)
	access.POST("/files", d.Access.UploadFile)
	access.POST("/report", d.Access.UploadReport)
}
