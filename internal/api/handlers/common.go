package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// requireCandidate returns the candidate resolved by the access-token
// middleware for the current request.
func requireCandidate(c *gin.Context) (*models.Candidate, bool) {
	if v, ok := c.Get("candidate"); ok {
		if cand, ok := v.(*models.Candidate); ok && cand != nil {
			return cand, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return nil, false
}
