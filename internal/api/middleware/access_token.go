package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nboulif/doctrack/internal/token"
	"github.com/nboulif/doctrack/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// AccessToken resolves the :token path parameter against the issuer and
// stores the matched candidate in the request context. Invalid, expired and
// orphaned tokens all answer 401 without detail.
func AccessToken(issuer *token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("token")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing access token",
			})
			return
		}

		cand, err := issuer.Resolve(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:    utils.CodeInternal,
				Message: "token resolution failed",
			})
			return
		}
		if cand == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "invalid or expired access token",
			})
			return
		}

		if claims, ok := issuer.Verify(raw); ok {
			c.Set("access_role", string(claims.Role))
		}
		c.Set("candidate", cand)
		c.Set("candidate_id", cand.ID)
		c.Next()
	}
}
