package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nboulif/doctrack/internal/services"
	"github.com/nboulif/doctrack/internal/utils"
)

type ImportHandler struct {
	svc services.ImportService
}

func NewImportHandler(svc services.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// Import ingests the annual enrollment CSV, either as a multipart "file"
// field or as a raw text/csv body.
func (h *ImportHandler) Import(c *gin.Context) {
	const op = "ImportHandler.Import"

	body := c.Request.Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
			return
		}
		defer f.Close()
		body = f
	}

	summary, err := h.svc.ImportCSV(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
