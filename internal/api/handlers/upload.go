package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nboulif/doctrack/internal/utils"
)

const maxUploadBytes = 10 << 20

// openPDFUpload validates the multipart "file" field: extension, size and a
// sniff of the first 512 bytes. The returned reader re-composes the sniffed
// head with the rest of the stream.
func openPDFUpload(c *gin.Context, op string) (*multipart.FileHeader, *uploadReader, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != ".pdf" {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "only .pdf is allowed", nil)
	}
	if fh.Size <= 0 || fh.Size > maxUploadBytes {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "file too large (max 10MB)", nil)
	}

	file, err := fh.Open()
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to open upload", err)
	}

	head := make([]byte, 512)
	n, _ := file.Read(head)
	head = head[:n]
	if ct := http.DetectContentType(head); ct != "application/pdf" {
		file.Close()
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "invalid content type (must be pdf)", nil)
	}

	return fh, &uploadReader{head: bytes.NewReader(head), rest: file}, nil
}

type uploadReader struct {
	head *bytes.Reader
	rest multipart.File
}

func (r *uploadReader) Read(p []byte) (int, error) {
	if r.head != nil && r.head.Len() > 0 {
		return r.head.Read(p)
	}
	return r.rest.Read(p)
}

func (r *uploadReader) close() {
	_ = r.rest.Close()
}

var _ io.Reader = (*uploadReader)(nil)
