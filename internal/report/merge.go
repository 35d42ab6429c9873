package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// mergeDocuments concatenates the rendered main part, the attachment files
// (absolute paths, already validated) and an optional rendered tail into a
// single PDF.
func mergeDocuments(main []byte, attachmentPaths []string, tail []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "doctrack-merge-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create merge workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	mainPath := filepath.Join(dir, "main.pdf")
	if err := os.WriteFile(mainPath, main, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage main document: %w", err)
	}

	inputs := append([]string{mainPath}, attachmentPaths...)
	if len(tail) > 0 {
		tailPath := filepath.Join(dir, "tail.pdf")
		if err := os.WriteFile(tailPath, tail, 0o600); err != nil {
			return nil, fmt.Errorf("failed to stage tail document: %w", err)
		}
		inputs = append(inputs, tailPath)
	}

	outPath := filepath.Join(dir, "out.pdf")
	if err := api.MergeCreateFile(inputs, outPath, false, nil); err != nil {
		return nil, fmt.Errorf("pdf merge failed: %w", err)
	}
	merged, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged document: %w", err)
	}
	return merged, nil
}

// validPDF reports whether the file at path parses as a PDF.
func validPDF(path string) bool {
	return api.ValidateFile(path, nil) == nil
}
