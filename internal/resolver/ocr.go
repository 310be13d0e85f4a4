package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
)

// ErrOCRUnavailable marks the OCR binary failing to even start (missing
// dependency), which callers report distinctly from OCR misses.
var ErrOCRUnavailable = errors.New("ocr binary unavailable")

// runOCR invokes tesseract on imagePath, writing a text layer next to a
// temp stub, and returns the recognized text. Both temp artifacts are
// removed on completion or failure.
func (r *Resolver) runOCR(ctx context.Context, imagePath string) (string, error) {
	tmp, err := os.CreateTemp(r.tmpDir, "_ocr")
	if err != nil {
		return "", fmt.Errorf("resolver: create ocr temp: %w", err)
	}
	base := tmp.Name()
	_ = tmp.Close()
	defer func() {
		_ = os.Remove(base)
		_ = os.Remove(base + ".txt")
	}()

	cmd := exec.CommandContext(ctx, r.cfg.TesseractPath, imagePath, base, "-l", "jpn", "--psm", "11")
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return "", ErrOCRUnavailable
		}
		return "", fmt.Errorf("resolver: ocr run: %w", err)
	}

	// Tesseract appends .txt to the output stub.
	data, err := os.ReadFile(base + ".txt")
	if err != nil {
		return "", fmt.Errorf("resolver: read ocr output: %w", err)
	}
	return string(data), nil
}
