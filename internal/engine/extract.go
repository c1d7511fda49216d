package engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts plain text from PDF bytes. A structurally valid
// PDF that carries no text content, such as a pure image scan, fails
// with ErrExtraction.
func (e *gemini) ExtractText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	text, err := readPlainText(reader)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrExtraction
	}

	e.logger.Debug("text extracted", "bytes", len(data), "chars", len(text))
	return text, nil
}

// readPlainText isolates the reader call because the pdf package panics
// on some malformed content streams.
func readPlainText(reader *pdf.Reader) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrExtraction, p)
		}
	}()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	return buf.String(), nil
}
