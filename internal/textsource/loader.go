// Package textsource turns an uploaded statement (local file or gs:// object,
// plain text or PDF) into the line sequence the extractor windows over.
package textsource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/statement-scoring/internal/gcsuploader"
	"github.com/dvloznov/statement-scoring/internal/logger"
)

// ErrUnsupportedFormat is returned for files that are neither text nor PDF.
var ErrUnsupportedFormat = errors.New("unsupported statement format")

// SupportedExtensions lists the statement file types accepted for ingestion.
var SupportedExtensions = []string{".pdf", ".txt"}

// IsSupported reports whether name has a supported statement extension.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Fetcher downloads remote objects.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// PDFTranscriber turns PDF bytes into plain statement text.
type PDFTranscriber interface {
	TranscribePDF(ctx context.Context, data []byte) (string, error)
}

// Loader reads statements. Both dependencies are optional; a Loader without
// a Fetcher rejects gs:// URIs and one without a PDFTranscriber rejects PDFs.
type Loader struct {
	fetcher Fetcher
	pdf     PDFTranscriber
}

// NewLoader creates a Loader.
func NewLoader(fetcher Fetcher, pdf PDFTranscriber) *Loader {
	return &Loader{fetcher: fetcher, pdf: pdf}
}

// Load returns the statement's non-blank lines.
func (l *Loader) Load(ctx context.Context, uri string) ([]string, error) {
	log := logger.FromContext(ctx)

	if !IsSupported(uri) {
		return nil, fmt.Errorf("Load: %s: %w", uri, ErrUnsupportedFormat)
	}

	data, err := l.read(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	text := string(data)
	if strings.EqualFold(filepath.Ext(uri), ".pdf") {
		if l.pdf == nil {
			return nil, fmt.Errorf("Load: %s: no PDF transcriber configured: %w", uri, ErrUnsupportedFormat)
		}
		text, err = l.pdf.TranscribePDF(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("Load: transcribing %s: %w", uri, err)
		}
	}

	lines := SplitLines(text)
	log.Debug().Str("source", uri).Int("lines", len(lines)).Msg("Statement text loaded")
	return lines, nil
}

func (l *Loader) read(ctx context.Context, uri string) ([]byte, error) {
	if gcsuploader.IsURI(uri) {
		if l.fetcher == nil {
			return nil, fmt.Errorf("no object store configured for %s", uri)
		}
		return l.fetcher.Fetch(ctx, uri)
	}
	data, err := os.ReadFile(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", uri, err)
	}
	return data, nil
}

// SplitLines splits text into lines, dropping trailing whitespace and
// blank lines.
func SplitLines(text string) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader([]byte(text)))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
