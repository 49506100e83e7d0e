package textsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockFetcher struct {
	FetchFunc func(ctx context.Context, uri string) ([]byte, error)
}

func (m *MockFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return m.FetchFunc(ctx, uri)
}

type MockTranscriber struct {
	TranscribePDFFunc func(ctx context.Context, data []byte) (string, error)
}

func (m *MockTranscriber) TranscribePDF(ctx context.Context, data []byte) (string, error) {
	return m.TranscribePDFFunc(ctx, data)
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("2024-01-01 Rent  -900.00  \r\n\n   \nBalance 100\n")
	assert.Equal(t, []string{"2024-01-01 Rent  -900.00", "Balance 100"}, got)
	assert.Empty(t, SplitLines(""))
}

func TestLoader_LocalText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jan.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0o644))

	lines, err := NewLoader(nil, nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"line one", "line two"}, lines)

	lines, err = NewLoader(nil, nil).Load(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestLoader_GCSPDF(t *testing.T) {
	fetcher := &MockFetcher{FetchFunc: func(ctx context.Context, uri string) ([]byte, error) {
		assert.Equal(t, "gs://b/statements/s1/jan.pdf", uri)
		return []byte("%PDF-1.7"), nil
	}}
	pdf := &MockTranscriber{TranscribePDFFunc: func(ctx context.Context, data []byte) (string, error) {
		assert.Equal(t, "%PDF-1.7", string(data))
		return "a\nb\n", nil
	}}

	lines, err := NewLoader(fetcher, pdf).Load(context.Background(), "gs://b/statements/s1/jan.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestLoader_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewLoader(nil, nil).Load(ctx, "statement.docx")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = NewLoader(nil, nil).Load(ctx, "gs://b/x.txt")
	assert.Error(t, err, "gs:// without a fetcher")

	path := filepath.Join(t.TempDir(), "jan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
	_, err = NewLoader(nil, nil).Load(ctx, path)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), "pdf without a transcriber")

	_, err = NewLoader(nil, nil).Load(ctx, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("A.PDF"))
	assert.True(t, IsSupported("/inbox/jan.txt"))
	assert.False(t, IsSupported("jan.csv"))
}
