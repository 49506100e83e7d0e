package gcsuploader

import (
	"fmt"
	"path"
	"strings"
)

const scheme = "gs://"

// ParseURI splits gs://bucket/path/to/object into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// BuildURI is the inverse of ParseURI.
func BuildURI(bucket, object string) string {
	return scheme + bucket + "/" + object
}

// IsURI reports whether s looks like a GCS URI.
func IsURI(s string) bool {
	return strings.HasPrefix(s, scheme)
}

// FilenameFromURI returns the last path element of a GCS URI,
// e.g. "gs://bucket/folder/file.pdf" -> "file.pdf".
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// StatementObject is the object name an uploaded statement is stored under.
func StatementObject(statementID, filename string) string {
	return path.Join("statements", statementID, path.Base(filename))
}

// ContentTypeFor guesses the content type of a statement file by extension.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
