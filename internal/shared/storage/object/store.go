package object

import (
	"context"
	"io"
	"strings"

	"llm-service/internal/shared/util"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// SnapshotKey returns the object key for a fetched page snapshot of url.
func SnapshotKey(url, contentType string) string {
	h := util.HashKey(url)
	return "snapshots/" + h[:2] + "/" + h + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "html"):
		return ".html"
	case strings.Contains(ct, "pdf"):
		return ".pdf"
	case strings.Contains(ct, "wordprocessingml"):
		return ".docx"
	case strings.HasPrefix(ct, "text/"):
		return ".txt"
	default:
		return ".bin"
	}
}
