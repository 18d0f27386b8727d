package domain

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader retrieves data from object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// PayloadArchiver stores the raw platform response for a ticket in cold
// storage and retrieves it for the ticket-payload API.
type PayloadArchiver interface {
	ArchiveTicket(ctx context.Context, t Ticket) (key string, err error)
	FetchPayload(ctx context.Context, key string) ([]byte, error)
}
