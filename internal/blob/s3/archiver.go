package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/betswarm/betswarm/internal/domain"
)

// PayloadArchiver implements domain.PayloadArchiver. The raw platform
// response attached to each ticket is uploaded to cold storage, keyed by the
// round's date so a whole day's activity sits under one prefix:
//
//	rounds/2026-08-28/<round-id>/<ticket-id>.json
//
// The hot Postgres row keeps a copy too; the archive is the durable record
// once old raw_payload columns are pruned.
type PayloadArchiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
}

// NewPayloadArchiver creates a PayloadArchiver over the given blob writer
// and reader.
func NewPayloadArchiver(writer domain.BlobWriter, reader domain.BlobReader) *PayloadArchiver {
	return &PayloadArchiver{writer: writer, reader: reader}
}

// ArchiveTicket uploads the ticket's raw platform payload and returns the
// object key. Tickets without a payload (for example ones that failed before
// the platform responded) archive nothing and return an empty key.
func (a *PayloadArchiver) ArchiveTicket(ctx context.Context, t domain.Ticket) (string, error) {
	if len(t.RawPayload) == 0 {
		return "", nil
	}

	key := ticketPayloadKey(t)
	if err := a.writer.Put(ctx, key, bytes.NewReader(t.RawPayload), "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive ticket %s: %w", t.ID, err)
	}
	return key, nil
}

// FetchPayload downloads an archived payload by its key.
func (a *PayloadArchiver) FetchPayload(ctx context.Context, key string) ([]byte, error) {
	body, err := a.reader.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("s3blob: read payload %s: %w", key, err)
	}
	return data, nil
}

func ticketPayloadKey(t domain.Ticket) string {
	return fmt.Sprintf("rounds/%s/%s/%s.json", t.CreatedAt.UTC().Format("2006-01-02"), t.RoundID, t.ID)
}

// Compile-time interface check.
var _ domain.PayloadArchiver = (*PayloadArchiver)(nil)
