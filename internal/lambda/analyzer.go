// Package lambda holds the function that runs when an object lands in the bucket.
package lambda

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/serverless-sim/internal/cache"
	"github.com/andresuchdata/serverless-sim/internal/domain"
	"github.com/andresuchdata/serverless-sim/internal/eventlog"
	"github.com/andresuchdata/serverless-sim/internal/repository"
	"github.com/andresuchdata/serverless-sim/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const (
	readChunkSize = 8192
	sniffLimit    = 3072
)

// Analyzer derives FileMetadata from stored objects and records it.
type Analyzer struct {
	objects storage.ObjectStorage
	repo    repository.MetadataRepository
	cache   cache.RecordCache
	events  eventlog.Sink
	now     func() time.Time
}

func NewAnalyzer(objects storage.ObjectStorage, repo repository.MetadataRepository, recordCache cache.RecordCache, events eventlog.Sink) *Analyzer {
	if recordCache == nil {
		recordCache = cache.NewNoopRecordCache()
	}
	return &Analyzer{
		objects: objects,
		repo:    repo,
		cache:   recordCache,
		events:  events,
		now:     time.Now,
	}
}

// Handle processes the first record of event and returns a proxy-style response.
// A failed event-log write turns any outcome into a 500.
func (a *Analyzer) Handle(ctx context.Context, event domain.S3Event) domain.Response {
	key, err := event.ObjectKey()
	if err != nil {
		return a.respond(domain.ErrorResponse(400, "Malformed event", nil), "Lambda received malformed event")
	}

	meta, err := a.Analyze(ctx, key)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return a.respond(domain.ErrorResponse(404, "File not found", map[string]string{"key": key}),
			fmt.Sprintf("Lambda file not found: %s", key))
	case errors.Is(err, storage.ErrInvalidKey):
		return a.respond(domain.ErrorResponse(400, "Invalid key", map[string]string{"key": key}),
			fmt.Sprintf("Lambda rejected invalid key: %s", key))
	case err != nil:
		log.Error().Err(err).Str("key", key).Msg("failed to analyze object")
		return a.respond(domain.ErrorResponse(500, err.Error(), nil),
			fmt.Sprintf("Lambda failed on '%s': %v", key, err))
	}

	if err := a.repo.PutItem(ctx, meta); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to put metadata item")
		return a.respond(domain.ErrorResponse(500, "failed to record metadata", nil),
			fmt.Sprintf("Lambda failed to record '%s': %v", key, err))
	}
	if err := a.emit(fmt.Sprintf("DynamoDB PutItem filename='%s'", meta.Filename)); err != nil {
		return eventLogFailure(err)
	}

	if err := a.cache.Set(ctx, meta); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache metadata item")
	}

	return a.respond(domain.JSONResponse(200, meta),
		fmt.Sprintf("Lambda processed '%s' (%d bytes, %s)", key, meta.SizeBytes, meta.MimeType))
}

// respond logs msg and returns resp, or a 500 when the log is unwritable.
func (a *Analyzer) respond(resp domain.Response, msg string) domain.Response {
	if err := a.emit(msg); err != nil {
		return eventLogFailure(err)
	}
	return resp
}

func eventLogFailure(err error) domain.Response {
	log.Error().Err(err).Msg("failed to append event log")
	return domain.ErrorResponse(500, "failed to write event log", nil)
}

// Analyze streams the object once, computing digest, line count and media type.
func (a *Analyzer) Analyze(ctx context.Context, key string) (*domain.FileMetadata, error) {
	info, err := a.objects.StatObject(ctx, key)
	if err != nil {
		return nil, err
	}

	rc, err := a.objects.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	stats, err := scan(rc)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}

	mimeType := detectMimeType(key, stats.header)
	meta := &domain.FileMetadata{
		Filename:     key,
		SizeBytes:    info.Size,
		MimeType:     mimeType,
		SHA256:       stats.digest,
		ProcessedUTC: domain.FormatProcessedTime(a.now()),
		Status:       domain.StatusProcessed,
	}
	if domain.LooksLikeText(key, mimeType) {
		lines := stats.lines
		meta.LineCount = &lines
	}
	return meta, nil
}

func (a *Analyzer) emit(msg string) error {
	if a.events == nil {
		return nil
	}
	return a.events.Append(msg)
}

type contentStats struct {
	digest string
	lines  int
	header []byte
}

func scan(r io.Reader) (contentStats, error) {
	h := sha256.New()
	header := make([]byte, 0, sniffLimit)
	buf := make([]byte, readChunkSize)

	var (
		lines    int
		total    int64
		lastByte byte
		prevCR   bool
	)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			h.Write(chunk)
			lines += countBreaks(chunk, prevCR)
			prevCR = chunk[n-1] == '\r'
			if room := sniffLimit - len(header); room > 0 {
				header = append(header, chunk[:min(room, n)]...)
			}
			total += int64(n)
			lastByte = chunk[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return contentStats{}, err
		}
	}

	// a trailing line without newline still counts
	if total > 0 && lastByte != '\n' && lastByte != '\r' {
		lines++
	}

	return contentStats{
		digest: hex.EncodeToString(h.Sum(nil)),
		lines:  lines,
		header: header,
	}, nil
}

// countBreaks counts \n, \r\n and lone \r as one break each. prevCR says the
// previous chunk ended in \r, so a leading \n completes that break.
func countBreaks(chunk []byte, prevCR bool) int {
	breaks := 0
	for i, c := range chunk {
		switch c {
		case '\r':
			breaks++
		case '\n':
			if (i == 0 && prevCR) || (i > 0 && chunk[i-1] == '\r') {
				continue
			}
			breaks++
		}
	}
	return breaks
}

// detectMimeType sniffs the content first and falls back to the extension table.
func detectMimeType(name string, header []byte) string {
	detected := mimetype.Detect(header)
	mediaType := stripParams(detected.String())
	if mediaType != "" && mediaType != domain.DefaultMimeType {
		return mediaType
	}
	if byExt := stripParams(mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))); byExt != "" {
		return byExt
	}
	return domain.DefaultMimeType
}

func stripParams(mediaType string) string {
	base, _, _ := strings.Cut(mediaType, ";")
	return strings.TrimSpace(base)
}
