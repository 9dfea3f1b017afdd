// internal/service/upload_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andresuchdata/serverless-sim/internal/cache"
	"github.com/andresuchdata/serverless-sim/internal/domain"
	"github.com/andresuchdata/serverless-sim/internal/repository"
	"github.com/andresuchdata/serverless-sim/internal/storage"
	"github.com/andresuchdata/serverless-sim/internal/workspace"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventHandler is the function triggered by an object-created event.
type EventHandler interface {
	Handle(ctx context.Context, event domain.S3Event) domain.Response
}

// EventLog is the readable, appendable event stream.
type EventLog interface {
	Append(msg string) error
	ReadAll() (string, error)
}

// UploadService plays the API gateway: it stores the object, then triggers the handler.
type UploadService struct {
	objects storage.ObjectStorage
	handler EventHandler
	repo    repository.MetadataRepository
	cache   cache.RecordCache
	events  EventLog
}

func NewUploadService(objects storage.ObjectStorage, handler EventHandler, repo repository.MetadataRepository, recordCache cache.RecordCache, events EventLog) *UploadService {
	if recordCache == nil {
		recordCache = cache.NewNoopRecordCache()
	}
	return &UploadService{
		objects: objects,
		handler: handler,
		repo:    repo,
		cache:   recordCache,
		events:  events,
	}
}

// UploadFile handles POST /upload for a file on the local disk.
func (s *UploadService) UploadFile(ctx context.Context, localPath string) domain.Response {
	fi, err := os.Stat(localPath)
	if err != nil || fi.IsDir() {
		return domain.Response{StatusCode: 400, Body: fmt.Sprintf("Local file not found: %s", localPath)}
	}

	f, err := os.Open(localPath)
	if err != nil {
		log.Error().Err(err).Str("path", localPath).Msg("failed to open local file")
		return domain.Response{StatusCode: 400, Body: fmt.Sprintf("Local file not found: %s", localPath)}
	}
	defer f.Close()

	return s.UploadReader(ctx, filepath.Base(localPath), f)
}

// UploadReader stores r under key and triggers the handler with an S3 event.
func (s *UploadService) UploadReader(ctx context.Context, key string, r io.Reader) domain.Response {
	info, err := s.objects.PutObject(ctx, key, r)
	if errors.Is(err, storage.ErrInvalidKey) {
		return domain.ErrorResponse(400, "Invalid key", map[string]string{"key": key})
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to put object")
		return domain.ErrorResponse(500, "failed to store object", map[string]string{"key": key})
	}
	if err := s.events.Append(fmt.Sprintf("S3 PutObject key='%s' size=%d bytes", key, info.Size)); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to append event log")
		return domain.ErrorResponse(500, "failed to write event log", map[string]string{"key": key})
	}

	requestID := uuid.NewString()
	log.Debug().Str("request_id", requestID).Str("key", key).Msg("triggering object-created handler")

	return s.handler.Handle(ctx, domain.NewS3Event(key, info.Size, requestID))
}

// RunDemo uploads every sample file once, in name order.
func (s *UploadService) RunDemo(ctx context.Context, samplesDir string) ([]domain.Response, error) {
	files, err := workspace.ListSamples(samplesDir)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.Response, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return responses, err
		}
		responses = append(responses, s.UploadFile(ctx, path))
	}
	return responses, nil
}

// Records returns every stored metadata record in insertion order.
func (s *UploadService) Records(ctx context.Context) ([]*domain.FileMetadata, error) {
	return s.repo.ListItems(ctx)
}

// Record returns the latest record for filename, consulting the cache first.
func (s *UploadService) Record(ctx context.Context, filename string) (*domain.FileMetadata, error) {
	if item, ok, err := s.cache.Get(ctx, filename); err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("record cache lookup failed")
	} else if ok {
		return item, nil
	}

	item, err := s.repo.GetItem(ctx, filename)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, item); err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("failed to cache record")
	}
	return item, nil
}

// Logs returns the raw event log.
func (s *UploadService) Logs() (string, error) {
	return s.events.ReadAll()
}

// Invoke runs the handler directly on a raw event payload. A payload that
// does not decode is handed over empty so the handler answers it as malformed.
func (s *UploadService) Invoke(ctx context.Context, raw []byte) domain.Response {
	event, err := domain.ParseS3Event(raw)
	if err != nil {
		log.Debug().Err(err).Msg("event payload did not decode")
		event = domain.S3Event{}
	}
	return s.handler.Handle(ctx, event)
}

// Objects lists what is currently stored in the bucket.
func (s *UploadService) Objects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return s.objects.ListObjects(ctx, prefix)
}

// FlushCache drops every cached record; the next lookup goes to the repository.
func (s *UploadService) FlushCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}
