// internal/repository/metadata_repository.go
package repository

import (
	"context"
	"errors"

	"github.com/andresuchdata/serverless-sim/internal/domain"
)

var ErrItemNotFound = errors.New("item not found")

// MetadataRepository is the record store standing in for a DynamoDB table.
type MetadataRepository interface {
	PutItem(ctx context.Context, item *domain.FileMetadata) error
	ListItems(ctx context.Context) ([]*domain.FileMetadata, error)
	// GetItem returns the most recent record for filename.
	GetItem(ctx context.Context, filename string) (*domain.FileMetadata, error)
}
