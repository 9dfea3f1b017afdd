package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/serverless-sim/internal/domain"
	"github.com/andresuchdata/serverless-sim/internal/repository"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS file_metadata (
	id            BIGSERIAL PRIMARY KEY,
	filename      TEXT NOT NULL,
	size_bytes    BIGINT NOT NULL,
	mime_type     TEXT NOT NULL,
	sha256        TEXT NOT NULL,
	line_count    INTEGER,
	processed_utc TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS file_metadata_filename_idx ON file_metadata (filename, id DESC);
`

const selectColumns = `filename, size_bytes, mime_type, sha256, line_count, processed_utc, status`

type MetadataRepository struct {
	db *DB
}

func NewMetadataRepository(db *DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// EnsureSchema creates the table when it does not exist yet.
func (r *MetadataRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create file_metadata schema: %w", err)
	}
	return nil
}

func (r *MetadataRepository) PutItem(ctx context.Context, item *domain.FileMetadata) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO file_metadata (`+selectColumns+`)
			VALUES (:filename, :size_bytes, :mime_type, :sha256, :line_count, :processed_utc, :status)`, item)
		if err != nil {
			return fmt.Errorf("insert file_metadata %s: %w", item.Filename, err)
		}
		return nil
	})
}

func (r *MetadataRepository) ListItems(ctx context.Context) ([]*domain.FileMetadata, error) {
	items := make([]*domain.FileMetadata, 0)
	if err := r.db.SelectContext(ctx, &items, `SELECT `+selectColumns+` FROM file_metadata ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list file_metadata: %w", err)
	}
	return items, nil
}

func (r *MetadataRepository) GetItem(ctx context.Context, filename string) (*domain.FileMetadata, error) {
	var item domain.FileMetadata
	err := r.db.GetContext(ctx, &item,
		`SELECT `+selectColumns+` FROM file_metadata WHERE filename = $1 ORDER BY id DESC LIMIT 1`, filename)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrItemNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("get file_metadata %s: %w", filename, err)
	}
	return &item, nil
}

var _ repository.MetadataRepository = (*MetadataRepository)(nil)
