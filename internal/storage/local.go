package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalBucket implements ObjectStorage on a directory, one file per key.
type LocalBucket struct {
	root string
}

// NewLocalBucket creates the bucket directory if needed.
func NewLocalBucket(root string) (*LocalBucket, error) {
	if root == "" {
		return nil, fmt.Errorf("bucket directory must be provided")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating bucket directory: %w", err)
	}
	return &LocalBucket{root: root}, nil
}

// Root returns the directory backing the bucket.
func (b *LocalBucket) Root() string {
	return b.root
}

func (b *LocalBucket) objectPath(key string) (string, error) {
	clean := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(clean) || filepath.Clean(clean) == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(b.root, clean), nil
}

// PutObject copies r into the bucket under key, replacing any previous object.
func (b *LocalBucket) PutObject(ctx context.Context, key string, r io.Reader) (ObjectInfo, error) {
	path, err := b.objectPath(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("failed creating directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("creating temp object: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ObjectInfo{}, fmt.Errorf("writing object %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ObjectInfo{}, fmt.Errorf("closing object %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return ObjectInfo{}, fmt.Errorf("committing object %s: %w", key, err)
	}

	return b.StatObject(ctx, key)
}

// StatObject returns the size and modification time of key.
func (b *LocalBucket) StatObject(ctx context.Context, key string) (ObjectInfo, error) {
	path, err := b.objectPath(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && fi.IsDir()) {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object %s: %w", key, err)
	}
	return ObjectInfo{Key: key, Size: fi.Size(), LastModified: fi.ModTime()}, nil
}

// GetObject opens key for reading. The caller closes the reader.
func (b *LocalBucket) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := b.StatObject(ctx, key); err != nil {
		return nil, err
	}
	path, _ := b.objectPath(key)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	return f, nil
}

// ListObjects walks the bucket and returns every key with the given prefix, sorted.
func (b *LocalBucket) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	results := make([]ObjectInfo, 0)
	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		results = append(results, ObjectInfo{Key: key, Size: fi.Size(), LastModified: fi.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Key < results[j].Key })
	return results, nil
}

var _ ObjectStorage = (*LocalBucket)(nil)
