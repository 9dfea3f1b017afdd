package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBucket(t *testing.T) *LocalBucket {
	t.Helper()
	b, err := NewLocalBucket(filepath.Join(t.TempDir(), "s3", "uploads"))
	require.NoError(t, err)
	return b
}

func TestLocalBucket_PutStatGet(t *testing.T) {
	ctx := context.Background()
	b := newTestBucket(t)

	info, err := b.PutObject(ctx, "example.txt", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "example.txt", info.Key)
	assert.Equal(t, int64(11), info.Size)
	assert.False(t, info.LastModified.IsZero())

	rc, err := b.GetObject(ctx, "example.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestLocalBucket_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	b := newTestBucket(t)

	_, err := b.PutObject(ctx, "a.txt", strings.NewReader("first version"))
	require.NoError(t, err)
	info, err := b.PutObject(ctx, "a.txt", strings.NewReader("v2"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Size)

	entries, err := os.ReadDir(b.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalBucket_NestedKeys(t *testing.T) {
	ctx := context.Background()
	b := newTestBucket(t)

	_, err := b.PutObject(ctx, "reports/2026/q1.csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)
	_, err = b.PutObject(ctx, "z.txt", strings.NewReader("z"))
	require.NoError(t, err)

	all, err := b.ListObjects(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "reports/2026/q1.csv", all[0].Key)
	assert.Equal(t, "z.txt", all[1].Key)

	reports, err := b.ListObjects(ctx, "reports/")
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestLocalBucket_Errors(t *testing.T) {
	ctx := context.Background()
	b := newTestBucket(t)

	_, err := b.StatObject(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = b.GetObject(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	for _, key := range []string{"", ".", "a/..", "../escape.txt", "/etc/passwd", "a/../../b"} {
		_, err := b.PutObject(ctx, key, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	ep, secure := normalizeEndpoint("https://s3.example.com", false)
	assert.Equal(t, "s3.example.com", ep)
	assert.True(t, secure)

	ep, secure = normalizeEndpoint("http://localhost:9000", true)
	assert.Equal(t, "localhost:9000", ep)
	assert.False(t, secure)

	ep, secure = normalizeEndpoint("localhost:9000", true)
	assert.Equal(t, "localhost:9000", ep)
	assert.True(t, secure)
}
