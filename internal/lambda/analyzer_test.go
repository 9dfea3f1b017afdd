package lambda

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/andresuchdata/serverless-sim/internal/domain"
	"github.com/andresuchdata/serverless-sim/internal/eventlog"
	"github.com/andresuchdata/serverless-sim/internal/repository/jsonfile"
	"github.com/andresuchdata/serverless-sim/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	bucket   *storage.LocalBucket
	store    *jsonfile.Store
	events   *eventlog.FileLog
	analyzer *Analyzer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	bucket, err := storage.NewLocalBucket(filepath.Join(dir, "s3", "uploads"))
	require.NoError(t, err)
	store := jsonfile.NewStore(filepath.Join(dir, "db", "dynamodb_mock.json"))
	events := eventlog.New(filepath.Join(dir, "logs", "lambda_output.log"))

	a := NewAnalyzer(bucket, store, nil, events)
	a.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 15, 500, time.UTC) }
	return &fixture{bucket: bucket, store: store, events: events, analyzer: a}
}

func (f *fixture) put(t *testing.T, key, content string) {
	t.Helper()
	_, err := f.bucket.PutObject(context.Background(), key, strings.NewReader(content))
	require.NoError(t, err)
}

func (f *fixture) messages(t *testing.T) []string {
	t.Helper()
	entries, err := f.events.Entries()
	require.NoError(t, err)
	msgs := make([]string, len(entries))
	for i, e := range entries {
		msgs[i] = e.Message
	}
	return msgs
}

func TestAnalyzer_HandleTextFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	content := "Hello from example.txt\nThis is a sample text file.\nLine 3.\n"
	f.put(t, "example.txt", content)

	resp := f.analyzer.Handle(ctx, domain.NewS3Event("example.txt", 0, "req-1"))
	require.Equal(t, 200, resp.StatusCode, resp.Body)

	var meta domain.FileMetadata
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &meta))
	sum := sha256.Sum256([]byte(content))

	assert.Equal(t, "example.txt", meta.Filename)
	assert.Equal(t, int64(len(content)), meta.SizeBytes)
	assert.Equal(t, "text/plain", meta.MimeType)
	assert.Equal(t, hex.EncodeToString(sum[:]), meta.SHA256)
	require.NotNil(t, meta.LineCount)
	assert.Equal(t, 3, *meta.LineCount)
	assert.Equal(t, "2026-10-14T09:30:15Z", meta.ProcessedUTC)
	assert.Equal(t, domain.StatusProcessed, meta.Status)
	assert.Contains(t, resp.Body, "\n  \"filename\"")

	items, err := f.store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, meta, *items[0])

	assert.Equal(t, []string{
		"DynamoDB PutItem filename='example.txt'",
		fmt.Sprintf("Lambda processed 'example.txt' (%d bytes, text/plain)", len(content)),
	}, f.messages(t))
}

func TestAnalyzer_HandleBinaryFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"
	f.put(t, "pixel.png", png)

	resp := f.analyzer.Handle(ctx, domain.NewS3Event("pixel.png", 0, ""))
	require.Equal(t, 200, resp.StatusCode, resp.Body)

	var meta domain.FileMetadata
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &meta))
	assert.Equal(t, "image/png", meta.MimeType)
	assert.Nil(t, meta.LineCount)
	assert.Contains(t, resp.Body, `"line_count": null`)
}

func TestAnalyzer_LineCountWithoutTrailingNewline(t *testing.T) {
	f := newFixture(t)
	f.put(t, "notes.md", "# title\nbody")

	meta, err := f.analyzer.Analyze(context.Background(), "notes.md")
	require.NoError(t, err)
	require.NotNil(t, meta.LineCount)
	assert.Equal(t, 2, *meta.LineCount)
}

func TestAnalyzer_EmptyTextFile(t *testing.T) {
	f := newFixture(t)
	f.put(t, "empty.txt", "")

	meta, err := f.analyzer.Analyze(context.Background(), "empty.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(0), meta.SizeBytes)
	require.NotNil(t, meta.LineCount)
	assert.Equal(t, 0, *meta.LineCount)
}

func TestAnalyzer_LargeFileSpansChunks(t *testing.T) {
	f := newFixture(t)
	content := strings.Repeat("0123456789abcdef\n", 2000)
	f.put(t, "big.log", content)

	meta, err := f.analyzer.Analyze(context.Background(), "big.log")
	require.NoError(t, err)
	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), meta.SHA256)
	assert.Equal(t, 2000, *meta.LineCount)
}

func TestAnalyzer_MalformedEvent(t *testing.T) {
	f := newFixture(t)

	resp := f.analyzer.Handle(context.Background(), domain.S3Event{})
	assert.Equal(t, 400, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Malformed event"}`, resp.Body)
	assert.Equal(t, []string{"Lambda received malformed event"}, f.messages(t))
}

func TestAnalyzer_MissingObject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp := f.analyzer.Handle(ctx, domain.NewS3Event("ghost.txt", 0, ""))
	assert.Equal(t, 404, resp.StatusCode)
	assert.JSONEq(t, `{"error":"File not found","key":"ghost.txt"}`, resp.Body)
	assert.Equal(t, []string{"Lambda file not found: ghost.txt"}, f.messages(t))

	items, err := f.store.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

type failingRepo struct{}

func (failingRepo) PutItem(ctx context.Context, item *domain.FileMetadata) error {
	return errors.New("disk full")
}

func (failingRepo) ListItems(ctx context.Context) ([]*domain.FileMetadata, error) {
	return nil, nil
}

func (failingRepo) GetItem(ctx context.Context, filename string) (*domain.FileMetadata, error) {
	return nil, nil
}

func TestAnalyzer_RepositoryFailure(t *testing.T) {
	f := newFixture(t)
	f.put(t, "a.txt", "a\n")
	f.analyzer.repo = failingRepo{}

	resp := f.analyzer.Handle(context.Background(), domain.NewS3Event("a.txt", 0, ""))
	assert.Equal(t, 500, resp.StatusCode)

	msgs := f.messages(t)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "disk full")
}

func TestAnalyzer_LineEndings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "lone carriage returns", content: "a\rb\rc\r", want: 3},
		{name: "crlf", content: "a\r\nb", want: 2},
		{name: "crlf terminated", content: "a\r\nb\r\n", want: 2},
		{name: "mixed", content: "a\nb\rc\r\nd", want: 4},
		{name: "blank cr lines", content: "\r\r\n", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.put(t, "lines.txt", tt.content)

			meta, err := f.analyzer.Analyze(context.Background(), "lines.txt")
			require.NoError(t, err)
			require.NotNil(t, meta.LineCount)
			assert.Equal(t, tt.want, *meta.LineCount)

			stats, err := scan(iotest.OneByteReader(strings.NewReader(tt.content)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, stats.lines, "byte-at-a-time reads")
		})
	}
}

func TestAnalyzer_EventLogFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, "a.txt", "a\n")

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	f.analyzer.events = eventlog.New(filepath.Join(blocker, "lambda_output.log"))

	resp := f.analyzer.Handle(ctx, domain.NewS3Event("a.txt", 0, ""))
	assert.Equal(t, 500, resp.StatusCode)
	assert.JSONEq(t, `{"error":"failed to write event log"}`, resp.Body)

	resp = f.analyzer.Handle(ctx, domain.S3Event{})
	assert.Equal(t, 500, resp.StatusCode)
}

func TestDetectMimeType(t *testing.T) {
	assert.Equal(t, "application/json", detectMimeType("d.json", []byte(`{"a": 1}`)))
	assert.Equal(t, "application/pdf", detectMimeType("x.bin", []byte("%PDF-1.4\n")))
	assert.Equal(t, "text/plain", detectMimeType("x", []byte("plain words\n")))
}
