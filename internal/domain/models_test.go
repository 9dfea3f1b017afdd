package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Event_ObjectKey(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantKey string
		wantErr bool
	}{
		{name: "valid", raw: `{"Records":[{"s3":{"object":{"key":"example.txt"}}}]}`, wantKey: "example.txt"},
		{name: "first record wins", raw: `{"Records":[{"s3":{"object":{"key":"a"}}},{"s3":{"object":{"key":"b"}}}]}`, wantKey: "a"},
		{name: "no records", raw: `{"Records":[]}`, wantErr: true},
		{name: "whitespace kept", raw: `{"Records":[{"s3":{"object":{"key":" a.txt "}}}]}`, wantKey: " a.txt "},
		{name: "missing key", raw: `{"Records":[{"s3":{"object":{}}}]}`, wantErr: true},
		{name: "empty object", raw: `{}`, wantErr: true},
		{name: "not json", raw: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseS3Event([]byte(tt.raw))
			if err == nil {
				var key string
				key, err = event.ObjectKey()
				if !tt.wantErr {
					require.NoError(t, err)
					assert.Equal(t, tt.wantKey, key)
					return
				}
			}
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

func TestNewS3Event_RoundTripsKey(t *testing.T) {
	event := NewS3Event("dir/report.csv", 42, "req-1")

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Records":[{`)

	key, err := event.ObjectKey()
	require.NoError(t, err)
	assert.Equal(t, "dir/report.csv", key)
}

func TestFormatProcessedTime(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 999, time.FixedZone("X", 3600))
	assert.Equal(t, "2026-03-04T04:06:07Z", FormatProcessedTime(ts))
}

func TestJSONResponse_KeepsFilenameVerbatim(t *testing.T) {
	resp := JSONResponse(200, FileMetadata{Filename: "a&b<c>.txt"})
	assert.Contains(t, resp.Body, `"filename": "a&b<c>.txt"`)
	assert.False(t, strings.HasSuffix(resp.Body, "\n"))

	resp = ErrorResponse(404, "File not found", map[string]string{"key": "x&y"})
	assert.Equal(t, `{"error":"File not found","key":"x&y"}`, resp.Body)
}

func TestFileMetadata_NullLineCount(t *testing.T) {
	raw, err := json.Marshal(FileMetadata{Filename: "a.bin", Status: StatusProcessed})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"line_count":null`)
}

func TestLooksLikeText(t *testing.T) {
	assert.True(t, LooksLikeText("a.bin", "text/plain"))
	assert.True(t, LooksLikeText("notes.MD", DefaultMimeType))
	assert.True(t, LooksLikeText("data.json", "application/json"))
	assert.False(t, LooksLikeText("image.png", "image/png"))
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse(404, "File not found", map[string]string{"key": "x"})
	assert.Equal(t, 404, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "File not found", body["error"])
	assert.Equal(t, "x", body["key"])
}
