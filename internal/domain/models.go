// internal/domain/models.go
package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// ProcessedTimeFormat is the layout of FileMetadata.ProcessedUTC.
const ProcessedTimeFormat = "2006-01-02T15:04:05Z"

// FileMetadata is the record the analyzer derives from a stored object
type FileMetadata struct {
	Filename     string `json:"filename" db:"filename"`
	SizeBytes    int64  `json:"size_bytes" db:"size_bytes"`
	MimeType     string `json:"mime_type" db:"mime_type"`
	SHA256       string `json:"sha256" db:"sha256"`
	LineCount    *int   `json:"line_count" db:"line_count"`
	ProcessedUTC string `json:"processed_utc" db:"processed_utc"`
	Status       string `json:"status" db:"status"`
}

// FormatProcessedTime renders t the way ProcessedUTC stores it.
func FormatProcessedTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(ProcessedTimeFormat)
}

// S3Event mirrors the notification payload an object-created trigger delivers
type S3Event struct {
	Records []S3EventRecord `json:"Records"`
}

type S3EventRecord struct {
	EventName string   `json:"eventName,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
	S3        S3Entity `json:"s3"`
}

type S3Entity struct {
	Object S3Object `json:"object"`
}

type S3Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size,omitempty"`
}

// NewS3Event builds a single-record ObjectCreated:Put event for key.
func NewS3Event(key string, size int64, requestID string) S3Event {
	return S3Event{Records: []S3EventRecord{{
		EventName: "ObjectCreated:Put",
		RequestID: requestID,
		S3:        S3Entity{Object: S3Object{Key: key, Size: size}},
	}}}
}

// ObjectKey returns the key of the first record, exactly as stored.
func (e S3Event) ObjectKey() (string, error) {
	if len(e.Records) == 0 {
		return "", ErrMalformedEvent
	}
	key := e.Records[0].S3.Object.Key
	if key == "" {
		return "", ErrMalformedEvent
	}
	return key, nil
}

// ParseS3Event decodes a raw event payload.
func ParseS3Event(raw []byte) (S3Event, error) {
	var event S3Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return S3Event{}, ErrMalformedEvent
	}
	return event, nil
}

// Response is a proxy-integration style result returned by handlers
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// JSONResponse marshals body with two-space indent.
func JSONResponse(statusCode int, body any) Response {
	payload, err := encodeBody(body, "  ")
	if err != nil {
		return Response{StatusCode: 500, Body: `{"error":"encode response"}`}
	}
	return Response{StatusCode: statusCode, Body: payload}
}

// ErrorResponse builds a {"error": message} body plus optional extra fields.
func ErrorResponse(statusCode int, message string, extra map[string]string) Response {
	body := map[string]string{"error": message}
	for k, v := range extra {
		body[k] = v
	}
	payload, _ := encodeBody(body, "")
	return Response{StatusCode: statusCode, Body: payload}
}

// encodeBody leaves &, < and > unescaped so filenames read back verbatim.
func encodeBody(body any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(body); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
