package domain

import (
	"errors"
	"path/filepath"
	"strings"
)

const (
	StatusProcessed = "Processed"

	DefaultMimeType = "application/octet-stream"
)

var ErrMalformedEvent = errors.New("malformed event")

var textExtensions = map[string]struct{}{
	".txt":  {},
	".md":   {},
	".py":   {},
	".json": {},
	".csv":  {},
	".log":  {},
	".ini":  {},
	".cfg":  {},
}

// LooksLikeText reports whether an object should get a line count.
func LooksLikeText(name, mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	_, ok := textExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
