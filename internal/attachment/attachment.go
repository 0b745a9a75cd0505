// Package attachment validates and classifies already uploaded files before
// they are folded into a chat message.
package attachment

import (
	"path/filepath"
	"strings"

	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
)

// DefaultMaxBytes is the upload ceiling (10 MiB).
const DefaultMaxBytes int64 = 10 * 1024 * 1024

var allowedMIME = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain":      {},
	"application/zip": {},
	"video/mp4":       {},
	"audio/mpeg":      {},
}

// Meta describes an uploaded object as reported by the client.
type Meta struct {
	URL  string `json:"url" validate:"required,url"`
	Name string `json:"name" validate:"required,max=255"`
	MIME string `json:"mime" validate:"required"`
	Size int64  `json:"size" validate:"gte=0"`
}

// Allowed reports whether mime is on the allow-list.
func Allowed(mime string) bool {
	_, ok := allowedMIME[normalize(mime)]
	return ok
}

// Validate enforces the size ceiling and the MIME allow-list.
func Validate(m Meta, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if m.URL == "" {
		return core.NewValidationError("file.url", "is required")
	}
	if m.Size > maxBytes {
		return core.NewValidationError("file.size", "exceeds the upload limit")
	}
	if !Allowed(m.MIME) {
		return core.NewValidationError("file.mime", "type not supported")
	}
	return nil
}

// Classify maps a MIME type onto the message and file kinds.
func Classify(mime string) (domain.MessageType, domain.FileType) {
	mime = normalize(mime)
	switch {
	case strings.HasPrefix(mime, "image/"):
		return domain.MessageImage, domain.FileImage
	case mime == "application/pdf":
		return domain.MessageFile, domain.FilePDF
	case strings.Contains(mime, "word"):
		return domain.MessageFile, domain.FileDoc
	default:
		return domain.MessageFile, domain.FileDocument
	}
}

// SanitizeName strips directory components from a client supplied name.
func SanitizeName(name string) string {
	clean := filepath.Base(filepath.Clean(strings.ReplaceAll(name, "\\", "/")))
	if clean == "." || clean == ".." || clean == "/" || clean == "" {
		return "unnamed"
	}
	return clean
}

// normalize drops MIME parameters such as "; charset=utf-8".
func normalize(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
