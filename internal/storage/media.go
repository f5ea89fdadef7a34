// Package storage writes received media files and the per-group message
// logs to disk.
package storage

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// SanitizeName returns a filesystem-safe version of a group or folder name.
// Path separators and parent references are stripped to prevent traversal.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	return unsafeChars.ReplaceAllString(name, "_")
}

// MediaStore saves attachment bytes under the media root.
type MediaStore struct {
	root   string
	logger *zap.Logger
}

// NewMediaStore creates a media store rooted at root.
func NewMediaStore(root string, logger *zap.Logger) *MediaStore {
	return &MediaStore{
		root:   root,
		logger: logger,
	}
}

// Root returns the media root directory.
func (s *MediaStore) Root() string {
	return s.root
}

// SaveAttachment writes attachment bytes under
// <root>/<localDate>/<epochMillis>.<ext> and returns the file name and full
// path. The extension is derived from the MIME type, falling back to "bin".
func (s *MediaStore) SaveAttachment(content []byte, mimeType string, receivedAt time.Time) (fileName, fullPath string, err error) {
	date := receivedAt.Local().Format("2006-01-02")
	dir := filepath.Join(s.root, date)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("Failed to create media directory",
			zap.String("path", dir),
			zap.Error(err))
		return "", "", fmt.Errorf("failed to create media directory: %w", err)
	}

	fileName = fmt.Sprintf("%d.%s", receivedAt.UnixMilli(), extensionFor(mimeType))
	fullPath = filepath.Join(dir, fileName)

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write media file",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", "", fmt.Errorf("failed to write media file: %w", err)
	}

	s.logger.Debug("Media file saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))
	return fileName, fullPath, nil
}

// extensionFor maps a MIME type to a file extension the way the chat media
// pipeline names files: the MIME subtype, "bin" when absent.
func extensionFor(mimeType string) string {
	if mimeType == "" {
		return "bin"
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	if idx := strings.Index(mimeType, "/"); idx >= 0 && idx+1 < len(mimeType) {
		return mimeType[idx+1:]
	}
	return "bin"
}
