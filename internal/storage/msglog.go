package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// MessageLog appends one line per chat message to a per-group daily log
// file. The line format is what the downstream sales analysis expects:
// "YYYY-MM-DD HH:MM:SS sender: body".
type MessageLog struct {
	root   string
	logger *zap.Logger
}

// NewMessageLog creates a message log rooted at root.
func NewMessageLog(root string, logger *zap.Logger) *MessageLog {
	return &MessageLog{
		root:   root,
		logger: logger,
	}
}

// PathFor returns the log file path for a group on a given local date.
func (l *MessageLog) PathFor(group string, date time.Time) string {
	return filepath.Join(l.root, SanitizeName(group), date.Local().Format("2006-01-02")+".txt")
}

// Append writes one message line to the group's daily log.
func (l *MessageLog) Append(group, sender, body string, at time.Time) error {
	path := l.PathFor(group, at)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open message log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s %s: %s\n", at.Local().Format("2006-01-02 15:04:05"), sender, body)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	l.logger.Debug("Message logged",
		zap.String("group", group),
		zap.String("sender", sender))
	return nil
}
