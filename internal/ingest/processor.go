package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/ledger"
	"github.com/bodega55/fototrack/internal/storage"
	"github.com/bodega55/fototrack/internal/tracker"
)

// Processor routes chat events into the tracking engine. Only events from
// allowed groups are acted on; lifecycle transitions happen only for the
// confirmation group.
type Processor struct {
	engine            *tracker.Engine
	media             *storage.MediaStore
	messageLog        *storage.MessageLog
	fetcher           Fetcher
	allowedGroups     map[string]bool
	confirmationGroup string
	logger            *zap.Logger
}

// NewProcessor creates an event processor.
func NewProcessor(
	engine *tracker.Engine,
	media *storage.MediaStore,
	messageLog *storage.MessageLog,
	fetcher Fetcher,
	allowedGroups []string,
	confirmationGroup string,
	logger *zap.Logger,
) *Processor {
	allowed := make(map[string]bool, len(allowedGroups))
	for _, g := range allowedGroups {
		allowed[g] = true
	}
	return &Processor{
		engine:            engine,
		media:             media,
		messageLog:        messageLog,
		fetcher:           fetcher,
		allowedGroups:     allowed,
		confirmationGroup: confirmationGroup,
		logger:            logger,
	}
}

// Process handles one inbound event. A bad event is logged and dropped;
// processing of subsequent events is never affected.
func (p *Processor) Process(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic while processing event",
				zap.String("group", ev.GroupName),
				zap.Any("panic", r))
		}
	}()

	if !ev.IsGroup || !p.allowedGroups[ev.GroupName] {
		return
	}

	if ev.Body != "" {
		if err := p.messageLog.Append(ev.GroupName, ev.Sender(), ev.Body, ev.Timestamp); err != nil {
			p.logger.Warn("Failed to append message log",
				zap.String("group", ev.GroupName),
				zap.Error(err))
		}
	}

	switch {
	case ev.HasAttachment:
		p.handleAttachment(ctx, ev)
	case ev.GroupName == p.confirmationGroup:
		p.handleConfirmation(ctx, ev)
	}
}

func (p *Processor) handleAttachment(ctx context.Context, ev Event) {
	content, mimeType, err := p.fetcher.FetchAttachment(ctx, ev.MessageID)
	if err != nil {
		p.logger.Error("Failed to fetch attachment",
			zap.String("message_id", ev.MessageID),
			zap.Error(err))
		return
	}
	if mimeType == "" {
		mimeType = ev.AttachmentMime
	}

	fileName, fullPath, err := p.media.SaveAttachment(content, mimeType, ev.Timestamp)
	if err != nil {
		p.logger.Error("Failed to store attachment",
			zap.String("message_id", ev.MessageID),
			zap.Error(err))
		return
	}

	if ev.GroupName != p.confirmationGroup {
		return
	}

	id := ev.MessageID
	if id == "" {
		id = fmt.Sprintf("local_%s", uuid.NewString())
	}

	p.engine.RegisterPending(ctx, id, &ledger.PhotoRecord{
		Timestamp:  ev.Timestamp,
		Author:     ev.Sender(),
		Number:     ev.SenderNumber,
		Message:    ev.Body,
		FileName:   fileName,
		FilePath:   fullPath,
		FolderPath: filepath.Dir(fullPath),
		Caption:    ev.Body,
	})
}

func (p *Processor) handleConfirmation(ctx context.Context, ev Event) {
	req := tracker.ConfirmRequest{
		Message:         ev.Body,
		Confirmer:       ev.Sender(),
		ConfirmerNumber: ev.SenderNumber,
		Timestamp:       ev.Timestamp,
	}
	if ev.QuotedMessage != nil {
		req.PhotoID = ev.QuotedMessage.MessageID
		req.QuotedIsImage = ev.QuotedMessage.IsImage
	}
	p.engine.TryConfirm(ctx, req)
}
