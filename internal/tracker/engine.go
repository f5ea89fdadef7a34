// Package tracker drives the photo lifecycle: every mutation goes through
// the Engine, which applies it to the ledger store, rewrites the durable
// snapshots, records the transition, and regenerates the daily report.
package tracker

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/extractor"
	"github.com/bodega55/fototrack/internal/ledger"
	"github.com/bodega55/fototrack/internal/lifecycle"
	"github.com/bodega55/fototrack/internal/repository"
)

// confirmationTokens is the closed set of reviewer shorthands that start a
// confirmation message. Matching is a plain prefix check on the trimmed,
// lower-cased text, so "va talla 41" and "vale" both count as "va"/"v".
var confirmationTokens = []string{"v", "va", "c", "ca", "b", "ba", "vb", "vc", "bv", "bc"}

// IsConfirmationText reports whether the message starts with a valid
// confirmation token.
func IsConfirmationText(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	for _, token := range confirmationTokens {
		if strings.HasPrefix(text, token) {
			return true
		}
	}
	return false
}

// History is the subset of the transition audit trail the engine writes to.
type History interface {
	Record(t *repository.Transition) error
}

// Engine owns the mutation pipeline. Persistence, history, and report
// failures are logged and swallowed: durable state goes stale until the
// next successful mutation, but the in-memory ledgers stay authoritative
// and no caller ever sees a mutation fail for a downstream write.
//
// mu serializes each mutation together with its snapshot and report writes,
// so overlapping mutations can never persist out of order. The last
// completed mutation always owns the last write of the durable files.
type Engine struct {
	mu        sync.Mutex
	store     *ledger.Store
	snapshots Snapshots
	reports   Reports
	history   History
	logger    *zap.Logger
}

// Snapshots persists full rewrites of the two ledgers.
type Snapshots interface {
	SaveConfirmations(pending, confirmed map[string]*ledger.PhotoRecord) error
	SaveReturns(returns map[string]*ledger.ReturnRecord) error
}

// Reports regenerates the daily report from ledger snapshots.
type Reports interface {
	Generate(pending, confirmed map[string]*ledger.PhotoRecord, returns map[string]*ledger.ReturnRecord) error
}

// NewEngine creates a tracking engine. history may be nil when no audit
// trail is configured.
func NewEngine(store *ledger.Store, snapshots Snapshots, reports Reports, history History, logger *zap.Logger) *Engine {
	return &Engine{
		store:     store,
		snapshots: snapshots,
		reports:   reports,
		history:   history,
		logger:    logger,
	}
}

// Store exposes read access to the underlying ledger store.
func (e *Engine) Store() *ledger.Store {
	return e.store
}

// RegisterPending inserts a new pending photo. Duplicate delivery is a
// no-op; the return value reports whether the record was actually inserted.
func (e *Engine) RegisterPending(ctx context.Context, id string, rec *ledger.PhotoRecord) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.store.RegisterPending(id, rec) {
		e.logger.Debug("Duplicate attachment event ignored", zap.String("photo_id", id))
		return false
	}

	e.logger.Info("Photo pending confirmation",
		zap.String("photo_id", id),
		zap.String("file", rec.FileName),
		zap.String("author", rec.Author))

	e.recordTransition(id, rec.Author, "", lifecycle.StatePending, nil)
	e.persistConfirmations()
	e.regenerateReport()
	return true
}

// ConfirmRequest carries a candidate confirmation event.
type ConfirmRequest struct {
	PhotoID         string // ID of the replied-to message
	QuotedIsImage   bool   // whether the replied-to message carried an image
	Message         string
	Confirmer       string
	ConfirmerNumber string
	Timestamp       time.Time
}

// TryConfirm applies a confirmation if the message qualifies. No-match cases
// (wrong prefix, not a reply to an image, referenced photo not pending) are
// expected steady-state traffic and return false without logging noise.
func (e *Engine) TryConfirm(ctx context.Context, req ConfirmRequest) bool {
	if !IsConfirmationText(req.Message) {
		return false
	}
	if req.PhotoID == "" || !req.QuotedIsImage {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.store.IsPending(req.PhotoID) {
		return false
	}

	sizes, color := extractor.Extract(req.Message)
	err := e.store.Confirm(ctx, req.PhotoID, ledger.Confirmation{
		Confirmer:       req.Confirmer,
		ConfirmerNumber: req.ConfirmerNumber,
		Timestamp:       req.Timestamp,
		Message:         req.Message,
		Sizes:           sizes,
		Color:           color,
		Method:          ledger.MethodReply,
	})
	if err != nil {
		// Lost the race with another confirmation for the same ID.
		e.logger.Debug("Confirmation rejected",
			zap.String("photo_id", req.PhotoID),
			zap.Error(err))
		return false
	}

	e.logger.Info("Photo confirmed",
		zap.String("photo_id", req.PhotoID),
		zap.String("confirmer", req.Confirmer),
		zap.Float64s("sizes", sizes),
		zap.String("color", color))

	e.recordTransition(req.PhotoID, req.Confirmer, lifecycle.StatePending, lifecycle.StateConfirmed, map[string]interface{}{
		"tallas": sizes,
		"color":  color,
	})
	e.persistConfirmations()
	e.regenerateReport()
	return true
}

// MarkReturned records a return for a confirmed photo. The ledger error is
// returned so the reconciliation API can answer not-found; downstream write
// failures are still swallowed.
func (e *Engine) MarkReturned(ctx context.Context, id, user, observations string, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	previous, _ := e.store.StateOf(id)

	err := e.store.MarkReturned(ctx, id, &ledger.ReturnRecord{
		ReturnedBy:   user,
		ReturnedAt:   at,
		Observations: observations,
	})
	if err != nil {
		return err
	}

	e.logger.Info("Photo marked returned",
		zap.String("photo_id", id),
		zap.String("user", user))

	e.recordTransition(id, user, previous, lifecycle.StateReturned, map[string]interface{}{
		"observaciones": observations,
	})
	e.persistConfirmations()
	e.persistReturns()
	e.regenerateReport()
	return nil
}

// RegenerateReport rebuilds the daily report from current state. Called at
// startup so a restart refreshes today's report without waiting for traffic.
func (e *Engine) RegenerateReport() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.regenerateReport()
}

func (e *Engine) persistConfirmations() {
	if err := e.snapshots.SaveConfirmations(e.store.Pending(), e.store.Confirmed()); err != nil {
		e.logger.Error("Failed to persist confirmation ledger", zap.Error(err))
	}
}

func (e *Engine) persistReturns() {
	if err := e.snapshots.SaveReturns(e.store.Returns()); err != nil {
		e.logger.Error("Failed to persist return ledger", zap.Error(err))
	}
}

func (e *Engine) regenerateReport() {
	if err := e.reports.Generate(e.store.Pending(), e.store.Confirmed(), e.store.Returns()); err != nil {
		e.logger.Error("Failed to regenerate report", zap.Error(err))
	}
}

func (e *Engine) recordTransition(id, actor string, previous, next lifecycle.State, data map[string]interface{}) {
	if e.history == nil {
		return
	}

	actionData := ""
	if data != nil {
		if encoded, err := json.Marshal(data); err == nil {
			actionData = string(encoded)
		}
	}

	err := e.history.Record(&repository.Transition{
		PhotoID:       id,
		Actor:         actor,
		PreviousState: previous,
		NewState:      next,
		ActionData:    actionData,
	})
	if err != nil {
		e.logger.Error("Failed to record transition history",
			zap.String("photo_id", id),
			zap.Error(err))
	}
}
