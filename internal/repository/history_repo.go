// Package repository persists the lifecycle transition audit trail.
package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/lifecycle"
)

// Transition is one recorded lifecycle transition for a photo.
type Transition struct {
	ID            int64
	PhotoID       string
	Actor         string
	PreviousState lifecycle.State
	NewState      lifecycle.State
	ActionData    string
	CreatedAt     time.Time
}

// HistoryRepository records lifecycle transitions in sqlite. The trail is
// append-only; nothing in the system updates or deletes rows.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends a transition row.
func (r *HistoryRepository) Record(t *Transition) error {
	query := `
		INSERT INTO photo_history (
			photo_id, actor, previous_state, new_state, action_data
		) VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		t.PhotoID,
		t.Actor,
		string(t.PreviousState),
		string(t.NewState),
		t.ActionData,
	)
	if err != nil {
		r.logger.Error("Failed to record transition",
			zap.String("photo_id", t.PhotoID),
			zap.Error(err))
		return fmt.Errorf("failed to record transition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	t.ID = id
	return nil
}

// GetByPhotoID retrieves all transitions for a photo, oldest first.
func (r *HistoryRepository) GetByPhotoID(photoID string) ([]*Transition, error) {
	query := `
		SELECT id, photo_id, actor, previous_state, new_state, action_data, created_at
		FROM photo_history
		WHERE photo_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, photoID)
	if err != nil {
		r.logger.Error("Failed to get history",
			zap.String("photo_id", photoID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var transitions []*Transition
	for rows.Next() {
		var t Transition
		var prev, next string
		if err := rows.Scan(&t.ID, &t.PhotoID, &t.Actor, &prev, &next, &t.ActionData, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		t.PreviousState = lifecycle.State(prev)
		t.NewState = lifecycle.State(next)
		transitions = append(transitions, &t)
	}

	return transitions, rows.Err()
}
