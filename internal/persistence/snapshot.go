// Package persistence reads and writes the durable snapshots of the two
// ledgers. Snapshots are full rewrites: every mutation serializes the whole
// in-memory collection again.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/ledger"
)

// photoEntry serializes as a [id, record] pair, the shape the existing
// confirmation snapshots use.
type photoEntry struct {
	ID     string
	Record *ledger.PhotoRecord
}

func (e photoEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{e.ID, e.Record})
}

func (e *photoEntry) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.ID); err != nil {
		return err
	}
	e.Record = &ledger.PhotoRecord{}
	return json.Unmarshal(raw[1], e.Record)
}

// confirmationSnapshot is the confirmation ledger resource: two named arrays
// of [id, record] pairs.
type confirmationSnapshot struct {
	Pending   []photoEntry `json:"fotosPendientes"`
	Confirmed []photoEntry `json:"fotosConfirmadas"`
}

// SnapshotStore persists the confirmation and return ledgers to two
// independent JSON files.
type SnapshotStore struct {
	confirmationsPath string
	returnsPath       string
	logger            *zap.Logger
}

// NewSnapshotStore creates a snapshot store for the given file paths.
func NewSnapshotStore(confirmationsPath, returnsPath string, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{
		confirmationsPath: confirmationsPath,
		returnsPath:       returnsPath,
		logger:            logger,
	}
}

// Load reads both snapshot resources. A missing file is not an error and
// yields an empty collection. A malformed file degrades to an empty
// collection for that resource only, with a warning; the other resource is
// unaffected.
func (s *SnapshotStore) Load() (pending, confirmed map[string]*ledger.PhotoRecord, returns map[string]*ledger.ReturnRecord) {
	pending = make(map[string]*ledger.PhotoRecord)
	confirmed = make(map[string]*ledger.PhotoRecord)
	returns = make(map[string]*ledger.ReturnRecord)

	if data, err := os.ReadFile(s.confirmationsPath); err == nil {
		var snap confirmationSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			s.logger.Warn("Malformed confirmation snapshot, starting empty",
				zap.String("path", s.confirmationsPath),
				zap.Error(err))
		} else {
			for _, entry := range snap.Pending {
				pending[entry.ID] = entry.Record
			}
			for _, entry := range snap.Confirmed {
				confirmed[entry.ID] = entry.Record
			}
		}
	} else if !os.IsNotExist(err) {
		s.logger.Warn("Failed to read confirmation snapshot",
			zap.String("path", s.confirmationsPath),
			zap.Error(err))
	}

	if data, err := os.ReadFile(s.returnsPath); err == nil {
		if err := json.Unmarshal(data, &returns); err != nil {
			s.logger.Warn("Malformed return snapshot, starting empty",
				zap.String("path", s.returnsPath),
				zap.Error(err))
			returns = make(map[string]*ledger.ReturnRecord)
		}
	} else if !os.IsNotExist(err) {
		s.logger.Warn("Failed to read return snapshot",
			zap.String("path", s.returnsPath),
			zap.Error(err))
	}

	s.logger.Info("Snapshots loaded",
		zap.Int("pending", len(pending)),
		zap.Int("confirmed", len(confirmed)),
		zap.Int("returns", len(returns)))

	return pending, confirmed, returns
}

// SaveConfirmations rewrites the confirmation ledger snapshot.
func (s *SnapshotStore) SaveConfirmations(pending, confirmed map[string]*ledger.PhotoRecord) error {
	snap := confirmationSnapshot{
		Pending:   toEntries(pending),
		Confirmed: toEntries(confirmed),
	}
	return s.writeAtomic(s.confirmationsPath, snap)
}

// SaveReturns rewrites the return ledger snapshot.
func (s *SnapshotStore) SaveReturns(returns map[string]*ledger.ReturnRecord) error {
	return s.writeAtomic(s.returnsPath, returns)
}

// toEntries flattens a ledger map into ID-sorted pairs so repeated saves of
// unchanged state produce identical bytes.
func toEntries(records map[string]*ledger.PhotoRecord) []photoEntry {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]photoEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, photoEntry{ID: id, Record: records[id]})
	}
	return entries
}

// writeAtomic writes JSON to a temp file in the target directory and renames
// it into place, so a crash mid-write never leaves a truncated snapshot.
func (s *SnapshotStore) writeAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	s.logger.Debug("Snapshot written",
		zap.String("path", path),
		zap.Int("size", len(data)))
	return nil
}
