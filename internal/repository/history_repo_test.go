package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/lifecycle"
	"github.com/bodega55/fototrack/pkg/database"
)

func newTestRepo(t *testing.T) *HistoryRepository {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations())

	return NewHistoryRepository(db.DB, logger)
}

func TestHistoryRepository_RecordAndGet(t *testing.T) {
	repo := newTestRepo(t)

	first := &Transition{
		PhotoID:       "A1",
		Actor:         "Pedro",
		PreviousState: lifecycle.StatePending,
		NewState:      lifecycle.StateConfirmed,
		ActionData:    `{"tallas":[41]}`,
	}
	require.NoError(t, repo.Record(first))
	assert.NotZero(t, first.ID)

	second := &Transition{
		PhotoID:       "A1",
		Actor:         "Usuario Bodega",
		PreviousState: lifecycle.StateConfirmed,
		NewState:      lifecycle.StateReturned,
	}
	require.NoError(t, repo.Record(second))

	transitions, err := repo.GetByPhotoID("A1")
	require.NoError(t, err)
	require.Len(t, transitions, 2)

	assert.Equal(t, lifecycle.StatePending, transitions[0].PreviousState)
	assert.Equal(t, lifecycle.StateConfirmed, transitions[0].NewState)
	assert.Equal(t, `{"tallas":[41]}`, transitions[0].ActionData)
	assert.Equal(t, lifecycle.StateReturned, transitions[1].NewState)
	assert.False(t, transitions[1].CreatedAt.IsZero())
}

func TestHistoryRepository_GetUnknownPhoto(t *testing.T) {
	repo := newTestRepo(t)

	transitions, err := repo.GetByPhotoID("missing")
	require.NoError(t, err)
	assert.Empty(t, transitions)
}
