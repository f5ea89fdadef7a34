package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/ledger"
)

func testLedgers(ts time.Time) (map[string]*ledger.PhotoRecord, map[string]*ledger.PhotoRecord, map[string]*ledger.ReturnRecord) {
	confirmedAt := ts.Add(time.Minute)
	pending := map[string]*ledger.PhotoRecord{
		"P1": {Timestamp: ts, Author: "Maria", FileName: "p.jpeg"},
	}
	confirmed := map[string]*ledger.PhotoRecord{
		"C1": {
			Timestamp:        ts,
			Author:           "Maria",
			FileName:         "c1.jpeg",
			Confirmer:        "Pedro",
			ConfirmedAt:      &confirmedAt,
			ConfirmationText: "va talla 41",
			Sizes:            []float64{41},
		},
		"C2": {Timestamp: ts.Add(time.Second), Author: "Luis", FileName: "c2.jpeg"},
	}
	returns := map[string]*ledger.ReturnRecord{
		"C2": {FileName: "c2.jpeg", ReturnedBy: "Usuario Bodega", ReturnedAt: ts, Observations: "dañado"},
	}
	return pending, confirmed, returns
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.Local)
	pending, confirmed, returns := testLedgers(now.Add(-time.Hour))

	r := Build(pending, confirmed, returns, now)

	assert.Equal(t, "2026-08-31", r.Date)
	assert.Equal(t, 2, r.TotalConfirmed)
	assert.Equal(t, 3, r.TotalReceived)
	assert.Equal(t, 1, r.TotalPending)
	assert.Equal(t, 1, r.TotalReturned)

	require.Len(t, r.Photos, 2)
	assert.Equal(t, "C1", r.Photos[0].ID)
	assert.False(t, r.Photos[0].Returned)
	assert.Empty(t, r.Photos[0].Observations)
	assert.Equal(t, "C2", r.Photos[1].ID)
	assert.True(t, r.Photos[1].Returned)
	assert.Equal(t, "dañado", r.Photos[1].Observations)
}

func TestGenerator_WritesBothRenderings(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.Local)

	g := NewGenerator(
		filepath.Join(dir, "json"),
		filepath.Join(dir, "html"),
		filepath.Join(dir, "media"),
		zap.NewNop(),
	).WithClock(func() time.Time { return now })

	pending, confirmed, returns := testLedgers(now.Add(-time.Hour))
	require.NoError(t, g.Generate(pending, confirmed, returns))

	jsonData, err := os.ReadFile(filepath.Join(dir, "json", "2026-08-31.json"))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonData, &decoded))
	assert.Equal(t, "2026-08-31", decoded["fechaReporte"])
	assert.EqualValues(t, 2, decoded["totalFotosConfirmadas"])
	assert.EqualValues(t, 1, decoded["fotosDevueltas"])

	htmlData, err := os.ReadFile(filepath.Join(dir, "html", "2026-08-31.html"))
	require.NoError(t, err)
	page := string(htmlData)
	assert.Contains(t, page, "Reporte Bodega - 2026-08-31")
	assert.Contains(t, page, "DEVUELTO")
	assert.Contains(t, page, "PENDIENTE DEVOLUCIÓN")
	assert.Contains(t, page, "marcarDevolucion")
	assert.Contains(t, page, "dañado")
}

func TestGenerator_IdempotentWithFrozenClock(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.Local)

	g := NewGenerator(
		filepath.Join(dir, "json"),
		filepath.Join(dir, "html"),
		filepath.Join(dir, "media"),
		zap.NewNop(),
	).WithClock(func() time.Time { return now })

	pending, confirmed, returns := testLedgers(now.Add(-time.Hour))

	require.NoError(t, g.Generate(pending, confirmed, returns))
	first, err := os.ReadFile(filepath.Join(dir, "json", "2026-08-31.json"))
	require.NoError(t, err)

	require.NoError(t, g.Generate(pending, confirmed, returns))
	second, err := os.ReadFile(filepath.Join(dir, "json", "2026-08-31.json"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerator_MediaURL(t *testing.T) {
	g := NewGenerator("", "", filepath.Join("data", "media"), zap.NewNop())

	url := g.mediaURL(filepath.Join("data", "media", "2026-08-31", "1.jpeg"), "1.jpeg")
	assert.Equal(t, "/media/2026-08-31/1.jpeg", url)

	// Paths outside the media root fall back to the file name
	url = g.mediaURL(filepath.Join("elsewhere", "1.jpeg"), "1.jpeg")
	assert.Equal(t, "/media/1.jpeg", url)
}
