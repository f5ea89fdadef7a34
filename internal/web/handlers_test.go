package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/ingest"
	"github.com/bodega55/fototrack/internal/ledger"
	"github.com/bodega55/fototrack/internal/persistence"
	"github.com/bodega55/fototrack/internal/report"
	"github.com/bodega55/fototrack/internal/storage"
	"github.com/bodega55/fototrack/internal/tracker"
)

type fixedFetcher struct{}

func (fixedFetcher) FetchAttachment(ctx context.Context, messageID string) ([]byte, string, error) {
	return []byte("img"), "image/jpeg", nil
}

func newTestServer(t *testing.T) (*Server, *tracker.Engine, string) {
	t.Helper()

	dir := t.TempDir()
	logger := zap.NewNop()

	mediaRoot := filepath.Join(dir, "media")
	htmlDir := filepath.Join(dir, "reportes_html")

	snapshots := persistence.NewSnapshotStore(
		filepath.Join(dir, "confirmaciones.json"),
		filepath.Join(dir, "devoluciones.json"),
		logger,
	)
	reports := report.NewGenerator(filepath.Join(dir, "reportes_json"), htmlDir, mediaRoot, logger)
	engine := tracker.NewEngine(ledger.NewStore(), snapshots, reports, nil, logger)

	processor := ingest.NewProcessor(
		engine,
		storage.NewMediaStore(mediaRoot, logger),
		storage.NewMessageLog(filepath.Join(dir, "logs"), logger),
		fixedFetcher{},
		[]string{"Entra/sale-bodega 55"},
		"Entra/sale-bodega 55",
		logger,
	)

	srv := NewServer(DefaultServerConfig(), engine, processor, mediaRoot, htmlDir, logger)
	return srv, engine, dir
}

func confirmPhoto(t *testing.T, engine *tracker.Engine, id string) {
	t.Helper()
	ctx := context.Background()
	ok := engine.RegisterPending(ctx, id, &ledger.PhotoRecord{
		Timestamp: time.Now(),
		Author:    "Maria",
		FileName:  "1000.jpeg",
	})
	require.True(t, ok)
	ok = engine.TryConfirm(ctx, tracker.ConfirmRequest{
		PhotoID:       id,
		QuotedIsImage: true,
		Message:       "va talla 38",
		Confirmer:     "Pedro",
		Timestamp:     time.Now(),
	})
	require.True(t, ok)
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestMarkReturn_Success(t *testing.T) {
	srv, engine, _ := newTestServer(t)
	confirmPhoto(t, engine, "F1")

	w := postJSON(srv.Router(), "/marcar-devolucion", MarkReturnRequest{
		PhotoID:      "F1",
		Observations: "caja dañada",
		User:         "Laura",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	returns := engine.Store().Returns()
	require.Contains(t, returns, "F1")
	assert.Equal(t, "Laura", returns["F1"].ReturnedBy)
	assert.Equal(t, "caja dañada", returns["F1"].Observations)
}

func TestMarkReturn_MissingID(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := postJSON(srv.Router(), "/marcar-devolucion", MarkReturnRequest{User: "Laura"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
}

func TestMarkReturn_UnknownPhoto(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := postJSON(srv.Router(), "/marcar-devolucion", MarkReturnRequest{PhotoID: "NOPE"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkReturn_PendingPhotoRejected(t *testing.T) {
	srv, engine, _ := newTestServer(t)
	engine.RegisterPending(context.Background(), "P1", &ledger.PhotoRecord{Timestamp: time.Now()})

	w := postJSON(srv.Router(), "/marcar-devolucion", MarkReturnRequest{PhotoID: "P1"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, engine.Store().Returns())
}

func TestMarkReturn_DefaultUser(t *testing.T) {
	srv, engine, _ := newTestServer(t)
	confirmPhoto(t, engine, "F1")

	w := postJSON(srv.Router(), "/marcar-devolucion", MarkReturnRequest{PhotoID: "F1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sistema Web", engine.Store().Returns()["F1"].ReturnedBy)
}

func TestInboundMessage_RegistersPhoto(t *testing.T) {
	srv, engine, _ := newTestServer(t)

	w := postJSON(srv.Router(), "/webhook/mensaje", ingest.Event{
		IsGroup:        true,
		GroupName:      "Entra/sale-bodega 55",
		SenderName:     "Maria",
		HasAttachment:  true,
		AttachmentMime: "image/jpeg",
		MessageID:      "A1",
		Timestamp:      time.Now(),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, engine.Store().Pending(), "A1")
}

func TestInboundMessage_MalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/mensaje", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportIndex_NewestFirst(t *testing.T) {
	srv, _, dir := newTestServer(t)
	htmlDir := filepath.Join(dir, "reportes_html")
	require.NoError(t, os.MkdirAll(htmlDir, 0o755))
	for _, name := range []string{"2026-08-29.html", "2026-08-31.html", "2026-08-30.html"} {
		require.NoError(t, os.WriteFile(filepath.Join(htmlDir, name), []byte("<html></html>"), 0o644))
	}

	req := httptest.NewRequest(http.MethodGet, "/reportes", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	first := bytes.Index([]byte(body), []byte("2026-08-31.html"))
	last := bytes.Index([]byte(body), []byte("2026-08-29.html"))
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, last, 0)
	assert.Less(t, first, last)
}

func TestLatestReport_Redirect(t *testing.T) {
	srv, _, dir := newTestServer(t)
	htmlDir := filepath.Join(dir, "reportes_html")
	require.NoError(t, os.MkdirAll(htmlDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(htmlDir, "2026-08-30.html"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(htmlDir, "2026-08-31.html"), []byte("x"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/reporte/2026-08-31.html", w.Header().Get("Location"))
}

func TestLatestReport_NoReports(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
