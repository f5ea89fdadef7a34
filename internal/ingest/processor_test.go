package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/ledger"
	"github.com/bodega55/fototrack/internal/persistence"
	"github.com/bodega55/fototrack/internal/report"
	"github.com/bodega55/fototrack/internal/storage"
	"github.com/bodega55/fototrack/internal/tracker"
)

const (
	confirmationGroup = "Entra/sale-bodega 55"
	salesGroup        = "Ventas 55"
)

type stubFetcher struct {
	content []byte
	mime    string
	err     error
	calls   int
}

func (f *stubFetcher) FetchAttachment(ctx context.Context, messageID string) ([]byte, string, error) {
	f.calls++
	return f.content, f.mime, f.err
}

func newTestProcessor(t *testing.T, fetcher Fetcher) (*Processor, *tracker.Engine, string) {
	t.Helper()

	dir := t.TempDir()
	logger := zap.NewNop()

	snapshots := persistence.NewSnapshotStore(
		filepath.Join(dir, "confirmaciones.json"),
		filepath.Join(dir, "devoluciones.json"),
		logger,
	)
	reports := report.NewGenerator(
		filepath.Join(dir, "reportes_json"),
		filepath.Join(dir, "reportes_html"),
		filepath.Join(dir, "media"),
		logger,
	)
	engine := tracker.NewEngine(ledger.NewStore(), snapshots, reports, nil, logger)

	proc := NewProcessor(
		engine,
		storage.NewMediaStore(filepath.Join(dir, "media"), logger),
		storage.NewMessageLog(filepath.Join(dir, "logs"), logger),
		fetcher,
		[]string{confirmationGroup, salesGroup},
		confirmationGroup,
		logger,
	)
	return proc, engine, dir
}

func attachmentEvent(id, group string, ts time.Time) Event {
	return Event{
		IsGroup:        true,
		GroupName:      group,
		SenderName:     "Maria",
		SenderNumber:   "573001112233",
		HasAttachment:  true,
		AttachmentMime: "image/jpeg",
		MessageID:      id,
		Timestamp:      ts,
	}
}

func TestProcessor_IgnoresOtherTraffic(t *testing.T) {
	fetcher := &stubFetcher{content: []byte("img"), mime: "image/jpeg"}
	proc, engine, _ := newTestProcessor(t, fetcher)
	ctx := context.Background()

	// Direct message
	proc.Process(ctx, Event{IsGroup: false, GroupName: confirmationGroup, HasAttachment: true, MessageID: "D1", Timestamp: time.Now()})
	// Unknown group
	proc.Process(ctx, Event{IsGroup: true, GroupName: "Otro grupo", HasAttachment: true, MessageID: "D2", Timestamp: time.Now()})

	assert.Zero(t, fetcher.calls)
	assert.Empty(t, engine.Store().Pending())
}

func TestProcessor_RegistersPendingPhoto(t *testing.T) {
	fetcher := &stubFetcher{content: []byte("img"), mime: "image/jpeg"}
	proc, engine, dir := newTestProcessor(t, fetcher)
	ctx := context.Background()
	ts := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)

	proc.Process(ctx, attachmentEvent("A1", confirmationGroup, ts))

	pending := engine.Store().Pending()
	require.Contains(t, pending, "A1")
	assert.Equal(t, "Maria", pending["A1"].Author)

	// Media stored under <root>/<date>/<millis>.<ext>
	_, err := os.Stat(pending["A1"].FilePath)
	require.NoError(t, err)
	assert.Contains(t, pending["A1"].FilePath, filepath.Join(dir, "media", "2026-08-31"))
}

func TestProcessor_DuplicateAttachmentEventIsNoOp(t *testing.T) {
	fetcher := &stubFetcher{content: []byte("img"), mime: "image/jpeg"}
	proc, engine, _ := newTestProcessor(t, fetcher)
	ctx := context.Background()
	ts := time.Now()

	proc.Process(ctx, attachmentEvent("A1", confirmationGroup, ts))
	proc.Process(ctx, attachmentEvent("A1", confirmationGroup, ts))

	assert.Len(t, engine.Store().Pending(), 1)
}

func TestProcessor_SalesGroupMediaIsStoredButNotTracked(t *testing.T) {
	fetcher := &stubFetcher{content: []byte("img"), mime: "image/jpeg"}
	proc, engine, _ := newTestProcessor(t, fetcher)
	ctx := context.Background()

	proc.Process(ctx, attachmentEvent("S1", salesGroup, time.Now()))

	assert.Equal(t, 1, fetcher.calls)
	assert.Empty(t, engine.Store().Pending())
}

func TestProcessor_ConfirmationFlow(t *testing.T) {
	fetcher := &stubFetcher{content: []byte("img"), mime: "image/jpeg"}
	proc, engine, _ := newTestProcessor(t, fetcher)
	ctx := context.Background()
	ts := time.Now()

	proc.Process(ctx, attachmentEvent("A1", confirmationGroup, ts))

	proc.Process(ctx, Event{
		IsGroup:       true,
		GroupName:     confirmationGroup,
		SenderName:    "Pedro",
		Body:          "va talla 41",
		MessageID:     "M2",
		QuotedMessage: &QuotedRef{MessageID: "A1", IsImage: true},
		Timestamp:     ts.Add(time.Minute),
	})

	confirmed := engine.Store().Confirmed()
	require.Contains(t, confirmed, "A1")
	assert.Equal(t, []float64{41}, confirmed["A1"].Sizes)
	assert.Equal(t, "Pedro", confirmed["A1"].Confirmer)
}

func TestProcessor_ConfirmationWithoutReplyIgnored(t *testing.T) {
	fetcher := &stubFetcher{content: []byte("img"), mime: "image/jpeg"}
	proc, engine, _ := newTestProcessor(t, fetcher)
	ctx := context.Background()

	proc.Process(ctx, attachmentEvent("A1", confirmationGroup, time.Now()))
	proc.Process(ctx, Event{
		IsGroup:   true,
		GroupName: confirmationGroup,
		Body:      "va talla 41",
		Timestamp: time.Now(),
	})

	assert.Empty(t, engine.Store().Confirmed())
}

func TestProcessor_FetchFailureDropsEvent(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("transport gone")}
	proc, engine, _ := newTestProcessor(t, fetcher)
	ctx := context.Background()

	proc.Process(ctx, attachmentEvent("A1", confirmationGroup, time.Now()))

	assert.Empty(t, engine.Store().Pending())
}

func TestProcessor_AppendsMessageLog(t *testing.T) {
	fetcher := &stubFetcher{}
	proc, _, dir := newTestProcessor(t, fetcher)
	ctx := context.Background()
	ts := time.Date(2026, 8, 31, 9, 0, 0, 0, time.Local)

	proc.Process(ctx, Event{
		IsGroup:    true,
		GroupName:  salesGroup,
		SenderName: "Luis",
		Body:       "vendida la 38",
		Timestamp:  ts,
	})

	content, err := os.ReadFile(filepath.Join(dir, "logs", "Ventas_55", "2026-08-31.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Luis: vendida la 38")
}

func TestProcessor_FallbackPhotoID(t *testing.T) {
	fetcher := &stubFetcher{content: []byte("img"), mime: "image/jpeg"}
	proc, engine, _ := newTestProcessor(t, fetcher)
	ctx := context.Background()

	ev := attachmentEvent("", confirmationGroup, time.Now())
	proc.Process(ctx, ev)

	pending := engine.Store().Pending()
	require.Len(t, pending, 1)
	for id := range pending {
		assert.Contains(t, id, "local_")
	}
}
