package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/ledger"
)

// Generator writes the per-day report files. Both renderings are fully
// overwritten on each regeneration.
type Generator struct {
	jsonDir   string
	htmlDir   string
	mediaRoot string
	logger    *zap.Logger
	now       func() time.Time
}

// NewGenerator creates a report generator. mediaRoot is the directory the
// web server exposes under /media; stored file paths are rewritten relative
// to it when rendering image links.
func NewGenerator(jsonDir, htmlDir, mediaRoot string, logger *zap.Logger) *Generator {
	return &Generator{
		jsonDir:   jsonDir,
		htmlDir:   htmlDir,
		mediaRoot: mediaRoot,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the generator's clock. Used by tests to freeze the
// report date and timestamp.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate derives the report from the given ledger snapshots and writes
// both the JSON and HTML renderings for the current local day.
func (g *Generator) Generate(pending, confirmed map[string]*ledger.PhotoRecord, returns map[string]*ledger.ReturnRecord) error {
	r := Build(pending, confirmed, returns, g.now())

	if err := g.writeJSON(r); err != nil {
		return err
	}
	if err := g.writeHTML(r); err != nil {
		return err
	}

	g.logger.Info("Report generated",
		zap.String("date", r.Date),
		zap.Int("confirmed", r.TotalConfirmed),
		zap.Int("pending", r.TotalPending),
		zap.Int("returned", r.TotalReturned))
	return nil
}

func (g *Generator) writeJSON(r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.MkdirAll(g.jsonDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(g.jsonDir, r.Date+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (g *Generator) writeHTML(r Report) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, g.newPageData(r)); err != nil {
		return fmt.Errorf("failed to render report page: %w", err)
	}

	if err := os.MkdirAll(g.htmlDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(g.htmlDir, r.Date+".html")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report page: %w", err)
	}
	return nil
}

// mediaURL maps a stored file path to its /media URL. Falls back to the bare
// file name when the path is outside the media root.
func (g *Generator) mediaURL(filePath, fileName string) string {
	rel, err := filepath.Rel(g.mediaRoot, filePath)
	if err != nil || rel == "" || rel == "." || filepath.IsAbs(rel) || rel[0] == '.' {
		rel = fileName
	}
	return "/media/" + filepath.ToSlash(rel)
}
