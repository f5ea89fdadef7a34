package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/ingest"
	"github.com/bodega55/fototrack/internal/ledger"
	"github.com/bodega55/fototrack/internal/lifecycle"
	"github.com/bodega55/fototrack/internal/tracker"
)

// Handlers contains all HTTP request handlers.
type Handlers struct {
	engine        *tracker.Engine
	processor     *ingest.Processor
	reportHTMLDir string
	logger        *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(engine *tracker.Engine, processor *ingest.Processor, reportHTMLDir string, logger *zap.Logger) *Handlers {
	return &Handlers{
		engine:        engine,
		processor:     processor,
		reportHTMLDir: reportHTMLDir,
		logger:        logger,
	}
}

// MarkReturnRequest is the body of POST /marcar-devolucion.
type MarkReturnRequest struct {
	PhotoID      string `json:"fotoId"`
	Observations string `json:"observaciones"`
	User         string `json:"usuario"`
}

// StatusResponse is the envelope for mutation endpoints.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// MarkReturn handles POST /marcar-devolucion.
func (h *Handlers) MarkReturn(c *gin.Context) {
	var req MarkReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StatusResponse{
			Success: false,
			Message: "cuerpo de solicitud inválido",
		})
		return
	}

	if req.PhotoID == "" {
		c.JSON(http.StatusBadRequest, StatusResponse{
			Success: false,
			Message: "fotoId es requerido",
		})
		return
	}

	user := req.User
	if user == "" {
		user = "Sistema Web"
	}

	err := h.engine.MarkReturned(c.Request.Context(), req.PhotoID, user, req.Observations, time.Now())
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, lifecycle.ErrInvalidTransition) {
			c.JSON(http.StatusNotFound, StatusResponse{
				Success: false,
				Message: "foto no encontrada en las confirmadas",
			})
			return
		}
		h.logger.Error("Failed to mark return",
			zap.String("photo_id", req.PhotoID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, StatusResponse{
			Success: false,
			Message: "error interno",
		})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Success: true})
}

// InboundMessage handles POST /webhook/mensaje. The transport pushes chat
// events here; a malformed body is the only client error, everything else
// is accepted and handled asynchronously from the transport's view.
func (h *Handlers) InboundMessage(c *gin.Context) {
	var ev ingest.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, StatusResponse{
			Success: false,
			Message: "evento inválido",
		})
		return
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	h.processor.Process(c.Request.Context(), ev)
	c.JSON(http.StatusOK, StatusResponse{Success: true})
}

var reportIndexTemplate = template.Must(template.New("reportes").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="UTF-8">
<title>Reportes de Fotos</title>
<style>
body { font-family: Arial, sans-serif; background-color: #f4f4f9; margin: 40px; }
h1 { color: #333; }
ul { list-style: none; padding: 0; }
li { margin: 8px 0; }
a { color: #0066cc; text-decoration: none; font-size: 18px; }
a:hover { text-decoration: underline; }
</style>
</head>
<body>
<h1>📊 Reportes disponibles</h1>
{{if .Reports}}
<ul>
{{range .Reports}}<li><a href="/reporte/{{.}}">{{.}}</a></li>
{{end}}</ul>
{{else}}
<p>No hay reportes generados todavía.</p>
{{end}}
</body>
</html>
`))

// reportFiles lists the generated report pages, newest first.
func (h *Handlers) reportFiles() ([]string, error) {
	entries, err := os.ReadDir(h.reportHTMLDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		names = append(names, e.Name())
	}
	// Report names are date-prefixed, so lexical order is chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// ReportIndex handles GET /reportes.
func (h *Handlers) ReportIndex(c *gin.Context) {
	names, err := h.reportFiles()
	if err != nil {
		h.logger.Error("Failed to list reports", zap.Error(err))
		c.String(http.StatusInternalServerError, "error interno")
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := reportIndexTemplate.Execute(c.Writer, gin.H{"Reports": names}); err != nil {
		h.logger.Error("Failed to render report index", zap.Error(err))
	}
}

// LatestReport handles GET /, redirecting to the newest report page.
func (h *Handlers) LatestReport(c *gin.Context) {
	names, err := h.reportFiles()
	if err != nil {
		h.logger.Error("Failed to list reports", zap.Error(err))
		c.String(http.StatusInternalServerError, "error interno")
		return
	}
	if len(names) == 0 {
		c.String(http.StatusOK, "No hay reportes generados todavía.")
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/reporte/%s", names[0]))
}
