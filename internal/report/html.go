package report

import (
	"fmt"
	"html/template"
	"strings"
)

const timeDisplayFormat = "02/01/2006 15:04:05"

type card struct {
	Entry
	ImageURL    string
	RequestedAt string
	ConfirmedAt string
	SizesText   string
}

type pageData struct {
	Report
	UpdatedAt string
	Cards     []card
}

func (g *Generator) newPageData(r Report) pageData {
	data := pageData{
		Report:    r,
		UpdatedAt: r.UpdatedAt.Local().Format(timeDisplayFormat),
		Cards:     make([]card, 0, len(r.Photos)),
	}

	for _, entry := range r.Photos {
		c := card{
			Entry:       entry,
			ImageURL:    g.mediaURL(entry.FilePath, entry.FileName),
			RequestedAt: entry.Timestamp.Local().Format(timeDisplayFormat),
			SizesText:   formatSizes(entry.Sizes),
		}
		if entry.ConfirmedAt != nil {
			c.ConfirmedAt = entry.ConfirmedAt.Local().Format(timeDisplayFormat)
		} else {
			c.ConfirmedAt = "N/A"
		}
		data.Cards = append(data.Cards, c)
	}

	return data
}

func formatSizes(sizes []float64) string {
	if len(sizes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sizes))
	for _, s := range sizes {
		parts = append(parts, strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", s), "0"), "."))
	}
	return strings.Join(parts, ", ")
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Reporte {{.Date}}</title>
<style>
body{font-family:Arial;margin:20px;background:#f5f5f5}
.container{max-width:1100px;margin:0 auto;background:#fff;padding:20px;border-radius:8px}
.foto{border:1px solid #ddd;padding:10px;margin:10px 0;display:flex}
img{max-width:180px;margin-right:15px;border-radius:5px}
.info{flex:1}
.btn{padding:8px 12px;border-radius:6px;border:none;cursor:pointer;transition:all 0.3s}
.btn-devolver{background:#007bff;color:#fff}
.btn-devolver:hover{background:#0056b3}
.btn-devolver:disabled{background:#6c757d;cursor:not-allowed}
.btn-devuelto{background:#28a745;color:#fff;cursor:default}
.devuelta{border-color:#28a745;background:#f8fff9}
.observ{margin-top:8px;background:#fffbe6;padding:6px;border-radius:4px}
.resumen{display:flex;justify-content:space-around;margin:20px 0;background:#f8f9fa;padding:15px;border-radius:8px;text-align:center}
.resumen-item{flex:1}
.resumen-numero{font-size:24px;font-weight:bold}
.resumen-titulo{font-size:14px;color:#666}
.hora-info{font-size:12px;color:#666;margin:2px 0}
.estado-badge{padding:4px 8px;border-radius:4px;font-size:12px;font-weight:bold}
.estado-confirmada{background:#d1ecf1;color:#0c5460}
.estado-devuelta{background:#d4edda;color:#155724}
</style></head><body><div class="container">
<h1>Reporte Bodega - {{.Date}}</h1>
<p>Última actualización: {{.UpdatedAt}}</p>
<div class="resumen">
  <div class="resumen-item"><div class="resumen-numero" style="color:#17a2b8">{{.TotalReceived}}</div><div class="resumen-titulo">Total Recibidas</div></div>
  <div class="resumen-item"><div class="resumen-numero" style="color:#28a745">{{.TotalConfirmed}}</div><div class="resumen-titulo">Confirmadas</div></div>
  <div class="resumen-item"><div class="resumen-numero" style="color:#ffc107">{{.TotalPending}}</div><div class="resumen-titulo">Pendientes</div></div>
  <div class="resumen-item"><div class="resumen-numero" style="color:#dc3545">{{.TotalReturned}}</div><div class="resumen-titulo">Devueltas</div></div>
</div>
<h2>Fotos confirmadas ({{len .Cards}})</h2>
{{range .Cards}}
<div class="foto{{if .Returned}} devuelta{{end}}" id="foto-{{.ID}}">
  <img src="{{.ImageURL}}" alt="{{.FileName}}" onerror="this.style.display='none'">
  <div class="info">
    <div><strong>{{.FileName}}</strong>
      {{if .Returned}}<span class="estado-badge estado-devuelta">DEVUELTO</span>
      {{else}}<span class="estado-badge estado-confirmada">PENDIENTE DEVOLUCIÓN</span>{{end}}
    </div>
    <div class="hora-info">Solicitud: {{.RequestedAt}}</div>
    <div class="hora-info">Confirmación: {{.ConfirmedAt}}</div>
    <div>De: {{.Author}}</div>
    <div>Confirmó: {{.Confirmer}}</div>
    <div>Mensaje: {{.ConfirmationText}}</div>
    {{if .SizesText}}<div>Tallas: {{.SizesText}}</div>{{end}}
    {{if .Color}}<div>Color: {{.Color}}</div>{{end}}
    {{if .Observations}}<div class="observ"><strong>Observaciones:</strong> {{.Observations}}</div>{{end}}
    <div style="margin-top:8px">
      {{if .Returned}}<button class="btn btn-devuelto" disabled>Ya devuelto</button>
      {{else}}<button class="btn btn-devolver" onclick="marcarDevolucion('{{.ID}}', this)">Marcar como devuelto</button>{{end}}
    </div>
  </div>
</div>
{{end}}
<script>
async function marcarDevolucion(fotoId, boton){
  const obs = prompt('Ingresa observaciones (opcional):');
  if (obs === null) return;
  boton.disabled = true;
  boton.textContent = 'Procesando...';
  try {
    const respuesta = await fetch('/marcar-devolucion', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({fotoId: fotoId, observaciones: obs, usuario: 'Usuario Bodega'})
    });
    const resultado = await respuesta.json();
    if (resultado.success){
      boton.textContent = 'Devuelto';
      boton.className = 'btn btn-devuelto';
      document.getElementById('foto-' + fotoId).classList.add('devuelta');
      setTimeout(function(){ location.reload(); }, 1500);
    } else {
      alert('Error: ' + resultado.message);
      boton.disabled = false;
      boton.textContent = 'Marcar como devuelto';
    }
  } catch (error) {
    alert('Error de red: ' + error.message);
    boton.disabled = false;
    boton.textContent = 'Marcar como devuelto';
  }
}
</script>
</div></body></html>
`))
