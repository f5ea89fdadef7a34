// Package ledger holds the authoritative in-memory state of every tracked
// photo and its return record. All mutations go through the Store; no other
// code touches the underlying maps.
package ledger

import (
	"time"

	"github.com/bodega55/fototrack/internal/lifecycle"
)

// MethodReply tags confirmations made by replying to the original photo message.
const MethodReply = "con_reply"

// PhotoRecord is one tracked photo. The JSON tags match the snapshot format
// the warehouse tooling already consumes, so field names stay in Spanish on
// the wire. State is not serialized: the snapshot encodes it by partitioning
// records into pending and confirmed arrays.
type PhotoRecord struct {
	State lifecycle.State `json:"-"`

	Timestamp  time.Time `json:"timestamp"`
	Author     string    `json:"autor"`
	Number     string    `json:"numero"`
	Message    string    `json:"mensaje"`
	FileName   string    `json:"nombreArchivo"`
	FilePath   string    `json:"rutaArchivo"`
	FolderPath string    `json:"carpetaFecha"`
	Caption    string    `json:"caption"`

	// Set when the record is confirmed.
	Confirmer        string     `json:"confirmador,omitempty"`
	ConfirmerNumber  string     `json:"confirmadorNumero,omitempty"`
	ConfirmedAt      *time.Time `json:"confirmacionTimestamp,omitempty"`
	ConfirmationText string     `json:"mensajeConfirmacion,omitempty"`
	Sizes            []float64  `json:"tallas,omitempty"`
	Color            string     `json:"color,omitempty"`
	Method           string     `json:"metodo,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *PhotoRecord) Clone() *PhotoRecord {
	clone := *r
	if r.ConfirmedAt != nil {
		t := *r.ConfirmedAt
		clone.ConfirmedAt = &t
	}
	clone.Sizes = append([]float64(nil), r.Sizes...)
	return &clone
}

// ReturnRecord marks a confirmed photo as physically returned.
type ReturnRecord struct {
	FileName     string    `json:"nombreArchivo"`
	ReturnedBy   string    `json:"devueltaPor"`
	ReturnedAt   time.Time `json:"fechaDevolucion"`
	Observations string    `json:"observaciones"`
}

// Confirmation carries the reviewer identity and extracted metadata attached
// to a record when it moves from pending to confirmed.
type Confirmation struct {
	Confirmer       string
	ConfirmerNumber string
	Timestamp       time.Time
	Message         string
	Sizes           []float64
	Color           string
	Method          string
}
