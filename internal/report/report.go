// Package report derives the daily JSON and HTML summaries from the current
// ledger state. Reports are point-in-time snapshots: they can always be
// recomputed from the two ledgers and are never authoritative.
package report

import (
	"sort"
	"time"

	"github.com/bodega55/fototrack/internal/ledger"
)

// Entry is one confirmed photo in the report, annotated with the derived
// returned flag and, when returned, the clerk's observations.
type Entry struct {
	ID string `json:"id"`
	ledger.PhotoRecord
	Returned     bool   `json:"devuelta"`
	Observations string `json:"observaciones,omitempty"`
}

// Report is the machine-readable daily summary. Field names match the format
// the warehouse tooling consumes. The counters span the entire live ledgers,
// not just entries created on the report date; historical records accumulate
// into the current day's report for as long as they stay in the ledgers.
type Report struct {
	Date           string    `json:"fechaReporte"`
	TotalConfirmed int       `json:"totalFotosConfirmadas"`
	TotalReceived  int       `json:"totalFotosRecibidas"`
	TotalPending   int       `json:"fotosNoConfirmadas"`
	TotalReturned  int       `json:"fotosDevueltas"`
	UpdatedAt      time.Time `json:"ultimaActualizacion"`
	Photos         []Entry   `json:"fotosConfirmadas"`
}

// Build derives a Report from ledger snapshots. The report date is the LOCAL
// calendar date of now. Entries are ordered by arrival time, then ID, so the
// output is stable for unchanged ledgers.
func Build(pending, confirmed map[string]*ledger.PhotoRecord, returns map[string]*ledger.ReturnRecord, now time.Time) Report {
	r := Report{
		Date:           now.Local().Format("2006-01-02"),
		TotalConfirmed: len(confirmed),
		TotalReceived:  len(confirmed) + len(pending),
		TotalPending:   len(pending),
		TotalReturned:  len(returns),
		UpdatedAt:      now,
		Photos:         make([]Entry, 0, len(confirmed)),
	}

	for id, rec := range confirmed {
		entry := Entry{ID: id, PhotoRecord: *rec}
		if ret, ok := returns[id]; ok {
			entry.Returned = true
			entry.Observations = ret.Observations
		}
		r.Photos = append(r.Photos, entry)
	}

	sort.Slice(r.Photos, func(i, j int) bool {
		if !r.Photos[i].Timestamp.Equal(r.Photos[j].Timestamp) {
			return r.Photos[i].Timestamp.Before(r.Photos[j].Timestamp)
		}
		return r.Photos[i].ID < r.Photos[j].ID
	})

	return r
}
