package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mind-engage/examgen/internal/audit"
	"github.com/mind-engage/examgen/internal/bank"
	"github.com/mind-engage/examgen/internal/similarity"
)

const auditScanLimit = 500

// GET /bank/audit?topic=... scores every pair of matching items. Quadratic,
// so the scan is capped; narrow by topic for large banks.
func BankAuditHandler(store bank.Store, det *similarity.Detector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.List(r.Context(), bank.Filter{
			Topic: strings.TrimSpace(r.URL.Query().Get("topic")),
			Limit: auditScanLimit,
		})
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		docs := make([]similarity.Doc, len(items))
		for i, it := range items {
			docs[i] = similarity.Doc{ID: it.ID, Text: it.Text}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(det.AuditBank(docs))
	}
}

// GET /bank/diversity?topic=... reports topic/level spread.
func BankDiversityHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.List(r.Context(), bank.Filter{
			Topic: strings.TrimSpace(r.URL.Query().Get("topic")),
			Limit: auditScanLimit,
		})
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		profiles := make([]similarity.Profile, len(items))
		for i, it := range items {
			profiles[i] = similarity.Profile{Topic: it.Topic, Level: it.CognitiveLevel}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(similarity.AnalyzeDiversity(profiles))
	}
}

// GET /events?limit=50 tails the assembly event log, newest first.
func EventsHandler(log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := log.Tail(r.Context(), parseIntDefault(r.URL.Query().Get("limit"), 50))
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(events)
	}
}
