package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mind-engage/examgen/internal/bank"
	"github.com/mind-engage/examgen/internal/coverage"
	"github.com/mind-engage/examgen/internal/taxonomy"
)

// GET /coverage?topic=... builds the level x dimension coverage grid for a
// topic (or the whole bank when topic is empty).
func CoverageHandler(store bank.Store, resolver *taxonomy.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := strings.TrimSpace(r.URL.Query().Get("topic"))
		grid, err := coverage.BuildFromStore(r.Context(), store, topic, resolver)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(grid)
	}
}
