package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/examgen/internal/bank"
)

// GET /bank/items?topic=...&level=...&difficulty=...&limit=50
func ListBankItemsHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := bank.Filter{
			Topic:      strings.TrimSpace(r.URL.Query().Get("topic")),
			Level:      strings.TrimSpace(r.URL.Query().Get("level")),
			Difficulty: strings.TrimSpace(r.URL.Query().Get("difficulty")),
			Limit:      parseIntDefault(r.URL.Query().Get("limit"), 50),
		}
		list, err := store.List(r.Context(), f)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// POST /bank/items with a JSON array of items. IDs are generated server-side
// and the stored records are echoed back.
func InsertBankItemsHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []bank.Item
		if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
			http.Error(w, "invalid items: "+err.Error(), http.StatusBadRequest)
			return
		}
		for i := range items {
			if strings.TrimSpace(items[i].Text) == "" {
				http.Error(w, "item text required", http.StatusBadRequest)
				return
			}
			items[i].ID = ""
		}
		stored, err := store.Insert(r.Context(), items)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(stored)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
