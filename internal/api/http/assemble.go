package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/examgen/internal/assemble"
	"github.com/mind-engage/examgen/internal/audit"
	"github.com/mind-engage/examgen/internal/bank"
	"github.com/mind-engage/examgen/internal/gensvc"
	"github.com/mind-engage/examgen/internal/similarity"
)

// AssemblerDeps is everything an assembly run needs. Gen may be nil, in
// which case shortfalls go straight to the template fallback.
type AssemblerDeps struct {
	Store       bank.Store
	Gen         gensvc.Service
	Recorder    audit.Recorder
	Logger      *zap.Logger
	Threshold   float64
	RetryRounds int
}

// AssembleHandler runs one full assembly per request. Assemblers carry
// per-run duplicate state, so a fresh one is built every time.
func AssembleHandler(deps AssemblerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec assemble.Spec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			http.Error(w, "invalid spec: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(spec.Sections) == 0 || len(spec.Requirements) == 0 {
			http.Error(w, "spec needs at least one section and one requirement", http.StatusBadRequest)
			return
		}

		opts := []assemble.Option{
			assemble.WithRecorder(deps.Recorder),
			assemble.WithLogger(deps.Logger),
			assemble.WithRetryRounds(deps.RetryRounds),
		}
		if deps.Gen != nil {
			opts = append(opts, assemble.WithGenerator(deps.Gen))
		}
		if deps.Threshold > 0 {
			opts = append(opts, assemble.WithDetector(
				similarity.NewDetector(similarity.WithThreshold(deps.Threshold), similarity.WithLogger(deps.Logger))))
		}

		asm, err := assemble.New(deps.Store, opts...).Assemble(r.Context(), spec)
		if err != nil {
			http.Error(w, err.Error(), assembleStatus(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(asm)
	}
}

func assembleStatus(err error) int {
	var layoutErr *assemble.LayoutError
	var quotaErr *assemble.QuotaError
	var shortErr *assemble.ShortfallError
	switch {
	case errors.As(err, &layoutErr):
		return http.StatusBadRequest
	case errors.As(err, &quotaErr), errors.As(err, &shortErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, assemble.ErrBankUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
