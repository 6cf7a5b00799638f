// Package adminapi exposes the single out-of-band write surface the core
// needs: triggering a schema refresh. It is deliberately plain net/http
// (DESIGN.md's Open Question decision: one endpoint, no routing
// library, no middleware stack needed for a single POST handler) rather
// than reaching for a web framework the rest of the pack doesn't carry for
// this concern.
package adminapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/paladugusuresh/graphrag/internal/config"
	"github.com/paladugusuresh/graphrag/internal/schema"
	"github.com/paladugusuresh/graphrag/internal/schemaembed"
)

// Refresher is the pair of refresh steps the admin endpoint drives: the
// allow-list snapshot (C1) and its derived vector index (C2).
type Refresher struct {
	Catalog  *schema.Catalog
	Embedder *schemaembed.Embedder
}

// Handler builds the admin mux. cfg gates write access: a request is
// rejected unless cfg.CanWrite() and the caller presents cfg.AdminToken.
func Handler(cfg *config.Config, refresher Refresher, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/schema/refresh", refreshHandler(cfg, refresher, logger))
	return mux
}

type refreshResponse struct {
	Changed bool `json:"changed"`
}

func refreshHandler(cfg *config.Config, refresher Refresher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !cfg.CanWrite() {
			http.Error(w, "admin surface disabled", http.StatusForbidden)
			return
		}
		if cfg.AdminToken == "" || r.Header.Get("X-Admin-Token") != cfg.AdminToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		allowList, changed, err := refresher.Catalog.Refresh(ctx)
		if err != nil {
			logger.Error("admin: schema catalog refresh failed", zap.Error(err))
			http.Error(w, "schema refresh failed", http.StatusServiceUnavailable)
			return
		}

		if changed {
			if err := refresher.Embedder.Refresh(ctx, allowList); err != nil {
				logger.Error("admin: schema embedding refresh failed", zap.Error(err))
				http.Error(w, "schema embedding refresh failed", http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(refreshResponse{Changed: changed})
	}
}
