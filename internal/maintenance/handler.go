package maintenance

import (
	"net/http"
	"strings"

	"github.com/luigy23/BackComandapp/internal/auth"
	"github.com/luigy23/BackComandapp/internal/observability"
	"github.com/luigy23/BackComandapp/internal/web"
)

// CleanupHandler is meant to be hit by a scheduled job. It drops login
// lockout entries whose block window already passed.
type CleanupHandler struct {
	attempts   *auth.AttemptTracker
	logger     *observability.Logger
	cronSecret string
}

func NewCleanupHandler(attempts *auth.AttemptTracker, logger *observability.Logger, cronSecret string) *CleanupHandler {
	return &CleanupHandler{
		attempts:   attempts,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Without a configured secret the endpoint does not exist.
	if h.cronSecret == "" {
		web.WriteError(w, http.StatusNotFound, "not found")
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		web.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	purged := h.attempts.PurgeExpired()

	h.logger.Info("lockout_cleanup_completed", map[string]any{
		"purged_entries": purged,
	})

	web.WriteJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"purged_entries": purged,
	})
}
