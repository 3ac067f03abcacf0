package proxy

import (
	"net/http"
	"time"

	"github.com/florianilch/groqway/internal/anthropicadapter"
)

// modelsHandler lists the single downstream model every request is served by.
// Clients that pick a model from /v1/models see what actually answers; the model
// they send in requests is ignored.
func modelsHandler(model string, createdAt time.Time) http.HandlerFunc {
	list := anthropicadapter.ModelList{
		Data: []anthropicadapter.ModelInfo{{
			ID:          model,
			Type:        "model",
			DisplayName: model,
			CreatedAt:   createdAt.UTC().Format(time.RFC3339),
		}},
		HasMore: false,
		FirstID: model,
		LastID:  model,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, list, http.StatusOK)
	}
}
