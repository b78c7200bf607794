package upload

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/formloom/formloom/internal/apperr"
	"github.com/formloom/formloom/internal/httpx"
)

// Handler accepts multipart uploads on behalf of public respondents.
type Handler struct {
	store *Store
	log   *zap.Logger
}

// NewHandler constructs an upload Handler.
func NewHandler(store *Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Upload stores the "file" part and returns its descriptor. The caller
// embeds the descriptor into a response answer.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.store.maxBytes); err != nil {
		httpx.Error(w, apperr.Validation("invalid multipart payload"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, apperr.Validation("file field is required"))
		return
	}
	defer file.Close()

	info, err := h.store.Save(file, header)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	h.log.Info("file uploaded",
		zap.String("name", info.Name),
		zap.Int64("size", info.Size))
	httpx.JSON(w, http.StatusCreated, info)
}
