package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/formloom/formloom/internal/apperr"
	"github.com/formloom/formloom/internal/auth"
	"github.com/formloom/formloom/internal/form"
	"github.com/formloom/formloom/internal/httpx"
)

// FileRemover deletes a stored upload by its public URL. Cleanup through
// it is best-effort only.
type FileRemover interface {
	Remove(url string) error
}

// Handler exposes the public submission endpoint and the private
// listing/deletion surface.
type Handler struct {
	collector *Collector
	repo      Repository
	forms     FormSource
	files     FileRemover
	log       *zap.Logger
}

// NewHandler constructs a response Handler.
func NewHandler(collector *Collector, repo Repository, forms FormSource, files FileRemover, log *zap.Logger) *Handler {
	return &Handler{collector: collector, repo: repo, forms: forms, files: files, log: log}
}

// Mount registers the authenticated response routes on the provided
// router. SubmitPublic is exported separately so the server can place it
// outside the session middleware.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.listByForm)
	r.Delete("/", h.bulkDelete)
	r.Delete("/{id}", h.deleteOne)
}

type submitRequest struct {
	FormID    string         `json:"formId"`
	Data      map[string]any `json:"data"`
	Metadata  map[string]any `json:"metadata"`
	TimeSpent int            `json:"timeSpent"`
}

// SubmitPublic accepts an unauthenticated submission against a published
// form.
func (h *Handler) SubmitPublic(w http.ResponseWriter, r *http.Request) {
	var payload submitRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.Error(w, apperr.Validation(err.Error()))
		return
	}
	if payload.FormID == "" {
		httpx.Error(w, apperr.Validation("formId is required"))
		return
	}
	if payload.Data == nil {
		payload.Data = map[string]any{}
	}

	submission, err := h.collector.Submit(r.Context(), payload.FormID, payload.Data, payload.Metadata, payload.TimeSpent)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	h.log.Info("response submitted",
		zap.String("responseId", submission.ID),
		zap.String("formId", submission.FormID))
	httpx.JSON(w, http.StatusCreated, submission.ToDTO())
}

func (h *Handler) listByForm(w http.ResponseWriter, r *http.Request) {
	owned, err := h.findOwnedForm(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	responses, err := h.repo.ListByForm(r.Context(), owned.ID)
	if err != nil {
		httpx.Error(w, apperr.Internal("list responses", err))
		return
	}

	items := make([]map[string]any, 0, len(responses))
	for _, entity := range responses {
		items = append(items, entity.ToDTO())
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	owned, err := h.findOwnedForm(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	deleted, err := h.repo.DeleteByForm(r.Context(), owned.ID)
	if err != nil {
		httpx.Error(w, apperr.Internal("delete responses", err))
		return
	}

	h.log.Info("responses deleted", zap.String("formId", owned.ID), zap.Int64("count", deleted))
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *Handler) deleteOne(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	id := chi.URLParam(r, "id")

	entity, err := h.repo.Find(r.Context(), id)
	if err != nil {
		if IsNotFound(err) {
			httpx.Error(w, apperr.NotFound("response not found"))
			return
		}
		httpx.Error(w, apperr.Internal("fetch response", err))
		return
	}

	parent, err := h.forms.Find(r.Context(), entity.FormID)
	if err != nil {
		if form.IsNotFound(err) {
			httpx.Error(w, apperr.NotFound("form not found"))
			return
		}
		httpx.Error(w, apperr.Internal("fetch form", err))
		return
	}
	if !auth.Authorize(principal.WorkspaceID, parent.WorkspaceID) {
		httpx.Error(w, apperr.Forbidden("response belongs to another workspace"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if IsNotFound(err) {
			httpx.Error(w, apperr.NotFound("response not found"))
			return
		}
		httpx.Error(w, apperr.Internal("delete response", err))
		return
	}

	// Uploaded-file cleanup is best-effort: the record is already gone and
	// a failed blob deletion must not resurrect the request.
	h.cleanupFiles(entity)

	httpx.JSON(w, http.StatusOK, nil)
}

// cleanupFiles scans answer values for file-shaped objects ({url, name})
// and removes the referenced uploads.
func (h *Handler) cleanupFiles(entity *Response) {
	if h.files == nil {
		return
	}
	for _, value := range entity.Data {
		switch v := value.(type) {
		case map[string]any:
			h.removeIfFile(entity.ID, v)
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					h.removeIfFile(entity.ID, m)
				}
			}
		}
	}
}

func (h *Handler) removeIfFile(responseID string, value map[string]any) {
	url, hasURL := value["url"].(string)
	_, hasName := value["name"].(string)
	if !hasURL || !hasName || url == "" {
		return
	}
	if err := h.files.Remove(url); err != nil {
		h.log.Warn("upload cleanup failed",
			zap.String("responseId", responseID),
			zap.String("url", url),
			zap.Error(err))
	}
}

// findOwnedForm resolves ?formId= and applies the access gate.
func (h *Handler) findOwnedForm(r *http.Request) (*form.Form, error) {
	principal, _ := auth.PrincipalFrom(r.Context())

	formID := r.URL.Query().Get("formId")
	if formID == "" {
		return nil, apperr.Validation("formId query parameter is required")
	}

	entity, err := h.forms.Find(r.Context(), formID)
	if err != nil {
		if form.IsNotFound(err) {
			return nil, apperr.NotFound("form not found")
		}
		return nil, apperr.Internal("fetch form", err)
	}
	if !auth.Authorize(principal.WorkspaceID, entity.WorkspaceID) {
		return nil, apperr.Forbidden("form belongs to another workspace")
	}
	return entity, nil
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
