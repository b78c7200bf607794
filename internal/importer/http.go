package importer

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/formloom/formloom/internal/apperr"
	"github.com/formloom/formloom/internal/auth"
	"github.com/formloom/formloom/internal/form"
	"github.com/formloom/formloom/internal/httpx"
	"github.com/formloom/formloom/internal/response"
)

// maxCSVBytes caps the multipart upload accepted by the CSV importer.
const maxCSVBytes = 10 << 20

const createAttempts = 3

// Handler exposes the import endpoints. They mount alongside the form
// CRUD routes behind the session middleware.
type Handler struct {
	store Store
	log   *zap.Logger
}

// NewHandler constructs an import Handler.
func NewHandler(store Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Mount registers the import routes on the provided router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/import-csv", h.importCSV)
	r.Post("/import-json", h.importJSON)
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	if err := r.ParseMultipartForm(maxCSVBytes); err != nil {
		httpx.Error(w, apperr.Validation("invalid multipart payload"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, apperr.Validation("file field is required"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxCSVBytes))
	if err != nil {
		httpx.Error(w, apperr.Internal("read upload", err))
		return
	}

	title := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	if strings.TrimSpace(title) == "" {
		title = "Imported Form"
	}

	entity, responses, err := NormalizeCSV(title, string(raw))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	entity.WorkspaceID = principal.WorkspaceID
	entity.CreatedByID = principal.UserID

	if err := h.persist(r, entity, responses); err != nil {
		httpx.Error(w, err)
		return
	}

	h.log.Info("CSV imported",
		zap.String("formId", entity.ID),
		zap.Int("questions", len(entity.Questions)),
		zap.Int("responses", len(responses)))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"form":          entity.ToDTO(),
		"responseCount": len(responses),
	})
}

func (h *Handler) importJSON(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var doc Document
	if err := decodeJSON(r, &doc); err != nil {
		httpx.Error(w, apperr.Validation(err.Error()))
		return
	}

	if violations := doc.Validate(); len(violations) > 0 {
		httpx.Error(w, apperr.Validation("invalid import document", violations...))
		return
	}

	entity := doc.ToForm()
	entity.WorkspaceID = principal.WorkspaceID
	entity.CreatedByID = principal.UserID

	if err := h.persist(r, entity, nil); err != nil {
		httpx.Error(w, err)
		return
	}

	h.log.Info("JSON imported",
		zap.String("formId", entity.ID),
		zap.Int("sections", len(entity.FormSections)))
	httpx.JSON(w, http.StatusCreated, entity.ToDTO())
}

// persist allocates a slug and writes form plus responses in one
// transaction, retrying when a concurrent create claims the slug between
// probe and write.
func (h *Handler) persist(r *http.Request, entity *form.Form, responses []response.Response) error {
	ctx := r.Context()
	base := form.Slugify(entity.Title)

	for attempt := 0; attempt < createAttempts; attempt++ {
		slug, err := form.AllocateSlug(ctx, h.store, base)
		if err != nil {
			if errors.Is(err, form.ErrSlugExhausted) {
				return apperr.Validation("could not allocate a unique slug")
			}
			return apperr.Internal("allocate slug", err)
		}

		entity.Slug = slug
		err = h.store.CreateFormWithResponses(ctx, entity, responses)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Internal("persist import", err)
		}
	}
	return apperr.Validation("could not allocate a unique slug")
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
