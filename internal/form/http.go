package form

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/formloom/formloom/internal/apperr"
	"github.com/formloom/formloom/internal/auth"
	"github.com/formloom/formloom/internal/events"
	"github.com/formloom/formloom/internal/httpx"
	"github.com/formloom/formloom/internal/question"
)

// createAttempts caps slug re-allocation retries when a concurrent create
// wins the race and the unique index rejects the write.
const createAttempts = 3

// ResponsePurger removes all responses of a form; form deletion cascades
// through it.
type ResponsePurger interface {
	DeleteByForm(ctx context.Context, formID string) (int64, error)
}

// Handler exposes the private form CRUD surface plus the public
// fetch-by-slug endpoint.
type Handler struct {
	repo      Repository
	purger    ResponsePurger
	publisher *events.Publisher
	log       *zap.Logger
}

// NewHandler constructs a Handler backed by the provided repository.
func NewHandler(repo Repository, purger ResponsePurger, publisher *events.Publisher, log *zap.Logger) *Handler {
	return &Handler{repo: repo, purger: purger, publisher: publisher, log: log}
}

// Mount registers the authenticated form routes on the provided router.
// The public slug endpoint is exported separately so the server can place
// it outside the session middleware.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.listForms)
	r.Post("/", h.createForm)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.getForm)
		r.Put("/", h.updateForm)
		r.Delete("/", h.deleteForm)
		r.Post("/duplicate", h.duplicateForm)
	})
}

type createFormRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Questions   []question.Question `json:"questions"`
	Settings    map[string]any      `json:"settings"`
	Theme       map[string]any      `json:"theme"`
}

type updateFormRequest struct {
	Title          *string              `json:"title"`
	Description    *string              `json:"description"`
	Status         *string              `json:"status"`
	Slug           *string              `json:"slug"`
	Questions      *[]question.Question `json:"questions"`
	FormSections   *[]Section           `json:"formSections"`
	Settings       map[string]any       `json:"settings"`
	Theme          map[string]any       `json:"theme"`
	WelcomeScreen  map[string]any       `json:"welcomeScreen"`
	ThankYouScreen map[string]any       `json:"thankYouScreen"`
}

func (h *Handler) listForms(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	forms, err := h.repo.List(r.Context(), principal.WorkspaceID)
	if err != nil {
		httpx.Error(w, apperr.Internal("list forms", err))
		return
	}

	items := make([]map[string]any, 0, len(forms))
	for _, entity := range forms {
		items = append(items, entity.ToDTO())
	}

	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var payload createFormRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.Error(w, apperr.Validation(err.Error()))
		return
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		title = "Untitled Form"
	}

	entity := &Form{
		Title:       title,
		Description: strings.TrimSpace(payload.Description),
		Status:      StatusDraft,
		Questions:   payload.Questions,
		WorkspaceID: principal.WorkspaceID,
		CreatedByID: principal.UserID,
	}
	if payload.Settings != nil {
		entity.Settings = datatypes.JSONMap(payload.Settings)
	}
	if payload.Theme != nil {
		entity.Theme = datatypes.JSONMap(payload.Theme)
	}

	if err := h.createWithSlug(r.Context(), entity, Slugify(title)); err != nil {
		httpx.Error(w, err)
		return
	}

	h.log.Info("form created",
		zap.String("formId", entity.ID),
		zap.String("slug", entity.Slug),
		zap.String("workspaceId", entity.WorkspaceID))
	httpx.JSON(w, http.StatusCreated, entity.ToDTO())
}

// createWithSlug allocates a slug and persists the form, retrying with the
// next free suffix when a concurrent allocation won the probe/write race.
func (h *Handler) createWithSlug(ctx context.Context, entity *Form, base string) error {
	for attempt := 0; attempt < createAttempts; attempt++ {
		slug, err := AllocateSlug(ctx, h.repo, base)
		if err != nil {
			if errors.Is(err, ErrSlugExhausted) {
				return apperr.Validation("could not allocate a unique slug")
			}
			return apperr.Internal("allocate slug", err)
		}

		entity.Slug = slug
		err = h.repo.Create(ctx, entity)
		if err == nil {
			return nil
		}
		if !IsDuplicate(err) {
			return apperr.Internal("create form", err)
		}
	}
	return apperr.Validation("could not allocate a unique slug")
}

func (h *Handler) getForm(w http.ResponseWriter, r *http.Request) {
	entity, err := h.findOwned(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entity.ToDTO())
}

func (h *Handler) updateForm(w http.ResponseWriter, r *http.Request) {
	entity, err := h.findOwned(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	var payload updateFormRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.Error(w, apperr.Validation(err.Error()))
		return
	}

	wasPublished := entity.Status == StatusPublished

	// Partial-document merge: only provided fields change.
	if payload.Title != nil {
		entity.Title = *payload.Title
	}
	if payload.Description != nil {
		entity.Description = *payload.Description
	}
	if payload.Status != nil {
		if !IsValidStatus(*payload.Status) {
			httpx.Error(w, apperr.Validation("invalid status: "+*payload.Status))
			return
		}
		entity.Status = *payload.Status
	}
	if payload.Slug != nil {
		slug := Slugify(*payload.Slug)
		if slug != entity.Slug {
			exists, err := h.repo.SlugExists(r.Context(), slug)
			if err != nil {
				httpx.Error(w, apperr.Internal("probe slug", err))
				return
			}
			if exists {
				httpx.Error(w, apperr.Validation("slug is already taken"))
				return
			}
			entity.Slug = slug
		}
	}
	if payload.Questions != nil {
		entity.Questions = *payload.Questions
	}
	if payload.FormSections != nil {
		entity.FormSections = *payload.FormSections
	}
	if payload.Settings != nil {
		entity.Settings = datatypes.JSONMap(payload.Settings)
	}
	if payload.Theme != nil {
		entity.Theme = datatypes.JSONMap(payload.Theme)
	}
	if payload.WelcomeScreen != nil {
		entity.WelcomeScreen = datatypes.JSONMap(payload.WelcomeScreen)
	}
	if payload.ThankYouScreen != nil {
		entity.ThankYouScreen = datatypes.JSONMap(payload.ThankYouScreen)
	}

	if err := h.repo.Save(r.Context(), entity); err != nil {
		httpx.Error(w, apperr.Internal("update form", err))
		return
	}

	if !wasPublished && entity.Status == StatusPublished {
		h.publisher.Publish(r.Context(), events.FormPublished, entity.ID, map[string]any{
			"formId": entity.ID,
			"slug":   entity.Slug,
		})
	}

	httpx.JSON(w, http.StatusOK, entity.ToDTO())
}

func (h *Handler) deleteForm(w http.ResponseWriter, r *http.Request) {
	entity, err := h.findOwned(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	// Responses go first so a crash between the two deletes cannot leave
	// orphaned responses pointing at a live form.
	if h.purger != nil {
		if _, err := h.purger.DeleteByForm(r.Context(), entity.ID); err != nil {
			httpx.Error(w, apperr.Internal("delete responses", err))
			return
		}
	}

	if err := h.repo.Delete(r.Context(), entity.ID); err != nil {
		if IsNotFound(err) {
			httpx.Error(w, apperr.NotFound("form not found"))
			return
		}
		httpx.Error(w, apperr.Internal("delete form", err))
		return
	}

	h.log.Info("form deleted", zap.String("formId", entity.ID))
	httpx.JSON(w, http.StatusOK, nil)
}

func (h *Handler) duplicateForm(w http.ResponseWriter, r *http.Request) {
	entity, err := h.findOwned(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	clone := entity.Duplicate()
	if err := h.createWithSlug(r.Context(), clone, entity.Slug+"-copy"); err != nil {
		httpx.Error(w, err)
		return
	}

	h.log.Info("form duplicated",
		zap.String("sourceId", entity.ID),
		zap.String("formId", clone.ID),
		zap.String("slug", clone.Slug))
	httpx.JSON(w, http.StatusCreated, clone.ToDTO())
}

// PublicGetBySlug serves the unauthenticated form fetch. Only PUBLISHED
// forms resolve; everything else is indistinguishable from absent.
func (h *Handler) PublicGetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	entity, err := h.repo.FindBySlug(r.Context(), slug)
	if err != nil {
		if IsNotFound(err) {
			httpx.Error(w, apperr.NotFound("form not found"))
			return
		}
		httpx.Error(w, apperr.Internal("fetch form", err))
		return
	}
	if entity.Status != StatusPublished {
		httpx.Error(w, apperr.NotFound("form not found"))
		return
	}

	httpx.JSON(w, http.StatusOK, entity.PublicDTO())
}

// findOwned resolves {id} and applies the access gate.
func (h *Handler) findOwned(r *http.Request) (*Form, error) {
	principal, _ := auth.PrincipalFrom(r.Context())
	id := chi.URLParam(r, "id")

	entity, err := h.repo.Find(r.Context(), id)
	if err != nil {
		if IsNotFound(err) {
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
