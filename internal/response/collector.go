package response

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/formloom/formloom/internal/apperr"
	"github.com/formloom/formloom/internal/events"
	"github.com/formloom/formloom/internal/form"
)

// FormSource resolves forms for the publication gate; form.Repository
// satisfies it.
type FormSource interface {
	Find(ctx context.Context, id string) (*form.Form, error)
}

// Collector accepts public submissions against published forms.
type Collector struct {
	forms     FormSource
	responses Repository
	publisher *events.Publisher
}

// NewCollector constructs a Collector.
func NewCollector(forms FormSource, responses Repository, publisher *events.Publisher) *Collector {
	return &Collector{forms: forms, responses: responses, publisher: publisher}
}

// Submit persists one submission. The form must exist and be PUBLISHED;
// the answer map is stored opaquely with no per-question validation, and
// the response is always complete (no partial-save model).
func (c *Collector) Submit(ctx context.Context, formID string, data, metadata map[string]any, timeSpent int) (*Response, error) {
	entity, err := c.forms.Find(ctx, formID)
	if err != nil {
		if form.IsNotFound(err) {
			return nil, apperr.NotFound("form not found")
		}
		return nil, apperr.Internal("fetch form", err)
	}
	if entity.Status != form.StatusPublished {
		return nil, apperr.Forbidden("form is not accepting responses")
	}

	if metadata == nil {
		metadata = map[string]any{}
	}

	now := time.Now()
	submission := &Response{
		FormID:      formID,
		Data:        datatypes.JSONMap(data),
		IsComplete:  true,
		Metadata:    datatypes.JSONMap(metadata),
		TimeSpent:   timeSpent,
		CompletedAt: &now,
	}
	if err := c.responses.Create(ctx, submission); err != nil {
		return nil, apperr.Internal("create response", err)
	}

	c.publisher.Publish(ctx, events.ResponseSubmitted, submission.ID, map[string]any{
		"responseId": submission.ID,
		"formId":     formID,
	})

	return submission, nil
}
