// Package form holds the form aggregate: metadata, questions or sections,
// status lifecycle and the slug allocator.
package form

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/formloom/formloom/internal/question"
)

// Form status lifecycle. Transitions are deliberately unconstrained: any
// value in the enumeration may be written at any time by an authorized
// principal, and only PUBLISHED forms accept responses.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusClosed    = "CLOSED"
	StatusArchived  = "ARCHIVED"
)

var allowedStatuses = map[string]struct{}{
	StatusDraft:     {},
	StatusPublished: {},
	StatusClosed:    {},
	StatusArchived:  {},
}

// IsValidStatus reports whether s belongs to the status enumeration.
func IsValidStatus(s string) bool {
	_, ok := allowedStatuses[s]
	return ok
}

// Section is a named, ordered grouping of questions within a form.
type Section struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Order       int                 `json:"order"`
	Questions   []question.Question `json:"questions"`
}

// Form is the top-level aggregate. Questions and sections are stored as
// JSONB documents; settings, theme and the screens are opaque blobs the
// core passes through without validation.
type Form struct {
	ID          string `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Status      string `json:"status" gorm:"not null;index"`

	Questions    []question.Question `json:"questions" gorm:"serializer:json;type:jsonb"`
	FormSections []Section           `json:"formSections" gorm:"serializer:json;type:jsonb"`

	Settings       datatypes.JSONMap `json:"settings" gorm:"type:jsonb"`
	Theme          datatypes.JSONMap `json:"theme" gorm:"type:jsonb"`
	WelcomeScreen  datatypes.JSONMap `json:"welcomeScreen" gorm:"type:jsonb"`
	ThankYouScreen datatypes.JSONMap `json:"thankYouScreen" gorm:"type:jsonb"`

	WorkspaceID string `json:"workspaceId" gorm:"type:uuid;not null;index"`
	CreatedByID string `json:"createdById" gorm:"type:uuid;not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate ensures a UUID is present for new records.
func (f *Form) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// MergedQuestions returns the flat question view. When sections exist they
// take precedence: their questions are flattened in section order, each
// annotated with its owning section. Otherwise the stored flat list is
// returned as-is.
func (f Form) MergedQuestions() []question.Question {
	if len(f.FormSections) == 0 {
		return f.Questions
	}

	sections := make([]Section, len(f.FormSections))
	copy(sections, f.FormSections)
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})

	var merged []question.Question
	for _, section := range sections {
		for _, q := range section.Questions {
			q.SectionID = section.ID
			q.SectionTitle = section.Title
			merged = append(merged, q)
		}
	}
	return merged
}

// Duplicate clones the form for the duplicate operation: every field is
// carried over except id, slug and status. The copy always starts DRAFT.
func (f Form) Duplicate() *Form {
	clone := f
	clone.ID = ""
	clone.Slug = ""
	clone.Status = StatusDraft
	clone.CreatedAt = time.Time{}
	clone.UpdatedAt = time.Time{}
	return &clone
}

// ToDTO converts the form into a response-friendly structure. The flat
// questions view is always the merged one.
func (f Form) ToDTO() map[string]any {
	questions := f.MergedQuestions()
	if questions == nil {
		questions = []question.Question{}
	}
	sections := f.FormSections
	if sections == nil {
		sections = []Section{}
	}

	return map[string]any{
		"id":             f.ID,
		"title":          f.Title,
		"description":    f.Description,
		"slug":           f.Slug,
		"status":         f.Status,
		"questions":      questions,
		"formSections":   sections,
		"settings":       mapOrEmpty(f.Settings),
		"theme":          mapOrEmpty(f.Theme),
		"welcomeScreen":  mapOrEmpty(f.WelcomeScreen),
		"thankYouScreen": mapOrEmpty(f.ThankYouScreen),
		"workspaceId":    f.WorkspaceID,
		"createdById":    f.CreatedByID,
		"createdAt":      f.CreatedAt,
		"updatedAt":      f.UpdatedAt,
	}
}

// PublicDTO strips ownership attributes for the unauthenticated fetch.
func (f Form) PublicDTO() map[string]any {
	dto := f.ToDTO()
	delete(dto, "workspaceId")
	delete(dto, "createdById")
	return dto
}

func mapOrEmpty(m datatypes.JSONMap) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return map[string]any(m)
}
