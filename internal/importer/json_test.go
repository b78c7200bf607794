package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloom/formloom/internal/form"
	"github.com/formloom/formloom/internal/question"
)

func validDocument() Document {
	return Document{
		Title: "Registration",
		Sections: []DocSection{
			{
				ID:    "personal",
				Title: "Personal",
				Fields: []DocField{
					{Name: "full_name", Label: "Full Name", Type: "text", Required: true},
					{Name: "email", Label: "Email", Type: "email", Placeholder: "you@example.com"},
				},
			},
			{
				ID:    "details",
				Title: "Details",
				Fields: []DocField{
					{Name: "bio", Label: "Bio", Type: "textarea",
						Validation: map[string]any{"maxLength": float64(500)}},
				},
			},
		},
	}
}

func TestValidateAcceptsCompleteDocument(t *testing.T) {
	assert.Empty(t, validDocument().Validate())
}

func TestValidateCollectsAllViolations(t *testing.T) {
	doc := Document{
		Sections: []DocSection{
			{ID: "a", Fields: []DocField{{Label: "X", Type: "text"}}},
			{Title: "B"},
		},
	}

	violations := doc.Validate()

	assert.Contains(t, violations, "title is required")
	assert.Contains(t, violations, "sections[0]: title is required")
	assert.Contains(t, violations, "sections[0].fields[0]: name is required")
	assert.Contains(t, violations, "sections[1]: id is required")
	assert.Contains(t, violations, "sections[1]: fields must be an array")
	assert.Len(t, violations, 5)
}

func TestValidateEmptyDocument(t *testing.T) {
	violations := Document{}.Validate()

	assert.Contains(t, violations, "title is required")
	assert.Contains(t, violations, "sections must be a non-empty array")
}

func TestMapFieldType(t *testing.T) {
	assert.Equal(t, question.ShortText, MapFieldType("text"))
	assert.Equal(t, question.LongText, MapFieldType("textarea"))
	assert.Equal(t, question.Number, MapFieldType("number"))
	assert.Equal(t, question.Date, MapFieldType("date"))
	assert.Equal(t, question.Email, MapFieldType("email"))
	assert.Equal(t, question.Phone, MapFieldType("tel"))
	assert.Equal(t, question.URL, MapFieldType("url"))
	assert.Equal(t, question.ShortText, MapFieldType("mystery"))
}

func TestToForm(t *testing.T) {
	entity := validDocument().ToForm()

	assert.Equal(t, "Registration", entity.Title)
	assert.Equal(t, form.StatusDraft, entity.Status)
	require.Len(t, entity.FormSections, 2)

	personal := entity.FormSections[0]
	assert.Equal(t, "personal", personal.ID)
	assert.Equal(t, 0, personal.Order)
	require.Len(t, personal.Questions, 2)

	name := personal.Questions[0]
	assert.Equal(t, "personal_full_name", name.ID)
	assert.Equal(t, question.ShortText, name.Type)
	assert.Equal(t, "Full Name", name.Title)
	assert.True(t, name.Required)
	assert.Equal(t, "personal", name.SectionID)

	email := personal.Questions[1]
	assert.Equal(t, "personal_email", email.ID)
	assert.Equal(t, question.Email, email.Type)
	assert.Equal(t, "you@example.com", email.Description)

	bio := entity.FormSections[1].Questions[0]
	assert.Equal(t, "details_bio", bio.ID)
	assert.Equal(t, map[string]any{"maxLength": float64(500)}, bio.Validation)
	assert.Equal(t, 1, entity.FormSections[1].Order)

	// The flat view is derived from sections.
	merged := entity.MergedQuestions()
	require.Len(t, merged, 3)
	assert.Equal(t, "Personal", merged[0].SectionTitle)
}
