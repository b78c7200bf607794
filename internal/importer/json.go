package importer

import (
	"fmt"
	"strings"

	"github.com/formloom/formloom/internal/form"
	"github.com/formloom/formloom/internal/question"
)

// fieldTypeMap is the fixed lookup from external field types to question
// types. Unrecognised types default to SHORT_TEXT.
var fieldTypeMap = map[string]question.Type{
	"text":     question.ShortText,
	"textarea": question.LongText,
	"number":   question.Number,
	"date":     question.Date,
	"email":    question.Email,
	"tel":      question.Phone,
	"url":      question.URL,
}

// MapFieldType resolves an external field type token.
func MapFieldType(t string) question.Type {
	if mapped, ok := fieldTypeMap[t]; ok {
		return mapped
	}
	return question.ShortText
}

// Document is a sectioned JSON import payload.
type Document struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Sections    []DocSection `json:"sections"`
}

// DocSection groups fields under a named section.
type DocSection struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Fields      []DocField `json:"fields"`
}

// DocField describes one external form field.
type DocField struct {
	Name        string         `json:"name"`
	Label       string         `json:"label"`
	Type        string         `json:"type"`
	Required    bool           `json:"required"`
	Placeholder string         `json:"placeholder"`
	Validation  map[string]any `json:"validation"`
}

// Validate checks the document before any persistence. It collects every
// violation instead of stopping at the first, so a caller gets the full
// list in one round trip.
func (d Document) Validate() []string {
	var violations []string

	if strings.TrimSpace(d.Title) == "" {
		violations = append(violations, "title is required")
	}
	if len(d.Sections) == 0 {
		violations = append(violations, "sections must be a non-empty array")
	}

	for i, section := range d.Sections {
		if strings.TrimSpace(section.ID) == "" {
			violations = append(violations, fmt.Sprintf("sections[%d]: id is required", i))
		}
		if strings.TrimSpace(section.Title) == "" {
			violations = append(violations, fmt.Sprintf("sections[%d]: title is required", i))
		}
		if section.Fields == nil {
			violations = append(violations, fmt.Sprintf("sections[%d]: fields must be an array", i))
		}
		for j, field := range section.Fields {
			if strings.TrimSpace(field.Name) == "" {
				violations = append(violations, fmt.Sprintf("sections[%d].fields[%d]: name is required", i, j))
			}
			if strings.TrimSpace(field.Label) == "" {
				violations = append(violations, fmt.Sprintf("sections[%d].fields[%d]: label is required", i, j))
			}
			if strings.TrimSpace(field.Type) == "" {
				violations = append(violations, fmt.Sprintf("sections[%d].fields[%d]: type is required", i, j))
			}
		}
	}

	return violations
}

// ToForm maps a validated document onto a draft form with one section per
// input section. Question ids are derived as <sectionId>_<fieldName> so
// re-imports of the same document stay stable; imported validation
// constraints are preserved verbatim.
func (d Document) ToForm() *form.Form {
	sections := make([]form.Section, 0, len(d.Sections))
	for i, docSection := range d.Sections {
		questions := make([]question.Question, 0, len(docSection.Fields))
		for j, field := range docSection.Fields {
			questions = append(questions, question.Question{
				ID:          docSection.ID + "_" + field.Name,
				Type:        MapFieldType(field.Type),
				Title:       field.Label,
				Description: field.Placeholder,
				Required:    field.Required,
				Order:       j,
				SectionID:   docSection.ID,
				Validation:  field.Validation,
			})
		}
		sections = append(sections, form.Section{
			ID:          docSection.ID,
			Title:       docSection.Title,
			Description: docSection.Description,
			Order:       i,
			Questions:   questions,
		})
	}

	return &form.Form{
		Title:        strings.TrimSpace(d.Title),
		Description:  strings.TrimSpace(d.Description),
		Status:       form.StatusDraft,
		FormSections: sections,
	}
}
