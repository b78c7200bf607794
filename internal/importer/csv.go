// Package importer converts external representations (CSV exports,
// sectioned JSON documents) into the form aggregate.
package importer

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/formloom/formloom/internal/apperr"
	"github.com/formloom/formloom/internal/form"
	"github.com/formloom/formloom/internal/question"
	"github.com/formloom/formloom/internal/response"
)

// inferenceRules map header keywords to question types. Rules are checked
// in this fixed order and the first match wins; this ordering is part of
// the import contract.
var inferenceRules = []struct {
	keywords []string
	t        question.Type
}{
	{[]string{"email"}, question.Email},
	{[]string{"phone", "tel"}, question.Phone},
	{[]string{"date", "dob"}, question.Date},
	{[]string{"number", "count", "qty", "amount"}, question.Number},
	{[]string{"address", "description", "comment"}, question.LongText},
	{[]string{"url", "link", "website"}, question.URL},
}

// InferType guesses a question type from a CSV header cell by
// case-insensitive substring match.
func InferType(header string) question.Type {
	lowered := strings.ToLower(header)
	for _, rule := range inferenceRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.t
			}
		}
	}
	return question.ShortText
}

// ParseCSV splits raw text into rows of trimmed fields. A quote toggles
// the in-quotes flag and a comma outside quotes ends the field; escaped
// embedded quotes ("") are not unescaped, a known limitation of the
// format this importer accepts. Fails when fewer than two non-blank
// lines are present: a header alone is not an import.
func ParseCSV(raw string) ([][]string, error) {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < 2 {
		return nil, apperr.Validation("CSV must contain a header row and at least one data row")
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, parseLine(line))
	}
	return rows, nil
}

func parseLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// NormalizeCSV converts parsed CSV content into a draft form plus one
// complete response per data row. Each header cell becomes one question,
// in header order, with its type inferred from the header text. Empty
// cells are omitted from the answer map rather than stored as empty
// strings.
func NormalizeCSV(title, raw string) (*form.Form, []response.Response, error) {
	rows, err := ParseCSV(raw)
	if err != nil {
		return nil, nil, err
	}

	header := rows[0]
	questions := make([]question.Question, 0, len(header))
	for i, cell := range header {
		questions = append(questions, question.Question{
			ID:    "q_" + uuid.NewString(),
			Type:  InferType(cell),
			Title: cell,
			Order: i,
		})
	}

	var responses []response.Response
	for _, row := range rows[1:] {
		data := map[string]any{}
		for i, cell := range row {
			if i >= len(questions) || cell == "" {
				continue
			}
			data[questions[i].ID] = cell
		}
		responses = append(responses, response.Response{
			Data:       datatypes.JSONMap(data),
			IsComplete: true,
		})
	}

	entity := &form.Form{
		Title:     title,
		Status:    form.StatusDraft,
		Questions: questions,
	}
	return entity, responses, nil
}
