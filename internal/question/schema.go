// Package question defines the closed set of question types and the
// default attributes that seed a newly created question.
package question

import "github.com/google/uuid"

// Type enumerates every supported question type.
type Type string

const (
	ShortText      Type = "SHORT_TEXT"
	LongText       Type = "LONG_TEXT"
	Email          Type = "EMAIL"
	URL            Type = "URL"
	Phone          Type = "PHONE"
	Number         Type = "NUMBER"
	SingleChoice   Type = "SINGLE_CHOICE"
	MultipleChoice Type = "MULTIPLE_CHOICE"
	Dropdown       Type = "DROPDOWN"
	LinearScale    Type = "LINEAR_SCALE"
	StarRating     Type = "STAR_RATING"
	NPS            Type = "NPS"
	Slider         Type = "SLIDER"
	MatrixSingle   Type = "MATRIX_SINGLE"
	MatrixMultiple Type = "MATRIX_MULTIPLE"
	Ranking        Type = "RANKING"
	Date           Type = "DATE"
	Time           Type = "TIME"
	DateTime       Type = "DATETIME"
	FileUpload     Type = "FILE_UPLOAD"
	ImageChoice    Type = "IMAGE_CHOICE"
	Signature      Type = "SIGNATURE"
	Address        Type = "ADDRESS"
	Consent        Type = "CONSENT"
)

// AllTypes lists the enumeration in display order.
var AllTypes = []Type{
	ShortText, LongText, Email, URL, Phone, Number,
	SingleChoice, MultipleChoice, Dropdown,
	LinearScale, StarRating, NPS, Slider,
	MatrixSingle, MatrixMultiple, Ranking,
	Date, Time, DateTime,
	FileUpload, ImageChoice, Signature, Address, Consent,
}

var knownTypes = func() map[Type]struct{} {
	set := make(map[Type]struct{}, len(AllTypes))
	for _, t := range AllTypes {
		set[t] = struct{}{}
	}
	return set
}()

// IsKnown reports whether t belongs to the closed enumeration.
func IsKnown(t Type) bool {
	_, ok := knownTypes[t]
	return ok
}

// Choice is one selectable option of a choice-style question.
type Choice struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Question is one respondent-facing prompt. Type-specific attributes are
// present only for matching types; everything else stays at its zero value
// and is omitted from JSON.
type Question struct {
	ID          string `json:"id"`
	Type        Type   `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`

	Choices []Choice `json:"choices,omitempty"`

	Min      *int   `json:"min,omitempty"`
	Max      *int   `json:"max,omitempty"`
	MinLabel string `json:"minLabel,omitempty"`
	MaxLabel string `json:"maxLabel,omitempty"`

	Rows    []string `json:"rows,omitempty"`
	Columns []string `json:"columns,omitempty"`

	MaxFileSize  *int64   `json:"maxFileSize,omitempty"`
	MaxFiles     *int     `json:"maxFiles,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty"`

	ConsentText string `json:"consentText,omitempty"`

	// Order is explicit only for questions imported inside sections;
	// elsewhere display order is array position.
	Order        int    `json:"order,omitempty"`
	SectionID    string `json:"sectionId,omitempty"`
	SectionTitle string `json:"sectionTitle,omitempty"`

	// Validation carries imported constraints (min/max/pattern/minLength/
	// maxLength) verbatim; the server never interprets them.
	Validation map[string]any `json:"validation,omitempty"`
}

// New seeds a question of the given type with its default attributes.
// Unknown types yield a minimal question with no type-specific attributes
// rather than an error: the enumeration is closed, but newer clients may
// send values this server predates.
func New(t Type) Question {
	q := Question{
		ID:   "q_" + uuid.NewString(),
		Type: t,
	}

	switch t {
	case SingleChoice, MultipleChoice, Dropdown, ImageChoice, Ranking:
		q.Choices = []Choice{
			{ID: uuid.NewString(), Label: "Option 1"},
			{ID: uuid.NewString(), Label: "Option 2"},
		}
	case LinearScale, StarRating, Slider:
		q.Min = intPtr(1)
		q.Max = intPtr(5)
	case NPS:
		q.Min = intPtr(0)
		q.Max = intPtr(10)
	case MatrixSingle, MatrixMultiple:
		q.Rows = []string{"Row 1", "Row 2"}
		q.Columns = []string{"Column 1", "Column 2"}
	case FileUpload:
		q.MaxFiles = intPtr(1)
	case Consent:
		q.ConsentText = "I agree"
	}

	return q
}

func intPtr(v int) *int { return &v }
