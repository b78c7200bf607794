// Package response collects respondent submissions against published forms.
package response

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Response is one respondent submission. Data maps question ids to answer
// values and is stored opaquely: the server performs no per-question type
// validation at write time, by contract.
type Response struct {
	ID          string            `json:"id" gorm:"type:uuid;primaryKey"`
	FormID      string            `json:"formId" gorm:"type:uuid;not null;index"`
	Data        datatypes.JSONMap `json:"data" gorm:"type:jsonb"`
	IsComplete  bool              `json:"isComplete"`
	Metadata    datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	TimeSpent   int               `json:"timeSpent"`
	CreatedAt   time.Time         `json:"createdAt"`
	CompletedAt *time.Time        `json:"completedAt"`
}

// BeforeCreate assigns a UUID when missing.
func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ToDTO converts the response into a serialisable map.
func (r Response) ToDTO() map[string]any {
	dto := map[string]any{
		"id":         r.ID,
		"formId":     r.FormID,
		"data":       mapOrEmpty(r.Data),
		"isComplete": r.IsComplete,
		"metadata":   mapOrEmpty(r.Metadata),
		"timeSpent":  r.TimeSpent,
		"createdAt":  r.CreatedAt,
	}
	if r.CompletedAt != nil {
		dto["completedAt"] = r.CompletedAt
	}
	return dto
}

func mapOrEmpty(m datatypes.JSONMap) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return map[string]any(m)
}
