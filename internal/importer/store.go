package importer

import (
	"context"

	"gorm.io/gorm"

	"github.com/formloom/formloom/internal/form"
	"github.com/formloom/formloom/internal/response"
)

// Store persists import results. Form and derived responses land in one
// transaction: an import never leaves a form without its responses or
// responses without their form.
type Store interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateFormWithResponses(ctx context.Context, entity *form.Form, responses []response.Response) error
}

// GormStore implements Store over a GORM connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a transactional import store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// SlugExists reports whether any form already holds the slug.
func (s *GormStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&form.Form{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateFormWithResponses writes the form and its derived responses
// atomically.
func (s *GormStore) CreateFormWithResponses(ctx context.Context, entity *form.Form, responses []response.Response) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		if len(responses) == 0 {
			return nil
		}
		for i := range responses {
			responses[i].FormID = entity.ID
		}
		return tx.Create(&responses).Error
	})
}
