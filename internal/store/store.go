// Package store is the relational layer over folders, images and survey entries.
//
// Referential integrity between images/surveys and folders is checked here,
// inside the same transaction as the insert, rather than declared in the schema.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go-photo-gallery/database/migrations"
	"go-photo-gallery/internal/models"
)

var (
	// ErrDuplicateFolder is the integrity error for an existing slug.
	ErrDuplicateFolder = errors.New("folder already exists")
	ErrFolderNotFound  = errors.New("folder not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrSurveyNotFound  = errors.New("survey entry not found")
	ErrDuplicateImage  = errors.New("image already exists in folder")
)

// DefaultFolders are inserted on boot when missing.
var DefaultFolders = []models.Folder{
	{Folder: "sarika", Name: "Sarika", Age: 28, Profession: "Photographer", Category: "Artists"},
	{Folder: "jamuna", Name: "Jamuna", Age: 32, Profession: "Sculptor", Category: "Artists"},
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the handle for the backup package, which reads and rebuilds
// whole tables.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// EnsureSchema creates any missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return migrations.Migrate(s.db.WithContext(ctx))
}

// SeedDefaults inserts DefaultFolders that are not present yet. It returns
// the number of folders created.
func (s *Store) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, f := range DefaultFolders {
			var count int64
			if err := tx.Model(&models.Folder{}).Where("folder = ?", f.Folder).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			folder := f
			if err := tx.Create(&folder).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, err
}

func folderExists(tx *gorm.DB, slug string) (bool, error) {
	var count int64
	if err := tx.Model(&models.Folder{}).Where("folder = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
