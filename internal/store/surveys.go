package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"go-photo-gallery/internal/models"
)

// AddSurveyEntry inserts e after checking its folder exists.
func (s *Store) AddSurveyEntry(ctx context.Context, e *models.SurveyEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := folderExists(tx, e.Folder)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrFolderNotFound, e.Folder)
		}
		return tx.Create(e).Error
	})
}

// ListSurveyEntries returns entries in submission order, optionally limited
// to one folder.
func (s *Store) ListSurveyEntries(ctx context.Context, folder string) ([]models.SurveyEntry, error) {
	query := s.db.WithContext(ctx).Model(&models.SurveyEntry{})
	if folder != "" {
		query = query.Where("folder = ?", folder)
	}

	var entries []models.SurveyEntry
	if err := query.Order("rowid ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteSurveyEntry removes exactly the entry with the given id.
func (s *Store) DeleteSurveyEntry(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SurveyEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSurveyNotFound, id)
	}
	return nil
}

// RatingSummaries returns the average rating of every folder with at least
// one entry, in folder creation order.
func (s *Store) RatingSummaries(ctx context.Context) ([]models.RatingSummary, error) {
	var summaries []models.RatingSummary
	err := s.db.WithContext(ctx).
		Table("surveys").
		Select("folders.folder AS folder, folders.name AS name, AVG(surveys.rating) AS average, COUNT(surveys.id) AS count").
		Joins("JOIN folders ON folders.folder = surveys.folder").
		Group("folders.id, folders.folder, folders.name").
		Order("folders.id ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
