package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"go-photo-gallery/internal/models"
)

// AddImage inserts img after checking its folder exists.
func (s *Store) AddImage(ctx context.Context, img *models.Image) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := folderExists(tx, img.Folder)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrFolderNotFound, img.Folder)
		}
		if err := tx.Create(img).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDuplicateImage, img.Name)
			}
			return err
		}
		return nil
	})
}

func (s *Store) GetImage(ctx context.Context, folder, name string) (*models.Image, error) {
	var img models.Image
	err := s.db.WithContext(ctx).Where("folder = ? AND name = ?", folder, name).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrImageNotFound, folder, name)
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// ListImages returns the images of folder without their blobs.
func (s *Store) ListImages(ctx context.Context, folder string) ([]models.ImageSummary, error) {
	var rows []struct {
		Name            string
		Folder          string
		Size            int
		DownloadAllowed bool
	}
	err := s.db.WithContext(ctx).Model(&models.Image{}).
		Select("name, folder, LENGTH(image_data) AS size, download_allowed").
		Where("folder = ?", folder).
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ImageSummary, 0, len(rows))
	for _, r := range rows {
		summary := models.NewImageSummary(models.Image{Name: r.Name, Folder: r.Folder, DownloadAllowed: r.DownloadAllowed})
		summary.Size = r.Size
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ReplaceImageData swaps the blob of an existing image in place.
func (s *Store) ReplaceImageData(ctx context.Context, folder, name string, data []byte) error {
	return s.updateImage(ctx, folder, name, "image_data", data)
}

func (s *Store) SetDownloadAllowed(ctx context.Context, folder, name string, allowed bool) error {
	return s.updateImage(ctx, folder, name, "download_allowed", allowed)
}

func (s *Store) updateImage(ctx context.Context, folder, name, column string, value interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.Image{}).
		Where("folder = ? AND name = ?", folder, name).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrImageNotFound, folder, name)
	}
	return nil
}

func (s *Store) DeleteImage(ctx context.Context, folder, name string) error {
	result := s.db.WithContext(ctx).Where("folder = ? AND name = ?", folder, name).Delete(&models.Image{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrImageNotFound, folder, name)
	}
	return nil
}
