package backup

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"go-photo-gallery/internal/models"
)

// Snapshot is the full content of the store at one instant.
type Snapshot struct {
	Folders []FolderRecord `json:"folders"`
	Images  []ImageRecord  `json:"images"`
	Surveys []SurveyRecord `json:"surveys"`
}

type FolderRecord struct {
	Folder     string `json:"folder"`
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Profession string `json:"profession"`
	Category   string `json:"category"`
}

type ImageRecord struct {
	Name            string `json:"name"`
	Folder          string `json:"folder"`
	ImageData       string `json:"image_data"`
	DownloadAllowed int    `json:"download_allowed"`
}

type SurveyRecord struct {
	ID        string  `json:"id"`
	Folder    string  `json:"folder"`
	Rating    int     `json:"rating"`
	Feedback  *string `json:"feedback"`
	Timestamp string  `json:"timestamp"`
}

// Serialize reads every row of the three tables. Rows keep insertion order, so
// an unchanged store always produces the same snapshot.
func Serialize(ctx context.Context, db *gorm.DB) (*Snapshot, error) {
	db = db.WithContext(ctx)

	var folders []models.Folder
	if err := db.Order("id ASC").Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("failed to read folders: %w", err)
	}
	var images []models.Image
	if err := db.Order("id ASC").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to read images: %w", err)
	}
	var surveys []models.SurveyEntry
	if err := db.Order("rowid ASC").Find(&surveys).Error; err != nil {
		return nil, fmt.Errorf("failed to read surveys: %w", err)
	}

	snap := &Snapshot{
		Folders: make([]FolderRecord, 0, len(folders)),
		Images:  make([]ImageRecord, 0, len(images)),
		Surveys: make([]SurveyRecord, 0, len(surveys)),
	}
	for _, f := range folders {
		snap.Folders = append(snap.Folders, FolderRecord{
			Folder:     f.Folder,
			Name:       f.Name,
			Age:        f.Age,
			Profession: f.Profession,
			Category:   f.Category,
		})
	}
	for _, img := range images {
		allowed := 0
		if img.DownloadAllowed {
			allowed = 1
		}
		snap.Images = append(snap.Images, ImageRecord{
			Name:            img.Name,
			Folder:          img.Folder,
			ImageData:       base64.StdEncoding.EncodeToString(img.ImageData),
			DownloadAllowed: allowed,
		})
	}
	for _, s := range surveys {
		snap.Surveys = append(snap.Surveys, SurveyRecord{
			ID:        s.ID,
			Folder:    s.Folder,
			Rating:    s.Rating,
			Feedback:  s.Feedback,
			Timestamp: s.Timestamp,
		})
	}
	return snap, nil
}

// Encode returns the canonical JSON form of snap.
func Encode(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// WriteSnapshot writes snap to path, creating the directory when needed. The
// file is replaced atomically so a crash never leaves a truncated snapshot.
func WriteSnapshot(snap *Snapshot, path string) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
