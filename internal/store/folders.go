package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"go-photo-gallery/internal/models"
)

// CreateFolder inserts f. An existing slug yields ErrDuplicateFolder and
// leaves the table unchanged.
func (s *Store) CreateFolder(ctx context.Context, f *models.Folder) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := folderExists(tx, f.Folder)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrDuplicateFolder, f.Folder)
		}
		if err := tx.Create(f).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDuplicateFolder, f.Folder)
			}
			return err
		}
		return nil
	})
}

func (s *Store) GetFolder(ctx context.Context, slug string) (*models.Folder, error) {
	var folder models.Folder
	err := s.db.WithContext(ctx).Where("folder = ?", slug).First(&folder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// ListFolders returns folders whose name, slug, profession or category
// contains search, ignoring case. An empty search matches everything.
func (s *Store) ListFolders(ctx context.Context, search string) ([]models.Folder, error) {
	query := s.db.WithContext(ctx).Model(&models.Folder{})

	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(folder) LIKE ? ESCAPE '\\' OR LOWER(profession) LIKE ? ESCAPE '\\' OR LOWER(category) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern, pattern,
		)
	}

	var folders []models.Folder
	if err := query.Order("id ASC").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// GroupByCategory groups folders for tab display, keeping first-seen order.
func GroupByCategory(folders []models.Folder) []models.CategoryGroup {
	var groups []models.CategoryGroup
	index := make(map[string]int)
	for _, f := range folders {
		i, ok := index[f.Category]
		if !ok {
			i = len(groups)
			index[f.Category] = i
			groups = append(groups, models.CategoryGroup{Category: f.Category})
		}
		groups[i].Folders = append(groups[i].Folders, f)
	}
	return groups
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
