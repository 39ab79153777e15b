package gallery

import (
	"context"
	"strings"

	"go-photo-gallery/internal/logging"
	"go-photo-gallery/internal/models"
	"go-photo-gallery/internal/store"
	"go-photo-gallery/internal/validation"
)

type FolderInput struct {
	Folder     string `json:"folder" validate:"required,slug"`
	Name       string `json:"name" validate:"required,max=100"`
	Age        int    `json:"age" validate:"gt=0"`
	Profession string `json:"profession" validate:"required,max=100"`
	Category   string `json:"category" validate:"required,max=50"`
}

func (in *FolderInput) sanitize() {
	in.Folder = strings.TrimSpace(in.Folder)
	in.Name = strings.TrimSpace(in.Name)
	in.Profession = strings.TrimSpace(in.Profession)
	in.Category = strings.TrimSpace(in.Category)
}

// AddFolder creates a folder. An existing slug fails with
// store.ErrDuplicateFolder and nothing is written.
func (s *Service) AddFolder(ctx context.Context, in FolderInput) (*models.Folder, *CommitResult, error) {
	in.sanitize()
	if err := validation.ValidateStruct(in); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder := &models.Folder{
		Folder:     in.Folder,
		Name:       in.Name,
		Age:        in.Age,
		Profession: in.Profession,
		Category:   in.Category,
	}
	if err := s.store.CreateFolder(ctx, folder); err != nil {
		return nil, nil, err
	}
	logging.With("gallery").Info().Str("folder", folder.Folder).Msg("folder created")

	commit, err := s.commit(ctx, true)
	return folder, commit, err
}

func (s *Service) GetFolder(ctx context.Context, slug string) (*models.Folder, error) {
	return s.store.GetFolder(ctx, slug)
}

func (s *Service) ListFolders(ctx context.Context, search string) ([]models.Folder, error) {
	return s.store.ListFolders(ctx, strings.TrimSpace(search))
}

// Categories groups the folders matching search by category, in the order
// each category first appears.
func (s *Service) Categories(ctx context.Context, search string) ([]models.CategoryGroup, error) {
	folders, err := s.ListFolders(ctx, search)
	if err != nil {
		return nil, err
	}
	return store.GroupByCategory(folders), nil
}
